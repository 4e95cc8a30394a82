package collector

import (
	"errors"
	"fmt"
)

// ErrMalformed marks a response that arrived but could not be understood.
var ErrMalformed = errors.New("malformed response")

// ProviderError wraps every failure at the provider boundary: transport errors,
// non-2xx statuses and bodies that do not parse.
type ProviderError struct {
	Op     string
	Symbol string
	Status int
	Err    error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Op, e.Symbol, e.Status, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Symbol, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func malformed(op, symbol, format string, args ...any) *ProviderError {
	return &ProviderError{
		Op:     op,
		Symbol: symbol,
		Err:    fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...)),
	}
}
