package calculator

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// PercentChange returns (last - prev) / prev * 100. A zero base yields zero.
func PercentChange(prev, last decimal.Decimal) decimal.Decimal {
	if prev.IsZero() {
		return decimal.Zero
	}
	return last.Sub(prev).Div(prev).Mul(hundred)
}

// StrictlyIncreasing reports whether every value is greater than the one before it.
// Sequences shorter than two values are not considered increasing.
func StrictlyIncreasing(values []decimal.Decimal) bool {
	if len(values) < 2 {
		return false
	}
	for i := 1; i < len(values); i++ {
		if !values[i].GreaterThan(values[i-1]) {
			return false
		}
	}
	return true
}

// Range scans the sequence and returns its lowest and highest value.
func Range(values []decimal.Decimal) (low, high decimal.Decimal, ok bool) {
	if len(values) == 0 {
		return decimal.Zero, decimal.Zero, false
	}
	low, high = values[0], values[0]
	for _, v := range values[1:] {
		if v.LessThan(low) {
			low = v
		}
		if v.GreaterThan(high) {
			high = v
		}
	}
	return low, high, true
}
