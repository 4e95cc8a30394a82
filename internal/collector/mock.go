package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"CandleWatch/internal/model"

	"github.com/shopspring/decimal"
)

// KlineCall records one FetchKlines invocation on a MockFetcher.
type KlineCall struct {
	Symbol   string
	Interval model.Timeframe
	Limit    int
}

// MockFetcher returns controllable data for development and testing.
// Rows maps a requested limit to the number of candles to return; a missing entry
// returns limit candles. Errors maps a limit to a failure for that attempt.
type MockFetcher struct {
	Price   float64
	Rows    map[int]int
	Errors  map[int]error
	Tickers map[string]model.TickerSnapshot
	// TickerErrors forces FetchTicker failures per symbol.
	TickerErrors map[string]error
	// Hook runs before any response is produced; tests use it to block or observe.
	Hook func(ctx context.Context, op, symbol string)

	mu    sync.Mutex
	calls []KlineCall
}

func (m *MockFetcher) Name() string { return "mock" }

// KlineCalls returns a copy of the recorded FetchKlines calls.
func (m *MockFetcher) KlineCalls() []KlineCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]KlineCall, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MockFetcher) FetchKlines(ctx context.Context, symbol string, interval model.Timeframe, limit int) (model.CandleSequence, error) {
	m.mu.Lock()
	m.calls = append(m.calls, KlineCall{Symbol: symbol, Interval: interval, Limit: limit})
	m.mu.Unlock()

	if m.Hook != nil {
		m.Hook(ctx, opKlines, symbol)
	}
	if err, ok := m.Errors[limit]; ok && err != nil {
		return nil, err
	}
	n := limit
	if rows, ok := m.Rows[limit]; ok {
		n = rows
	}
	return GenerateCandles(m.price(), n), nil
}

func (m *MockFetcher) FetchTicker(ctx context.Context, symbol string) (model.TickerSnapshot, error) {
	if m.Hook != nil {
		m.Hook(ctx, opTicker, symbol)
	}
	if err, ok := m.TickerErrors[symbol]; ok && err != nil {
		return model.TickerSnapshot{}, err
	}
	if snap, ok := m.Tickers[symbol]; ok {
		return snap, nil
	}
	p := decimal.NewFromFloat(m.price())
	return model.TickerSnapshot{
		Symbol:             symbol,
		LastPrice:          p,
		PriceChangePercent: decimal.Zero,
		LowPrice:           p.Mul(decimal.NewFromFloat(0.99)),
		HighPrice:          p.Mul(decimal.NewFromFloat(1.01)),
	}, nil
}

func (m *MockFetcher) price() float64 {
	if m.Price == 0 {
		return 100
	}
	return m.Price
}

// GenerateCandles builds count hourly candles drifting gently upward from basePrice.
func GenerateCandles(basePrice float64, count int) model.CandleSequence {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seq := make(model.CandleSequence, count)
	for i := 0; i < count; i++ {
		p := decimal.NewFromFloat(basePrice * (1 + float64(i-count/2)*0.001))
		seq[i] = model.Candle{
			Time:  start.Add(time.Duration(i) * time.Hour),
			Open:  p.Mul(decimal.NewFromFloat(0.999)),
			High:  p.Mul(decimal.NewFromFloat(1.005)),
			Low:   p.Mul(decimal.NewFromFloat(0.995)),
			Close: p,
		}
	}
	return seq
}

var _ Fetcher = (*MockFetcher)(nil)

// ErrMockUnavailable is a ready-made transport failure for tests.
var ErrMockUnavailable = &ProviderError{Op: "mock", Err: fmt.Errorf("provider unavailable")}
