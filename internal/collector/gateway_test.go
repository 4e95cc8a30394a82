package collector

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"
)

func newTestGateway(t *testing.T, m *MockFetcher) *Gateway {
	return NewGateway(m, WithLogger(zaptest.NewLogger(t)))
}

func TestFetchCandles_PrimaryEnough(t *testing.T) {
	m := &MockFetcher{Rows: map[int]int{200: 50}}
	seq := newTestGateway(t, m).FetchCandles(context.Background(), "BTCUSDT", "4h")
	if len(seq) != 50 {
		t.Fatalf("expected 50 candles, got %d", len(seq))
	}
	calls := m.KlineCalls()
	if len(calls) != 1 {
		t.Fatalf("expected no fallback, got %d calls", len(calls))
	}
	if calls[0].Limit != 200 {
		t.Errorf("expected primary limit 200, got %d", calls[0].Limit)
	}
}

func TestFetchCandles_FallbackOnFewRows(t *testing.T) {
	for _, rows := range []int{0, 3} {
		m := &MockFetcher{Rows: map[int]int{200: rows}}
		seq := newTestGateway(t, m).FetchCandles(context.Background(), "BTCUSDT", "4h")
		calls := m.KlineCalls()
		if len(calls) != 2 {
			t.Fatalf("rows=%d: expected exactly one fallback, got %d calls", rows, len(calls))
		}
		if calls[1].Limit != 20 {
			t.Errorf("rows=%d: expected fallback limit 20, got %d", rows, calls[1].Limit)
		}
		if len(seq) != 20 {
			t.Errorf("rows=%d: expected fallback result of 20, got %d", rows, len(seq))
		}
	}
}

func TestFetchCandles_FallbackOnError(t *testing.T) {
	m := &MockFetcher{Errors: map[int]error{200: ErrMockUnavailable}}
	seq := newTestGateway(t, m).FetchCandles(context.Background(), "ETHUSDT", "1h")
	if len(m.KlineCalls()) != 2 {
		t.Fatalf("expected fallback after error, got %d calls", len(m.KlineCalls()))
	}
	if len(seq) != 20 {
		t.Errorf("expected 20 candles from fallback, got %d", len(seq))
	}
}

func TestFetchCandles_BothFailReturnsEmpty(t *testing.T) {
	m := &MockFetcher{
		Errors: map[int]error{200: ErrMockUnavailable},
		Rows:   map[int]int{20: 2},
	}
	seq := newTestGateway(t, m).FetchCandles(context.Background(), "ETHUSDT", "1h")
	if seq == nil || len(seq) != 0 {
		t.Fatalf("expected empty non-nil sequence, got %v", seq)
	}
	if len(m.KlineCalls()) != 2 {
		t.Errorf("expected exactly two attempts, got %d", len(m.KlineCalls()))
	}
}

func TestFetchCandles_CustomPlan(t *testing.T) {
	m := &MockFetcher{Rows: map[int]int{50: 1}}
	g := NewGateway(m, WithPlan(LimitPlan{Primary: 50, Fallback: 10, MinRows: 2}))
	seq := g.FetchCandles(context.Background(), "BTCBRL", "1d")
	if len(seq) != 10 {
		t.Fatalf("expected 10 candles, got %d", len(seq))
	}
}

func TestFetchTicker_PassesProviderError(t *testing.T) {
	m := &MockFetcher{TickerErrors: map[string]error{"USDTBRL": ErrMockUnavailable}}
	_, err := newTestGateway(t, m).FetchTicker(context.Background(), "USDTBRL")
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
}
