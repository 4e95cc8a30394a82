package collector

import (
	"context"
	"time"

	"CandleWatch/internal/model"

	"go.uber.org/zap"
)

// LimitPlan is the two-step candle request strategy: ask for Primary candles and,
// when that fails or returns fewer than MinRows, ask once more for Fallback.
type LimitPlan struct {
	Primary  int
	Fallback int
	MinRows  int
}

// DefaultLimitPlan asks for 200 candles, falling back to 20 below 5 rows.
var DefaultLimitPlan = LimitPlan{Primary: 200, Fallback: 20, MinRows: 5}

func (p LimitPlan) attempts() []int {
	return []int{p.Primary, p.Fallback}
}

// Metrics receives gateway instrumentation.
type Metrics interface {
	RecordFetch(op, symbol string, seconds float64, err error)
	RecordFallback(symbol string)
}

type nopMetrics struct{}

func (nopMetrics) RecordFetch(string, string, float64, error) {}
func (nopMetrics) RecordFallback(string)                      {}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithPlan overrides the candle limit strategy.
func WithPlan(p LimitPlan) GatewayOption {
	return func(g *Gateway) { g.plan = p }
}

// WithLogger sets the gateway logger.
func WithLogger(l *zap.Logger) GatewayOption {
	return func(g *Gateway) { g.log = l }
}

// WithMetrics sets the gateway metrics sink.
func WithMetrics(m Metrics) GatewayOption {
	return func(g *Gateway) { g.metrics = m }
}

// Gateway is the market data entry point used by refresh cycles. It owns the
// fallback policy for candles and never caches between calls.
type Gateway struct {
	fetcher Fetcher
	plan    LimitPlan
	log     *zap.Logger
	metrics Metrics
}

// NewGateway creates a Gateway over fetcher.
func NewGateway(fetcher Fetcher, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		fetcher: fetcher,
		plan:    DefaultLimitPlan,
		log:     zap.NewNop(),
		metrics: nopMetrics{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Plan returns the active limit strategy.
func (g *Gateway) Plan() LimitPlan { return g.plan }

// FetchTicker fetches one 24h snapshot. Failures are returned as *ProviderError.
func (g *Gateway) FetchTicker(ctx context.Context, symbol string) (model.TickerSnapshot, error) {
	start := time.Now()
	snap, err := g.fetcher.FetchTicker(ctx, symbol)
	g.metrics.RecordFetch(opTicker, symbol, time.Since(start).Seconds(), err)
	return snap, err
}

// FetchCandles returns the candle sequence for symbol/interval following the limit plan.
// It never fails: when both attempts error or come back degenerate the result is an
// empty sequence, which callers read as "no data yet".
func (g *Gateway) FetchCandles(ctx context.Context, symbol string, interval model.Timeframe) model.CandleSequence {
	log := g.log.With(zap.String("symbol", symbol), zap.String("interval", string(interval)))

	for i, limit := range g.plan.attempts() {
		if i > 0 {
			g.metrics.RecordFallback(symbol)
			log.Debug("candle fallback", zap.Int("limit", limit))
		}

		start := time.Now()
		seq, err := g.fetcher.FetchKlines(ctx, symbol, interval, limit)
		g.metrics.RecordFetch(opKlines, symbol, time.Since(start).Seconds(), err)

		switch {
		case err != nil:
			log.Warn("fetch candles failed", zap.Int("limit", limit), zap.Error(err))
		case len(seq) < g.plan.MinRows:
			log.Warn("too few candles", zap.Int("limit", limit), zap.Int("rows", len(seq)), zap.Int("min_rows", g.plan.MinRows))
		default:
			return seq
		}

		if ctx.Err() != nil {
			break
		}
	}
	return model.CandleSequence{}
}
