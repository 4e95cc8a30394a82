package collector

import (
	"context"

	"CandleWatch/internal/model"
)

// Fetcher defines the interface for fetching market data from a provider.
type Fetcher interface {
	FetchTicker(ctx context.Context, symbol string) (model.TickerSnapshot, error)
	FetchKlines(ctx context.Context, symbol string, interval model.Timeframe, limit int) (model.CandleSequence, error)
	Name() string
}
