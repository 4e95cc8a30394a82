package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle represents a single OHLC bar. Time is the bucket open time in UTC.
type Candle struct {
	Time  time.Time       `json:"time"`
	Open  decimal.Decimal `json:"open"`
	High  decimal.Decimal `json:"high"`
	Low   decimal.Decimal `json:"low"`
	Close decimal.Decimal `json:"close"`
}

// CandleSequence is a chronologically ordered run of candles as returned by one fetch.
// A sequence is replaced as a whole; it is never mutated after construction.
type CandleSequence []Candle

// Last returns the trailing n candles, or the whole sequence when it is shorter.
func (s CandleSequence) Last(n int) CandleSequence {
	if n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}

// Closes extracts close prices in order.
func (s CandleSequence) Closes() []decimal.Decimal {
	out := make([]decimal.Decimal, len(s))
	for i, c := range s {
		out[i] = c.Close
	}
	return out
}

// Opens extracts open prices in order.
func (s CandleSequence) Opens() []decimal.Decimal {
	out := make([]decimal.Decimal, len(s))
	for i, c := range s {
		out[i] = c.Open
	}
	return out
}

// TickerSnapshot holds rolling 24h statistics for one provider symbol.
type TickerSnapshot struct {
	Symbol             string          `json:"symbol"`
	LastPrice          decimal.Decimal `json:"last_price"`
	PriceChangePercent decimal.Decimal `json:"price_change_percent"`
	LowPrice           decimal.Decimal `json:"low_price"`
	HighPrice          decimal.Decimal `json:"high_price"`
}
