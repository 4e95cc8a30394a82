package model

import "github.com/shopspring/decimal"

// TrendCategory is the short-term trend classification of a candle window.
type TrendCategory string

const (
	TrendRising           TrendCategory = "rising"
	TrendFalling          TrendCategory = "falling"
	TrendConsolidating    TrendCategory = "consolidating"
	TrendMixed            TrendCategory = "mixed"
	TrendInsufficientData TrendCategory = "insufficient-data"
)

// TrendVerdict is recomputed every cycle from the current sequence only.
type TrendVerdict struct {
	Category  TrendCategory
	PctChange decimal.Decimal // last close vs previous close, in percent
	Narrative string
}
