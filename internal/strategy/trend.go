package strategy

import (
	"CandleWatch/internal/calculator"
	"CandleWatch/internal/model"

	"github.com/shopspring/decimal"
)

// Window is the number of trailing candles the classifier looks at.
const Window = 4

// Threshold is the percent move separating a directional verdict from consolidation.
var Threshold = decimal.NewFromFloat(0.5)

// window is the derived view of the last Window candles that the rules evaluate.
type window struct {
	pct          decimal.Decimal
	risingCloses bool
	risingOpens  bool
}

// rules is the priority-ordered classification table; the first match wins.
var rules = []struct {
	Category model.TrendCategory
	Match    func(w window) bool
}{
	{model.TrendRising, func(w window) bool {
		return w.pct.GreaterThan(Threshold) && w.risingCloses && w.risingOpens
	}},
	{model.TrendFalling, func(w window) bool {
		return w.pct.LessThan(Threshold.Neg()) && !w.risingCloses && !w.risingOpens
	}},
	{model.TrendConsolidating, func(w window) bool {
		return w.pct.Abs().LessThanOrEqual(Threshold)
	}},
}

// Narratives holds the fixed sentence shown for each category.
var Narratives = map[model.TrendCategory]string{
	model.TrendRising: "Uptrend: higher highs and higher lows with closes above the last candles. " +
		"The market favours buying with proper risk management.",
	model.TrendFalling: "Selling pressure: closes are breaking recent supports. " +
		"Favour protecting long positions or selling setups.",
	model.TrendConsolidating: "Consolidation: little variation over the last candles. " +
		"Better to wait for a support or resistance breakout before entering.",
	model.TrendMixed: "Mixed movement with no clear direction. " +
		"Watch volume, support/resistance zones and the higher timeframe context.",
	model.TrendInsufficientData: "Not enough data to analyse. Wait for more candles.",
}

// Classify derives the short-term trend from the trailing candles of seq.
func Classify(seq model.CandleSequence) model.TrendVerdict {
	if len(seq) < Window {
		return verdict(model.TrendInsufficientData, decimal.Zero)
	}

	last := seq.Last(Window)
	closes := last.Closes()
	w := window{
		pct:          calculator.PercentChange(closes[Window-2], closes[Window-1]),
		risingCloses: calculator.StrictlyIncreasing(closes),
		risingOpens:  calculator.StrictlyIncreasing(last.Opens()),
	}

	for _, r := range rules {
		if r.Match(w) {
			return verdict(r.Category, w.pct)
		}
	}
	return verdict(model.TrendMixed, w.pct)
}

func verdict(c model.TrendCategory, pct decimal.Decimal) model.TrendVerdict {
	return model.TrendVerdict{Category: c, PctChange: pct, Narrative: Narratives[c]}
}
