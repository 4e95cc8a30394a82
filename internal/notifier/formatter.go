package notifier

import (
	"fmt"
	"strings"

	"CandleWatch/internal/model"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// PercentUnavailable is shown when a percentage could not be obtained.
const PercentUnavailable = "--%"

// directionThreshold is the minimum absolute percent move that gets a colour.
var directionThreshold = decimal.NewFromFloat(0.01)

// FormatPercent renders a percentage with two decimals. Positive values carry a "+";
// zero (after rounding) is never signed.
func FormatPercent(p decimal.Decimal) string {
	r := p.Round(2)
	sign := ""
	if r.IsPositive() {
		sign = "+"
	}
	return sign + r.StringFixed(2) + "%"
}

// DirectionOf classifies a percent change for colouring.
func DirectionOf(p decimal.Decimal) Direction {
	switch {
	case p.GreaterThan(directionThreshold):
		return DirectionUp
	case p.LessThan(directionThreshold.Neg()):
		return DirectionDown
	default:
		return DirectionFlat
	}
}

// FormatBRL renders a value in pt-BR style with two to three decimals, e.g. 5,431.
func FormatBRL(v decimal.Decimal) string {
	p := message.NewPrinter(language.BrazilianPortuguese)
	return p.Sprint(number.Decimal(v.InexactFloat64(), number.MinFractionDigits(2), number.MaxFractionDigits(3)))
}

// FormatUSD renders a value in en-US style with two decimals, e.g. 64,250.50.
func FormatUSD(v decimal.Decimal) string {
	p := message.NewPrinter(language.AmericanEnglish)
	return p.Sprint(number.Decimal(v.InexactFloat64(), number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

// FormatMoney prefixes the localized amount with the currency symbol.
func FormatMoney(v decimal.Decimal, c model.Currency) string {
	if c == model.CurrencyBRL {
		return "R$ " + FormatBRL(v)
	}
	return "$ " + FormatUSD(v)
}

// FormatRange renders a low–high band in one currency.
func FormatRange(low, high decimal.Decimal, c model.Currency) string {
	return FormatMoney(low, c) + " – " + FormatMoney(high, c)
}

// FormatPairSummary renders "price (change)" for a pair widget.
func FormatPairSummary(snap model.TickerSnapshot, c model.Currency) string {
	return fmt.Sprintf("%s (%s)", FormatMoney(snap.LastPrice, c), FormatPercent(snap.PriceChangePercent))
}

// FormatTrendTitle renders the heading above the trend narrative.
func FormatTrendTitle(label string) string {
	return fmt.Sprintf("Current trend (%s):", label)
}

// MarketChange is one tracked pair's 24h move for the overview footer.
// OK is false when that pair's ticker could not be fetched.
type MarketChange struct {
	Symbol string
	Change decimal.Decimal
	OK     bool
}

var (
	strongMove = decimal.NewFromFloat(0.7)
	mildMove   = decimal.NewFromFloat(0.1)
)

// FormatOverview comments on the dollar's 24h move and lists the tracked pairs.
func FormatOverview(dollarChange decimal.Decimal, markets []MarketChange) string {
	var b strings.Builder

	switch {
	case dollarChange.GreaterThan(strongMove):
		b.WriteString("Dollar rising strongly over the last 24h. This tends to pressure risk assets priced in BRL. ")
	case dollarChange.GreaterThan(mildMove):
		b.WriteString("Dollar slightly up in the short term. The move is still controlled, but keep an eye on supports. ")
	case dollarChange.LessThan(strongMove.Neg()):
		b.WriteString("Dollar falling sharply. This usually favours flows into risk assets and crypto. ")
	case dollarChange.LessThan(mildMove.Neg()):
		b.WriteString("Dollar slightly down. A mild move, but relevant for anyone trading BRL pairs. ")
	default:
		b.WriteString("Dollar practically flat over the last 24h. No strong direction in the currency. ")
	}

	parts := make([]string, 0, len(markets))
	for _, m := range markets {
		pct := PercentUnavailable
		if m.OK {
			pct = FormatPercent(m.Change)
		}
		parts = append(parts, fmt.Sprintf("%s: %s", m.Symbol, pct))
	}
	if len(parts) > 0 {
		b.WriteString(strings.Join(parts, " • "))
		b.WriteString(".")
	}
	return strings.TrimSpace(b.String())
}
