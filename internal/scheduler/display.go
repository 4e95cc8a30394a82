package scheduler

import (
	"CandleWatch/internal/model"
	"CandleWatch/internal/notifier"
)

const (
	StatusOnline   = "Online"
	StatusUnstable = "Unstable"
)

// OverviewSymbol is one tracked pair shown next to the chart.
type OverviewSymbol struct {
	Symbol   string
	Currency model.Currency
	Slot     notifier.Slot
}

// Overview lists the tickers fetched every cycle: the dollar quote that feeds the
// usd-* slots and the commentary, plus the tracked markets.
type Overview struct {
	Quote         string
	QuoteCurrency model.Currency
	Markets       []OverviewSymbol
}

// DefaultOverview tracks the dollar in BRL plus BTC and ETH.
var DefaultOverview = Overview{
	Quote:         "USDTBRL",
	QuoteCurrency: model.CurrencyBRL,
	Markets: []OverviewSymbol{
		{Symbol: "BTCUSDT", Currency: model.CurrencyUSD, Slot: notifier.SlotBTCInfo},
		{Symbol: "ETHUSDT", Currency: model.CurrencyUSD, Slot: notifier.SlotETHInfo},
		{Symbol: "BTCBRL", Currency: model.CurrencyBRL, Slot: notifier.SlotBTCBRLInfo},
	},
}

func (o Overview) symbols() []string {
	out := make([]string, 0, len(o.Markets)+1)
	out = append(out, o.Quote)
	for _, m := range o.Markets {
		out = append(out, m.Symbol)
	}
	return out
}

// quote is one ticker result; ok is false when the fetch failed.
type quote struct {
	snap model.TickerSnapshot
	ok   bool
}

// buildUpdates turns one cycle's results into slot writes. quotes follows
// Overview.symbols order. Slots whose ticker failed are left out so the board keeps
// the previous value.
func buildUpdates(pair model.Pair, verdict model.TrendVerdict, ov Overview, quotes []quote) []notifier.Update {
	updates := []notifier.Update{
		{Slot: notifier.SlotTrendTitle, Text: notifier.FormatTrendTitle(pair.Label)},
		{Slot: notifier.SlotTrendText, Text: verdict.Narrative},
	}

	healthy := true
	markets := make([]notifier.MarketChange, 0, len(ov.Markets))
	for i, m := range ov.Markets {
		q := quotes[i+1]
		if !q.ok {
			healthy = false
			markets = append(markets, notifier.MarketChange{Symbol: m.Symbol})
			continue
		}
		markets = append(markets, notifier.MarketChange{Symbol: m.Symbol, Change: q.snap.PriceChangePercent, OK: true})
		updates = append(updates, notifier.Update{
			Slot:      m.Slot,
			Text:      notifier.FormatPairSummary(q.snap, m.Currency),
			Direction: notifier.DirectionOf(q.snap.PriceChangePercent),
		})
	}

	if dollar := quotes[0]; dollar.ok {
		change := dollar.snap.PriceChangePercent
		updates = append(updates,
			notifier.Update{Slot: notifier.SlotUSDPrice, Text: notifier.FormatMoney(dollar.snap.LastPrice, ov.QuoteCurrency)},
			notifier.Update{Slot: notifier.SlotUSDChange, Text: notifier.FormatPercent(change), Direction: notifier.DirectionOf(change)},
			notifier.Update{Slot: notifier.SlotUSDRange, Text: notifier.FormatRange(dollar.snap.LowPrice, dollar.snap.HighPrice, ov.QuoteCurrency)},
			notifier.Update{Slot: notifier.SlotOverview, Text: notifier.FormatOverview(change, markets)},
		)
	} else {
		healthy = false
	}

	status := notifier.Update{Slot: notifier.SlotMarketState, Text: StatusOnline, Direction: notifier.DirectionUp}
	if !healthy {
		status = notifier.Update{Slot: notifier.SlotMarketState, Text: StatusUnstable, Direction: notifier.DirectionDown}
	}
	return append(updates, status)
}
