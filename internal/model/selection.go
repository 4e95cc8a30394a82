package model

import "fmt"

// PairKey identifies a tradable pair independently of the provider's symbol naming.
type PairKey string

const (
	PairBTCUSD PairKey = "BTCUSD"
	PairETHUSD PairKey = "ETHUSD"
	PairBTCBRL PairKey = "BTCBRL"
	PairETHBRL PairKey = "ETHBRL"
)

// Currency is the quote currency a price is displayed in.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyBRL Currency = "BRL"
)

// Pair describes how a pair key maps onto the provider and the chart.
type Pair struct {
	Key      PairKey  `json:"key"`
	Symbol   string   `json:"symbol"`
	Label    string   `json:"label"`
	Currency Currency `json:"currency"`
}

// Pairs is the supported pair registry, in display order.
var Pairs = []Pair{
	{Key: PairBTCUSD, Symbol: "BTCUSDT", Label: "BTC / USD (BTCUSDT)", Currency: CurrencyUSD},
	{Key: PairETHUSD, Symbol: "ETHUSDT", Label: "ETH / USD (ETHUSDT)", Currency: CurrencyUSD},
	{Key: PairBTCBRL, Symbol: "BTCBRL", Label: "BTC / BRL", Currency: CurrencyBRL},
	{Key: PairETHBRL, Symbol: "ETHBRL", Label: "ETH / BRL", Currency: CurrencyBRL},
}

// LookupPair returns the registry entry for key.
func LookupPair(key PairKey) (Pair, bool) {
	for _, p := range Pairs {
		if p.Key == key {
			return p, true
		}
	}
	return Pair{}, false
}

// Timeframe is a candle interval in the provider's notation.
type Timeframe string

const (
	Timeframe1m  Timeframe = "1m"
	Timeframe5m  Timeframe = "5m"
	Timeframe15m Timeframe = "15m"
	Timeframe30m Timeframe = "30m"
	Timeframe1h  Timeframe = "1h"
	Timeframe4h  Timeframe = "4h"
	Timeframe1d  Timeframe = "1d"
	Timeframe1w  Timeframe = "1w"
)

// TimeframeOption pairs an interval with its human label.
type TimeframeOption struct {
	Interval Timeframe `json:"interval"`
	Label    string    `json:"label"`
}

// Timeframes lists the supported intervals, shortest first.
var Timeframes = []TimeframeOption{
	{Interval: Timeframe1m, Label: "1 minute"},
	{Interval: Timeframe5m, Label: "5 minutes"},
	{Interval: Timeframe15m, Label: "15 minutes"},
	{Interval: Timeframe30m, Label: "30 minutes"},
	{Interval: Timeframe1h, Label: "1 hour"},
	{Interval: Timeframe4h, Label: "4 hours"},
	{Interval: Timeframe1d, Label: "1 day"},
	{Interval: Timeframe1w, Label: "1 week"},
}

// LookupTimeframe returns the option for tf.
func LookupTimeframe(tf Timeframe) (TimeframeOption, bool) {
	for _, o := range Timeframes {
		if o.Interval == tf {
			return o, true
		}
	}
	return TimeframeOption{}, false
}

// Selection is the pair/timeframe the viewer is currently watching.
type Selection struct {
	Pair      PairKey   `json:"pair"`
	Timeframe Timeframe `json:"timeframe"`
}

// DefaultSelection is used when nothing was configured or persisted.
var DefaultSelection = Selection{Pair: PairBTCBRL, Timeframe: Timeframe4h}

// Validate reports whether both fields are in the supported sets.
func (s Selection) Validate() error {
	if _, ok := LookupPair(s.Pair); !ok {
		return fmt.Errorf("unsupported pair %q", s.Pair)
	}
	if _, ok := LookupTimeframe(s.Timeframe); !ok {
		return fmt.Errorf("unsupported timeframe %q", s.Timeframe)
	}
	return nil
}

func (s Selection) String() string {
	return string(s.Pair) + "@" + string(s.Timeframe)
}
