package collector

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"CandleWatch/internal/model"

	"github.com/shopspring/decimal"
)

// klineRow is one raw kline: [openTime, open, high, low, close, volume, closeTime, ...].
type klineRow []any

const klineMinFields = 5

// normalizeKlines converts raw rows into a chronological sequence. Any field that is
// not numeric, a negative price or a repeated open time fails the whole response.
func normalizeKlines(symbol string, rows []klineRow) (model.CandleSequence, error) {
	seq := make(model.CandleSequence, 0, len(rows))
	for i, row := range rows {
		if len(row) < klineMinFields {
			return nil, malformed(opKlines, symbol, "row %d has %d fields", i, len(row))
		}
		openMs, err := toInt64(row[0])
		if err != nil {
			return nil, malformed(opKlines, symbol, "row %d open time: %v", i, err)
		}
		var prices [4]decimal.Decimal
		for j := range prices {
			d, err := toDecimal(row[j+1])
			if err != nil {
				return nil, malformed(opKlines, symbol, "row %d field %d: %v", i, j+1, err)
			}
			if d.IsNegative() {
				return nil, malformed(opKlines, symbol, "row %d field %d: negative price %s", i, j+1, d)
			}
			prices[j] = d
		}
		seq = append(seq, model.Candle{
			Time:  time.UnixMilli(openMs).UTC(),
			Open:  prices[0],
			High:  prices[1],
			Low:   prices[2],
			Close: prices[3],
		})
	}

	// Ensure chronological order
	sort.Slice(seq, func(i, j int) bool { return seq[i].Time.Before(seq[j].Time) })
	for i := 1; i < len(seq); i++ {
		if !seq[i].Time.After(seq[i-1].Time) {
			return nil, malformed(opKlines, symbol, "duplicate open time %s", seq[i].Time.Format(time.RFC3339))
		}
	}
	return seq, nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case string:
		return decimal.NewFromString(n)
	case json.Number:
		return decimal.NewFromString(n.String())
	case float64:
		return decimal.NewFromFloat(n), nil
	default:
		return decimal.Zero, fmt.Errorf("unexpected %T", v)
	}
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case json.Number:
		return n.Int64()
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("unexpected %T", v)
	}
}

func parseTickerField(symbol, name, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, malformed(opTicker, symbol, "%s %q: %v", name, raw, err)
	}
	return d, nil
}
