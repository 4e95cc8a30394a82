package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"CandleWatch/internal/model"

	"github.com/bytedance/sonic"
)

const (
	opTicker = "ticker"
	opKlines = "klines"

	// DefaultBinanceURL is the public spot REST endpoint.
	DefaultBinanceURL = "https://api.binance.com"
)

// decoder keeps kline open times exact instead of going through float64.
var decoder = sonic.Config{UseNumber: true}.Froze()

// BinanceFetcher implements Fetcher against the Binance spot REST API.
type BinanceFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewBinanceFetcher creates a fetcher with optional proxy support.
func NewBinanceFetcher(baseURL, proxyURL string, timeout time.Duration) *BinanceFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if baseURL == "" {
		baseURL = DefaultBinanceURL
	}
	return &BinanceFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (f *BinanceFetcher) Name() string { return "binance" }

// binanceTicker is the subset of /api/v3/ticker/24hr the board uses.
type binanceTicker struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
	LowPrice           string `json:"lowPrice"`
	HighPrice          string `json:"highPrice"`
}

// FetchTicker issues a single 24h statistics request. It never retries.
func (f *BinanceFetcher) FetchTicker(ctx context.Context, symbol string) (model.TickerSnapshot, error) {
	q := url.Values{"symbol": {symbol}}
	body, err := f.get(ctx, opTicker, symbol, "/api/v3/ticker/24hr", q)
	if err != nil {
		return model.TickerSnapshot{}, err
	}

	var raw binanceTicker
	if err := decoder.Unmarshal(body, &raw); err != nil {
		return model.TickerSnapshot{}, malformed(opTicker, symbol, "decode: %v", err)
	}

	snap := model.TickerSnapshot{Symbol: symbol}
	if snap.LastPrice, err = parseTickerField(symbol, "lastPrice", raw.LastPrice); err != nil {
		return model.TickerSnapshot{}, err
	}
	if snap.PriceChangePercent, err = parseTickerField(symbol, "priceChangePercent", raw.PriceChangePercent); err != nil {
		return model.TickerSnapshot{}, err
	}
	if snap.LowPrice, err = parseTickerField(symbol, "lowPrice", raw.LowPrice); err != nil {
		return model.TickerSnapshot{}, err
	}
	if snap.HighPrice, err = parseTickerField(symbol, "highPrice", raw.HighPrice); err != nil {
		return model.TickerSnapshot{}, err
	}
	return snap, nil
}

// FetchKlines requests up to limit candles and normalizes them.
func (f *BinanceFetcher) FetchKlines(ctx context.Context, symbol string, interval model.Timeframe, limit int) (model.CandleSequence, error) {
	q := url.Values{
		"symbol":   {symbol},
		"interval": {string(interval)},
		"limit":    {strconv.Itoa(limit)},
	}
	body, err := f.get(ctx, opKlines, symbol, "/api/v3/klines", q)
	if err != nil {
		return nil, err
	}

	var rows []klineRow
	if err := decoder.Unmarshal(body, &rows); err != nil {
		return nil, malformed(opKlines, symbol, "decode: %v", err)
	}
	seq, err := normalizeKlines(symbol, rows)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(seq) > limit {
		seq = seq[len(seq)-limit:]
	}
	return seq, nil
}

func (f *BinanceFetcher) get(ctx context.Context, op, symbol, path string, q url.Values) ([]byte, error) {
	endpoint := fmt.Sprintf("%s%s?%s", f.BaseURL, path, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &ProviderError{Op: op, Symbol: symbol, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, &ProviderError{Op: op, Symbol: symbol, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Op: op, Symbol: symbol, Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode/100 != 2 {
		return nil, &ProviderError{Op: op, Symbol: symbol, Status: resp.StatusCode, Err: fmt.Errorf("body: %s", string(body))}
	}
	return body, nil
}
