package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"CandleWatch/internal/board"
	"CandleWatch/internal/metrics"
	"CandleWatch/internal/model"
	"CandleWatch/internal/notifier"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type fakeSelector struct {
	mu      sync.Mutex
	current model.Selection
	started []model.Selection
	err     error
}

func (f *fakeSelector) Start(sel model.Selection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.current = sel
	f.started = append(f.started, sel)
	return nil
}

func (f *fakeSelector) CurrentSelection() model.Selection {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T, sel *fakeSelector) (*Server, *board.Board) {
	t.Helper()
	b := board.New()
	hub := board.NewHub(b, zap.NewNop())
	t.Cleanup(hub.Close)

	reg := prometheus.NewRegistry()
	metrics.New(reg).RecordSelection()

	h := NewHandler(sel, b, hub, zap.NewNop())
	return NewServer(h, zap.NewNop(), WithGatherer(reg)), b
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func TestPutSelection_Starts(t *testing.T) {
	sel := &fakeSelector{current: model.DefaultSelection}
	s, _ := newTestServer(t, sel)

	rec, env := do(t, s, http.MethodPut, "/api/selection", `{"pair":"ETHUSD","timeframe":"1h"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	want := model.Selection{Pair: model.PairETHUSD, Timeframe: model.Timeframe1h}
	if len(sel.started) != 1 || sel.started[0] != want {
		t.Fatalf("unexpected starts %v", sel.started)
	}

	var v SelectionView
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if v.PairLabel != "ETH / USD (ETHUSDT)" || v.TimeframeLabel != "1 hour" {
		t.Errorf("unexpected labels %+v", v)
	}
}

func TestPutSelection_DefaultTimeframe(t *testing.T) {
	sel := &fakeSelector{}
	s, _ := newTestServer(t, sel)

	rec, _ := do(t, s, http.MethodPut, "/api/selection", `{"pair":"BTCUSD"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if sel.started[0].Timeframe != model.Timeframe4h {
		t.Errorf("expected default 4h, got %s", sel.started[0].Timeframe)
	}
}

func TestPutSelection_Invalid(t *testing.T) {
	cases := []struct {
		name string
		body string
		code string
	}{
		{"unknown pair", `{"pair":"DOGEUSD","timeframe":"1h"}`, "ERR_PAIR"},
		{"unknown timeframe", `{"pair":"BTCUSD","timeframe":"3h"}`, "ERR_TIMEFRAME"},
		{"missing pair", `{"timeframe":"1h"}`, "ERR_REQUIRED"},
		{"bad json", `{"pair":`, "ERR_UNKNOWN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sel := &fakeSelector{}
			s, _ := newTestServer(t, sel)

			rec, env := do(t, s, http.MethodPut, "/api/selection", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			var errs []ValidationError
			if err := json.Unmarshal(env.Data, &errs); err != nil {
				t.Fatalf("decode errors: %v", err)
			}
			if len(errs) == 0 || errs[0].Code != tc.code {
				t.Errorf("expected %s, got %+v", tc.code, errs)
			}
			if len(sel.started) != 0 {
				t.Error("invalid selection must not start")
			}
		})
	}
}

func TestPutSelection_StartFails(t *testing.T) {
	sel := &fakeSelector{err: errors.New("scheduler stopped")}
	s, _ := newTestServer(t, sel)

	rec, _ := do(t, s, http.MethodPut, "/api/selection", `{"pair":"BTCUSD","timeframe":"1h"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestGetSelectionAndOptions(t *testing.T) {
	sel := &fakeSelector{current: model.DefaultSelection}
	s, _ := newTestServer(t, sel)

	_, env := do(t, s, http.MethodGet, "/api/selection", "")
	var v SelectionView
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Pair != model.PairBTCBRL || v.TimeframeLabel != "4 hours" {
		t.Errorf("unexpected selection %+v", v)
	}

	_, env = do(t, s, http.MethodGet, "/api/options", "")
	var opts Options
	if err := json.Unmarshal(env.Data, &opts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(opts.Pairs) != len(model.Pairs) || len(opts.Timeframes) != len(model.Timeframes) {
		t.Errorf("unexpected options %+v", opts)
	}
}

func TestView(t *testing.T) {
	sel := &fakeSelector{current: model.DefaultSelection}
	s, b := newTestServer(t, sel)
	b.Render(model.CandleSequence{}, "BTC / BRL")
	b.Apply([]notifier.Update{{Slot: notifier.SlotMarketState, Text: "Online"}})

	rec, env := do(t, s, http.MethodGet, "/api/view", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var v struct {
		Selection SelectionView                     `json:"selection"`
		Chart     *board.ChartState                 `json:"chart"`
		Slots     map[notifier.Slot]notifier.Update `json:"slots"`
	}
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Chart == nil || v.Chart.Label != "BTC / BRL" {
		t.Errorf("unexpected chart %+v", v.Chart)
	}
	if v.Slots[notifier.SlotMarketState].Text != "Online" {
		t.Errorf("unexpected slots %+v", v.Slots)
	}
	if v.Selection.Pair != model.PairBTCBRL {
		t.Errorf("unexpected selection %+v", v.Selection)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s, _ := newTestServer(t, &fakeSelector{})

	rec, _ := do(t, s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	rec, _ = do(t, s, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "candlewatch_selection_changes_total 1") {
		t.Errorf("metrics not served: %d %s", rec.Code, rec.Body.String())
	}
}
