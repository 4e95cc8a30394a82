package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cycle outcomes.
const (
	OutcomeApplied    = "applied"
	OutcomeStale      = "stale"
	OutcomeSuperseded = "superseded"
)

// Recorder implements the collector and scheduler metrics hooks using Prometheus.
type Recorder struct {
	fetchTotal    *prometheus.CounterVec
	fetchErrors   *prometheus.CounterVec
	fetchLatency  *prometheus.HistogramVec
	fallbacks     *prometheus.CounterVec
	cycles        *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	lastPrice     *prometheus.GaugeVec
	selections    prometheus.Counter
}

// New creates a Recorder registered on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		fetchTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "candlewatch_provider_requests_total",
				Help: "Total number of provider requests",
			},
			[]string{"op"},
		),
		fetchErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "candlewatch_provider_errors_total",
				Help: "Total number of failed provider requests",
			},
			[]string{"op"},
		),
		fetchLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "candlewatch_provider_request_duration_seconds",
				Help:    "Duration of provider requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		fallbacks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "candlewatch_candle_fallbacks_total",
				Help: "Candle requests that fell back to the smaller limit",
			},
			[]string{"symbol"},
		),
		cycles: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "candlewatch_refresh_cycles_total",
				Help: "Completed refresh cycles by outcome",
			},
			[]string{"outcome"},
		),
		cycleDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "candlewatch_refresh_cycle_duration_seconds",
				Help:    "Wall time of a refresh cycle from trigger to completion",
				Buckets: prometheus.DefBuckets,
			},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "candlewatch_last_price",
				Help: "Last applied price for a symbol",
			},
			[]string{"symbol"},
		),
		selections: f.NewCounter(
			prometheus.CounterOpts{
				Name: "candlewatch_selection_changes_total",
				Help: "Number of pair/timeframe selections started",
			},
		),
	}
}

// RecordFetch records one provider request.
func (r *Recorder) RecordFetch(op, _ string, seconds float64, err error) {
	r.fetchTotal.WithLabelValues(op).Inc()
	r.fetchLatency.WithLabelValues(op).Observe(seconds)
	if err != nil {
		r.fetchErrors.WithLabelValues(op).Inc()
	}
}

// RecordFallback records a candle request that needed the fallback limit.
func (r *Recorder) RecordFallback(symbol string) {
	r.fallbacks.WithLabelValues(symbol).Inc()
}

// RecordCycle records a finished refresh cycle.
func (r *Recorder) RecordCycle(outcome string, seconds float64) {
	r.cycles.WithLabelValues(outcome).Inc()
	r.cycleDuration.Observe(seconds)
}

// RecordLastPrice records the last applied price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordSelection counts a selection start.
func (r *Recorder) RecordSelection() {
	r.selections.Inc()
}
