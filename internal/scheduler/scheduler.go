package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"CandleWatch/internal/model"
	"CandleWatch/internal/notifier"
	"CandleWatch/internal/store"
	"CandleWatch/internal/strategy"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultPeriod is the refresh interval.
const DefaultPeriod = 2 * time.Second

// ErrStopped is returned by Start after Stop.
var ErrStopped = errors.New("scheduler stopped")

// Gateway is the market data the scheduler needs per cycle.
type Gateway interface {
	FetchCandles(ctx context.Context, symbol string, interval model.Timeframe) model.CandleSequence
	FetchTicker(ctx context.Context, symbol string) (model.TickerSnapshot, error)
}

// Metrics receives cycle instrumentation.
type Metrics interface {
	RecordCycle(outcome string, seconds float64)
	RecordLastPrice(symbol string, price float64)
	RecordSelection()
}

type nopMetrics struct{}

func (nopMetrics) RecordCycle(string, float64)     {}
func (nopMetrics) RecordLastPrice(string, float64) {}
func (nopMetrics) RecordSelection()                {}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithPeriod overrides the refresh interval.
func WithPeriod(d time.Duration) Option {
	return func(s *Scheduler) { s.period = d }
}

// WithOverview overrides the tickers fetched each cycle.
func WithOverview(o Overview) Option {
	return func(s *Scheduler) { s.overview = o }
}

// WithStore sets where started selections are persisted.
func WithStore(st store.SelectionStore) Option {
	return func(s *Scheduler) { s.store = st }
}

// WithLogger sets the scheduler logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// WithMetrics sets the cycle metrics sink.
func WithMetrics(m Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// Scheduler runs refresh cycles for the current selection: one immediately on every
// Start and then one per period until the next Start or Stop.
type Scheduler struct {
	Cron    *cron.Cron
	Session *Session

	gateway  Gateway
	renderer notifier.Renderer
	sink     notifier.Sink
	store    store.SelectionStore
	metrics  Metrics
	overview Overview
	period   time.Duration
	log      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	job    cron.Job

	mu      sync.Mutex
	entry   cron.EntryID
	armed   bool
	stopped bool
	wg      sync.WaitGroup
}

// NewScheduler creates a Scheduler. Requests made by cycles use ctx and are cancelled
// by Stop.
func NewScheduler(ctx context.Context, gw Gateway, r notifier.Renderer, sink notifier.Sink, opts ...Option) *Scheduler {
	s := &Scheduler{
		Session:  NewSession(model.DefaultSelection),
		gateway:  gw,
		renderer: r,
		sink:     sink,
		store:    store.NewNoopStore(),
		metrics:  nopMetrics{},
		overview: DefaultOverview,
		period:   DefaultPeriod,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(ctx)

	cl := cronLogger{s.log.Sugar()}
	s.Cron = cron.New(cron.WithLogger(cl))
	// Immediate cycles bypass the cron runner, so the recover wrapper sits on the job.
	s.job = cron.NewChain(cron.Recover(cl)).Then(cron.FuncJob(func() { s.RunOnce() }))
	return s
}

// Run starts the periodic trigger. Cycles begin once Start has armed it.
func (s *Scheduler) Run() {
	s.Cron.Start()
	s.log.Info("scheduler started", zap.Duration("period", s.period))
}

// Stop disarms the trigger, cancels in-flight requests and waits for running cycles.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	s.cancel()
	<-s.Cron.Stop().Done()
	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

// CurrentSelection returns the selection being refreshed.
func (s *Scheduler) CurrentSelection() model.Selection {
	return s.Session.CurrentSelection()
}

// Start switches to sel: cycles begun for any earlier selection are discarded when
// they finish, sel is persisted, a cycle runs right away and the periodic trigger is
// re-armed so exactly one remains.
func (s *Scheduler) Start(sel model.Selection) error {
	if err := sel.Validate(); err != nil {
		return fmt.Errorf("start refresh: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}

	s.Session.ReplaceSelection(sel)
	s.metrics.RecordSelection()
	if err := s.store.Save(sel); err != nil {
		s.log.Warn("persist selection failed", zap.Stringer("selection", sel), zap.Error(err))
	}
	s.log.Info("selection started", zap.Stringer("selection", sel))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.job.Run()
	}()

	if s.armed {
		s.Cron.Remove(s.entry)
	}
	s.entry = s.Cron.Schedule(cron.Every(s.period), s.job)
	s.armed = true
	return nil
}

// OnSelectionChanged is the entry point for the selection UI.
func (s *Scheduler) OnSelectionChanged(sel model.Selection) error {
	return s.Start(sel)
}

// RunOnce executes one refresh cycle for the selection current at call time and
// reports what happened to its results.
func (s *Scheduler) RunOnce() Outcome {
	start := time.Now()
	t := s.Session.Begin()
	log := s.log.With(zap.Uint64("seq", t.Seq), zap.Stringer("selection", t.Selection))

	outcome := s.runCycle(t, log)
	s.metrics.RecordCycle(string(outcome), time.Since(start).Seconds())
	if outcome == OutcomeApplied {
		log.Debug("cycle applied", zap.Duration("took", time.Since(start)))
	} else {
		log.Debug("cycle discarded", zap.String("outcome", string(outcome)))
	}
	return outcome
}

func (s *Scheduler) runCycle(t Ticket, log *zap.Logger) Outcome {
	pair, ok := model.LookupPair(t.Selection.Pair)
	if !ok {
		log.Error("unknown pair in session")
		return OutcomeStale
	}

	candles := s.gateway.FetchCandles(s.ctx, pair.Symbol, t.Selection.Timeframe)
	verdict := strategy.Classify(candles)

	// No point fetching tickers for results that can no longer land.
	if outcome := s.Session.Check(t); outcome != OutcomeApplied {
		return outcome
	}

	quotes := s.fetchOverview(log)

	return s.Session.Commit(t, func() {
		s.renderer.Render(candles, pair.Label)
		s.sink.Apply(buildUpdates(pair, verdict, s.overview, quotes))

		if len(candles) > 0 {
			s.metrics.RecordLastPrice(pair.Symbol, candles[len(candles)-1].Close.InexactFloat64())
		}
		for i, sym := range s.overview.symbols() {
			if quotes[i].ok {
				s.metrics.RecordLastPrice(sym, quotes[i].snap.LastPrice.InexactFloat64())
			}
		}
	})
}

// fetchOverview fetches every overview ticker in parallel. A failed ticker leaves its
// entry unset without affecting the others.
func (s *Scheduler) fetchOverview(log *zap.Logger) []quote {
	symbols := s.overview.symbols()
	out := make([]quote, len(symbols))

	var g errgroup.Group
	for i, sym := range symbols {
		i, sym := i, sym
		g.Go(func() error {
			snap, err := s.gateway.FetchTicker(s.ctx, sym)
			if err != nil {
				return fmt.Errorf("ticker %s: %w", sym, err)
			}
			out[i] = quote{snap: snap, ok: true}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Warn("overview degraded", zap.Error(err))
	}
	return out
}

// cronLogger routes cron's own messages into zap.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
