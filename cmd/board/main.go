package main

import (
	"context"

	"CandleWatch/internal/board"
	"CandleWatch/internal/collector"
	"CandleWatch/internal/config"
	"CandleWatch/internal/logger"
	"CandleWatch/internal/metrics"
	"CandleWatch/internal/model"
	"CandleWatch/internal/notifier"
	"CandleWatch/internal/scheduler"
	"CandleWatch/internal/server"
	"CandleWatch/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newRegistry,
			newMetrics,
			newFetcher,
			newGateway,
			board.New,
			newHub,
			newStore,
			newScheduler,
			newHandler,
			newServer,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		fx.Invoke(startRefresh),
	).Run()
}

func newConfig() (*config.Config, error) {
	cfg, err := config.Load(config.Path())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(lc fx.Lifecycle, cfg *config.Config) (*zap.Logger, error) {
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(func() { _ = log.Sync() }))
	return log, nil
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func newMetrics(reg *prometheus.Registry) *metrics.Recorder {
	return metrics.New(reg)
}

func newFetcher(cfg *config.Config, log *zap.Logger) collector.Fetcher {
	f := collector.NewBinanceFetcher(cfg.Provider.BaseURL, cfg.Provider.Proxy, cfg.Provider.Timeout)
	log.Info("data source", zap.String("name", f.Name()), zap.String("base_url", cfg.Provider.BaseURL))
	return f
}

func newGateway(cfg *config.Config, f collector.Fetcher, rec *metrics.Recorder, log *zap.Logger) *collector.Gateway {
	return collector.NewGateway(f,
		collector.WithPlan(collector.LimitPlan{
			Primary:  cfg.Refresh.PrimaryLimit,
			Fallback: cfg.Refresh.FallbackLimit,
			MinRows:  cfg.Refresh.MinRows,
		}),
		collector.WithLogger(log.Named("gateway")),
		collector.WithMetrics(rec),
	)
}

func newHub(lc fx.Lifecycle, cfg *config.Config, b *board.Board, log *zap.Logger) *board.Hub {
	hub := board.NewHub(b, log.Named("hub"), cfg.Server.AllowedOrigins...)
	lc.Append(fx.StopHook(hub.Close))
	return hub
}

func newStore(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (store.SelectionStore, error) {
	st, err := store.New(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	log.Info("selection store", zap.String("driver", cfg.Store.Driver), zap.String("path", cfg.Store.Path))
	lc.Append(fx.StopHook(st.Close))
	return st, nil
}

func overviewFromConfig(cfg *config.Config) scheduler.Overview {
	ov := scheduler.Overview{
		Quote:         cfg.Overview.Quote,
		QuoteCurrency: model.Currency(cfg.Overview.QuoteCurrency),
	}
	for _, m := range cfg.Overview.Markets {
		ov.Markets = append(ov.Markets, scheduler.OverviewSymbol{
			Symbol:   m.Symbol,
			Currency: model.Currency(m.Currency),
			Slot:     notifier.Slot(m.Slot),
		})
	}
	return ov
}

func newScheduler(lc fx.Lifecycle, cfg *config.Config, gw *collector.Gateway, b *board.Board, st store.SelectionStore, rec *metrics.Recorder, log *zap.Logger) *scheduler.Scheduler {
	sched := scheduler.NewScheduler(context.Background(), gw, b, b,
		scheduler.WithPeriod(cfg.Refresh.Period),
		scheduler.WithOverview(overviewFromConfig(cfg)),
		scheduler.WithStore(st),
		scheduler.WithMetrics(rec),
		scheduler.WithLogger(log.Named("scheduler")),
	)
	lc.Append(fx.StopHook(sched.Stop))
	return sched
}

func newHandler(sched *scheduler.Scheduler, b *board.Board, hub *board.Hub, log *zap.Logger) *server.Handler {
	return server.NewHandler(sched, b, hub, log.Named("api"))
}

func newServer(lc fx.Lifecycle, cfg *config.Config, h *server.Handler, reg *prometheus.Registry, log *zap.Logger) *server.Server {
	srv := server.NewServer(h, log.Named("http"),
		server.WithHost(cfg.Server.Host),
		server.WithPort(cfg.Server.Port),
		server.WithGatherer(reg),
	)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error { return srv.Start() },
		OnStop:  srv.Stop,
	})
	return srv
}

// startRefresh resumes the last persisted selection, or the configured one, once
// everything else is up.
func startRefresh(lc fx.Lifecycle, cfg *config.Config, sched *scheduler.Scheduler, st store.SelectionStore, _ *server.Server, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			sel := cfg.DefaultSelection()
			switch saved, ok, err := st.Load(); {
			case err != nil:
				log.Warn("load saved selection failed", zap.Error(err))
			case ok && saved.Validate() == nil:
				sel = saved
				log.Info("restored selection", zap.Stringer("selection", sel))
			case ok:
				log.Warn("ignoring invalid saved selection", zap.Stringer("selection", saved))
			}

			sched.Run()
			return sched.Start(sel)
		},
	})
}
