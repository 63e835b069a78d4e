// Command tradebot is the service entrypoint: boot wiring, the HTTP
// health/metrics server, and the three scheduled jobs (analysis cycle,
// position monitor, outcome tracker), grounded on main.go's boot sequence
// (load env -> wire broker -> start metrics server -> run loop -> graceful
// shutdown) generalized from a single ticker-driven loop to the scheduler's
// three independently-ticking jobs.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chidi150c/divergence-trader/internal/alert"
	"github.com/chidi150c/divergence-trader/internal/analysis"
	"github.com/chidi150c/divergence-trader/internal/broker"
	"github.com/chidi150c/divergence-trader/internal/config"
	"github.com/chidi150c/divergence-trader/internal/detector"
	"github.com/chidi150c/divergence-trader/internal/execution"
	"github.com/chidi150c/divergence-trader/internal/instruments"
	"github.com/chidi150c/divergence-trader/internal/multitf"
	"github.com/chidi150c/divergence-trader/internal/outcome"
	"github.com/chidi150c/divergence-trader/internal/risk"
	"github.com/chidi150c/divergence-trader/internal/scheduler"
	"github.com/chidi150c/divergence-trader/internal/storage"
)

func main() {
	config.LoadDotEnv()
	cfg := config.FromEnv()

	if cfg.DatabaseDSN == "" {
		log.Fatal("DATABASE_DSN is required")
	}
	store, err := storage.New(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("storage init: %v", err)
	}
	defer store.Close()

	registry := instruments.NewRegistry(cfg.DefaultBrokerID)
	router := buildRouter(cfg, registry)
	defer router.CloseAll()

	riskMgr := risk.NewManager(cfg.Risk, registry)
	alerts := alert.New(os.Getenv("SLACK_WEBHOOK"))

	engine := &execution.Engine{
		Mode:        cfg.TradingMode,
		Router:      router,
		Risk:        riskMgr,
		Registry:    registry,
		Alerts:      alerts,
		Store:       store,
		TP1ClosePct: cfg.Execution.TP1ClosePct,
	}

	cycle := &analysis.Cycle{
		Config:    cfg,
		Router:    router,
		Registry:  registry,
		Detector:  detector.NewReferenceDetector(detector.DefaultReferenceConfig()),
		Risk:      riskMgr,
		Execution: engine,
		MultiTF:   multitf.NewStore(),
		Store:     store,
		Alerts:    alerts,
	}

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 30*time.Second)
	cycle.SeedCandleCache(bootCtx)
	bootCancel()

	tracker := &outcome.Tracker{Router: router, Store: store}

	sched := &scheduler.Scheduler{Jobs: []*scheduler.Job{
		{
			Name:     "analysis_cycle",
			Interval: time.Duration(cfg.AnalysisIntervalMinutes) * time.Minute,
			Run: func(ctx context.Context) error {
				result := cycle.Run(ctx)
				if len(result.Errors) > 0 {
					return fmt.Errorf("%d error(s), first: %s", len(result.Errors), result.Errors[0])
				}
				return nil
			},
		},
		{
			Name:     "position_monitor",
			Interval: time.Duration(cfg.PositionMonitorSeconds) * time.Second,
			Run: func(ctx context.Context) error {
				for _, b := range router.All() {
					if _, err := engine.MonitorPositions(ctx, store, b.BrokerID()); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			Name:     "outcome_tracker",
			Interval: time.Duration(cfg.OutcomeTrackerMinutes) * time.Minute,
			Run: func(ctx context.Context) error {
				_, _, err := tracker.Run(ctx)
				return err
			},
		},
	}}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("/healthz/deep", func(w http.ResponseWriter, r *http.Request) {
		sqlDB, err := store.DB().DB()
		if err == nil {
			err = sqlDB.PingContext(r.Context())
		}
		if err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("database: " + err.Error() + "\n"))
			return
		}
		for _, b := range router.All() {
			if err := b.CheckConnectivity(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(b.BrokerID() + ": " + err.Error() + "\n"))
				return
			}
		}
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: mux}
	go func() {
		log.Printf("serving metrics on :%d/metrics", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sched.Run(ctx)

	shutdownCtx, c := context.WithTimeout(context.Background(), 5*time.Second)
	defer c()
	_ = srv.Shutdown(shutdownCtx)
}

// buildRouter wires every configured broker into its adapter and registers
// it on the router. A broker with a BridgeURL set gets a CompositeAdapter
// (bridge supplies OHLCV/ticker, the broker's own adapter executes) per
// spec §4.1; a broker with no BaseURL gets a PaperAdapter as its execution
// adapter whatever the trading mode, and without a bridge that PaperAdapter
// is also its only data source.
func buildRouter(cfg config.Config, registry *instruments.Registry) *broker.Router {
	router := broker.NewRouter()
	limiter := broker.NewRateLimiter(time.Second, map[string]int{
		"data": 10, "trading": 5, "historical": 2,
	})

	for id, bc := range cfg.Brokers {
		for _, symbol := range bc.Instruments {
			spec := bc.InstrumentSpecFor(symbol)
			registry.Register(instruments.Instrument{
				Symbol:          symbol,
				BrokerID:        id,
				DisplayName:     symbol,
				AssetClass:      spec.AssetClass,
				PipSize:         spec.PipSize,
				PipValuePerUnit: spec.PipValuePerUnit,
				MinUnits:        spec.MinUnits,
				MaxLeverage:     spec.MaxLeverage,
				BaseCurrency:    spec.BaseCurrency,
				FeeRate:         bc.FeeRate,
				QuoteCurrency:   bc.QuoteCurrency,
			})
		}

		execAdapter := buildExecutionAdapter(id, bc, limiter)

		if bc.BridgeURL != "" {
			dataAdapter := broker.NewHTTPAdapter(id+"-data", bc.BridgeURL, limiter, nil)
			router.Register(broker.NewCompositeAdapter(dataAdapter, execAdapter))
			continue
		}
		router.Register(execAdapter)
	}
	return router
}

func buildExecutionAdapter(id string, bc config.BrokerConfig, limiter *broker.RateLimiter) broker.Broker {
	if bc.BaseURL == "" {
		return broker.NewPaperAdapter(id)
	}
	return broker.NewHTTPAdapter(id, bc.BaseURL, limiter, nil)
}
