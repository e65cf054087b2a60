// basisd runs the calendar-spread scan daemon: it polls the gateway for
// quotes, runs the pipeline, and fans results out to Postgres, NATS, and
// Prometheus.
// Usage: go run ./cmd/basisd --config configs/basisd.local.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/basislab/ustbasis/internal/config"
	"github.com/basislab/ustbasis/internal/engine"
	"github.com/basislab/ustbasis/internal/gateway"
	"github.com/basislab/ustbasis/internal/marketdata"
	"github.com/basislab/ustbasis/internal/metrics"
	"github.com/basislab/ustbasis/internal/model"
	"github.com/basislab/ustbasis/internal/poller"
	"github.com/basislab/ustbasis/internal/publish"
	"github.com/basislab/ustbasis/internal/ratelimit"
	"github.com/basislab/ustbasis/internal/store"
	"github.com/basislab/ustbasis/internal/stream"
	"github.com/basislab/ustbasis/internal/universe"
	"github.com/basislab/ustbasis/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/basisd.local.yaml", "path to config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	// Set up structured logging. Until the config is in, log at info.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting basisd",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Instance.SlogLevel(),
	}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"log_level", cfg.Instance.LogLevel,
		"gateway_url", cfg.Gateway.BaseURL,
		"symbols", cfg.Universe.Symbols,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Create gateway client
	gwOpts := []gateway.ClientOption{
		gateway.WithLogger(logger),
		gateway.WithTimeout(cfg.Gateway.Timeout),
		gateway.WithRetries(cfg.Gateway.MaxRetries, time.Second),
		gateway.WithRateLimiter(ratelimit.New(float64(cfg.Gateway.RequestsPerSecond))),
	}
	if cfg.Gateway.InsecureSkipVerify {
		gwOpts = append(gwOpts, gateway.WithInsecureTLS())
	}
	gwClient := gateway.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.AccountID, gwOpts...)

	// Check gateway session
	logger.Info("checking gateway session")
	status, err := gwClient.AuthStatus(ctx)
	if err != nil {
		logger.Error("failed to reach gateway", "error", err)
		os.Exit(1)
	}
	logger.Info("gateway session",
		"authenticated", status.Authenticated,
		"connected", status.Connected,
	)
	if !status.Authenticated {
		logger.Error("gateway session is not authenticated, log in to the gateway first")
		os.Exit(1)
	}

	// Keep the session alive
	keepalive := gateway.NewKeepalive(gwClient, cfg.Gateway.TickleInterval, logger)
	if err := keepalive.Start(ctx); err != nil {
		logger.Error("failed to start keepalive", "error", err)
		os.Exit(1)
	}
	defer stopWithTimeout(keepalive.Stop, logger, "keepalive")

	// Resolve the contract universe
	registry := universe.NewRegistry(universe.Config{
		Symbols:           cfg.Universe.Symbols,
		DeliverablesPath:  cfg.Universe.DeliverablesPath,
		ReconcileInterval: cfg.Universe.ReconcileInterval,
	}, gwClient, logger)

	logger.Info("starting universe registry (initial sync)")
	if err := registry.Start(ctx); err != nil {
		logger.Error("failed to start universe registry", "error", err)
		os.Exit(1)
	}
	defer stopWithTimeout(registry.Stop, logger, "universe registry")

	futures := registry.Futures()
	logger.Info("universe registry started",
		"futures", len(futures),
		"bonds", len(registry.Bonds()),
	)

	// Prometheus metrics
	reg := metrics.Init()
	metricsServer := metrics.NewServer(cfg.Metrics, reg, logger)
	metricsServer.Start()
	defer stopWithTimeout(metricsServer.Stop, logger, "metrics server")

	// Snapshot builder
	builder := marketdata.NewBuilder(gwClient, registry, logger,
		marketdata.WithHistoryDays(cfg.Pipeline.HistoryDays),
	)

	// Pipeline engine
	eng := engine.New(engine.FromPipeline(cfg.Pipeline), logger)

	// Result handlers
	var handlers []poller.RunHandler

	if cfg.Database.Enabled() {
		logger.Info("connecting to database",
			"host", cfg.Database.Host,
			"port", cfg.Database.Port,
			"database", cfg.Database.Name,
		)
		pool, err := store.Connect(ctx, cfg.Database)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := store.EnsureSchema(ctx, pool); err != nil {
			logger.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}

		st := store.New(store.WriterConfig{
			BatchSize:     cfg.Writers.BatchSize,
			FlushInterval: cfg.Writers.FlushInterval,
		}, pool, logger)
		if err := st.Start(ctx); err != nil {
			logger.Error("failed to start store", "error", err)
			os.Exit(1)
		}
		defer stopWithTimeout(st.Stop, logger, "store")
		handlers = append(handlers, st)
		logger.Info("database connected")
	}

	if cfg.NATS.Enabled() {
		pub, err := publish.Connect(cfg.NATS, logger)
		if err != nil {
			logger.Error("failed to connect to nats", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := pub.Close(); err != nil {
				logger.Warn("nats drain failed", "error", err)
			}
		}()
		handlers = append(handlers, pub)
	}

	handlers = append(handlers, poller.RunHandlerFunc(func(res model.Result) error {
		metrics.ObserveRun(res)
		return nil
	}))

	// Optional live quote stream
	var streamClient *stream.Client
	if cfg.Stream.Enabled {
		streamCfg := stream.DefaultConfig()
		streamCfg.URL = cfg.Stream.URL
		streamCfg.InsecureSkipVerify = cfg.Gateway.InsecureSkipVerify
		if cfg.Stream.PingInterval > 0 {
			streamCfg.PingInterval = cfg.Stream.PingInterval
		}
		if cfg.Stream.ReadTimeout > 0 {
			streamCfg.ReadTimeout = cfg.Stream.ReadTimeout
		}
		if cfg.Stream.ReconnectBaseDelay > 0 {
			streamCfg.ReconnectBaseDelay = cfg.Stream.ReconnectBaseDelay
		}
		if cfg.Stream.ReconnectMaxDelay > 0 {
			streamCfg.ReconnectMaxDelay = cfg.Stream.ReconnectMaxDelay
		}
		if cfg.Stream.BufferSize > 0 {
			streamCfg.BufferSize = cfg.Stream.BufferSize
		}

		streamClient = stream.NewClient(streamCfg, gwClient, logger)
		conids := make([]int64, 0, len(futures))
		for _, f := range futures {
			conids = append(conids, f.ConID)
		}
		streamClient.Subscribe(conids)
		if err := streamClient.Start(ctx); err != nil {
			logger.Error("failed to start quote stream", "error", err)
			os.Exit(1)
		}
		defer stopWithTimeout(streamClient.Stop, logger, "quote stream")
	}

	// Poller drives the run loop
	p := poller.New(poller.Config{
		Interval:   cfg.Poller.Interval,
		RunTimeout: cfg.Poller.RunTimeout,
	}, meteredSource{builder, streamClient}, eng, fanOut(handlers), logger)

	if err := p.Start(ctx); err != nil {
		logger.Error("failed to start poller", "error", err)
		os.Exit(1)
	}
	defer stopWithTimeout(p.Stop, logger, "poller")

	logger.Info("basisd running",
		"instance_id", cfg.Instance.ID,
		"interval", cfg.Poller.Interval,
	)

	// Wait for shutdown
	<-ctx.Done()
	logger.Info("shutting down")
}

// fanOut dispatches a result to every handler, collecting errors.
func fanOut(handlers []poller.RunHandler) poller.RunHandler {
	return poller.RunHandlerFunc(func(res model.Result) error {
		var errs []error
		for _, h := range handlers {
			if err := h.HandleRun(res); err != nil {
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			metrics.RunErrorsTotal.Inc()
		}
		return errors.Join(errs...)
	})
}

// meteredSource records snapshot-level gauges around the builder and
// folds any streamed ticks received since the last poll onto the
// snapshot.
type meteredSource struct {
	builder *marketdata.Builder
	stream  *stream.Client
}

func (m meteredSource) Build(ctx context.Context) (*model.Snapshot, error) {
	snap, err := m.builder.Build(ctx)
	if err != nil {
		metrics.RunErrorsTotal.Inc()
		return nil, err
	}
	if m.stream != nil {
		if applied := marketdata.ApplyUpdates(snap, m.stream.Drain()); applied > 0 {
			slog.Debug("applied streamed quotes", "contracts", applied)
		}
	}
	metrics.NetLiquidation.Set(snap.NetLiquidation)
	return snap, nil
}

// stopWithTimeout runs a component Stop with a shutdown deadline.
func stopWithTimeout(stop func(context.Context) error, logger *slog.Logger, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := stop(ctx); err != nil {
		logger.Warn("component stop failed", "component", name, "error", err)
	}
}
