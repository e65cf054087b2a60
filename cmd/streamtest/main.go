// streamtest connects to the gateway WebSocket and prints parsed quote
// updates to the console. Useful for verifying the session cookie, the
// subscription set, and the field parsing before running basisd.
// Usage: go run ./cmd/streamtest --config configs/basisd.local.yaml
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/basislab/ustbasis/internal/config"
	"github.com/basislab/ustbasis/internal/gateway"
	"github.com/basislab/ustbasis/internal/marketdata"
	"github.com/basislab/ustbasis/internal/ratelimit"
	"github.com/basislab/ustbasis/internal/stream"
	"github.com/basislab/ustbasis/internal/universe"
)

func main() {
	configPath := flag.String("config", "configs/basisd.local.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "print full update JSON")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Stream.URL == "" {
		logger.Error("stream.url is not configured")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	gwOpts := []gateway.ClientOption{
		gateway.WithLogger(logger),
		gateway.WithTimeout(cfg.Gateway.Timeout),
		gateway.WithRateLimiter(ratelimit.New(float64(cfg.Gateway.RequestsPerSecond))),
	}
	if cfg.Gateway.InsecureSkipVerify {
		gwOpts = append(gwOpts, gateway.WithInsecureTLS())
	}
	gwClient := gateway.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.AccountID, gwOpts...)

	status, err := gwClient.AuthStatus(ctx)
	if err != nil {
		logger.Error("failed to reach gateway", "error", err)
		os.Exit(1)
	}
	if !status.Authenticated {
		logger.Error("gateway session is not authenticated")
		os.Exit(1)
	}

	// Resolve the futures chains so we know which conids to subscribe
	registry := universe.NewRegistry(universe.Config{
		Symbols:          cfg.Universe.Symbols,
		DeliverablesPath: cfg.Universe.DeliverablesPath,
	}, gwClient, logger)
	if err := registry.Start(ctx); err != nil {
		logger.Error("failed to load universe", "error", err)
		os.Exit(1)
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		registry.Stop(stopCtx)
	}()

	futures := registry.Futures()
	conids := make([]int64, 0, len(futures))
	for _, f := range futures {
		conids = append(conids, f.ConID)
	}
	logger.Info("subscribing", "contracts", len(conids))

	streamCfg := stream.DefaultConfig()
	streamCfg.URL = cfg.Stream.URL
	streamCfg.InsecureSkipVerify = cfg.Gateway.InsecureSkipVerify

	client := stream.NewClient(streamCfg, gwClient, logger)
	client.Subscribe(conids)
	if err := client.Start(ctx); err != nil {
		logger.Error("failed to start stream", "error", err)
		os.Exit(1)
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		client.Stop(stopCtx)
	}()

	// Drain and print until interrupted
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	total := 0
	for {
		select {
		case <-ctx.Done():
			stats := client.Stats()
			logger.Info("stream test finished",
				"updates", total,
				"pushed", stats.TotalPushed,
				"drained", stats.TotalDrained,
			)
			return
		case <-ticker.C:
			for _, u := range client.Drain() {
				total++
				if *verbose {
					raw, _ := json.Marshal(u)
					fmt.Println(string(raw))
					continue
				}

				last, _, _ := marketdata.ParsePrice(u.LastPrice)
				fmt.Printf("%s conid=%d last=%s(%.5f) bid=%s ask=%s vol=%s\n",
					u.ReceivedAt.Format("15:04:05.000"),
					u.ConID, u.LastPrice, last, u.BidPrice, u.AskPrice, u.Volume)
			}
		}
	}
}
