// basisscan runs one scan and prints the ranked recommendations. It reads
// a live gateway by default, or replays CSV fixtures when --futures is
// given. Handy for checking the universe and pipeline settings before
// leaving basisd to poll.
// Usage:
//
//	go run ./cmd/basisscan --config configs/basisd.local.yaml
//	go run ./cmd/basisscan --config cfg.yaml --futures f.csv --bonds b.csv --closes c.csv
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

	"github.com/basislab/ustbasis/internal/bond"
	"github.com/basislab/ustbasis/internal/config"
	"github.com/basislab/ustbasis/internal/engine"
	"github.com/basislab/ustbasis/internal/gateway"
	"github.com/basislab/ustbasis/internal/marketdata"
	"github.com/basislab/ustbasis/internal/model"
	"github.com/basislab/ustbasis/internal/ratelimit"
	"github.com/basislab/ustbasis/internal/refdata"
	"github.com/basislab/ustbasis/internal/universe"
)

func main() {
	configPath := flag.String("config", "configs/basisd.local.yaml", "path to config file")
	asJSON := flag.Bool("json", false, "print the full result as JSON")
	futuresCSV := flag.String("futures", "", "futures quote fixture CSV (enables offline replay)")
	bondsCSV := flag.String("bonds", "", "deliverable-bond quote fixture CSV")
	closesCSV := flag.String("closes", "", "trailing closes fixture CSV")
	netLiq := flag.Float64("netliq", 1000000, "account net liquidation for offline replay")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Instance.SlogLevel(),
	}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	var snap *model.Snapshot
	if *futuresCSV != "" {
		snap, err = marketdata.LoadSnapshot(marketdata.ReplayFiles{
			FuturesPath:    *futuresCSV,
			BondsPath:      *bondsCSV,
			ClosesPath:     *closesCSV,
			NetLiquidation: *netLiq,
		})
		if err != nil {
			logger.Error("failed to load fixture snapshot", "error", err)
			os.Exit(1)
		}
	} else {
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

		status, err := gwClient.AuthStatus(ctx)
		if err != nil {
			logger.Error("failed to reach gateway", "error", err)
			os.Exit(1)
		}
		if !status.Authenticated {
			logger.Error("gateway session is not authenticated")
			os.Exit(1)
		}

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

		builder := marketdata.NewBuilder(gwClient, registry, logger,
			marketdata.WithHistoryDays(cfg.Pipeline.HistoryDays),
		)

		snap, err = builder.Build(ctx)
		if err != nil {
			logger.Error("failed to build snapshot", "error", err)
			os.Exit(1)
		}
	}

	eng := engine.New(engine.FromPipeline(cfg.Pipeline), logger)
	res := eng.Run(snap)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			logger.Error("failed to encode result", "error", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("run %s  snapshot %s  elapsed %s\n",
		res.RunID, res.SnapshotAt.Format(time.RFC3339), res.Elapsed)
	fmt.Printf("assignments %d  candidates %d  recommendations %d\n\n",
		len(res.Assignments), len(res.Candidates), len(res.Recommendations))

	if len(res.Recommendations) == 0 {
		fmt.Println("no recommendations")
	} else {
		fmt.Printf("%-4s %-18s %-18s %9s %12s %14s %10s %6s\n",
			"#", "front", "back", "qty", "limit", "notional", "score", "risk")
		for i, rec := range res.Recommendations {
			o := rec.Order
			riskFlag := "ok"
			if rec.Risk.Breached {
				riskFlag = "BREACH"
			}
			fmt.Printf("%-4d %-18s %-18s %4dx%-4d %12.5f %14.0f %10.4f %6s\n",
				i+1,
				fmt.Sprintf("%s %s", o.FrontSide, o.Candidate.Front.Code),
				fmt.Sprintf("%s %s", o.BackSide, o.Candidate.Back.Code),
				o.QtyFront, o.QtyBack,
				o.LimitBasis,
				o.Notional,
				o.Candidate.Score,
				riskFlag,
			)
		}
	}

	if len(res.Assignments) > 0 {
		printLegDetail(res)
	}
}

// printLegDetail values each cheapest-to-deliver leg for T+1 settlement of
// the snapshot date, solving yield from the observed clean price.
func printLegDetail(res model.Result) {
	settle := refdata.SettlementDate(res.SnapshotAt, 1)

	fmt.Printf("\nctd legs (settle %s)\n", settle.Format("2006-01-02"))
	fmt.Printf("%-6s %-11s %9s %8s %8s %8s %9s %9s\n",
		"fut", "cusip", "price", "yield", "mdur", "dv01", "cvx", "accrued")
	for _, a := range res.Assignments {
		prev, next := refdata.CouponBounds(a.Maturity, settle)
		m, ok := bond.Compute(bond.MetricsInput{
			CleanPrice: a.BondPrice,
			Coupon:     a.Coupon,
			Settlement: settle,
			Maturity:   a.Maturity,
			PrevCoupon: prev,
			NextCoupon: next,
		})
		if !ok {
			fmt.Printf("%-6s %-11s %9.4f  (no valuation)\n", a.Code, a.CUSIP, a.BondPrice)
			continue
		}
		fmt.Printf("%-6s %-11s %9.4f %7.3f%% %8.3f %8.4f %9.2f %9.4f\n",
			a.Code, a.CUSIP, a.BondPrice,
			m.Yield*100, m.ModifiedDuration, m.DV01, m.Convexity, m.AccruedInterest)
	}
}
