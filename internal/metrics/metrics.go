// Package metrics exposes Prometheus instrumentation for the run pipeline
// and serves it over HTTP alongside a liveness endpoint.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/basislab/ustbasis/internal/config"
	"github.com/basislab/ustbasis/internal/model"
)

var (
	RunsTotal       = prometheus.NewCounter(prometheus.CounterOpts{Name: "ustbasis_runs_total", Help: "Completed pipeline runs"})
	RunErrorsTotal  = prometheus.NewCounter(prometheus.CounterOpts{Name: "ustbasis_run_errors_total", Help: "Runs that failed to build a snapshot or persist"})
	RunDurationMs   = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "ustbasis_run_duration_ms", Help: "Pipeline run duration", Buckets: prometheus.ExponentialBuckets(1, 2, 12)})
	Assignments     = prometheus.NewGauge(prometheus.GaugeOpts{Name: "ustbasis_assignments", Help: "CTD assignments in the latest run"})
	Candidates      = prometheus.NewGauge(prometheus.GaugeOpts{Name: "ustbasis_candidates", Help: "Ranked spread candidates in the latest run"})
	Recommendations = prometheus.NewGauge(prometheus.GaugeOpts{Name: "ustbasis_recommendations", Help: "Sized recommendations in the latest run"})
	RiskBreaches    = prometheus.NewGauge(prometheus.GaugeOpts{Name: "ustbasis_risk_breaches", Help: "Recommendations with a breached stress scenario in the latest run"})
	NetLiquidation  = prometheus.NewGauge(prometheus.GaugeOpts{Name: "ustbasis_net_liquidation_usd", Help: "Account net liquidation value from the latest snapshot"})
	SkippedTotal    = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ustbasis_skipped_total", Help: "Rows dropped per pipeline stage"}, []string{"stage"})
	TopScore        = prometheus.NewGauge(prometheus.GaugeOpts{Name: "ustbasis_top_score", Help: "Score of the highest ranked candidate in the latest run"})
)

// Init builds a registry with all pipeline collectors plus the standard Go
// and process collectors.
func Init() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	toRegister := []prometheus.Collector{
		RunsTotal, RunErrorsTotal, RunDurationMs,
		Assignments, Candidates, Recommendations, RiskBreaches,
		NetLiquidation, SkippedTotal, TopScore,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range toRegister {
		_ = reg.Register(c)
	}
	return reg
}

// ObserveRun records one pipeline result.
func ObserveRun(res model.Result) {
	RunsTotal.Inc()
	RunDurationMs.Observe(float64(res.Elapsed.Milliseconds()))
	Assignments.Set(float64(len(res.Assignments)))
	Candidates.Set(float64(len(res.Candidates)))
	Recommendations.Set(float64(len(res.Recommendations)))

	breaches := 0
	for _, rec := range res.Recommendations {
		if rec.Risk.Breached {
			breaches++
		}
	}
	RiskBreaches.Set(float64(breaches))

	if len(res.Candidates) > 0 {
		TopScore.Set(res.Candidates[0].Score)
	}

	sk := res.Skipped
	SkippedTotal.WithLabelValues("futures_no_price").Add(float64(sk.FuturesNoPrice))
	SkippedTotal.WithLabelValues("bonds_no_price").Add(float64(sk.BondsNoPrice))
	SkippedTotal.WithLabelValues("bonds_no_factor").Add(float64(sk.BondsNoFactor))
	SkippedTotal.WithLabelValues("no_eligible_bond").Add(float64(sk.NoEligibleBond))
	SkippedTotal.WithLabelValues("pairs_no_volume").Add(float64(sk.PairsNoVolume))
	SkippedTotal.WithLabelValues("orders_unsizable").Add(float64(sk.OrdersUnsizable))
}

// Server serves the metrics registry and a health endpoint.
type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// NewServer builds an HTTP server exposing reg at cfg.Path and a /healthz
// liveness endpoint.
func NewServer(cfg config.MetricsConfig, reg *prometheus.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	path := cfg.Path
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &Server{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Start serves in the background until Stop is called.
func (s *Server) Start() {
	go func() {
		s.logger.Info("metrics server started", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server failed", "error", err)
		}
	}()
}

// Stop shuts the server down, honoring the context deadline.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
