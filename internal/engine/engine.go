package engine

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/basislab/ustbasis/internal/basis"
	"github.com/basislab/ustbasis/internal/config"
	"github.com/basislab/ustbasis/internal/ctd"
	"github.com/basislab/ustbasis/internal/fees"
	"github.com/basislab/ustbasis/internal/model"
	"github.com/basislab/ustbasis/internal/rank"
	"github.com/basislab/ustbasis/internal/risk"
	"github.com/basislab/ustbasis/internal/sizing"
)

// Config tunes one pipeline. Zero values fall back to the production
// defaults of each stage.
type Config struct {
	VolumeScale      float64
	TopN             int
	Offsets          map[string]ctd.Offsets
	Shocks           []float64
	Leverage         float64
	MarginFraction   float64
	CommissionVolume float64
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		VolumeScale:      rank.DefaultConfig().VolumeScale,
		TopN:             rank.DefaultConfig().TopN,
		Offsets:          ctd.DefaultOffsets,
		Shocks:           risk.DefaultShocks,
		Leverage:         config.DefaultLeverage,
		MarginFraction:   config.DefaultMarginFraction,
		CommissionVolume: config.DefaultCommissionVolume,
	}
}

// FromPipeline maps the YAML pipeline section onto an engine Config.
func FromPipeline(p config.PipelineConfig) Config {
	cfg := Config{
		VolumeScale:      p.VolumeScale,
		TopN:             p.TopN,
		Shocks:           p.Shocks,
		Leverage:         p.Leverage,
		MarginFraction:   p.MarginFraction,
		CommissionVolume: p.CommissionVolume,
	}
	if len(p.Offsets) > 0 {
		cfg.Offsets = make(map[string]ctd.Offsets, len(p.Offsets))
		for series, off := range p.Offsets {
			cfg.Offsets[series] = ctd.Offsets{Min: off.Min, Max: off.Max}
		}
	}
	return cfg
}

// Engine runs the full snapshot-to-recommendations pipeline. It holds no
// state between runs; Run is deterministic for a given snapshot.
type Engine struct {
	cfg       Config
	selector  *ctd.Selector
	calc      *basis.Calculator
	ranker    *rank.Ranker
	optimizer *sizing.Optimizer
	overlay   *risk.Engine
	logger    *slog.Logger
}

// New creates an Engine with every stage wired.
func New(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Leverage == 0 {
		cfg.Leverage = config.DefaultLeverage
	}
	if cfg.MarginFraction == 0 {
		cfg.MarginFraction = config.DefaultMarginFraction
	}
	return &Engine{
		cfg:       cfg,
		selector:  ctd.NewSelector(cfg.Offsets, logger),
		calc:      basis.NewCalculator(logger),
		ranker:    rank.NewRanker(rank.Config{VolumeScale: cfg.VolumeScale, TopN: cfg.TopN}, logger),
		optimizer: sizing.NewOptimizer(logger),
		overlay:   risk.NewEngine(risk.Config{Shocks: cfg.Shocks}, logger),
		logger:    logger,
	}
}

// Run executes one pipeline pass over snap. Every stage consumes the
// previous stage's output in full; an empty result is a valid outcome,
// never an error.
func (e *Engine) Run(snap *model.Snapshot) model.Result {
	started := time.Now()
	res := model.Result{
		RunID:      uuid.New(),
		SnapshotAt: snap.TakenAt,
		StartedAt:  started,
	}

	res.Assignments = e.selector.Select(snap, &res.Skipped)
	res.Basis = e.calc.Compute(res.Assignments, snap.TakenAt)
	res.Candidates = e.ranker.Rank(res.Basis, &res.Skipped)

	limit := e.MarginLimit(snap.NetLiquidation)
	orders := e.optimizer.Size(res.Candidates, limit, &res.Skipped)
	for i := range orders {
		e.applyFees(&orders[i])
	}

	res.Recommendations = e.overlay.Assess(orders, snap.Closes, snap.TakenAt)
	res.Elapsed = time.Since(started)

	e.logger.Info("pipeline run complete",
		"run_id", res.RunID,
		"futures", len(snap.Futures),
		"bonds", len(snap.Bonds),
		"assignments", len(res.Assignments),
		"candidates", len(res.Candidates),
		"recommendations", len(res.Recommendations),
		"margin_limit", limit,
		"elapsed", res.Elapsed,
	)
	return res
}

// MarginLimit is the notional budget for sizing: net liquidation levered
// to the special-memorandum account, scaled back by the usable fraction.
func (e *Engine) MarginLimit(netLiquidation float64) float64 {
	if netLiquidation <= 0 {
		return 0
	}
	return netLiquidation * e.cfg.Leverage * e.cfg.MarginFraction
}

// applyFees converts the round-trip commission for one reduced lot into
// price points and stamps the fee-adjusted limit basis, rounded down to
// the minimum fluctuation.
func (e *Engine) applyFees(o *model.SizedOrder) {
	cost := fees.PairCost(
		o.Candidate.Front.Series, "", o.LotFront,
		o.Candidate.Back.Series, "", o.LotBack,
		e.cfg.CommissionVolume,
	)

	points := 0.0
	if mult := o.Candidate.Front.Multiplier; mult > 0 {
		points = cost / mult
	}
	o.LimitBasis = fees.RoundToIncrement(o.LotAdjBasis-points, fees.MinFluctuation)
}
