package risk

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/basislab/ustbasis/internal/bond"
	"github.com/basislab/ustbasis/internal/model"
	"github.com/basislab/ustbasis/internal/refdata"
)

// Quantile99 is the 99th-percentile standard-normal quantile used to scale
// daily volatility.
const Quantile99 = 2.326

// DefaultShocks is the stress ladder in yield-rate units.
var DefaultShocks = []float64{0.005, -0.005, 0.05, -0.05, 0.5, -0.5}

// Config tunes the overlay engine.
type Config struct {
	// Shocks is the stress ladder; empty means DefaultShocks.
	Shocks []float64
	// BreachFraction of absolute net notional an overlay may reach before
	// it is flagged. Zero means the standard 10%.
	BreachFraction float64
}

// Engine computes the risk overlay for sized orders.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

// NewEngine creates an Engine.
func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if len(cfg.Shocks) == 0 {
		cfg.Shocks = DefaultShocks
	}
	if cfg.BreachFraction == 0 {
		cfg.BreachFraction = 0.1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Assess produces a recommendation per sized order: the stress-ladder DV01
// overlay with breach flags, per-leg volatility from trailing closes, and
// the parametric VaR and position-risk figures.
func (e *Engine) Assess(orders []model.SizedOrder, closes map[int64][]float64, asof time.Time) []model.Recommendation {
	out := make([]model.Recommendation, 0, len(orders))
	for _, o := range orders {
		out = append(out, model.Recommendation{
			Order: o,
			Risk:  e.assessOne(o, closes, asof),
		})
	}
	return out
}

func (e *Engine) assessOne(o model.SizedOrder, closes map[int64][]float64, asof time.Time) model.RiskReport {
	front, back := o.Candidate.Front, o.Candidate.Back

	qtyFront := float64(o.QtyFront * o.Candidate.FrontSign)
	qtyBack := float64(o.QtyBack * o.Candidate.BackSign)

	rep := model.RiskReport{
		NetNotional: qtyFront*front.Multiplier*front.FuturesPrice +
			qtyBack*back.Multiplier*back.FuturesPrice,
	}
	threshold := e.cfg.BreachFraction * math.Abs(rep.NetNotional)

	termFront, _ := bond.RoundTerm(refdata.Term(asof, front.Maturity))
	termBack, _ := bond.RoundTerm(refdata.Term(asof, back.Maturity))

	rep.Scenarios = make([]model.ScenarioImpact, 0, len(e.cfg.Shocks))
	for _, shock := range e.cfg.Shocks {
		fDur, _ := bond.ApproxDuration(front.Coupon, termFront, front.ImpliedYield, bond.SemiAnnual, nil, shock)
		bDur, _ := bond.ApproxDuration(back.Coupon, termBack, back.ImpliedYield, bond.SemiAnnual, nil, shock)

		overlay := fDur*front.TheoPrice*0.0001*qtyFront +
			bDur*back.TheoPrice*0.0001*qtyBack

		impact := model.ScenarioImpact{
			Shock:   shock,
			Overlay: overlay,
			Breach:  math.Abs(overlay) > threshold,
		}
		if impact.Breach {
			rep.Breached = true
		}
		rep.Scenarios = append(rep.Scenarios, impact)
	}

	rep.FrontVol = Volatility(closes[front.FuturesConID])
	rep.BackVol = Volatility(closes[back.FuturesConID])

	fDur, fCvx := e.historyFlags(front, termFront, closes[front.FuturesConID])
	bDur, bCvx := e.historyFlags(back, termBack, closes[back.FuturesConID])
	rep.DurationRisk = fDur || bDur
	rep.ConvexityRisk = fCvx || bCvx

	rep.ValueAtRisk = qtyFront*front.Multiplier*rep.FrontVol +
		qtyBack*back.Multiplier*rep.BackVol
	rep.PositionRisk = qtyFront*front.Multiplier*front.FuturesPrice*rep.FrontVol +
		qtyBack*back.Multiplier*back.FuturesPrice*rep.BackVol

	if rep.Breached {
		e.logger.Debug("stress breach",
			"front", front.Code,
			"back", back.Code,
			"net_notional", rep.NetNotional,
		)
	}
	return rep
}

// historyFlags compares the leg's current finite-difference duration and
// convexity against the 99th percentile of the same measures implied by
// the trailing futures closes. With no history both flags stay false.
func (e *Engine) historyFlags(leg model.BasisRecord, term float64, closes []float64) (durRisk, cvxRisk bool) {
	if len(closes) < 2 || leg.Factor == 0 {
		return false, false
	}

	curDur, okD := bond.ApproxDuration(leg.Coupon, term, leg.ImpliedYield, bond.SemiAnnual, nil, bond.DefaultShock)
	curCvx, okC := bond.ApproxConvexity(leg.Coupon, term, leg.ImpliedYield, bond.SemiAnnual, nil, bond.DefaultShock)
	if !okD && !okC {
		return false, false
	}

	var durs, cvxs []float64
	for _, close := range closes {
		implied := close * leg.Factor
		y, ok := bond.PriceToYield(implied, leg.Coupon, term, bond.SemiAnnual, nil)
		if !ok {
			continue
		}
		if d, ok := bond.ApproxDuration(leg.Coupon, term, y, bond.SemiAnnual, nil, bond.DefaultShock); ok {
			durs = append(durs, d)
		}
		if c, ok := bond.ApproxConvexity(leg.Coupon, term, y, bond.SemiAnnual, nil, bond.DefaultShock); ok {
			cvxs = append(cvxs, c)
		}
	}

	if okD && len(durs) > 0 {
		durRisk = curDur > Percentile(durs, 99)
	}
	if okC && len(cvxs) > 0 {
		cvxRisk = curCvx > Percentile(cvxs, 99)
	}
	return durRisk, cvxRisk
}

// Volatility estimates a 99%-scaled daily volatility as the standard
// deviation of log-returns of the trailing closes. Fewer than two
// observations yields 0.0, not an error.
func Volatility(closes []float64) float64 {
	if len(closes) < 2 {
		return 0.0
	}

	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 || closes[i] <= 0 {
			continue
		}
		returns = append(returns, math.Log(closes[i]/closes[i-1]))
	}
	if len(returns) == 0 {
		return 0.0
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))

	return math.Sqrt(variance) * Quantile99
}

// Percentile returns the p-quantile (0-100) of values by linear
// interpolation between closest ranks. An empty slice yields 0.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
