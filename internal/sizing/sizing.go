package sizing

import (
	"log/slog"
	"math"

	"github.com/basislab/ustbasis/internal/model"
)

// Optimizer assigns integer per-leg quantities to ranked candidates under
// a notional budget.
//
// The search is a bounded one-sided linear scan over the back-leg quantity
// with the front leg derived from the DV01 ratio. It is deliberately not a
// general integer program; the scan is exact enough for two-leg spreads
// and runs in O(Limit/costBack).
type Optimizer struct {
	logger *slog.Logger
}

// NewOptimizer creates an Optimizer.
func NewOptimizer(logger *slog.Logger) *Optimizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Optimizer{logger: logger}
}

// Size sizes every candidate against the limit, dropping those whose legs
// cannot be costed.
func (o *Optimizer) Size(candidates []model.SpreadCandidate, limit float64, skips *model.SkipCounts) []model.SizedOrder {
	out := make([]model.SizedOrder, 0, len(candidates))
	for _, c := range candidates {
		order, ok := o.sizeOne(c, limit)
		if !ok {
			skips.OrdersUnsizable++
			continue
		}
		out = append(out, order)
	}
	return out
}

func (o *Optimizer) sizeOne(c model.SpreadCandidate, limit float64) (model.SizedOrder, bool) {
	costFront := c.Front.Multiplier * c.Front.FuturesPrice
	costBack := c.Back.Multiplier * c.Back.FuturesPrice
	if costFront <= 0 || costBack <= 0 || limit <= 0 {
		return model.SizedOrder{}, false
	}

	r := 1.0
	if c.Back.DV01 != 0 {
		r = c.Front.DV01 / c.Back.DV01
	}

	qf, qb := scan(r, costFront, costBack, limit)

	order := model.SizedOrder{
		Candidate: c,
		QtyFront:  qf,
		QtyBack:   qb,
		FrontSide: model.SideOf(c.FrontSign),
		BackSide:  model.SideOf(c.BackSign),
		Notional:  float64(qf)*costFront + float64(qb)*costBack,
	}

	// Reduce to the minimal coprime lot and re-price at that size.
	g := gcd(qf, qb)
	order.LotFront = qf / g
	order.LotBack = qb / g
	order.LotNotional = float64(order.LotFront)*costFront + float64(order.LotBack)*costBack
	order.LotAdjBasis = c.Front.NetBasis*float64(c.FrontSign)*float64(order.LotFront) -
		c.Back.NetBasis*float64(c.BackSign)*float64(order.LotBack)

	return order, true
}

// scan walks the back-leg quantity from 1 to the budget bound, derives the
// ratio-matched front quantity, and keeps the most expensive affordable
// combination, breaking cost ties toward the quantity ratio closest to r.
// Falls back to (1, 1) when nothing fits.
func scan(r, costFront, costBack, limit float64) (qfront, qback int) {
	bestF, bestB := 0, 0
	bestCost := -1.0
	bestErr := math.Inf(1)

	maxB := int(limit / costBack)
	for qb := 1; qb <= maxB; qb++ {
		qf := int(math.Round(r * float64(qb)))
		if qf < 1 {
			qf = 1
		}
		cost := float64(qf)*costFront + float64(qb)*costBack
		if cost > limit {
			continue
		}
		err := math.Abs(float64(qf)/float64(qb) - r)
		if cost > bestCost || (cost == bestCost && err < bestErr) {
			bestF, bestB = qf, qb
			bestCost, bestErr = cost, err
		}
	}

	if bestF == 0 || bestB == 0 {
		return 1, 1
	}
	return bestF, bestB
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}
