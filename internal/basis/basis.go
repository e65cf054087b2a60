package basis

import (
	"log/slog"
	"time"

	"github.com/basislab/ustbasis/internal/bond"
	"github.com/basislab/ustbasis/internal/model"
	"github.com/basislab/ustbasis/internal/refdata"
)

// Calculator derives basis and carry economics from CTD assignments.
type Calculator struct {
	logger *slog.Logger
}

// NewCalculator creates a Calculator.
func NewCalculator(logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{logger: logger}
}

// Compute extends each assignment with accrued interest, gross and net
// basis, implied repo, financing cost, carry, convexity yield, and the
// futures-equivalent DV01. Degenerate rows (zero dirty price) are skipped.
func (c *Calculator) Compute(assignments []model.CTDAssignment, asof time.Time) []model.BasisRecord {
	out := make([]model.BasisRecord, 0, len(assignments))
	for _, a := range assignments {
		r, ok := c.computeOne(a, asof)
		if !ok {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (c *Calculator) computeOne(a model.CTDAssignment, asof time.Time) (model.BasisRecord, bool) {
	r := model.BasisRecord{
		CTDAssignment: a,
		SettleDate:    refdata.SettlementDate(asof, 1),
		DeliveryDate:  a.Expiry,
	}

	days := int(r.DeliveryDate.Sub(r.SettleDate).Hours() / 24)
	if days < 1 {
		days = 1
	}
	r.DaysToDelivery = days

	// Accrual anchored to the nearest semiannual coupon date at or before
	// settlement, on the maturity's month/day schedule.
	anchor := refdata.CouponAnchor(a.Maturity, r.SettleDate)
	daysAccrued := r.SettleDate.Sub(anchor).Hours() / 24
	r.AccruedInterest = a.Coupon / 2 * daysAccrued / 182.5
	r.DirtyPrice = a.BondPrice + r.AccruedInterest

	if r.DirtyPrice == 0 {
		c.logger.Debug("zero dirty price, dropping row", "code", a.Code, "cusip", a.CUSIP)
		return r, false
	}

	fd := float64(days)
	adjFut := a.FuturesPrice * a.Factor
	r.GrossBasis = adjFut - r.DirtyPrice
	r.ImpliedRepo = (adjFut - r.DirtyPrice) / r.DirtyPrice * (365 / fd)
	r.FinancingCost = r.DirtyPrice * r.ImpliedRepo * fd / 365
	r.Carry = r.GrossBasis - r.FinancingCost
	r.NetBasis = r.GrossBasis + r.Carry
	// The two day-count ratios cancel algebraically; the reference keeps
	// the full expression and so does this.
	r.ConvexityYield = a.Coupon / r.DirtyPrice * (fd / 365) * (365 / fd)

	// Futures-equivalent DV01: the CTD's DV01 through the conversion
	// factor.
	term, _ := bond.RoundTerm(refdata.Term(asof, a.Maturity))
	if dv, ok := bond.DV01(a.Coupon, term, a.ImpliedYield, bond.SemiAnnual, nil); ok && a.Factor != 0 {
		r.DV01 = dv / a.Factor
	}

	return r, true
}
