package bond

import (
	"math"
	"time"
)

// Term returns the years from settle to maturity on a 365.25-day basis.
func Term(settle, maturity time.Time) float64 {
	return maturity.Sub(settle).Hours() / 24 / 365.25
}

// MetricsInput describes one bond position for Compute.
type MetricsInput struct {
	CleanPrice  float64   // Observed market price, per 100 face
	Coupon      float64   // Annual coupon, percent of face
	Settlement  time.Time // Trade settlement date
	Maturity    time.Time
	PrevCoupon  time.Time // Last coupon on or before settlement
	NextCoupon  time.Time
	Period      int // Coupons per year; 0 means semiannual
	Day         DayCount
	MarketYield *float64 // Quoted yield; nil means solve from CleanPrice
}

// Metrics bundles every valuation measure for one bond.
type Metrics struct {
	Term             float64 // Years to maturity, unrounded
	Yield            float64 // Solved or quoted, decimal
	CleanPrice       float64 // Theoretical price at Yield
	AccruedInterest  float64
	ModifiedDuration float64
	MacaulayDuration float64
	DV01             float64
	Convexity        float64
	ApproxDuration   float64
	ApproxConvexity  float64
}

// Compute derives the full metric set for one bond. Returns false when the
// inputs cannot support a valuation at all: no maturity or settlement, or no
// price and no quoted yield.
func Compute(in MetricsInput) (Metrics, bool) {
	if in.Maturity.IsZero() || in.Settlement.IsZero() {
		return Metrics{}, false
	}
	period := in.Period
	if period == 0 {
		period = SemiAnnual
	}
	if in.CleanPrice <= 0 && in.MarketYield == nil {
		return Metrics{}, false
	}

	term := Term(in.Settlement, in.Maturity)

	var yld float64
	if in.MarketYield != nil {
		yld = *in.MarketYield
	} else {
		solved, ok := Yield(in.CleanPrice, in.Coupon, term, period)
		if !ok {
			return Metrics{}, false
		}
		yld = math.Round(solved*1e5) / 1e5
	}

	w := &Window{
		Begin:  in.PrevCoupon,
		Settle: in.Settlement,
		Next:   in.NextCoupon,
		Day:    in.Day,
	}
	if w.Begin.IsZero() {
		w = nil
	}

	m := Metrics{Term: term, Yield: yld}
	m.CleanPrice, _ = Price(in.Coupon, term, yld, period, w)
	if w != nil {
		m.AccruedInterest, _ = AccruedInterest(in.Coupon, period, *w)
	}
	m.ModifiedDuration, _ = ModifiedDuration(in.Coupon, term, yld, period, w)
	m.MacaulayDuration, _ = MacaulayDuration(in.Coupon, term, yld, period, w)
	m.DV01, _ = DV01(in.Coupon, term, yld, period, w)
	m.Convexity, _ = Convexity(in.Coupon, term, yld, period, w)
	m.ApproxDuration, _ = ApproxDuration(in.Coupon, term, yld, period, w, DefaultShock)
	m.ApproxConvexity, _ = ApproxConvexity(in.Coupon, term, yld, period, w, DefaultShock)

	return m, true
}
