package bond

import (
	"math"
	"testing"
)

func TestCompute(t *testing.T) {
	// A 4.25% bond at par, settling on a coupon date: the solved yield is
	// the coupon rate and no interest has accrued.
	m, ok := Compute(MetricsInput{
		CleanPrice: 100,
		Coupon:     4.25,
		Settlement: date(2025, 5, 15),
		Maturity:   date(2030, 5, 15),
		PrevCoupon: date(2025, 5, 15),
		NextCoupon: date(2025, 11, 15),
	})
	if !ok {
		t.Fatal("Compute not ok")
	}
	if math.Abs(m.Yield-0.0425) > 1e-6 {
		t.Errorf("Yield = %v, want 0.0425", m.Yield)
	}
	if math.Abs(m.CleanPrice-100) > 1e-6 {
		t.Errorf("CleanPrice = %v, want 100", m.CleanPrice)
	}
	if m.AccruedInterest != 0 {
		t.Errorf("AccruedInterest = %v, want 0 on a coupon date", m.AccruedInterest)
	}
	if m.ModifiedDuration <= 0 || m.Convexity <= 0 || m.DV01 <= 0 {
		t.Errorf("measures not positive: %+v", m)
	}
	if m.MacaulayDuration <= m.ModifiedDuration {
		t.Errorf("Macaulay %v not above modified %v", m.MacaulayDuration, m.ModifiedDuration)
	}
	if rel := math.Abs(m.ApproxDuration-m.ModifiedDuration) / m.ModifiedDuration; rel > 0.01 {
		t.Errorf("ApproxDuration = %v, analytic %v", m.ApproxDuration, m.ModifiedDuration)
	}
	if rel := math.Abs(m.ApproxConvexity-m.Convexity) / m.Convexity; rel > 0.01 {
		t.Errorf("ApproxConvexity = %v, analytic %v", m.ApproxConvexity, m.Convexity)
	}
}

func TestComputeMidPeriodAccrued(t *testing.T) {
	// Settling halfway through the May–November period earns half a coupon.
	m, ok := Compute(MetricsInput{
		CleanPrice: 100,
		Coupon:     4.25,
		Settlement: date(2025, 8, 15),
		Maturity:   date(2030, 5, 15),
		PrevCoupon: date(2025, 5, 15),
		NextCoupon: date(2025, 11, 15),
	})
	if !ok {
		t.Fatal("Compute not ok")
	}
	if math.Abs(m.AccruedInterest-1.0625) > 1e-9 {
		t.Errorf("AccruedInterest = %v, want 1.0625", m.AccruedInterest)
	}
	if math.Abs(m.Yield-0.0425) > 1e-6 {
		t.Errorf("Yield = %v, want 0.0425", m.Yield)
	}
}

func TestComputeQuotedYield(t *testing.T) {
	// A quoted yield skips the solver entirely, so no price is needed.
	yld := 0.05
	m, ok := Compute(MetricsInput{
		Coupon:      4.0,
		Settlement:  date(2025, 5, 15),
		Maturity:    date(2035, 5, 15),
		MarketYield: &yld,
	})
	if !ok {
		t.Fatal("Compute not ok")
	}
	if m.Yield != 0.05 {
		t.Errorf("Yield = %v, want the quoted 0.05", m.Yield)
	}
	if m.CleanPrice >= 100 {
		t.Errorf("CleanPrice = %v, want a discount below par", m.CleanPrice)
	}
}

func TestComputeDegenerate(t *testing.T) {
	if _, ok := Compute(MetricsInput{CleanPrice: 100, Coupon: 4, Settlement: date(2025, 5, 15)}); ok {
		t.Error("missing maturity reported ok")
	}
	if _, ok := Compute(MetricsInput{CleanPrice: 100, Coupon: 4, Maturity: date(2030, 5, 15)}); ok {
		t.Error("missing settlement reported ok")
	}
	if _, ok := Compute(MetricsInput{Coupon: 4, Settlement: date(2025, 5, 15), Maturity: date(2030, 5, 15)}); ok {
		t.Error("no price and no yield reported ok")
	}
}

func TestTerm(t *testing.T) {
	got := Term(date(2025, 5, 15), date(2030, 5, 15))
	if math.Abs(got-4.9993) > 1e-3 {
		t.Errorf("Term = %v, want ~5y on the 365.25 basis", got)
	}
}
