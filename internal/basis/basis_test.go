package basis

import (
	"math"
	"testing"
	"time"

	"github.com/basislab/ustbasis/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func assignment() model.CTDAssignment {
	return model.CTDAssignment{
		Code:         "ZTU5",
		Series:       "ZT",
		Expiry:       date(2025, time.September, 30),
		FuturesPrice: 103.5,
		Multiplier:   2000,
		CUSIP:        "912828XX1",
		BondPrice:    95.0,
		Coupon:       4.0,
		Maturity:     date(2027, time.June, 30),
		Factor:       0.92,
		ImpliedYield: 0.042,
		DaysToExpiry: 120,
	}
}

func TestComputeIdentities(t *testing.T) {
	calc := NewCalculator(nil)
	asof := date(2025, time.June, 2) // Monday; T+1 settles Tuesday

	recs := calc.Compute([]model.CTDAssignment{assignment()}, asof)
	if len(recs) != 1 {
		t.Fatalf("records = %d, want 1", len(recs))
	}
	r := recs[0]

	if !r.SettleDate.Equal(date(2025, time.June, 3)) {
		t.Errorf("SettleDate = %v, want 2025-06-03", r.SettleDate)
	}
	wantDays := int(date(2025, time.September, 30).Sub(date(2025, time.June, 3)).Hours() / 24)
	if r.DaysToDelivery != wantDays {
		t.Errorf("DaysToDelivery = %d, want %d", r.DaysToDelivery, wantDays)
	}

	// Coupon anchor: maturity 06-30 transplanted to 2025 is 2025-06-30,
	// after settlement, so it rolls back to 2024-12-30. 155 days accrue.
	wantAI := 4.0 / 2 * 155 / 182.5
	if math.Abs(r.AccruedInterest-wantAI) > 1e-12 {
		t.Errorf("AccruedInterest = %v, want %v", r.AccruedInterest, wantAI)
	}
	if math.Abs(r.DirtyPrice-(95.0+wantAI)) > 1e-12 {
		t.Errorf("DirtyPrice = %v, want %v", r.DirtyPrice, 95.0+wantAI)
	}

	adjFut := 103.5 * 0.92
	fd := float64(wantDays)
	wantGross := adjFut - r.DirtyPrice
	if math.Abs(r.GrossBasis-wantGross) > 1e-12 {
		t.Errorf("GrossBasis = %v, want %v", r.GrossBasis, wantGross)
	}

	wantRepo := (adjFut - r.DirtyPrice) / r.DirtyPrice * (365 / fd)
	if math.Abs(r.ImpliedRepo-wantRepo) > 1e-12 {
		t.Errorf("ImpliedRepo = %v, want %v", r.ImpliedRepo, wantRepo)
	}

	wantFin := r.DirtyPrice * wantRepo * fd / 365
	if math.Abs(r.FinancingCost-wantFin) > 1e-12 {
		t.Errorf("FinancingCost = %v, want %v", r.FinancingCost, wantFin)
	}
	if math.Abs(r.Carry-(wantGross-wantFin)) > 1e-12 {
		t.Errorf("Carry = %v, want %v", r.Carry, wantGross-wantFin)
	}
	if math.Abs(r.NetBasis-(r.GrossBasis+r.Carry)) > 1e-12 {
		t.Errorf("NetBasis = %v, want gross+carry = %v", r.NetBasis, r.GrossBasis+r.Carry)
	}

	// The unsimplified convexity yield collapses to coupon over dirty.
	if math.Abs(r.ConvexityYield-4.0/r.DirtyPrice) > 1e-12 {
		t.Errorf("ConvexityYield = %v, want %v", r.ConvexityYield, 4.0/r.DirtyPrice)
	}

	if r.DV01 <= 0 {
		t.Errorf("DV01 = %v, want positive", r.DV01)
	}
}

func TestComputeZeroDirtyPriceDropped(t *testing.T) {
	a := assignment()
	a.BondPrice = 0
	a.Maturity = date(2027, time.June, 3) // anchor lands on settlement: zero accrual
	calc := NewCalculator(nil)

	recs := calc.Compute([]model.CTDAssignment{a}, date(2025, time.June, 2))
	if len(recs) != 0 {
		t.Fatalf("records = %d, want 0 for zero dirty price", len(recs))
	}
}

func TestComputeDeliveryInPast(t *testing.T) {
	a := assignment()
	calc := NewCalculator(nil)

	// Settlement past delivery clamps the day count at 1 instead of
	// producing a negative annualization.
	recs := calc.Compute([]model.CTDAssignment{a}, date(2025, time.October, 15))
	if len(recs) != 1 {
		t.Fatalf("records = %d, want 1", len(recs))
	}
	if recs[0].DaysToDelivery != 1 {
		t.Errorf("DaysToDelivery = %d, want clamp to 1", recs[0].DaysToDelivery)
	}
}
