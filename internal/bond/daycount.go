package bond

import (
	"math"
	"time"
)

// SemiAnnual is the standard Treasury coupon frequency.
const SemiAnnual = 2

// DayCount selects the accrual day-count convention.
type DayCount int

const (
	// ActAct is Actual/Actual: days elapsed over days in the coupon period.
	ActAct DayCount = iota
	// Thirty360 is the 30/360 convention over a 180-day half year.
	Thirty360
)

// Window describes the accrual position of a settlement date inside a
// coupon period. Begin is the last coupon date on or before settlement,
// Next the following coupon date. A zero Next falls back to Settle, making
// the fraction 1.
type Window struct {
	Begin  time.Time
	Settle time.Time
	Next   time.Time
	Day    DayCount
}

// Fraction returns the elapsed share v of the coupon period, in [0, 1] for
// a settlement inside the period. A window whose period collapses to zero
// days returns (0, false).
func (w Window) Fraction() (float64, bool) {
	if w.Begin.IsZero() || w.Settle.IsZero() {
		return 0, false
	}

	switch w.Day {
	case Thirty360:
		y1, m1, d1 := w.Begin.Date()
		y2, m2, d2 := w.Settle.Date()
		v := float64(360*(y2-y1)+30*(int(m2)-int(m1))+(d2-d1)) / 180
		return v, true
	default:
		next := w.Next
		if next.IsZero() {
			next = w.Settle
		}
		total := next.Sub(w.Begin).Hours() / 24
		if total == 0 {
			return 0, false
		}
		elapsed := w.Settle.Sub(w.Begin).Hours() / 24
		return elapsed / total, true
	}
}

// RoundTerm rounds a term in years to the nearest half year. Returns
// (0, false) for NaN or negative terms.
func RoundTerm(term float64) (float64, bool) {
	if math.IsNaN(term) || term < 0 {
		return 0, false
	}
	return math.Round(term*2) / 2, true
}

// periods converts a term to the integer coupon-period count, applying the
// half-year rounding first.
func periods(term float64, period int) (int, bool) {
	rounded, ok := RoundTerm(term)
	if !ok {
		return 0, false
	}
	return int(rounded * float64(period)), true
}
