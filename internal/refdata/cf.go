package refdata

import (
	"math"
	"time"
)

// StandardYield is the notional coupon standard the CBOT conversion factor
// normalizes deliverable bonds to.
const StandardYield = 0.06

// ConversionFactor prices a deliverable bond's cash flows at the 6%
// standard yield, per dollar of face. The coupon is percent of face;
// prevCpn and nextCpn bracket the assumed delivery date, which sits at the
// midpoint of the bracketing coupon period.
//
// Returns (0, false) when the schedule is degenerate (coupon dates equal or
// out of order).
func ConversionFactor(coupon float64, prevCpn, nextCpn, maturity time.Time) (float64, bool) {
	periodDays := nextCpn.Sub(prevCpn).Hours() / 24
	if periodDays <= 0 {
		return 0, false
	}

	delivery := prevCpn.Add(nextCpn.Sub(prevCpn) / 2)
	frac := nextCpn.Sub(delivery).Hours() / 24 / periodDays

	pay := coupon / 2

	// Count the whole coupon dates from nextCpn through maturity.
	var dates []time.Time
	for d := nextCpn; !d.After(maturity); d = AddMonths(d, 6) {
		dates = append(dates, d)
	}

	lastFull := nextCpn
	if len(dates) > 0 {
		lastFull = dates[len(dates)-1]
	}

	var delta float64
	var n int
	if maturity.After(lastFull) {
		after := AddMonths(lastFull, 6)
		span := after.Sub(lastFull).Hours() / 24
		if span <= 0 {
			return 0, false
		}
		delta = maturity.Sub(lastFull).Hours() / 24 / span
		n = len(dates) + 1
	} else {
		delta = 1.0
		n = len(dates)
	}
	if n < 1 {
		return 0, false
	}

	r := StandardYield / 2
	pv := pay / math.Pow(1+r, frac)
	for j := 1; j <= n-2; j++ {
		pv += pay / math.Pow(1+r, frac+float64(j))
	}
	final := 100 + pay*delta
	pv += final / math.Pow(1+r, frac+float64(n-1))

	return pv / 100, true
}
