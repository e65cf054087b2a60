package bond

import "math"

// DefaultShock is the yield bump used by the finite-difference measures.
const DefaultShock = 0.0001

// ModifiedDuration computes the analytic modified duration in years. The
// accrual-window variant differentiates the settlement-adjusted price, so
// the plain and windowed results diverge slightly inside a coupon period.
func ModifiedDuration(cpn, term, yld float64, period int, w *Window) (float64, bool) {
	if period <= 0 {
		return 0, false
	}
	T, ok := periods(term, period)
	if !ok {
		return 0, false
	}

	C := cpn / float64(period)
	Y := yld / float64(period)
	if Y == 0 || 1+Y <= 0 {
		return 0, false
	}

	P, ok := Price(cpn, term, yld, period, w)
	if !ok || P == 0 {
		return 0, false
	}

	fT := float64(T)
	ann := 1 - math.Pow(1+Y, -fT)

	var mdur float64
	if w != nil {
		v, ok := w.Fraction()
		if !ok {
			return 0, false
		}
		P = math.Pow(1+Y, v) * P
		if P == 0 {
			return 0, false
		}
		mdur = -v*math.Pow(1+Y, v-1)*C/Y*ann +
			math.Pow(1+Y, v)*(C/(Y*Y)*ann-
				fT*C/(Y*math.Pow(1+Y, fT+1))+
				(fT-v)*100/math.Pow(1+Y, fT+1))
	} else {
		mdur = C/(Y*Y)*ann + fT*(100-C/Y)/math.Pow(1+Y, fT+1)
	}

	return mdur / (float64(period) * P), true
}

// MacaulayDuration is the modified duration grown by one period's yield.
func MacaulayDuration(cpn, term, yld float64, period int, w *Window) (float64, bool) {
	mdur, ok := ModifiedDuration(cpn, term, yld, period, w)
	if !ok {
		return 0, false
	}
	return mdur * (1 + yld/float64(period)), true
}

// DV01 is the dollar value of a one-basis-point yield change per 100 face,
// reported to five decimal places.
func DV01(cpn, term, yld float64, period int, w *Window) (float64, bool) {
	P, ok := Price(cpn, term, yld, period, w)
	if !ok {
		return 0, false
	}
	mdur, ok := ModifiedDuration(cpn, term, yld, period, w)
	if !ok {
		return 0, false
	}
	return math.Round(mdur*P*0.0001*1e5) / 1e5, true
}

// Convexity computes the analytic second-derivative convexity measure.
func Convexity(cpn, term, yld float64, period int, w *Window) (float64, bool) {
	if period <= 0 {
		return 0, false
	}
	T, ok := periods(term, period)
	if !ok {
		return 0, false
	}

	C := cpn / float64(period)
	Y := yld / float64(period)
	if Y == 0 || 1+Y <= 0 {
		return 0, false
	}

	P, ok := Price(cpn, term, yld, period, w)
	if !ok || P == 0 {
		return 0, false
	}

	var v float64
	if w != nil {
		frac, ok := w.Fraction()
		if !ok {
			return 0, false
		}
		v = frac
	}

	fT := float64(T)
	ann := 1 - math.Pow(1+Y, -fT)

	dcv := -v*(v-1)*math.Pow(1+Y, v-2)*C/Y*ann -
		2*v*math.Pow(1+Y, v-1)*(C/(Y*Y)*ann-fT*C/(Y*math.Pow(1+Y, fT+1))) -
		math.Pow(1+Y, v)*(-C/(Y*Y*Y)*ann+
			2*fT*C/(Y*Y*math.Pow(1+Y, fT+1))+
			fT*(fT+1)*C/(Y*math.Pow(1+Y, fT+2))) +
		(fT-v)*(fT+1)*100/math.Pow(1+Y, fT+2-v)

	return dcv / (P * float64(period) * float64(period)), true
}

// ApproxDuration estimates duration by a central finite difference of the
// price at yld±shock.
func ApproxDuration(cpn, term, yld float64, period int, w *Window, shock float64) (float64, bool) {
	if shock == 0 {
		return 0, false
	}
	price, ok := Price(cpn, term, yld, period, w)
	if !ok || price == 0 {
		return 0, false
	}
	up, ok := Price(cpn, term, yld+shock, period, w)
	if !ok {
		return 0, false
	}
	down, ok := Price(cpn, term, yld-shock, period, w)
	if !ok {
		return 0, false
	}
	return (down - up) / (2 * price * shock), true
}

// ApproxConvexity estimates convexity by a central finite difference of the
// price at yld±shock.
func ApproxConvexity(cpn, term, yld float64, period int, w *Window, shock float64) (float64, bool) {
	if shock == 0 {
		return 0, false
	}
	price, ok := Price(cpn, term, yld, period, w)
	if !ok || price == 0 {
		return 0, false
	}
	up, ok := Price(cpn, term, yld+shock, period, w)
	if !ok {
		return 0, false
	}
	down, ok := Price(cpn, term, yld-shock, period, w)
	if !ok {
		return 0, false
	}
	return (down + up - 2*price) / (price * shock * shock), true
}
