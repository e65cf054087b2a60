package bond

import "math"

const (
	yieldFloor   = -0.5
	yieldCeiling = 1.0
	yieldTol     = 1e-9
	yieldMaxIter = 200

	newtonTol     = 1e-8
	newtonMaxIter = 1000
	newtonBump    = 1e-5

	invGolden = 0.6180339887498949 // (sqrt(5)-1)/2
)

// PriceToYield inverts Price by golden-section minimization of the squared
// pricing error over yields in [-50%, 100%]. The objective treats yields
// where the closed form degenerates as infinitely bad, so the search simply
// steps around them.
func PriceToYield(price, cpn, term float64, period int, w *Window) (float64, bool) {
	if period <= 0 {
		return 0, false
	}
	if _, ok := RoundTerm(term); !ok {
		return 0, false
	}

	objective := func(y float64) float64 {
		p, ok := Price(cpn, term, y, period, w)
		if !ok {
			return math.MaxFloat64
		}
		d := price - p
		return d * d
	}

	a, b := yieldFloor, yieldCeiling
	c := b - invGolden*(b-a)
	d := a + invGolden*(b-a)
	fc, fd := objective(c), objective(d)

	for i := 0; i < yieldMaxIter && b-a > yieldTol; i++ {
		if fc < fd {
			b = d
			d, fd = c, fc
			c = b - invGolden*(b-a)
			fc = objective(c)
		} else {
			a = c
			c, fc = d, fd
			d = a + invGolden*(b-a)
			fd = objective(d)
		}
	}

	return (a + b) / 2, true
}

// Yield solves the yield to maturity by Newton-Raphson with a numerical
// derivative. Unlike PriceToYield it discounts an explicit per-period coupon
// sum and truncates the term instead of rounding it, matching quoted-yield
// conventions. The bool is false only when the iteration fails to converge.
func Yield(price, cpn, term float64, period int) (float64, bool) {
	if period <= 0 || math.IsNaN(term) || term < 0 {
		return 0, false
	}

	T := int(term * float64(period))
	C := cpn / float64(period)

	pv := func(y float64) float64 {
		total := 0.0
		for t := 1; t <= T; t++ {
			total += C / math.Pow(1+y/float64(period), float64(t))
		}
		return total + 100/math.Pow(1+y/float64(period), float64(T))
	}

	y := cpn / 100 // start at the coupon rate
	for i := 0; i < newtonMaxIter; i++ {
		deriv := (pv(y+newtonBump) - pv(y-newtonBump)) / (2 * newtonBump)
		if math.Abs(deriv) < 1e-12 {
			return y, true
		}
		next := y - (pv(y)-price)/deriv
		if math.Abs(next-y) < newtonTol {
			return next, true
		}
		y = next
	}

	return y, false
}
