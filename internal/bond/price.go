package bond

import "math"

// Price computes the theoretical price per 100 face of a bond paying cpn
// percent annually in period installments, discounted at the annual yield
// yld for the given term in years.
//
// Without a window the result is the start-of-period present value
//
//	C*(1-(1+Y)^-T)/Y + 100/(1+Y)^T
//
// with C and Y the per-period coupon and yield. With a window the value is
// grown to the settlement position and the earned coupon share removed:
//
//	(1+Y)^v * price - v*C
//
// which is the clean price between coupon dates.
func Price(cpn, term, yld float64, period int, w *Window) (float64, bool) {
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

	price := C*(1-math.Pow(1+Y, -float64(T)))/Y + 100/math.Pow(1+Y, float64(T))

	if w != nil {
		v, ok := w.Fraction()
		if !ok {
			return 0, false
		}
		price = math.Pow(1+Y, v)*price - v*C
	}

	return price, true
}

// AccruedInterest returns the coupon interest earned from the window's
// begin date to its settlement date, per 100 face.
func AccruedInterest(cpn float64, period int, w Window) (float64, bool) {
	if period <= 0 {
		return 0, false
	}
	v, ok := w.Fraction()
	if !ok {
		return 0, false
	}
	return cpn / float64(period) * v, true
}
