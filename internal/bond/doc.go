// Package bond implements closed-form valuation of U.S. Treasury notes and
// bonds: price from yield, yield from price, accrued interest, modified and
// Macaulay duration, DV01, and convexity, plus finite-difference
// approximations of duration and convexity.
//
// Conventions shared by every function:
//   - Coupons are percent of face (4.25 means the 4 1/4s), prices per 100
//     face, yields annual decimals (0.04 = 4%).
//   - The term in years is rounded to the nearest half year before the
//     integer coupon-period count is derived. Downstream comparisons depend
//     on this discretization, so it is applied unconditionally.
//   - Degenerate inputs (zero yield in the closed form, zero price in a
//     ratio, a NaN or negative term) return (0, false) rather than an error
//     or a panic. Callers check the bool and skip the row.
package bond
