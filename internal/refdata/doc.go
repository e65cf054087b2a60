// Package refdata provides bond reference-data computations that do not
// depend on market quotes: settlement dates, semiannual coupon schedules,
// and CBOT conversion factors at the 6% standard yield.
package refdata
