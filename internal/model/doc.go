// Package model defines shared data types used across the basis engine.
//
// Pipeline stages consume and produce these records; none of them carry
// behavior beyond small accessors, so every stage stays independently
// testable against literal values.
//
// Conventions:
//   - Prices: float64 per 100 face value (Treasury quote convention)
//   - Yields and repo rates: float64 decimals per year (0.04 = 4%)
//   - Coupons: float64 percent of face (4.25 = the 4 1/4s)
//   - Dates: time.Time at UTC midnight for calendar dates
//   - Nullable numerics: *float64, nil meaning the feed had no value
package model
