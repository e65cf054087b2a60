// Package rank generates ordered calendar-spread pairs from basis records
// and prioritizes them by the liquidity-weighted adjusted net basis score
// known as RENTD.
package rank
