// Package fees computes per-contract trading costs (tiered commissions
// plus static exchange, regulatory, and give-up charges) and rounds
// candidate values down to contract price increments for limit pricing.
package fees
