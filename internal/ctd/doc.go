// Package ctd selects the cheapest-to-deliver Treasury for each futures
// contract by maximizing the implied repo rate of the cash-and-carry trade
// over the contract's deliverable-maturity window.
package ctd
