// Package basis computes cash-futures basis economics for cheapest-to-
// deliver assignments: dirty price, gross and net basis, implied repo,
// financing cost, and carry, per the SIA cash-and-carry identities.
package basis
