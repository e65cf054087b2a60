// Package sizing turns ranked spread candidates into integer per-leg
// quantities: a DV01-ratio-guided scan under a notional budget, followed
// by reduction to a minimal coprime lot.
package sizing
