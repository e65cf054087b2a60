// Package risk overlays sized spread positions with stress-scenario DV01
// impacts, trailing-close volatility, and parametric value-at-risk.
package risk
