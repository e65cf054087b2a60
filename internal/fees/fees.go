package fees

import (
	"fmt"
	"math"
)

// MinFluctuation is the minimum price increment for the Treasury note and
// bond calendar spreads (1/64th of a point).
const MinFluctuation = 0.015625

// commissionTier maps a trailing monthly volume band to a per-contract
// commission.
type commissionTier struct {
	low, high float64
	rate      float64
}

var tiers = []commissionTier{
	{0, 1_000, 0.85},
	{1_000, 10_000, 0.65},
	{10_000, 20_000, 0.45},
	{20_000, math.Inf(1), 0.25},
}

// SymbolFees carries the static per-contract exchange, regulatory, and
// give-up charges for one futures symbol.
type SymbolFees struct {
	Exchange float64
	Reg      float64
	GiveUp   float64
}

// exchangeFees is keyed by venue, then futures symbol.
var exchangeFees = map[string]map[string]SymbolFees{
	"CBOT": {
		"ZT":  {0.65, 0.02, 0.06},
		"ZF":  {0.65, 0.02, 0.06},
		"Z3N": {0.65, 0.02, 0.06},
		"ZN":  {0.80, 0.02, 0.06},
		"TN":  {0.80, 0.02, 0.06},
	},
	"QBALGO": {
		"ZT":  {0.75, 0, 0},
		"ZF":  {0.75, 0, 0},
		"Z3N": {0.75, 0, 0},
		"ZN":  {0.75, 0, 0},
		"TN":  {0.75, 0, 0},
	},
	"SMALLEXCHANGE": {
		"ZT":  {0.15, 0.02, 0.02},
		"ZF":  {0.15, 0.02, 0.02},
		"Z3N": {0.15, 0.02, 0.02},
		"ZN":  {0.15, 0.02, 0.02},
		"TN":  {0.15, 0.02, 0.02},
	},
}

// CommissionRate returns the per-contract commission for a trailing
// monthly volume.
func CommissionRate(volume float64) float64 {
	for _, t := range tiers {
		if volume > t.low && volume <= t.high {
			return t.rate
		}
	}
	return 0
}

// Lookup finds the static fees for a symbol, preferring the given exchange
// and falling back through the known venues.
func Lookup(symbol, exchange string) (SymbolFees, error) {
	order := []string{exchange, "CBOT", "QBALGO", "SMALLEXCHANGE"}
	for _, ex := range order {
		if ex == "" {
			continue
		}
		if f, ok := exchangeFees[ex][symbol]; ok {
			return f, nil
		}
	}
	return SymbolFees{}, fmt.Errorf("no fee schedule for symbol %q", symbol)
}

// PerContract is the all-in cost of trading one contract of the symbol on
// the exchange at the given trailing volume tier.
func PerContract(symbol, exchange string, volume float64) (float64, error) {
	f, err := Lookup(symbol, exchange)
	if err != nil {
		return 0, err
	}
	return CommissionRate(volume) + f.Exchange + f.Reg + f.GiveUp, nil
}

// PairCost is the total fee for a two-leg position at the given per-leg
// quantities. Unknown symbols cost zero rather than blocking the pipeline.
func PairCost(frontSymbol, frontExch string, qtyFront int, backSymbol, backExch string, qtyBack int, volume float64) float64 {
	var total float64
	if c, err := PerContract(frontSymbol, frontExch, volume); err == nil {
		total += c * float64(qtyFront)
	}
	if c, err := PerContract(backSymbol, backExch, volume); err == nil {
		total += c * float64(qtyBack)
	}
	return total
}

// RoundToIncrement rounds a price down to the instrument's minimum
// fluctuation. A non-positive increment falls back to MinFluctuation.
func RoundToIncrement(value, increment float64) float64 {
	if increment <= 0 {
		increment = MinFluctuation
	}
	return math.Floor(value/increment) * increment
}
