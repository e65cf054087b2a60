package ctd

import (
	"log/slog"
	"time"

	"github.com/basislab/ustbasis/internal/bond"
	"github.com/basislab/ustbasis/internal/model"
	"github.com/basislab/ustbasis/internal/refdata"
)

// Offsets bounds the deliverable-maturity window for one futures series,
// in years past the contract's delivery date.
type Offsets struct {
	Min float64
	Max float64
}

// DefaultOffsets carries the empirically tuned eligibility windows per
// Treasury futures series.
var DefaultOffsets = map[string]Offsets{
	"ZT":  {1.73, 2.02},
	"Z3N": {2.73, 3.02},
	"ZF":  {4.11, 5.27},
	"ZN":  {6.47, 10.02},
	"TN":  {9.40, 10.02},
}

// Selector picks the cheapest-to-deliver bond for each futures quote.
type Selector struct {
	offsets map[string]Offsets
	logger  *slog.Logger
}

// NewSelector creates a Selector. A nil offsets map falls back to
// DefaultOffsets.
func NewSelector(offsets map[string]Offsets, logger *slog.Logger) *Selector {
	if offsets == nil {
		offsets = DefaultOffsets
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{offsets: offsets, logger: logger}
}

// Select assigns a CTD bond to every futures quote that has a price, a
// known eligibility window, and at least one eligible bond. Quotes that
// fail any of those are skipped and counted, never fatal.
func (s *Selector) Select(snap *model.Snapshot, skips *model.SkipCounts) []model.CTDAssignment {
	var out []model.CTDAssignment
	for _, fut := range snap.Futures {
		a, ok := s.selectOne(fut, snap.Bonds, snap.TakenAt, skips)
		if !ok {
			continue
		}
		out = append(out, a)
	}
	return out
}

func (s *Selector) selectOne(fut model.Quote, bonds []model.DeliverableBond, asof time.Time, skips *model.SkipCounts) (model.CTDAssignment, bool) {
	off, ok := s.offsets[fut.Series]
	if !ok {
		s.logger.Warn("no eligibility offsets for series", "series", fut.Series)
		return model.CTDAssignment{}, false
	}

	futPrice, ok := fut.Price()
	if !ok {
		skips.FuturesNoPrice++
		return model.CTDAssignment{}, false
	}

	minMat := fut.Expiry.AddDate(0, 0, int(off.Min*365.25))
	maxMat := fut.Expiry.AddDate(0, 0, int(off.Max*365.25))

	days := int(fut.Expiry.Sub(asof).Hours() / 24)
	if days < 1 {
		days = 1
	}

	// Cash-and-carry IRR per eligible bond; the maximum wins, ties by
	// input order.
	best := -1
	bestIRR := 0.0
	bestCF := 0.0
	bestPrice := 0.0
	for i, b := range bonds {
		if b.Maturity.Before(minMat) || b.Maturity.After(maxMat) {
			continue
		}
		cf, ok := b.Factor(fut.Code)
		if !ok {
			skips.BondsNoFactor++
			continue
		}
		price, ok := model.Float64Value(b.Price)
		if !ok || price <= 0 {
			skips.BondsNoPrice++
			continue
		}

		irr := (futPrice*cf - price) / price * (365 / float64(days))
		if best < 0 || irr > bestIRR {
			best, bestIRR, bestCF, bestPrice = i, irr, cf, price
		}
	}

	if best < 0 {
		skips.NoEligibleBond++
		s.logger.Debug("no eligible deliverable",
			"code", fut.Code,
			"window_min", minMat.Format("2006-01-02"),
			"window_max", maxMat.Format("2006-01-02"),
		)
		return model.CTDAssignment{}, false
	}

	sel := bonds[best]
	term, _ := bond.RoundTerm(refdata.Term(asof, sel.Maturity))

	// Quoted yield when present, otherwise solved from the clean price.
	var yld float64
	if y, ok := model.Float64Value(sel.Yield); ok {
		yld = y
	} else {
		yld, _ = bond.PriceToYield(bestPrice, sel.Coupon, term, bond.SemiAnnual, nil)
	}

	a := model.CTDAssignment{
		FuturesConID: fut.ConID,
		Code:         fut.Code,
		Series:       fut.Series,
		Expiry:       fut.Expiry,
		FuturesPrice: futPrice,
		Multiplier:   fut.Multiplier,

		CUSIP:     sel.CUSIP,
		BondConID: sel.ConID,
		BondPrice: bestPrice,
		BondSide:  sel.Side,
		Coupon:    sel.Coupon,
		Maturity:  sel.Maturity,

		Factor:       bestCF,
		IRR:          bestIRR,
		ImpliedYield: yld,
		DaysToExpiry: days,
	}
	if v, ok := model.Float64Value(fut.Volume); ok {
		a.Volume = v
	}

	// Theoretical futures price: the bond revalued at its implied yield,
	// normalized by the conversion factor.
	if bp, ok := bond.Price(sel.Coupon, term, yld, bond.SemiAnnual, nil); ok && bestCF != 0 {
		a.TheoPrice = bp / bestCF
	}

	return a, true
}
