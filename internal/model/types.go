package model

import "time"

// -----------------------------------------------------------------------------
// Input Types
// -----------------------------------------------------------------------------

// Quote represents one futures contract quote from the gateway.
type Quote struct {
	ConID      int64     // Gateway contract ID
	Series     string    // Series symbol (e.g., "ZN")
	Code       string    // Contract code, series + month (e.g., "ZNU5")
	Expiry     time.Time // Last delivery day
	Bid        *float64  // Best bid, per 100 face
	Ask        *float64  // Best ask, per 100 face
	Last       *float64  // Last trade, per 100 face
	Closed     bool      // Last is a prior-close print, not a live trade
	Volume     *float64  // Contracts traded today
	Multiplier float64   // Dollar value per point (1000 for note futures)
	Increment  float64   // Minimum price fluctuation
	Exchange   string    // Listing exchange (e.g., "CBOT")
}

// Mid returns the bid/ask midpoint when both sides are quoted.
func (q Quote) Mid() (float64, bool) {
	if q.Bid == nil || q.Ask == nil {
		return 0, false
	}
	return (*q.Bid + *q.Ask) / 2, true
}

// Price returns the price used for valuation: the last trade when live,
// otherwise the midpoint.
func (q Quote) Price() (float64, bool) {
	if q.Last != nil && !q.Closed {
		return *q.Last, true
	}
	if mid, ok := q.Mid(); ok {
		return mid, true
	}
	if q.Last != nil {
		return *q.Last, true
	}
	return 0, false
}

// DeliverableBond represents one Treasury in a futures deliverable basket.
type DeliverableBond struct {
	CUSIP      string             // Primary key
	ConID      int64              // Gateway contract ID
	Coupon     float64            // Annual coupon, percent of face
	Maturity   time.Time          // Maturity date
	PrevCoupon time.Time          // Last coupon date on or before today (zero when unknown)
	NextCoupon time.Time          // Next coupon date (zero when unknown)
	Factors    map[string]float64 // Conversion factor keyed by futures contract code
	Price      *float64           // Quoted clean price, per 100 face
	Yield      *float64           // Quoted yield, decimal; nil means derive from price
	Side       string             // Quote side the price came from ("bid", "ask", "last")
}

// Factor returns the conversion factor for the given futures contract code.
func (b DeliverableBond) Factor(code string) (float64, bool) {
	cf, ok := b.Factors[code]
	if !ok || cf == 0 {
		return 0, false
	}
	return cf, true
}

// Snapshot is the immutable input to one pipeline run. Stages never mutate
// it; re-running the pipeline on the same snapshot yields the same result.
type Snapshot struct {
	TakenAt        time.Time           // When the snapshot was assembled
	Futures        []Quote             // Live futures quotes
	Bonds          []DeliverableBond   // Deliverable-basket quotes
	Closes         map[int64][]float64 // Trailing daily closes by ConID, oldest first
	NetLiquidation float64             // Account net liquidation value, dollars
}

// -----------------------------------------------------------------------------
// Pipeline Stage Outputs
// -----------------------------------------------------------------------------

// CTDAssignment records the cheapest-to-deliver selection for one futures
// contract.
type CTDAssignment struct {
	FuturesConID int64     // Futures contract ID
	Code         string    // Futures contract code (e.g., "ZNU5")
	Series       string    // Series symbol (e.g., "ZN")
	Expiry       time.Time // Futures delivery date
	FuturesPrice float64   // Futures price used, per 100 face
	Multiplier   float64   // Futures contract multiplier
	Volume       float64   // Futures volume (0 when unknown)

	CUSIP     string    // Selected bond
	BondConID int64     // Selected bond contract ID
	BondPrice float64   // Clean price of the selected bond, per 100 face
	BondSide  string    // Quote side the bond price came from
	Coupon    float64   // Bond coupon, percent of face
	Maturity  time.Time // Bond maturity

	Factor       float64 // Conversion factor applied
	IRR          float64 // Implied repo rate of the cash-and-carry, decimal
	ImpliedYield float64 // Bond yield (quoted or solved), decimal
	TheoPrice    float64 // Theoretical futures price = theoretical bond price / CF
	DaysToExpiry int     // Calendar days until delivery, floored at 1
}

// BasisRecord extends a CTD assignment with basis and carry economics.
type BasisRecord struct {
	CTDAssignment

	SettleDate     time.Time // T+1 settlement date
	DeliveryDate   time.Time // Futures delivery date
	DaysToDelivery int       // Settlement to delivery, calendar days

	AccruedInterest float64 // Per 100 face at settlement
	DirtyPrice      float64 // Clean + accrued
	GrossBasis      float64 // F*CF - dirty
	ImpliedRepo     float64 // Annualized repo implied by the gross basis
	FinancingCost   float64 // Cost of carrying the bond to delivery
	Carry           float64 // Gross basis less financing
	NetBasis        float64 // Gross basis plus carry
	ConvexityYield  float64 // Running coupon yield over the holding period
	DV01            float64 // Dollar value of a basis point, per 100 face
}

// SpreadCandidate is a scored calendar-spread pair of two CTD assignments.
type SpreadCandidate struct {
	Front BasisRecord // Leg listed first (earlier expiry in a classic roll)
	Back  BasisRecord // Second leg

	FrontSign int // +1 = buy, -1 = sell
	BackSign  int // +1 = buy, -1 = sell

	AdjNetBasis float64 // Sign-adjusted combined net basis
	FrontLnVol  float64 // 1 + ln(front volume)/volumeScale
	BackLnVol   float64 // 1 + ln(back volume)/volumeScale
	WeightedVol float64 // Mean of the two leg weights
	Score       float64 // AdjNetBasis * WeightedVol, the ranking key
}

// Side is the direction of one spread leg.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// SideOf maps a ranking sign to an order side.
func SideOf(sign int) Side {
	if sign < 0 {
		return Sell
	}
	return Buy
}

// SizedOrder carries integer per-leg quantities for one candidate.
type SizedOrder struct {
	Candidate SpreadCandidate

	QtyFront int // Contracts on the front leg, >= 1
	QtyBack  int // Contracts on the back leg, >= 1
	LotFront int // GCD-reduced front quantity; coprime with LotBack
	LotBack  int // GCD-reduced back quantity

	FrontSide Side // BUY or SELL
	BackSide  Side

	Notional    float64 // Cost of the full (QtyFront, QtyBack) position, dollars
	LotNotional float64 // Cost of one reduced lot, dollars
	LotAdjBasis float64 // Adjusted net basis recomputed at the reduced lot
	LimitBasis  float64 // Lot basis after fees, rounded down to the increment
}

// ScenarioImpact is the DV01 overlay for one stress scenario.
type ScenarioImpact struct {
	Shock   float64 // Yield shock, rate units (0.005 = 50bp)
	Overlay float64 // Summed signed DV01 impact across legs, dollars
	Breach  bool    // |Overlay| exceeded the notional threshold
}

// RiskReport is the risk overlay for one sized order.
type RiskReport struct {
	Scenarios     []ScenarioImpact
	Breached      bool    // Any scenario breached
	FrontVol      float64 // 99%-scaled daily log-return volatility, front leg
	BackVol       float64 // Same, back leg
	ValueAtRisk   float64 // Parametric VaR across legs, dollars
	PositionRisk  float64 // Quantity * multiplier * price * vol, summed, dollars
	NetNotional   float64 // Signed net notional of the pair, dollars
	DurationRisk  bool    // Current duration above its trailing 99th percentile
	ConvexityRisk bool    // Same for convexity
}

// Recommendation pairs a sized order with its risk assessment. This is the
// unit handed to downstream order construction.
type Recommendation struct {
	Order SizedOrder
	Risk  RiskReport
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// Float64 returns a pointer to v. Handy for building literal quotes.
func Float64(v float64) *float64 { return &v }

// Float64Value dereferences p, returning 0 and false when p is nil.
func Float64Value(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}
