package model

import (
	"time"

	"github.com/google/uuid"
)

// SkipCounts tallies rows dropped at each stage. Dropped rows are normal
// operation (stale quotes, thin books), never errors.
type SkipCounts struct {
	FuturesNoPrice  int // Futures rows without a usable price
	BondsNoPrice    int // Bond rows without a usable price
	BondsNoFactor   int // Bonds lacking a conversion factor for the contract
	NoEligibleBond  int // Futures contracts with an empty deliverable set
	PairsNoVolume   int // Pairs dropped for missing or non-positive volume
	OrdersUnsizable int // Candidates that could not be sized within the limit
}

// Result is the complete output of one pipeline run over one snapshot.
type Result struct {
	RunID      uuid.UUID
	SnapshotAt time.Time
	StartedAt  time.Time
	Elapsed    time.Duration

	Assignments     []CTDAssignment
	Basis           []BasisRecord
	Candidates      []SpreadCandidate
	Recommendations []Recommendation

	Skipped SkipCounts
}
