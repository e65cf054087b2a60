package rank

import (
	"log/slog"
	"math"
	"sort"

	"github.com/basislab/ustbasis/internal/model"
)

// Config tunes pair generation and scoring.
type Config struct {
	// VolumeScale divides the log-volume term; larger values reduce the
	// weight liquidity carries in the score.
	VolumeScale float64
	// TopN is how many candidates to emit after de-duplication.
	TopN int
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{VolumeScale: 8, TopN: 5}
}

// Ranker builds and scores calendar-spread pairs.
type Ranker struct {
	cfg    Config
	logger *slog.Logger
}

// NewRanker creates a Ranker.
func NewRanker(cfg Config, logger *slog.Logger) *Ranker {
	if cfg.VolumeScale == 0 {
		cfg.VolumeScale = DefaultConfig().VolumeScale
	}
	if cfg.TopN == 0 {
		cfg.TopN = DefaultConfig().TopN
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ranker{cfg: cfg, logger: logger}
}

// Rank generates every ordered pair of distinct basis records, scores each
// by liquidity-weighted adjusted net basis, and returns the top candidates
// in strictly non-increasing score order, de-duplicated by leg contract
// IDs.
func (r *Ranker) Rank(records []model.BasisRecord, skips *model.SkipCounts) []model.SpreadCandidate {
	var pairs []model.SpreadCandidate
	for i, front := range records {
		for j, back := range records {
			if i == j || front.FuturesConID == back.FuturesConID {
				continue
			}
			c, ok := r.score(front, back, skips)
			if !ok {
				continue
			}
			pairs = append(pairs, c)
		}
	}

	// Stable sort keeps generation order for equal scores.
	sort.SliceStable(pairs, func(a, b int) bool {
		return pairs[a].Score > pairs[b].Score
	})

	// De-duplicate by (front, back), first occurrence wins.
	type key struct{ front, back int64 }
	seen := make(map[key]struct{}, len(pairs))
	out := make([]model.SpreadCandidate, 0, r.cfg.TopN)
	for _, p := range pairs {
		k := key{p.Front.FuturesConID, p.Back.FuturesConID}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, p)
		if len(out) == r.cfg.TopN {
			break
		}
	}

	if len(out) == 0 && len(records) > 1 {
		r.logger.Info("no scorable pairs", "records", len(records))
	}
	return out
}

// score builds one candidate. The leg with the lower implied repo is rich
// and is sold short; the other is bought long.
func (r *Ranker) score(front, back model.BasisRecord, skips *model.SkipCounts) (model.SpreadCandidate, bool) {
	c := model.SpreadCandidate{Front: front, Back: back}

	if front.ImpliedRepo < back.ImpliedRepo {
		c.FrontSign, c.BackSign = -1, 1
	} else {
		c.FrontSign, c.BackSign = 1, -1
	}

	c.AdjNetBasis = front.NetBasis*float64(c.FrontSign) - back.NetBasis*float64(c.BackSign)

	if front.Volume <= 0 || back.Volume <= 0 {
		skips.PairsNoVolume++
		return c, false
	}
	c.FrontLnVol = 1 + math.Log(front.Volume)/r.cfg.VolumeScale
	c.BackLnVol = 1 + math.Log(back.Volume)/r.cfg.VolumeScale
	c.WeightedVol = (c.FrontLnVol + c.BackLnVol) / 2
	c.Score = c.AdjNetBasis * c.WeightedVol

	return c, true
}
