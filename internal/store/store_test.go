package store

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/basislab/ustbasis/internal/model"
)

func sampleResult() model.Result {
	front := model.BasisRecord{
		CTDAssignment: model.CTDAssignment{
			FuturesConID: 101,
			Code:         "ZTM5",
			Series:       "ZT",
		},
	}
	back := model.BasisRecord{
		CTDAssignment: model.CTDAssignment{
			FuturesConID: 102,
			Code:         "ZTU5",
			Series:       "ZT",
		},
	}
	cand := model.SpreadCandidate{
		Front:       front,
		Back:        back,
		FrontSign:   1,
		BackSign:    -1,
		AdjNetBasis: 0.42,
		Score:       0.63,
	}
	rec := model.Recommendation{
		Order: model.SizedOrder{
			Candidate:   cand,
			QtyFront:    4,
			QtyBack:     2,
			LotFront:    2,
			LotBack:     1,
			FrontSide:   model.Buy,
			BackSide:    model.Sell,
			Notional:    812000,
			LotNotional: 406000,
			LimitBasis:  0.40625,
		},
		Risk: model.RiskReport{
			Breached:    true,
			FrontVol:    0.012,
			BackVol:     0.011,
			ValueAtRisk: 5300,
			NetNotional: 204000,
		},
	}
	return model.Result{
		RunID:           uuid.New(),
		SnapshotAt:      time.Date(2025, 3, 3, 14, 30, 0, 0, time.UTC),
		StartedAt:       time.Date(2025, 3, 3, 14, 30, 1, 0, time.UTC),
		Elapsed:         1500 * time.Microsecond,
		Assignments:     []model.CTDAssignment{front.CTDAssignment, back.CTDAssignment},
		Basis:           []model.BasisRecord{front, back},
		Candidates:      []model.SpreadCandidate{cand},
		Recommendations: []model.Recommendation{rec},
		Skipped: model.SkipCounts{
			BondsNoFactor: 3,
			PairsNoVolume: 1,
		},
	}
}

func TestTransform(t *testing.T) {
	res := sampleResult()
	run, cands := transform(res)

	if run.RunID != res.RunID.String() {
		t.Errorf("run id = %q, want %q", run.RunID, res.RunID.String())
	}
	if run.ElapsedUs != 1500 {
		t.Errorf("elapsed = %d us, want 1500", run.ElapsedUs)
	}
	if run.Assignments != 2 || run.Basis != 2 || run.Candidates != 1 || run.Recommendations != 1 {
		t.Errorf("counts = %d/%d/%d/%d, want 2/2/1/1",
			run.Assignments, run.Basis, run.Candidates, run.Recommendations)
	}
	if run.Skipped.BondsNoFactor != 3 || run.Skipped.PairsNoVolume != 1 {
		t.Errorf("skip counts not carried: %+v", run.Skipped)
	}

	if len(cands) != 1 {
		t.Fatalf("len(cands) = %d, want 1", len(cands))
	}
	c := cands[0]
	if c.Rank != 1 {
		t.Errorf("rank = %d, want 1", c.Rank)
	}
	if c.FrontCode != "ZTM5" || c.BackCode != "ZTU5" {
		t.Errorf("codes = %q/%q", c.FrontCode, c.BackCode)
	}
	if c.FrontSide != "BUY" || c.BackSide != "SELL" {
		t.Errorf("sides = %q/%q", c.FrontSide, c.BackSide)
	}
	if c.QtyFront != 4 || c.QtyBack != 2 || c.LotFront != 2 || c.LotBack != 1 {
		t.Errorf("quantities = %d/%d lots %d/%d", c.QtyFront, c.QtyBack, c.LotFront, c.LotBack)
	}
	if c.LimitBasis != 0.40625 {
		t.Errorf("limit basis = %v, want 0.40625", c.LimitBasis)
	}
	if !c.Breached {
		t.Error("breached flag lost")
	}
	if c.ValueAtRisk != 5300 {
		t.Errorf("value at risk = %v, want 5300", c.ValueAtRisk)
	}
}

func TestHandleRunBatches(t *testing.T) {
	s := New(WriterConfig{BatchSize: 1000, FlushInterval: time.Hour}, nil, nil)

	for i := 0; i < 3; i++ {
		if err := s.HandleRun(sampleResult()); err != nil {
			t.Fatalf("HandleRun: %v", err)
		}
	}

	s.batchMu.Lock()
	runs, cands := len(s.runs), len(s.cands)
	s.batchMu.Unlock()

	if runs != 3 {
		t.Errorf("pending runs = %d, want 3", runs)
	}
	if cands != 3 {
		t.Errorf("pending candidates = %d, want 3", cands)
	}
}
