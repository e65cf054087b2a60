package publish

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/basislab/ustbasis/internal/model"
)

func TestToMessage(t *testing.T) {
	res := model.Result{
		RunID:      uuid.MustParse("11111111-2222-3333-4444-555555555555"),
		SnapshotAt: time.Date(2025, 3, 3, 14, 30, 0, 0, time.UTC),
	}
	rec := model.Recommendation{
		Order: model.SizedOrder{
			Candidate: model.SpreadCandidate{
				Front: model.BasisRecord{CTDAssignment: model.CTDAssignment{
					FuturesConID: 101, Code: "ZTM5",
				}},
				Back: model.BasisRecord{CTDAssignment: model.CTDAssignment{
					FuturesConID: 102, Code: "ZTU5",
				}},
				Score:       0.63,
				AdjNetBasis: 0.42,
			},
			QtyFront:   4,
			QtyBack:    2,
			LotFront:   2,
			LotBack:    1,
			FrontSide:  model.Buy,
			BackSide:   model.Sell,
			Notional:   812000,
			LimitBasis: 0.40625,
		},
		Risk: model.RiskReport{
			Breached:    true,
			ValueAtRisk: 5300,
			NetNotional: 204000,
		},
	}

	msg := toMessage(res, 2, rec)

	if msg.RunID != "11111111-2222-3333-4444-555555555555" {
		t.Errorf("run id = %q", msg.RunID)
	}
	if msg.Rank != 3 {
		t.Errorf("rank = %d, want 3", msg.Rank)
	}
	if msg.FrontCode != "ZTM5" || msg.BackCode != "ZTU5" {
		t.Errorf("codes = %q/%q", msg.FrontCode, msg.BackCode)
	}
	if msg.FrontSide != "BUY" || msg.BackSide != "SELL" {
		t.Errorf("sides = %q/%q", msg.FrontSide, msg.BackSide)
	}
	if msg.LimitBasis != 0.40625 {
		t.Errorf("limit basis = %v", msg.LimitBasis)
	}
	if !msg.Breached || msg.ValueAtRisk != 5300 {
		t.Errorf("risk fields = %v/%v", msg.Breached, msg.ValueAtRisk)
	}
}
