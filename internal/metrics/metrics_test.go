package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/basislab/ustbasis/internal/model"
)

func TestObserveRunAndScrape(t *testing.T) {
	reg := Init()

	res := model.Result{
		RunID:   uuid.New(),
		Elapsed: 25 * time.Millisecond,
		Assignments: []model.CTDAssignment{
			{Code: "ZTM5"}, {Code: "ZTU5"},
		},
		Candidates: []model.SpreadCandidate{
			{Score: 0.63},
		},
		Recommendations: []model.Recommendation{
			{Risk: model.RiskReport{Breached: true}},
		},
		Skipped: model.SkipCounts{BondsNoFactor: 2},
	}
	ObserveRun(res)
	NetLiquidation.Set(1000000)

	srv := httptest.NewServer(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	text := string(body)

	for _, want := range []string{
		"ustbasis_runs_total 1",
		"ustbasis_assignments 2",
		"ustbasis_candidates 1",
		"ustbasis_recommendations 1",
		"ustbasis_risk_breaches 1",
		"ustbasis_top_score 0.63",
		"ustbasis_net_liquidation_usd 1e+06",
		`ustbasis_skipped_total{stage="bonds_no_factor"} 2`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("scrape output missing %q", want)
		}
	}
}
