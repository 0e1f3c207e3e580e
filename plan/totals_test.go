package plan_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/plan-engine/plan"
)

func totalsPlan() *plan.Plan {
	p := plan.NewPlan("p-tot", "Totals", "TO-1", "test", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	p.Tactics = []plan.Tactic{
		{ID: "t1", Channel: plan.ChannelTV, Budget: 6000, EstCPM: 12},
		{ID: "t2", Channel: plan.ChannelTV, Budget: 2000, EstCPM: 20},
		{ID: "t3", Channel: plan.ChannelSocial, Budget: 2000, EstCPM: 5},
	}
	return p
}

func TestCalculateTotals(t *testing.T) {
	totals := plan.CalculateTotals(totalsPlan())

	assert.True(t, totals.TotalBudget.Equal(decimal.NewFromInt(10000)),
		"total budget = %s", totals.TotalBudget)
	// 500k + 100k + 400k impressions
	assert.InDelta(t, 1_000_000, totals.TotalImpressions, 1)
	// Effective CPM = 10000 / 1,000,000 * 1000 = 10.00
	assert.True(t, totals.CPM.Equal(decimal.RequireFromString("10")),
		"effective CPM = %s", totals.CPM)

	require.Len(t, totals.Channels, 2)
	tv := totals.Channels[0]
	assert.Equal(t, plan.ChannelTV, tv.Channel)
	assert.True(t, tv.Budget.Equal(decimal.NewFromInt(8000)))
	assert.InDelta(t, 0.8, tv.Share, 1e-9)
	assert.Equal(t, 2, tv.TacticCount)
}

func TestCalculateTotals_Empty(t *testing.T) {
	p := plan.NewPlan("p-tot", "Totals", "TO-1", "test", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	totals := plan.CalculateTotals(p)

	assert.True(t, totals.TotalBudget.IsZero())
	assert.True(t, totals.CPM.IsZero())
	assert.Empty(t, totals.Channels)
}

// =============================================================================
// PACING WARNINGS
// =============================================================================

func hasWarning(t *testing.T, warnings []string, substr string) {
	t.Helper()
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return
		}
	}
	t.Errorf("no warning containing %q in %v", substr, warnings)
}

func TestBuildPacingWarnings_TacticOutsideCampaign(t *testing.T) {
	p := totalsPlan()
	p.Campaigns = []plan.Campaign{
		{ID: "c1", Name: "Spring", StartDate: plan.MustDate("2025-03-01"), EndDate: plan.MustDate("2025-03-31")},
	}
	p.Tactics = []plan.Tactic{
		{ID: "t1", CampaignID: "c1", Channel: plan.ChannelTV, Budget: 1000,
			FlightStart: plan.MustDate("2025-02-20"), FlightEnd: plan.MustDate("2025-03-10")},
	}

	warnings := plan.BuildPacingWarnings(p, plan.MustDate("2025-03-01"))
	hasWarning(t, warnings, "outside campaign")
}

func TestBuildPacingWarnings_ZeroBudgetAndEmptyFlight(t *testing.T) {
	p := totalsPlan()
	p.Tactics = []plan.Tactic{
		{ID: "t1", Channel: plan.ChannelTV, Budget: 0,
			FlightStart: plan.MustDate("2025-03-01"), FlightEnd: plan.MustDate("2025-03-14")},
	}
	p.Flights = []plan.Flight{
		{ID: "f-empty", StartDate: plan.MustDate("2025-03-01"), EndDate: plan.MustDate("2025-03-14")},
	}

	warnings := plan.BuildPacingWarnings(p, plan.MustDate("2025-03-01"))
	hasWarning(t, warnings, "no budget")
	hasWarning(t, warnings, "no line items")
}

func TestBuildPacingWarnings_ChannelOverCap(t *testing.T) {
	p := totalsPlan() // TV holds 80%
	capShare := 0.6
	p.Constraints.MaxSharePerChannel = &capShare

	warnings := plan.BuildPacingWarnings(p, plan.MustDate("2025-03-01"))
	hasWarning(t, warnings, "over the 60% cap")

	// No cap configured: no cap warnings.
	p.Constraints.MaxSharePerChannel = nil
	for _, w := range plan.BuildPacingWarnings(p, plan.MustDate("2025-03-01")) {
		if strings.Contains(w, "cap") {
			t.Errorf("unexpected cap warning without a configured cap: %s", w)
		}
	}
}

func TestBuildPacingWarnings_StaleDraft(t *testing.T) {
	p := totalsPlan()
	p.StartDate = plan.MustDate("2025-01-01")
	p.EndDate = plan.MustDate("2025-01-31")

	warnings := plan.BuildPacingWarnings(p, plan.MustDate("2025-06-01"))
	hasWarning(t, warnings, "still a draft")

	// Approved plans do not pace-warn about drafts.
	p = plan.Approve(plan.Submit(p, "a", time.Now()), "b", "", time.Now())
	for _, w := range plan.BuildPacingWarnings(p, plan.MustDate("2025-06-01")) {
		if strings.Contains(w, "draft") {
			t.Errorf("approved plan should not warn about being a draft: %s", w)
		}
	}
}

func TestBuildPacingWarnings_CleanPlan(t *testing.T) {
	p := totalsPlan()
	p.Campaigns = []plan.Campaign{
		{ID: "c1", Name: "Spring", StartDate: plan.MustDate("2025-03-01"), EndDate: plan.MustDate("2025-03-31")},
	}
	for i := range p.Tactics {
		p.Tactics[i].CampaignID = "c1"
		p.Tactics[i].FlightStart = plan.MustDate("2025-03-01")
		p.Tactics[i].FlightEnd = plan.MustDate("2025-03-31")
	}
	p.StartDate = plan.MustDate("2025-03-01")
	p.EndDate = plan.MustDate("2025-03-31")

	warnings := plan.BuildPacingWarnings(p, plan.MustDate("2025-03-15"))
	assert.Empty(t, warnings)
}
