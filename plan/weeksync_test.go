package plan_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/plan-engine/plan"
)

// =============================================================================
// TEST FIXTURES
// =============================================================================

// weekSyncPlan: one campaign, one flight Mar 3 - Mar 23 2025 (three
// monday-aligned weeks), one TV line item on that flight.
func weekSyncPlan() *plan.Plan {
	p := plan.NewPlan("p-sync", "Sync", "SY-1", "test", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	p.Campaigns = []plan.Campaign{
		{ID: "c1", Name: "C1", StartDate: plan.MustDate("2025-03-03"), EndDate: plan.MustDate("2025-03-23")},
	}
	p.Flights = []plan.Flight{
		{ID: "f1", CampaignID: "c1", StartDate: plan.MustDate("2025-03-03"), EndDate: plan.MustDate("2025-03-23")},
	}
	p.LineItems = []plan.LineItem{
		{ID: "li1", FlightID: "f1", Channel: plan.ChannelTV},
	}
	plan.UpdatePlanTimeline(p)
	return p
}

func activeKeys(li *plan.LineItem) []string {
	var keys []string
	for _, w := range li.BlockPlan.Weeks {
		if w.Active {
			keys = append(keys, w.WeekStart.Key())
		}
	}
	return keys
}

// =============================================================================
// GENERATION
// =============================================================================

func TestEnsureBlockPlans_SeedsFromFlight(t *testing.T) {
	p := weekSyncPlan()

	out := plan.EnsureBlockPlans(p)

	li, err := out.FindLineItem("li1")
	require.NoError(t, err)
	require.NotNil(t, li.BlockPlan)
	assert.Equal(t, 3, len(li.BlockPlan.Weeks), "grid should span the plan range")
	assert.Equal(t, []string{"2025-03-03", "2025-03-10", "2025-03-17"}, activeKeys(li))

	// Input untouched.
	orig, _ := p.FindLineItem("li1")
	assert.Nil(t, orig.BlockPlan, "caller's plan must not be mutated")
}

func TestEnsureBlockPlans_GridSpansPlanNotFlight(t *testing.T) {
	// GIVEN: A second flight extending the plan two weeks past f1
	p := weekSyncPlan()
	p.Flights = append(p.Flights, plan.Flight{
		ID: "f2", CampaignID: "c1",
		StartDate: plan.MustDate("2025-03-24"), EndDate: plan.MustDate("2025-04-06"),
	})
	plan.UpdatePlanTimeline(p)

	out := plan.EnsureBlockPlans(p)

	// THEN: li1's grid covers all five weeks, with only f1's three active
	li, _ := out.FindLineItem("li1")
	assert.Equal(t, 5, len(li.BlockPlan.Weeks))
	assert.Equal(t, 3, li.BlockPlan.ActiveCount())
}

func TestEnsureBlockPlans_SeedsFromPulsedFlight(t *testing.T) {
	// GIVEN: A flight with two live bursts and a hiatus week between
	p := weekSyncPlan()
	p.Flights[0].ActivePeriods = []plan.DateRange{
		{Start: plan.MustDate("2025-03-03"), End: plan.MustDate("2025-03-09")},
		{Start: plan.MustDate("2025-03-17"), End: plan.MustDate("2025-03-23")},
	}

	out := plan.EnsureBlockPlans(p)

	li, _ := out.FindLineItem("li1")
	assert.Equal(t, []string{"2025-03-03", "2025-03-17"}, activeKeys(li), "hiatus week stays inactive")
}

func TestEnsureBlockPlans_PreservesEditedFlags(t *testing.T) {
	// GIVEN: A block plan where the user turned the middle week off
	p := plan.EnsureBlockPlans(weekSyncPlan())
	p, err := plan.ToggleBlockPlanWeek(p, "li1", "2025-03-10")
	require.NoError(t, err)

	// WHEN: Grids are regenerated (same range)
	out := plan.EnsureBlockPlans(p)

	// THEN: The edit survives
	li, _ := out.FindLineItem("li1")
	assert.NotContains(t, activeKeys(li), "2025-03-10")
}

func TestEnsureBlockPlans_SkipsUnassignedLineItems(t *testing.T) {
	p := weekSyncPlan()
	p.LineItems = append(p.LineItems, plan.LineItem{ID: "li-orphan", Channel: plan.ChannelPrint})

	out := plan.EnsureBlockPlans(p)

	orphan, _ := out.FindLineItem("li-orphan")
	assert.Nil(t, orphan.BlockPlan, "line item with no flight has nothing to seed from")
}

// =============================================================================
// TOGGLING
// =============================================================================

func TestToggleBlockPlanWeek_UpdatesFlightBounds(t *testing.T) {
	p := plan.EnsureBlockPlans(weekSyncPlan())

	// WHEN: The first week is toggled off
	out, err := plan.ToggleBlockPlanWeek(p, "li1", "2025-03-03")
	require.NoError(t, err)
	require.NotSame(t, p, out)

	// THEN: The flight now starts at the second week
	f, _ := out.FindFlight("f1")
	assert.Equal(t, "2025-03-10", f.StartDate.Key())
	assert.Equal(t, "2025-03-23", f.EndDate.Key())
	// And the plan timeline followed.
	assert.Equal(t, "2025-03-10", out.StartDate.Key())
}

func TestToggleBlockPlanWeek_LastActiveWeekRejected(t *testing.T) {
	p := plan.EnsureBlockPlans(weekSyncPlan())
	var err error
	p, err = plan.ToggleBlockPlanWeek(p, "li1", "2025-03-03")
	require.NoError(t, err)
	p, err = plan.ToggleBlockPlanWeek(p, "li1", "2025-03-10")
	require.NoError(t, err)

	// WHEN: Toggling off the only remaining active week
	out, err := plan.ToggleBlockPlanWeek(p, "li1", "2025-03-17")

	// THEN: Silent no-op, same plan back
	require.NoError(t, err)
	assert.Same(t, p, out, "last-week toggle must return the input unchanged")
	li, _ := out.FindLineItem("li1")
	assert.Equal(t, 1, li.BlockPlan.ActiveCount())
}

func TestToggleBlockPlanWeek_StructuralErrors(t *testing.T) {
	p := plan.EnsureBlockPlans(weekSyncPlan())

	_, err := plan.ToggleBlockPlanWeek(p, "nope", "2025-03-03")
	assert.ErrorIs(t, err, plan.ErrLineItemNotFound)

	_, err = plan.ToggleBlockPlanWeek(p, "li1", "1999-01-01")
	assert.ErrorIs(t, err, plan.ErrWeekNotFound)

	bare := weekSyncPlan()
	_, err = plan.ToggleBlockPlanWeek(bare, "li1", "2025-03-03")
	assert.ErrorIs(t, err, plan.ErrNoBlockPlan)
}

func TestToggleBlockPlanWeek_NonEditableIsNoOp(t *testing.T) {
	p := plan.EnsureBlockPlans(weekSyncPlan())
	p = plan.Submit(p, "reviewer", time.Now())
	require.Equal(t, plan.StatusSubmitted, p.Status)

	out, err := plan.ToggleBlockPlanWeek(p, "li1", "2025-03-03")
	require.NoError(t, err)
	assert.Same(t, p, out)

	// The editability rejection precedes structural resolution: a bad
	// reference against a submitted plan is still the silent no-op, not
	// an error.
	out, err = plan.ToggleBlockPlanWeek(p, "li1", "1999-01-01")
	require.NoError(t, err)
	assert.Same(t, p, out)

	out, err = plan.ToggleBlockPlanWeek(p, "nope", "2025-03-03")
	require.NoError(t, err)
	assert.Same(t, p, out)
}

func TestToggleBlockPlanWeek_RoundTrip(t *testing.T) {
	// Toggling a week off and back on restores the original schedule.
	p := plan.EnsureBlockPlans(weekSyncPlan())

	mid, err := plan.ToggleBlockPlanWeek(p, "li1", "2025-03-03")
	require.NoError(t, err)
	back, err := plan.ToggleBlockPlanWeek(mid, "li1", "2025-03-03")
	require.NoError(t, err)

	liBefore, _ := p.FindLineItem("li1")
	liAfter, _ := back.FindLineItem("li1")
	assert.Equal(t, activeKeys(liBefore), activeKeys(liAfter))

	fBefore, _ := p.FindFlight("f1")
	fAfter, _ := back.FindFlight("f1")
	assert.True(t, fBefore.StartDate.Equal(fAfter.StartDate))
	assert.True(t, fBefore.EndDate.Equal(fAfter.EndDate))
}

// =============================================================================
// FLIGHT-DRIVEN RESEED
// =============================================================================

func TestReseedBlockPlanFromFlight_DiscardsFlags(t *testing.T) {
	p := plan.EnsureBlockPlans(weekSyncPlan())
	p, err := plan.ToggleBlockPlanWeek(p, "li1", "2025-03-10")
	require.NoError(t, err)

	// WHEN: The flight is widened and the grid reseeded from it
	f, _ := p.FindFlight("f1")
	f.StartDate = plan.MustDate("2025-03-03")
	f.EndDate = plan.MustDate("2025-03-30")
	out, err := plan.ReseedBlockPlanFromFlight(p, "li1")
	require.NoError(t, err)

	// THEN: All four weeks of the new window are active again
	li, _ := out.FindLineItem("li1")
	assert.Equal(t, 4, li.BlockPlan.ActiveCount())
	assert.Equal(t, "2025-03-30", out.EndDate.Key(), "plan timeline follows the flight")
}

// =============================================================================
// WEEK-START REALIGNMENT
// =============================================================================

func TestChangeWeekStart_RealignsGrid(t *testing.T) {
	p := plan.EnsureBlockPlans(weekSyncPlan())

	out := plan.ChangeWeekStart(p, plan.WeekStartSunday)

	assert.Equal(t, plan.WeekStartSunday, out.WeekStart)
	li, _ := out.FindLineItem("li1")
	for _, w := range li.BlockPlan.Weeks {
		assert.Equal(t, time.Sunday, w.WeekStart.Weekday(), "every week must start on Sunday")
	}
	// The monday-aligned active days still fall in active sunday weeks.
	assert.GreaterOrEqual(t, li.BlockPlan.ActiveCount(), 3)
}

func TestChangeWeekStart_Idempotent(t *testing.T) {
	p := plan.EnsureBlockPlans(weekSyncPlan())

	once := plan.ChangeWeekStart(p, plan.WeekStartSunday)
	twice := plan.ChangeWeekStart(once, plan.WeekStartSunday)

	assert.Equal(t, once.StartDate.Key(), twice.StartDate.Key())
	assert.Equal(t, once.EndDate.Key(), twice.EndDate.Key())

	liOnce, _ := once.FindLineItem("li1")
	liTwice, _ := twice.FindLineItem("li1")
	assert.Equal(t, activeKeys(liOnce), activeKeys(liTwice))
	assert.Equal(t, liOnce.BlockPlan.Version, liTwice.BlockPlan.Version,
		"settled realignment must not bump the grid version")
}

func TestChangeWeekStart_NonEditableIsNoOp(t *testing.T) {
	p := plan.EnsureBlockPlans(weekSyncPlan())
	p = plan.Submit(p, "reviewer", time.Now())

	out := plan.ChangeWeekStart(p, plan.WeekStartSunday)
	assert.Same(t, p, out)
}

// =============================================================================
// TIMELINE
// =============================================================================

func TestUpdatePlanTimeline(t *testing.T) {
	p := weekSyncPlan()
	p.Flights = append(p.Flights, plan.Flight{
		ID: "f2", CampaignID: "c1",
		StartDate: plan.MustDate("2025-02-10"), EndDate: plan.MustDate("2025-02-16"),
	})

	plan.UpdatePlanTimeline(p)

	assert.Equal(t, "2025-02-10", p.StartDate.Key())
	assert.Equal(t, "2025-03-23", p.EndDate.Key())

	// No valid flights: bounds stay put.
	q := weekSyncPlan()
	q.Flights = nil
	before := q.StartDate
	plan.UpdatePlanTimeline(q)
	assert.True(t, q.StartDate.Equal(before))
}
