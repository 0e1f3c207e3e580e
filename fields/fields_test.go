package fields_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/plan-engine/fields"
	"github.com/warp/plan-engine/plan"
)

// =============================================================================
// TEST FIXTURES
// =============================================================================

func fieldsPlan() *plan.Plan {
	p := plan.NewPlan("p-fld", "Fields", "FL-1", "test", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	p.Campaigns = []plan.Campaign{
		{ID: "c1", Name: "C1", StartDate: plan.MustDate("2025-03-03"), EndDate: plan.MustDate("2025-03-30")},
	}
	p.Flights = []plan.Flight{
		{ID: "f1", CampaignID: "c1", StartDate: plan.MustDate("2025-03-03"), EndDate: plan.MustDate("2025-03-23")},
	}
	p.LineItems = []plan.LineItem{
		{ID: "li-ooh", FlightID: "f1", Channel: plan.ChannelOOH, Rate: 6.5,
			Extension: &plan.ChannelExtension{Channel: plan.ChannelOOH, OOH: &plan.OOHExtension{Owner: "Skyline", PanelCount: 12}}},
		{ID: "li-tv", FlightID: "f1", Channel: plan.ChannelTV},
		{ID: "li-bare", Channel: plan.ChannelSearch},
	}
	plan.UpdatePlanTimeline(p)
	return p
}

func mustResolve(t *testing.T, r *fields.Registry, ch plan.Channel, f fields.FieldID) fields.Resolver {
	t.Helper()
	res, ok := r.Resolve(ch, f)
	require.True(t, ok, "no resolver for %s/%s", ch, f)
	return res
}

func readField(t *testing.T, r *fields.Registry, p *plan.Plan, id plan.LineItemID, f fields.FieldID) any {
	t.Helper()
	ctx, err := fields.NewContext(p, id)
	require.NoError(t, err)
	res := mustResolve(t, r, ctx.LineItem.Channel, f)
	return res.Read(ctx)
}

// =============================================================================
// RESOLUTION
// =============================================================================

func TestRegistry_ChannelWinsOverGeneric(t *testing.T) {
	r := fields.DefaultRegistry()

	// OOH-specific field resolves for OOH but not for TV.
	_, ok := r.Resolve(plan.ChannelOOH, fields.FieldOOHOwner)
	assert.True(t, ok)
	_, ok = r.Resolve(plan.ChannelTV, fields.FieldOOHOwner)
	assert.False(t, ok, "TV has no owner column; it is display-only")

	// Generic fields resolve for every channel.
	for _, ch := range []plan.Channel{plan.ChannelOOH, plan.ChannelTV, plan.ChannelSearch, plan.ChannelPodcast} {
		_, ok := r.Resolve(ch, fields.FieldRate)
		assert.True(t, ok, "rate should resolve for %s", ch)
	}
}

func TestRegistry_ChannelAliases(t *testing.T) {
	r := fields.DefaultRegistry()

	// DOOH shares the OOH columns, cinema the TV columns, podcast the
	// radio columns.
	_, ok := r.Resolve(plan.ChannelDOOH, fields.FieldOOHPanelCount)
	assert.True(t, ok)
	_, ok = r.Resolve(plan.ChannelCinema, fields.FieldTVSpotLength)
	assert.True(t, ok)
	_, ok = r.Resolve(plan.ChannelPodcast, fields.FieldRadioStation)
	assert.True(t, ok)
}

// =============================================================================
// READS
// =============================================================================

func TestRead_ExtensionAndGenericFields(t *testing.T) {
	r := fields.DefaultRegistry()
	p := fieldsPlan()

	assert.Equal(t, "Skyline", readField(t, r, p, "li-ooh", fields.FieldOOHOwner))
	assert.Equal(t, 12, readField(t, r, p, "li-ooh", fields.FieldOOHPanelCount))
	assert.Equal(t, 6.5, readField(t, r, p, "li-ooh", fields.FieldRate))

	// Missing extension reads as the zero value, not a panic.
	assert.Equal(t, "", readField(t, r, p, "li-tv", fields.FieldTVProgram))

	// Flight dates read through the owning flight; unassigned reads nil.
	start := readField(t, r, p, "li-ooh", fields.FieldFlightStart)
	assert.Equal(t, "2025-03-03", start.(plan.Date).Key())
	assert.Nil(t, readField(t, r, p, "li-bare", fields.FieldFlightStart))
}

// =============================================================================
// WRITES
// =============================================================================

func TestWrite_DoesNotMutateInput(t *testing.T) {
	r := fields.DefaultRegistry()
	p := fieldsPlan()
	res := mustResolve(t, r, plan.ChannelOOH, fields.FieldRate)

	out, err := res.Write(p, "li-ooh", 9.75)
	require.NoError(t, err)
	require.NotSame(t, p, out)

	li, _ := out.FindLineItem("li-ooh")
	assert.Equal(t, 9.75, li.Rate)
	orig, _ := p.FindLineItem("li-ooh")
	assert.Equal(t, 6.5, orig.Rate, "input plan must stay untouched")
}

func TestWrite_AllocatesMissingExtension(t *testing.T) {
	r := fields.DefaultRegistry()
	p := fieldsPlan()
	res := mustResolve(t, r, plan.ChannelTV, fields.FieldTVProgram)

	// li-tv has no extension yet; the first write allocates it.
	out, err := res.Write(p, "li-tv", "Morning show")
	require.NoError(t, err)

	li, _ := out.FindLineItem("li-tv")
	require.NotNil(t, li.Extension)
	require.NotNil(t, li.Extension.TV)
	assert.Equal(t, "Morning show", li.Extension.TV.Program)
	assert.Equal(t, plan.ChannelTV, li.Extension.Channel)
}

func TestWrite_NormalizesNumbers(t *testing.T) {
	r := fields.DefaultRegistry()
	p := fieldsPlan()
	res := mustResolve(t, r, plan.ChannelOOH, fields.FieldRate)

	// Negative rates clamp to 0 even without running Validate first.
	out, err := res.Write(p, "li-ooh", -50.0)
	require.NoError(t, err)
	li, _ := out.FindLineItem("li-ooh")
	assert.Equal(t, 0.0, li.Rate)

	// Integer-typed values coerce.
	out, err = res.Write(p, "li-ooh", 42)
	require.NoError(t, err)
	li, _ = out.FindLineItem("li-ooh")
	assert.Equal(t, 42.0, li.Rate)
}

func TestWrite_NonDraftRejected(t *testing.T) {
	r := fields.DefaultRegistry()
	p := plan.Submit(fieldsPlan(), "a", time.Now())
	res := mustResolve(t, r, plan.ChannelOOH, fields.FieldRate)

	out, err := res.Write(p, "li-ooh", 99.0)
	require.NoError(t, err)
	assert.Same(t, p, out, "non-draft write is a silent no-op")
}

func TestWrite_UnknownLineItem(t *testing.T) {
	r := fields.DefaultRegistry()
	res := mustResolve(t, r, plan.ChannelOOH, fields.FieldRate)

	_, err := res.Write(fieldsPlan(), "nope", 1.0)
	assert.ErrorIs(t, err, plan.ErrLineItemNotFound)
}

func TestWrite_FlightDateReseedsBlockPlan(t *testing.T) {
	r := fields.DefaultRegistry()
	p := plan.EnsureBlockPlans(fieldsPlan())
	li, _ := p.FindLineItem("li-ooh")
	require.Equal(t, 3, li.BlockPlan.ActiveCount())

	// WHEN: The flight end moves out a week through the field layer
	res := mustResolve(t, r, plan.ChannelOOH, fields.FieldFlightEnd)
	out, err := res.Write(p, "li-ooh", "2025-03-30")
	require.NoError(t, err)

	// THEN: Flight, plan timeline, and block plan all follow
	f, _ := out.FindFlight("f1")
	assert.Equal(t, "2025-03-30", f.EndDate.Key())
	assert.Equal(t, "2025-03-30", out.EndDate.Key())
	li, _ = out.FindLineItem("li-ooh")
	assert.Equal(t, 4, li.BlockPlan.ActiveCount())
}

func TestWrite_FlightDateWithoutFlight(t *testing.T) {
	r := fields.DefaultRegistry()
	res := mustResolve(t, r, plan.ChannelSearch, fields.FieldFlightStart)

	_, err := res.Write(fieldsPlan(), "li-bare", "2025-03-03")
	assert.ErrorIs(t, err, plan.ErrNoFlightAssigned)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidate_Messages(t *testing.T) {
	r := fields.DefaultRegistry()
	p := fieldsPlan()
	ctx, err := fields.NewContext(p, "li-ooh")
	require.NoError(t, err)

	rate := mustResolve(t, r, plan.ChannelOOH, fields.FieldRate)
	assert.Nil(t, rate.Validate(12.5, ctx))
	require.NotNil(t, rate.Validate(-1.0, ctx))
	assert.Equal(t, "rate cannot be negative", *rate.Validate(-1.0, ctx))
	assert.Equal(t, "rate must be a number", *rate.Validate("abc", ctx))

	vendor := mustResolve(t, r, plan.ChannelOOH, fields.FieldVendor)
	assert.NotNil(t, vendor.Validate("", ctx))
	assert.Nil(t, vendor.Validate("v-skyline", ctx))
}

func TestValidate_FlightDateOrdering(t *testing.T) {
	r := fields.DefaultRegistry()
	p := fieldsPlan()
	ctx, err := fields.NewContext(p, "li-ooh")
	require.NoError(t, err)

	start := mustResolve(t, r, plan.ChannelOOH, fields.FieldFlightStart)
	assert.Nil(t, start.Validate("2025-03-10", ctx))
	require.NotNil(t, start.Validate("2025-04-01", ctx))
	assert.Equal(t, "start date is after end date", *start.Validate("2025-04-01", ctx))

	end := mustResolve(t, r, plan.ChannelOOH, fields.FieldFlightEnd)
	assert.Equal(t, "end date is before start date", *end.Validate("2025-03-01", ctx))
	assert.Equal(t, "invalid date", *end.Validate("garbage", ctx))
}

// =============================================================================
// CUSTOM REGISTRATION
// =============================================================================

func TestRegister_OverridesPriorEntry(t *testing.T) {
	r := fields.DefaultRegistry()
	r.Register(plan.ChannelTV, fields.FieldRate, fields.Resolver{
		Read: func(fields.Context) any { return "overridden" },
	})

	p := fieldsPlan()
	assert.Equal(t, "overridden", readField(t, r, p, "li-tv", fields.FieldRate))
	// Other channels still use the generic resolver.
	assert.Equal(t, 6.5, readField(t, r, p, "li-ooh", fields.FieldRate))
}
