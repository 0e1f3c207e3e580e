/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Pre-built plans that populate the store with realistic data. Each
  scenario creates a plan with campaigns, flights, line items, tactics,
  and block plans demonstrating specific engine features.

AVAILABLE SCENARIOS:
  spring-launch:    Multi-channel Q1 plan with staggered flights and
                    seeded block plans
  capped-channels:  A plan whose TV spend blows past the channel cap,
                    for allocator demos

USAGE VIA API:
  POST /api/scenarios/load
  {"scenario_id": "spring-launch"}

NOTE:
  Loading a scenario overwrites the scenario's plan and resets its undo
  history. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: The rest of the HTTP surface
*/
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/warp/plan-engine/plan"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "spring-launch",
		Name:        "Spring Launch",
		Description: "Multi-channel Q1 plan with staggered flights and seeded block plans",
	},
	{
		ID:          "capped-channels",
		Name:        "Capped Channels",
		Description: "TV holds 80% of budget under a 60% channel cap",
	},
}

// ListScenarios returns the available demo scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, scenarios)
}

// LoadScenario seeds the store with the named scenario's plan.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decodeValid(w, r, &req) {
		return
	}

	var p *plan.Plan
	switch req.ScenarioID {
	case "spring-launch":
		p = springLaunchPlan(h.now())
	case "capped-channels":
		p = cappedChannelsPlan(h.now())
	default:
		respondError(w, http.StatusBadRequest, errors.New("unknown scenario: "+req.ScenarioID))
		return
	}

	saved, err := h.seedPlan(r.Context(), p)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, PlanResponse{Plan: saved, Changed: true})
}

// seedPlan replaces any prior copy of the scenario plan and resets its
// undo history.
func (h *Handler) seedPlan(ctx context.Context, p *plan.Plan) (*plan.Plan, error) {
	if existing, err := h.Store.GetPlan(ctx, p.ID); err == nil {
		p.Version = existing.Version
	} else {
		p.Version = 0
	}
	seeded := plan.EnsureBlockPlans(p)
	saved, err := h.Store.SavePlan(ctx, seeded)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	delete(h.histories, saved.ID)
	h.mu.Unlock()
	h.history(saved)
	return saved, nil
}

// =============================================================================
// SCENARIO PLANS
// =============================================================================

func springLaunchPlan(now time.Time) *plan.Plan {
	p := plan.NewPlan("demo-spring-launch", "Spring Launch 2025", "SPR-25", "demo", now)
	p.Goal = plan.Goal{Budget: 250000, Reach: 0.65, Frequency: 3.5}

	p.Campaigns = []plan.Campaign{
		{ID: "c-awareness", Name: "Awareness", StartDate: plan.MustDate("2025-03-03"), EndDate: plan.MustDate("2025-04-27"), Budget: 180000},
		{ID: "c-conversion", Name: "Conversion", StartDate: plan.MustDate("2025-03-17"), EndDate: plan.MustDate("2025-04-27"), Budget: 70000},
	}
	p.Flights = []plan.Flight{
		{ID: "f-tv", CampaignID: "c-awareness", StartDate: plan.MustDate("2025-03-03"), EndDate: plan.MustDate("2025-04-13"), Budget: 120000, BuyType: "upfront"},
		{ID: "f-ooh", CampaignID: "c-awareness", StartDate: plan.MustDate("2025-03-10"), EndDate: plan.MustDate("2025-04-27"), Budget: 60000,
			// Pulsed: two live bursts with a hiatus between.
			ActivePeriods: []plan.DateRange{
				{Start: plan.MustDate("2025-03-10"), End: plan.MustDate("2025-03-23")},
				{Start: plan.MustDate("2025-04-07"), End: plan.MustDate("2025-04-27")},
			}},
		{ID: "f-digital", CampaignID: "c-conversion", StartDate: plan.MustDate("2025-03-17"), EndDate: plan.MustDate("2025-04-27"), Budget: 70000, BuyType: "programmatic"},
	}
	p.Vendors = []plan.Vendor{
		{ID: "v-metro", Name: "Metro Broadcasting"},
		{ID: "v-skyline", Name: "Skyline Outdoor"},
		{ID: "v-dsp", Name: "OpenDSP"},
	}
	p.Audiences = []plan.Audience{{ID: "a-adults", Name: "Adults 25-54"}}
	p.Creatives = []plan.Creative{
		{ID: "cr-30s", Name: "Hero 30s"},
		{ID: "cr-billboard", Name: "Billboard 48-sheet", Size: "48-sheet"},
		{ID: "cr-banner", Name: "Banner set", Size: "300x250"},
	}
	p.LineItems = []plan.LineItem{
		{
			ID: "li-tv", FlightID: "f-tv", Channel: plan.ChannelTV,
			VendorID: "v-metro", CreativeID: "cr-30s", AudienceID: "a-adults",
			PricingModel: plan.BidCPM, Rate: 18.5, PlannedUnits: 6_486_000, PlannedCost: 120000,
			Extension: &plan.ChannelExtension{Channel: plan.ChannelTV, TV: &plan.TVExtension{Program: "Prime news", Daypart: "prime", SpotLength: 30}},
		},
		{
			ID: "li-ooh", FlightID: "f-ooh", Channel: plan.ChannelOOH,
			VendorID: "v-skyline", CreativeID: "cr-billboard", AudienceID: "a-adults",
			PricingModel: plan.BidCPM, Rate: 6.2, PlannedUnits: 9_677_000, PlannedCost: 60000,
			Extension: &plan.ChannelExtension{Channel: plan.ChannelOOH, OOH: &plan.OOHExtension{Owner: "Skyline", PanelCount: 42, Facing: "north", Illuminated: true}},
		},
		{
			ID: "li-display", FlightID: "f-digital", Channel: plan.ChannelDisplay,
			VendorID: "v-dsp", CreativeID: "cr-banner", AudienceID: "a-adults",
			PricingModel: plan.BidCPC, Rate: 1.4, PlannedUnits: 50000, PlannedCost: 70000,
			Extension: &plan.ChannelExtension{Channel: plan.ChannelDisplay, Display: &plan.DisplayExtension{AdFormat: "banner", Placement: "run-of-network", ViewabilityTarget: 0.7}},
		},
	}
	p.Tactics = []plan.Tactic{
		{ID: "t-tv", CampaignID: "c-awareness", Channel: plan.ChannelTV, Vendor: "Metro Broadcasting",
			FlightStart: plan.MustDate("2025-03-03"), FlightEnd: plan.MustDate("2025-04-13"),
			Budget: 120000, BidType: plan.BidCPM, Goal: 6_486_000, EstCPM: 18.5},
		{ID: "t-ooh", CampaignID: "c-awareness", Channel: plan.ChannelOOH, Vendor: "Skyline Outdoor",
			FlightStart: plan.MustDate("2025-03-10"), FlightEnd: plan.MustDate("2025-04-27"),
			Budget: 60000, BidType: plan.BidCPM, Goal: 9_677_000, EstCPM: 6.2},
		{ID: "t-display", CampaignID: "c-conversion", Channel: plan.ChannelDisplay, Vendor: "OpenDSP",
			FlightStart: plan.MustDate("2025-03-17"), FlightEnd: plan.MustDate("2025-04-27"),
			Budget: 70000, BidType: plan.BidCPC, Goal: 50000, EstCPC: 1.4},
	}

	plan.UpdatePlanTimeline(p)
	return p
}

func cappedChannelsPlan(now time.Time) *plan.Plan {
	p := plan.NewPlan("demo-capped-channels", "Capped Channels", "CAP-25", "demo", now)
	maxShare := 0.6
	minBudget := 500.0
	p.Constraints = plan.Constraints{MaxSharePerChannel: &maxShare, MinTacticBudget: &minBudget}
	p.Goal = plan.Goal{Budget: 100000}

	p.Campaigns = []plan.Campaign{
		{ID: "c-main", Name: "Main", StartDate: plan.MustDate("2025-06-02"), EndDate: plan.MustDate("2025-07-27"), Budget: 100000},
	}
	p.Flights = []plan.Flight{
		{ID: "f-main", CampaignID: "c-main", StartDate: plan.MustDate("2025-06-02"), EndDate: plan.MustDate("2025-07-27"), Budget: 100000},
	}
	p.Tactics = []plan.Tactic{
		{ID: "t-tv-1", CampaignID: "c-main", Channel: plan.ChannelTV, Vendor: "Metro Broadcasting",
			FlightStart: plan.MustDate("2025-06-02"), FlightEnd: plan.MustDate("2025-07-27"),
			Budget: 50000, BidType: plan.BidCPM, EstCPM: 20},
		{ID: "t-tv-2", CampaignID: "c-main", Channel: plan.ChannelTV, Vendor: "Coastal TV",
			FlightStart: plan.MustDate("2025-06-02"), FlightEnd: plan.MustDate("2025-07-27"),
			Budget: 30000, BidType: plan.BidCPM, EstCPM: 24},
		{ID: "t-social", CampaignID: "c-main", Channel: plan.ChannelSocial, Vendor: "SocialCo",
			FlightStart: plan.MustDate("2025-06-02"), FlightEnd: plan.MustDate("2025-07-27"),
			Budget: 12000, BidType: plan.BidCPC, EstCPC: 0.8},
		{ID: "t-search", CampaignID: "c-main", Channel: plan.ChannelSearch, Vendor: "SearchCo",
			FlightStart: plan.MustDate("2025-06-02"), FlightEnd: plan.MustDate("2025-07-27"),
			Budget: 8000, BidType: plan.BidCPA, EstCPA: 35},
	}

	plan.UpdatePlanTimeline(p)
	return p
}
