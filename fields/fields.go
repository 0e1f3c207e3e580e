/*
Package fields maps abstract table columns onto the plan aggregate.

PURPOSE:
  The flighting editor renders one grid across line items of every
  channel, but the cells land on differently-shaped records: "owner"
  lives on the OOH extension, "daypart" on the TV extension, "rate" on
  the line item itself, flight dates on the owning flight. This package
  is the indirection layer: a typed resolver table keyed by
  (Channel, FieldID), each entry knowing how to read, write, and
  validate its column.

RESOLUTION ORDER:
  1. Channel-specific resolver for (channel, field)
  2. Shared generic resolver for the field
  3. Nothing - the column is read-only display-only for that channel

WRITE CONTRACT:
  Writes never mutate the input plan: they deep-clone, apply, and return
  the new plan. Writes to a non-draft plan are rejected (input returned
  unchanged). Every numeric write normalizes defensively - negatives
  clamp to 0, non-finite values coerce to 0 - whether or not Validate
  ran. Writes to flight date fields additionally reseed the line item's
  block-plan weeks from the updated flight window.

VALIDATION:
  Validate returns a human-readable message, or nil when the value is
  acceptable. It never blocks the write itself; callers enforcing form
  validation check it first.
*/
package fields

import (
	"math"

	"github.com/warp/plan-engine/plan"
)

// FieldID names one abstract column of the flighting grid.
type FieldID string

const (
	// Generic line item fields
	FieldRate         FieldID = "rate"
	FieldPlannedUnits FieldID = "planned_units"
	FieldPlannedCost  FieldID = "planned_cost"
	FieldVendor       FieldID = "vendor"
	FieldCreative     FieldID = "creative"
	FieldAudience     FieldID = "audience"

	// Flight fields (write through to the owning flight)
	FieldFlightStart FieldID = "flight_start"
	FieldFlightEnd   FieldID = "flight_end"

	// OOH
	FieldOOHOwner       FieldID = "ooh_owner"
	FieldOOHPanelCount  FieldID = "ooh_panel_count"
	FieldOOHFacing      FieldID = "ooh_facing"
	FieldOOHIlluminated FieldID = "ooh_illuminated"

	// TV
	FieldTVProgram    FieldID = "tv_program"
	FieldTVDaypart    FieldID = "tv_daypart"
	FieldTVSpotLength FieldID = "tv_spot_length"

	// Radio
	FieldRadioStation FieldID = "radio_station"
	FieldRadioDaypart FieldID = "radio_daypart"

	// Print
	FieldPrintPublication FieldID = "print_publication"
	FieldPrintInsertions  FieldID = "print_insertions"

	// Display
	FieldDisplayFormat      FieldID = "display_format"
	FieldDisplayPlacement   FieldID = "display_placement"
	FieldDisplayViewability FieldID = "display_viewability"

	// Social
	FieldSocialPlatform  FieldID = "social_platform"
	FieldSocialObjective FieldID = "social_objective"

	// Search
	FieldSearchMatchType FieldID = "search_match_type"
)

// Context is the read-side view of one grid cell's surroundings.
type Context struct {
	Plan     *plan.Plan
	LineItem *plan.LineItem
	Flight   *plan.Flight
}

// NewContext builds the resolver context for a line item. The flight is
// nil when none is assigned.
func NewContext(p *plan.Plan, id plan.LineItemID) (Context, error) {
	li, err := p.FindLineItem(id)
	if err != nil {
		return Context{}, err
	}
	ctx := Context{Plan: p, LineItem: li}
	if li.FlightID != "" {
		if f, err := p.FindFlight(li.FlightID); err == nil {
			ctx.Flight = f
		}
	}
	return ctx, nil
}

// Resolver is the read/write/validate triple for one column on one
// channel. Validate may be nil.
type Resolver struct {
	Read     func(Context) any
	Write    func(p *plan.Plan, id plan.LineItemID, value any) (*plan.Plan, error)
	Validate func(value any, ctx Context) *string
}

// Registry holds channel-specific resolvers plus the generic fallbacks.
type Registry struct {
	byChannel map[plan.Channel]map[FieldID]Resolver
	generic   map[FieldID]Resolver
}

// Resolve returns the resolver for a (channel, field) pair. Channel
// resolvers win over generic ones; ok is false when neither exists and
// the column is read-only display-only.
func (r *Registry) Resolve(ch plan.Channel, f FieldID) (Resolver, bool) {
	if m, ok := r.byChannel[ch]; ok {
		if res, ok := m[f]; ok {
			return res, true
		}
	}
	res, ok := r.generic[f]
	return res, ok
}

// Register installs a channel-specific resolver, replacing any previous
// entry for the pair.
func (r *Registry) Register(ch plan.Channel, f FieldID, res Resolver) {
	if r.byChannel[ch] == nil {
		r.byChannel[ch] = map[FieldID]Resolver{}
	}
	r.byChannel[ch][f] = res
}

// =============================================================================
// VALUE COERCION AND NORMALIZATION
// =============================================================================

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asDate(v any) (plan.Date, bool) {
	switch x := v.(type) {
	case plan.Date:
		return x, !x.IsZero()
	case string:
		d, err := plan.ParseDate(x)
		return d, err == nil
	}
	return plan.Date{}, false
}

// normalizeMoney clamps negatives to 0 and coerces non-finite values to
// 0, regardless of whether validation ran.
func normalizeMoney(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func normalizeCount(v float64) int {
	n := normalizeMoney(v)
	return int(n)
}

// =============================================================================
// WRITE PLUMBING
// =============================================================================

// writeLineItem clones the plan and applies one line item mutation.
// Non-draft plans reject the write (input returned unchanged); unknown
// ids fail loudly.
func writeLineItem(p *plan.Plan, id plan.LineItemID, apply func(*plan.LineItem)) (*plan.Plan, error) {
	if _, err := p.FindLineItem(id); err != nil {
		return nil, err
	}
	if !p.Status.Editable() {
		return p, nil
	}
	out := p.Clone()
	li, _ := out.FindLineItem(id)
	apply(li)
	return out, nil
}

// writeFlightDate sets one bound of the owning flight and reseeds the
// line item's block-plan weeks from the updated window.
func writeFlightDate(p *plan.Plan, id plan.LineItemID, setStart bool, value any) (*plan.Plan, error) {
	li, err := p.FindLineItem(id)
	if err != nil {
		return nil, err
	}
	if li.FlightID == "" {
		return nil, plan.ErrNoFlightAssigned
	}
	if _, err := p.FindFlight(li.FlightID); err != nil {
		return nil, err
	}
	if !p.Status.Editable() {
		return p, nil
	}
	d, ok := asDate(value)
	if !ok {
		return p, nil
	}

	out := p.Clone()
	cloned, _ := out.FindLineItem(id)
	flight, _ := out.FindFlight(cloned.FlightID)
	if setStart {
		flight.StartDate = d
	} else {
		flight.EndDate = d
	}
	return plan.ReseedBlockPlanFromFlight(out, id)
}

// ext returns the line item's extension, allocating the extension and
// the variant matching the line item's channel on first write so
// partially-filled records round-trip.
func ext(li *plan.LineItem) *plan.ChannelExtension {
	if li.Extension == nil {
		li.Extension = plan.NewExtension(li.Channel)
		return li.Extension
	}
	e := li.Extension
	fresh := plan.NewExtension(li.Channel)
	switch {
	case fresh.OOH != nil && e.OOH == nil:
		e.OOH = fresh.OOH
	case fresh.TV != nil && e.TV == nil:
		e.TV = fresh.TV
	case fresh.Radio != nil && e.Radio == nil:
		e.Radio = fresh.Radio
	case fresh.Print != nil && e.Print == nil:
		e.Print = fresh.Print
	case fresh.Display != nil && e.Display == nil:
		e.Display = fresh.Display
	case fresh.Social != nil && e.Social == nil:
		e.Social = fresh.Social
	case fresh.Search != nil && e.Search == nil:
		e.Search = fresh.Search
	}
	return e
}
