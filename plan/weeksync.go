/*
weeksync.go - Bidirectional sync between week flags and flight dates

PURPOSE:
  A line item's schedule exists in two representations at once:

    - the owning flight's [start_date, end_date]
    - the block plan's per-week active flags

  This file keeps them consistent in both directions. Flights seed week
  flags when a block plan is first generated; after a user edits weeks
  directly, the flags are authoritative and the flight bounds are
  recomputed from the first and last active week.

INVARIANTS:
  - A block plan always spans the PLAN's full date range at the plan's
    week-start convention, not just the line item's flight window.
  - A line item with a block plan never ends up with zero active weeks.
    Toggling off the last active week is rejected: the operation returns
    the input plan unchanged and the caller detects the no-op by
    identity comparison.
  - After any change, the plan's own bounds are recomputed as the
    min/max across all flights (UpdatePlanTimeline).

FAILURE SEMANTICS:
  Everything here operates on a deep copy; the caller's plan is never
  mutated. Unknown line item ids and missing flights are structural
  errors and fail loudly. Invariant rejections are silent no-ops.
*/
package plan

// =============================================================================
// GENERATION - Plan range -> week grids
// =============================================================================

// EnsureBlockPlans regenerates every line item's week grid so it spans
// the plan's current date range at the current week-start convention.
//
// Seeding: when a line item has no prior block plan, weeks overlapping
// the flight's live ranges start active. When a prior block plan exists,
// its active flags are preserved by re-bucketing the absolute calendar
// days that were active onto the new grid. If preservation would leave
// everything inactive while the flight-derived default would not, the
// default wins - a line item is never silently left with zero active
// weeks.
//
// Line items with no flight assigned are left untouched (there is
// nothing to seed from).
func EnsureBlockPlans(p *Plan) *Plan {
	out := p.Clone()
	ensureBlockPlansInPlace(out)
	return out
}

func ensureBlockPlansInPlace(p *Plan) {
	grid := EnumeratePlanWeeks(p)
	for i := range p.LineItems {
		li := &p.LineItems[i]
		if li.FlightID == "" {
			continue
		}
		flight, err := p.FindFlight(li.FlightID)
		if err != nil {
			continue
		}
		regenerateWeeks(li, flight, grid)
	}
}

func regenerateWeeks(li *LineItem, flight *Flight, grid []WeekWindow) {
	seeded := seedFromFlight(flight, grid)

	if li.BlockPlan == nil || len(li.BlockPlan.Weeks) == 0 {
		li.BlockPlan = &BlockPlan{Version: 1, Weeks: seeded}
		return
	}

	// Preserve: a new week is active if any absolute day that was active
	// under the old grid falls inside it.
	activeRanges := activeWeekRanges(li.BlockPlan)
	preserved := make([]BlockPlanWeek, len(grid))
	anyActive := false
	for i, w := range grid {
		active := overlapsAny(DateRange{Start: w.Start, End: w.End}, activeRanges)
		preserved[i] = BlockPlanWeek{WeekStart: w.Start, Active: active}
		anyActive = anyActive || active
	}

	if !anyActive && countActive(seeded) > 0 {
		preserved = seeded
	}
	if weeksEqual(li.BlockPlan.Weeks, preserved) {
		return
	}
	li.BlockPlan = &BlockPlan{Version: li.BlockPlan.Version + 1, Weeks: preserved}
}

func weeksEqual(a, b []BlockPlanWeek) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].WeekStart.Equal(b[i].WeekStart) || a[i].Active != b[i].Active {
			return false
		}
	}
	return true
}

func seedFromFlight(flight *Flight, grid []WeekWindow) []BlockPlanWeek {
	live := flight.LiveRanges()
	weeks := make([]BlockPlanWeek, len(grid))
	for i, w := range grid {
		weeks[i] = BlockPlanWeek{
			WeekStart: w.Start,
			Active:    overlapsAny(DateRange{Start: w.Start, End: w.End}, live),
		}
	}
	return weeks
}

// activeWeekRanges returns the absolute day ranges covered by the active
// weeks of a block plan. Week length is implied by the stored starts.
func activeWeekRanges(bp *BlockPlan) []DateRange {
	var out []DateRange
	for _, w := range bp.Weeks {
		if w.Active {
			out = append(out, DateRange{Start: w.WeekStart, End: w.WeekStart.AddDays(6)})
		}
	}
	return out
}

func overlapsAny(r DateRange, ranges []DateRange) bool {
	for _, a := range ranges {
		if OverlapDays(r, a) > 0 {
			return true
		}
	}
	return false
}

func countActive(weeks []BlockPlanWeek) int {
	n := 0
	for _, w := range weeks {
		if w.Active {
			n++
		}
	}
	return n
}

// =============================================================================
// EDITING - Week toggles (flags become authoritative)
// =============================================================================

// ToggleBlockPlanWeek flips one week's active flag for a line item, then
// recomputes the owning flight's bounds and the plan timeline.
//
// Rejected (returns p unchanged) when the plan is not editable or when
// the toggle would leave zero active weeks. The editability rejection
// comes first: a non-editable plan is a no-op regardless of what the
// caller pointed at. Unknown line item, missing block plan, or unknown
// week key on an editable plan are structural errors.
func ToggleBlockPlanWeek(p *Plan, id LineItemID, weekKey string) (*Plan, error) {
	if !p.Status.Editable() {
		return p, nil
	}
	li, err := p.FindLineItem(id)
	if err != nil {
		return nil, err
	}
	if li.BlockPlan == nil {
		return nil, ErrNoBlockPlan
	}
	idx := -1
	for i, w := range li.BlockPlan.Weeks {
		if w.WeekStart.Key() == weekKey {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrWeekNotFound
	}

	// Guard: the flight always needs at least one active week to have a
	// defined start/end.
	if li.BlockPlan.Weeks[idx].Active && li.BlockPlan.ActiveCount() == 1 {
		return p, nil
	}

	out := p.Clone()
	cloned, _ := out.FindLineItem(id)
	cloned.BlockPlan.Weeks[idx].Active = !cloned.BlockPlan.Weeks[idx].Active
	if err := updateFlightFromBlockPlan(out, cloned); err != nil {
		return nil, err
	}
	UpdatePlanTimeline(out)
	return out, nil
}

// SyncBlockPlanToFlight recomputes a line item's flight bounds from its
// active weeks: first active week's start through last active week's
// start + 6 days. This is the authoritative direction after direct week
// edits.
func SyncBlockPlanToFlight(p *Plan, id LineItemID) (*Plan, error) {
	li, err := p.FindLineItem(id)
	if err != nil {
		return nil, err
	}
	if li.BlockPlan == nil {
		return nil, ErrNoBlockPlan
	}
	out := p.Clone()
	cloned, _ := out.FindLineItem(id)
	if err := updateFlightFromBlockPlan(out, cloned); err != nil {
		return nil, err
	}
	UpdatePlanTimeline(out)
	return out, nil
}

func updateFlightFromBlockPlan(p *Plan, li *LineItem) error {
	if li.FlightID == "" {
		return ErrNoFlightAssigned
	}
	flight, err := p.FindFlight(li.FlightID)
	if err != nil {
		return err
	}

	var first, last Date
	for _, w := range li.BlockPlan.Weeks {
		if !w.Active {
			continue
		}
		if first.IsZero() {
			first = w.WeekStart
		}
		last = w.WeekStart
	}
	if first.IsZero() {
		// Zero active weeks never survives the toggle guard; nothing to
		// derive bounds from, leave the flight alone.
		return nil
	}
	flight.StartDate = first
	flight.EndDate = last.AddDays(6)
	return nil
}

// ReseedBlockPlanFromFlight regenerates one line item's week grid seeded
// purely from its flight window, discarding prior flags. This is the
// flight-to-blockplan direction, used after a flight date edit. The plan
// timeline is recomputed first so the grid spans the updated range.
func ReseedBlockPlanFromFlight(p *Plan, id LineItemID) (*Plan, error) {
	li, err := p.FindLineItem(id)
	if err != nil {
		return nil, err
	}
	if li.FlightID == "" {
		return nil, ErrNoFlightAssigned
	}
	if _, err := p.FindFlight(li.FlightID); err != nil {
		return nil, err
	}

	out := p.Clone()
	UpdatePlanTimeline(out)
	grid := EnumeratePlanWeeks(out)
	cloned, _ := out.FindLineItem(id)
	flight, _ := out.FindFlight(cloned.FlightID)

	version := 1
	if cloned.BlockPlan != nil {
		version = cloned.BlockPlan.Version + 1
	}
	cloned.BlockPlan = &BlockPlan{Version: version, Weeks: seedFromFlight(flight, grid)}
	return out, nil
}

// =============================================================================
// REALIGNMENT - Week-start convention changes
// =============================================================================

// ChangeWeekStart re-buckets every line item's active calendar days onto
// the new week grid, then resyncs flights and the plan timeline. Calling
// it twice with the same convention is idempotent once settled.
//
// If re-bucketing leaves a line item all-inactive (partial-week
// misalignment), its grid falls back to regenerating from the flight
// window.
func ChangeWeekStart(p *Plan, ws WeekStartDay) *Plan {
	if !p.Status.Editable() {
		return p
	}
	if ws != WeekStartMonday && ws != WeekStartSunday {
		return p
	}

	out := p.Clone()
	out.WeekStart = ws
	ensureBlockPlansInPlace(out)

	for i := range out.LineItems {
		li := &out.LineItems[i]
		if li.BlockPlan == nil {
			continue
		}
		if err := updateFlightFromBlockPlan(out, li); err != nil {
			continue
		}
	}
	UpdatePlanTimeline(out)

	// Flight bounds are now week-aligned, which may have widened the
	// plan range; regenerate so grids span it.
	ensureBlockPlansInPlace(out)
	return out
}

// =============================================================================
// TIMELINE - Plan bounds from flight bounds
// =============================================================================

// UpdatePlanTimeline recomputes the plan's start/end as the min/max of
// its flights' ranges, keeping the aggregate invariant intact. Plans
// with no valid flight windows keep their current bounds.
func UpdatePlanTimeline(p *Plan) {
	var r DateRange
	for _, f := range p.Flights {
		w := f.Window()
		if !w.IsValid() {
			continue
		}
		if !r.IsValid() {
			r = w
			continue
		}
		r.Start = minDate(r.Start, w.Start)
		r.End = maxDate(r.End, w.End)
	}
	if r.IsValid() {
		p.StartDate = r.Start
		p.EndDate = r.End
	}
}
