/*
time.go - Calendar date math for plan scheduling

PURPOSE:
  All date arithmetic in the engine goes through the Date value type
  defined here. A Date is a calendar day, not an instant: it normalizes
  to midnight UTC and compares by date components only, so week and
  bucket boundaries never drift across daylight-saving transitions.

KEY CONCEPTS:
  - Date:       A calendar day (midnight UTC). The only time type the
                engine uses; wall-clock instants stay at the periphery.
  - DateRange:  A closed [Start, End] range of days. Day counts are
                inclusive: Jan 1 - Jan 1 is one day.
  - WeekWindow: One calendar week of a plan's grid, keyed by the ISO
                date of its start day.
  - Block:      One reporting bucket (week, fortnight, or month),
                clipped to the requested range.

FORTNIGHT ANCHORING:
  Fortnight buckets are anchored to a fixed global epoch (Monday,
  2024-01-01) rather than to the range being bucketed. Two tactics in
  the same calendar period therefore always land in the same fortnight
  column regardless of their own start dates.

SEE ALSO:
  - prorate.go: Distributes totals across Blocks by day overlap
  - weeksync.go: Uses WeekWindows for block-plan grids
*/
package plan

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar day value type
// =============================================================================

type Date struct {
	Time time.Time
}

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO calendar date ("2006-01-02").
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Time: t.UTC()}, nil
}

// MustDate parses an ISO date or returns the zero Date. For literals in
// tests and scenario seeds.
func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		return Date{}
	}
	return d
}

// Comparison
func (d Date) Before(other Date) bool        { return d.normalize().Before(other.normalize()) }
func (d Date) Equal(other Date) bool         { return d.normalize().Equal(other.normalize()) }
func (d Date) After(other Date) bool         { return d.normalize().After(other.normalize()) }
func (d Date) BeforeOrEqual(other Date) bool { return d.Before(other) || d.Equal(other) }
func (d Date) AfterOrEqual(other Date) bool  { return d.After(other) || d.Equal(other) }

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (d Date) AddDays(n int) Date   { return Date{Time: d.normalize().AddDate(0, 0, n)} }
func (d Date) AddMonths(n int) Date { return Date{Time: d.normalize().AddDate(0, n, 0)} }

// Properties
func (d Date) Year() int             { return d.Time.Year() }
func (d Date) Month() time.Month     { return d.Time.Month() }
func (d Date) Day() int              { return d.Time.Day() }
func (d Date) Weekday() time.Weekday { return d.normalize().Weekday() }
func (d Date) IsZero() bool          { return d.Time.IsZero() }

func (d Date) String() string { return d.normalize().Format("2006-01-02") }

// Key returns the stable map key for this date (its ISO form).
func (d Date) Key() string { return d.String() }

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == `""` || s == "null" {
		*d = Date{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date literal %s", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func minDate(a, b Date) Date {
	if a.Before(b) {
		return a
	}
	return b
}

func maxDate(a, b Date) Date {
	if a.After(b) {
		return a
	}
	return b
}

// DaysBetween returns the signed number of day steps from one date to
// another (exclusive). DaysBetween(Jan 1, Jan 2) == 1.
func DaysBetween(from, to Date) int {
	return int(to.normalize().Sub(from.normalize()).Hours() / 24)
}

// =============================================================================
// DATE RANGE - Closed [Start, End] day range
// =============================================================================

type DateRange struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// IsValid reports whether the range is non-empty and correctly ordered.
func (r DateRange) IsValid() bool {
	return !r.Start.IsZero() && !r.End.IsZero() && r.Start.BeforeOrEqual(r.End)
}

// Days returns the inclusive day count. A single-day range has 1 day.
// Invalid or reversed ranges have 0.
func (r DateRange) Days() int {
	if !r.IsValid() {
		return 0
	}
	return DaysBetween(r.Start, r.End) + 1
}

func (r DateRange) Contains(d Date) bool {
	return d.AfterOrEqual(r.Start) && d.BeforeOrEqual(r.End)
}

func (r DateRange) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}

// OverlapDays returns the inclusive day count of the intersection of two
// ranges. Disjoint or invalid ranges overlap by 0; coincident single-day
// ranges overlap by 1.
func OverlapDays(a, b DateRange) int {
	if !a.IsValid() || !b.IsValid() {
		return 0
	}
	start := maxDate(a.Start, b.Start)
	end := minDate(a.End, b.End)
	if start.After(end) {
		return 0
	}
	return DaysBetween(start, end) + 1
}

// =============================================================================
// WEEK GRID - Week-start conventions and plan week enumeration
// =============================================================================

type WeekStartDay string

const (
	WeekStartMonday WeekStartDay = "monday"
	WeekStartSunday WeekStartDay = "sunday"
)

func (w WeekStartDay) Weekday() time.Weekday {
	if w == WeekStartSunday {
		return time.Sunday
	}
	return time.Monday
}

// StartOfWeek returns the first day of the week containing d, anchored to
// the given convention.
func StartOfWeek(d Date, ws WeekStartDay) Date {
	delta := (int(d.Weekday()) - int(ws.Weekday()) + 7) % 7
	return d.AddDays(-delta)
}

// WeekWindow is one week of a plan's block-plan grid. Start and End are
// the full week bounds (End = Start + 6 days); the plan range decides
// which windows exist, so the first and last window may only partially
// overlap the plan.
type WeekWindow struct {
	Key   string
	Start Date
	End   Date
}

// EnumerateWeeks produces the ordered, contiguous, non-overlapping week
// windows whose weeks intersect [start, end]. Returns nil for reversed
// or zero ranges.
func EnumerateWeeks(start, end Date, ws WeekStartDay) []WeekWindow {
	if start.IsZero() || end.IsZero() || start.After(end) {
		return nil
	}
	var weeks []WeekWindow
	cur := StartOfWeek(start, ws)
	for cur.BeforeOrEqual(end) {
		weeks = append(weeks, WeekWindow{
			Key:   cur.Key(),
			Start: cur,
			End:   cur.AddDays(6),
		})
		cur = cur.AddDays(7)
	}
	return weeks
}

// EnumeratePlanWeeks returns the week grid covering the plan's full date
// range at its current week-start convention.
func EnumeratePlanWeeks(p *Plan) []WeekWindow {
	return EnumerateWeeks(p.StartDate, p.EndDate, p.WeekStart)
}

// =============================================================================
// BLOCKS - Reporting buckets (week / fortnight / month)
// =============================================================================

type Grain string

const (
	GrainWeek      Grain = "week"
	GrainFortnight Grain = "fortnight"
	GrainMonth     Grain = "month"
)

// fortnightEpoch is the fixed anchor for fortnight buckets: a known
// Monday. All fortnight boundaries fall a multiple of 14 days from it.
var fortnightEpoch = NewDate(2024, time.January, 1)

// Block is one reporting bucket, clipped to the requested range.
type Block struct {
	Start Date
	End   Date
	Label string
}

func (b Block) Range() DateRange { return DateRange{Start: b.Start, End: b.End} }

// ComputeBlocks returns ordered, contiguous, non-overlapping buckets
// covering r at the given grain, clipped to r's bounds. Week buckets
// follow the supplied week-start convention; fortnights are anchored to
// the global epoch; months align to calendar months. Reversed ranges
// yield an empty list.
func ComputeBlocks(r DateRange, g Grain, ws WeekStartDay) []Block {
	if !r.IsValid() {
		return nil
	}

	var blocks []Block
	push := func(start, end Date) {
		start = maxDate(start, r.Start)
		end = minDate(end, r.End)
		if start.After(end) {
			return
		}
		blocks = append(blocks, Block{Start: start, End: end, Label: rangeLabel(start, end)})
	}

	switch g {
	case GrainFortnight:
		// Floor-divide the offset from the epoch so dates before the
		// epoch still bucket correctly.
		offset := DaysBetween(fortnightEpoch, r.Start)
		idx := offset / 14
		if offset < 0 && offset%14 != 0 {
			idx--
		}
		cur := fortnightEpoch.AddDays(idx * 14)
		for cur.BeforeOrEqual(r.End) {
			push(cur, cur.AddDays(13))
			cur = cur.AddDays(14)
		}

	case GrainMonth:
		cur := NewDate(r.Start.Year(), r.Start.Month(), 1)
		for cur.BeforeOrEqual(r.End) {
			next := cur.AddMonths(1)
			push(cur, next.AddDays(-1))
			cur = next
		}

	default: // GrainWeek
		cur := StartOfWeek(r.Start, ws)
		for cur.BeforeOrEqual(r.End) {
			push(cur, cur.AddDays(6))
			cur = cur.AddDays(7)
		}
	}
	return blocks
}

func rangeLabel(start, end Date) string {
	if start.Equal(end) {
		return start.normalize().Format("Jan 2, 2006")
	}
	if start.Year() == end.Year() {
		return start.normalize().Format("Jan 2") + " - " + end.normalize().Format("Jan 2, 2006")
	}
	return start.normalize().Format("Jan 2, 2006") + " - " + end.normalize().Format("Jan 2, 2006")
}
