/*
matrix.go - Block-plan matrix builder (the reporting view)

PURPOSE:
  Builds the time-bucketed matrix consumed by the PDF/XLSX exporters and
  the on-screen block-plan grid: one column per calendar bucket at the
  requested grain, one row per tactic (or per channel when grouping),
  each cell holding the prorated share of the row's metric.

ALGORITHM:
  1. Clamp the requested range to the plan's full range.
  2. Compute buckets for the clamped range (week/fortnight/month).
  3. For each tactic overlapping the clamped range at all:
     - derive its metric totals from budget + efficiency estimates
     - prorate the chosen metric across the buckets using the tactic's
       OWN window as the owner range (so a tactic partially outside the
       export window still prorates over its true duration)
     - accumulate into its row and the grand totals
  4. Tactics with no overlap are skipped entirely - no zero rows.

RECONCILIATION RULES:
  When grouping by channel, tactics that disagree on vendor collapse the
  row's vendor to "Multiple", and on bid type to "Mixed". Never pick one
  arbitrarily.

The builder never mutates the input plan; rows are value objects built
fresh on every call.
*/
package plan

// =============================================================================
// OPTIONS AND RESULT TYPES
// =============================================================================

type GroupBy string

const (
	GroupByChannel GroupBy = "channel"
	GroupByTactic  GroupBy = "tactic"
)

type Metric string

const (
	MetricBudget      Metric = "budget"
	MetricImpressions Metric = "impressions"
	MetricClicks      Metric = "clicks"
	MetricConversions Metric = "conversions"
)

// MatrixOptions control one matrix build.
type MatrixOptions struct {
	Grain   Grain
	GroupBy GroupBy
	Metric  Metric

	// Optional export window; clamped to the plan's range. Zero dates
	// mean "use the plan's own bound".
	RangeStart Date
	RangeEnd   Date
}

// Column is one calendar bucket of the matrix.
type Column struct {
	Start Date   `json:"start"`
	End   Date   `json:"end"`
	Label string `json:"label"`
}

// MetricTotals are a row's derived totals across all metrics.
type MetricTotals struct {
	Budget      float64 `json:"budget"`
	Impressions float64 `json:"impressions"`
	Clicks      float64 `json:"clicks"`
	Conversions float64 `json:"conversions"`
}

func (m *MetricTotals) add(o MetricTotals) {
	m.Budget += o.Budget
	m.Impressions += o.Impressions
	m.Clicks += o.Clicks
	m.Conversions += o.Conversions
}

// Value returns the total for one metric.
func (m MetricTotals) Value(metric Metric) float64 {
	switch metric {
	case MetricImpressions:
		return m.Impressions
	case MetricClicks:
		return m.Clicks
	case MetricConversions:
		return m.Conversions
	default:
		return m.Budget
	}
}

// Row is one matrix row: a tactic, or a channel rollup.
type Row struct {
	Key     string       `json:"key"`
	Label   string       `json:"label"`
	Channel Channel      `json:"channel"`
	Vendor  string       `json:"vendor"`
	BidType string       `json:"bid_type"`
	Totals  MetricTotals `json:"totals"`
	Cells   []float64    `json:"cells"`
}

// Matrix is the derived reporting view. Built on demand, never cached
// across plan mutations.
type Matrix struct {
	Grain   Grain     `json:"grain"`
	GroupBy GroupBy   `json:"group_by"`
	Metric  Metric    `json:"metric"`
	Range   DateRange `json:"range"`
	Columns []Column  `json:"columns"`
	Rows    []Row     `json:"rows"`

	// ColumnTotals[i] is the sum of Cells[i] over all rows.
	ColumnTotals []float64    `json:"column_totals"`
	GrandTotals  MetricTotals `json:"grand_totals"`
	GrandTotal   float64      `json:"grand_total"`
}

// =============================================================================
// METRIC DERIVATION
// =============================================================================

// TacticTotals derives a tactic's metric totals from its budget and
// bid-type efficiency estimates. A metric whose estimate is unset (or
// non-positive) contributes 0 rather than a guess.
func TacticTotals(t Tactic) MetricTotals {
	budget := sanitize(t.Budget)
	totals := MetricTotals{Budget: budget}
	if budget <= 0 {
		return totals
	}
	if cpm := sanitize(t.EstCPM); cpm > 0 {
		totals.Impressions = budget / cpm * 1000
	}
	if cpc := sanitize(t.EstCPC); cpc > 0 {
		totals.Clicks = budget / cpc
	}
	if cpa := sanitize(t.EstCPA); cpa > 0 {
		totals.Conversions = budget / cpa
	}
	return totals
}

// =============================================================================
// BUILDER
// =============================================================================

// BuildMatrix constructs the block-plan matrix for a plan. The input
// plan is read-only to the builder.
func BuildMatrix(p *Plan, opts MatrixOptions) *Matrix {
	if opts.Grain == "" {
		opts.Grain = GrainWeek
	}
	if opts.GroupBy == "" {
		opts.GroupBy = GroupByChannel
	}
	if opts.Metric == "" {
		opts.Metric = MetricBudget
	}

	full := planContentRange(p)
	clamped := clampRange(full, opts.RangeStart, opts.RangeEnd)

	m := &Matrix{
		Grain:   opts.Grain,
		GroupBy: opts.GroupBy,
		Metric:  opts.Metric,
		Range:   clamped,
	}
	if !clamped.IsValid() {
		return m
	}

	buckets := ComputeBlocks(clamped, opts.Grain, p.WeekStart)
	m.Columns = make([]Column, len(buckets))
	for i, b := range buckets {
		m.Columns[i] = Column{Start: b.Start, End: b.End, Label: b.Label}
	}
	m.ColumnTotals = make([]float64, len(buckets))

	rowIndex := map[string]int{}

	for _, t := range p.Tactics {
		window := t.Window()
		if OverlapDays(window, clamped) == 0 {
			continue
		}

		totals := TacticTotals(t)
		shares := Prorate(totals.Value(opts.Metric), window, buckets)

		key, label := rowIdentity(t, opts.GroupBy)
		idx, ok := rowIndex[key]
		if !ok {
			idx = len(m.Rows)
			rowIndex[key] = idx
			m.Rows = append(m.Rows, Row{
				Key:     key,
				Label:   label,
				Channel: t.Channel,
				Vendor:  t.Vendor,
				BidType: string(t.BidType),
				Cells:   make([]float64, len(buckets)),
			})
		}

		row := &m.Rows[idx]
		if ok {
			// Channel rollup with disagreeing tactics: collapse rather
			// than pick one arbitrarily.
			if row.Vendor != t.Vendor {
				row.Vendor = "Multiple"
			}
			if row.BidType != string(t.BidType) {
				row.BidType = "Mixed"
			}
		}
		row.Totals.add(totals)
		for i, v := range shares {
			row.Cells[i] += v
			m.ColumnTotals[i] += v
			m.GrandTotal += v
		}
		m.GrandTotals.add(totals)
	}

	return m
}

func rowIdentity(t Tactic, g GroupBy) (key, label string) {
	if g == GroupByChannel {
		return string(t.Channel), string(t.Channel)
	}
	label = t.Vendor
	if label == "" {
		label = string(t.Channel)
	}
	return string(t.ID), label
}

// planContentRange returns the plan's full date range, falling back to
// the min/max across tactic and flight windows when the plan's own
// bounds are unset.
func planContentRange(p *Plan) DateRange {
	r := p.DateRange()
	if r.IsValid() {
		return r
	}
	var out DateRange
	extend := func(w DateRange) {
		if !w.IsValid() {
			return
		}
		if !out.IsValid() {
			out = w
			return
		}
		out.Start = minDate(out.Start, w.Start)
		out.End = maxDate(out.End, w.End)
	}
	for _, t := range p.Tactics {
		extend(t.Window())
	}
	for _, f := range p.Flights {
		extend(f.Window())
	}
	return out
}

func clampRange(full DateRange, start, end Date) DateRange {
	out := full
	if !start.IsZero() && start.After(out.Start) {
		out.Start = start
	}
	if !end.IsZero() && end.Before(out.End) {
		out.End = end
	}
	return out
}
