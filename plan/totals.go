/*
totals.go - Plan rollups and pacing warnings

PURPOSE:
  Dashboard-facing aggregates: total budget, estimated impressions,
  effective CPM, and per-channel rollups, plus the warning strings shown
  in banner form above a plan.

  Money sums use decimal arithmetic so dashboard figures match the
  allocator's cent-rounded budgets exactly; impression estimates stay
  float (they are estimates).
*/
package plan

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ChannelTotal is one channel's rollup inside PlanTotals.
type ChannelTotal struct {
	Channel     Channel         `json:"channel"`
	Budget      decimal.Decimal `json:"budget"`
	Impressions float64         `json:"impressions"`
	Share       float64         `json:"share"`
	TacticCount int             `json:"tactic_count"`
}

// PlanTotals is the dashboard summary for a plan.
type PlanTotals struct {
	TotalBudget      decimal.Decimal `json:"total_budget"`
	TotalImpressions float64         `json:"total_impressions"`

	// CPM is the effective cost per mille across the whole plan; zero
	// when no impressions are estimated.
	CPM decimal.Decimal `json:"cpm"`

	Channels []ChannelTotal `json:"channels"`
}

// CalculateTotals computes the plan-level rollups from its tactics.
// NaN and infinite budgets count as 0.
func CalculateTotals(p *Plan) PlanTotals {
	totals := PlanTotals{TotalBudget: decimal.Zero, CPM: decimal.Zero}

	index := map[Channel]int{}
	for _, t := range p.Tactics {
		budget := decimal.NewFromFloat(sanitize(t.Budget))
		derived := TacticTotals(t)

		totals.TotalBudget = totals.TotalBudget.Add(budget)
		totals.TotalImpressions += derived.Impressions

		i, ok := index[t.Channel]
		if !ok {
			i = len(totals.Channels)
			index[t.Channel] = i
			totals.Channels = append(totals.Channels, ChannelTotal{Channel: t.Channel, Budget: decimal.Zero})
		}
		ch := &totals.Channels[i]
		ch.Budget = ch.Budget.Add(budget)
		ch.Impressions += derived.Impressions
		ch.TacticCount++
	}

	if totals.TotalBudget.IsPositive() {
		for i := range totals.Channels {
			share, _ := totals.Channels[i].Budget.Div(totals.TotalBudget).Float64()
			totals.Channels[i].Share = share
		}
	}
	if totals.TotalImpressions > 0 {
		imps := decimal.NewFromFloat(totals.TotalImpressions)
		totals.CPM = totals.TotalBudget.Div(imps).Mul(decimal.NewFromInt(1000)).Round(2)
	}
	return totals
}

// BuildPacingWarnings returns the human-readable warnings surfaced above
// a plan: tactics outside their campaign window, zero-budget tactics,
// flights with no line items, channels over the configured cap, and
// stale drafts. Order is stable (tactic order, then flight order, then
// channel order).
func BuildPacingWarnings(p *Plan, today Date) []string {
	var warnings []string

	for _, t := range p.Tactics {
		if t.CampaignID == "" {
			continue
		}
		c, err := p.FindCampaign(t.CampaignID)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("tactic %s references unknown campaign %s", t.ID, t.CampaignID))
			continue
		}
		w := t.Window()
		cw := c.Window()
		if w.IsValid() && cw.IsValid() && (w.Start.Before(cw.Start) || w.End.After(cw.End)) {
			warnings = append(warnings, fmt.Sprintf("tactic %s flight %s falls outside campaign %q window %s", t.ID, w, c.Name, cw))
		}
		if sanitize(t.Budget) == 0 && w.IsValid() {
			warnings = append(warnings, fmt.Sprintf("tactic %s is scheduled but has no budget", t.ID))
		}
	}

	for _, f := range p.Flights {
		used := false
		for _, li := range p.LineItems {
			if li.FlightID == f.ID {
				used = true
				break
			}
		}
		if !used {
			warnings = append(warnings, fmt.Sprintf("flight %s has no line items", f.ID))
		}
	}

	if cap := p.Constraints.MaxSharePerChannel; cap != nil && *cap > 0 && *cap < 1 {
		totals := CalculateTotals(p)
		for _, ch := range totals.Channels {
			if ch.Share > *cap+1e-9 {
				warnings = append(warnings, fmt.Sprintf("channel %s holds %.0f%% of budget, over the %.0f%% cap", ch.Channel, ch.Share*100, *cap*100))
			}
		}
	}

	if p.Status == StatusDraft && !p.EndDate.IsZero() && p.EndDate.Before(today) {
		warnings = append(warnings, fmt.Sprintf("plan ended %s but is still a draft", p.EndDate))
	}

	return warnings
}
