/*
Package allocate redistributes budget across a plan's tactics.

PURPOSE:
  The allocator operations behind the editor's "apply" buttons: split a
  plan's total evenly, weight it by efficiency estimates, enforce a
  per-channel share cap with overflow redistribution, and snap budgets
  to round numbers.

DESIGN PRINCIPLES:
  1. Pure functions: every operation takes the current tactic list and
     returns a new one; inputs are never mutated. A rejected or
     inapplicable operation returns the input list unchanged.
  2. Conservation: operations preserve total budget up to the documented
     cent-rounding correction (0.01 per tactic at worst).
  3. Decimal money: all arithmetic is decimal.Decimal; floats only cross
     the boundary at the Tactic struct. Values round to 2 places
     (half-up) after each step.
  4. NaN and infinite budgets count as 0 for aggregation and never
     propagate downstream.

SEE ALSO:
  - history.go: The bounded undo/redo snapshot stack for these edits
*/
package allocate

import (
	"math"

	"github.com/shopspring/decimal"
	"github.com/warp/plan-engine/plan"
)

var hundred = decimal.NewFromInt(100)

// round2 rounds to 2 decimal places, half up. decimal.Round is half away
// from zero, which coincides with half-up for the non-negative budgets
// the allocator produces.
func round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

func budgetOf(t plan.Tactic) decimal.Decimal {
	v := t.Budget
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

func totalBudget(ts []plan.Tactic) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range ts {
		sum = sum.Add(budgetOf(t))
	}
	return sum
}

func setBudget(t *plan.Tactic, d decimal.Decimal) {
	v, _ := round2(d).Float64()
	t.Budget = v
}

// =============================================================================
// SPLIT EVENLY
// =============================================================================

// SplitEvenly assigns total budget / tactic count to every tactic. With
// an empty list it is a no-op. When the current total is zero there is
// nothing to divide; every tactic gets the constraint floor instead
// (MinTacticBudget, or 0).
func SplitEvenly(ts []plan.Tactic, c plan.Constraints) []plan.Tactic {
	if len(ts) == 0 {
		return ts
	}
	out := plan.CloneTactics(ts)

	total := totalBudget(ts)
	if total.IsZero() {
		floor := decimal.Zero
		if c.MinTacticBudget != nil {
			floor = decimal.NewFromFloat(*c.MinTacticBudget)
		}
		for i := range out {
			setBudget(&out[i], floor)
		}
		return out
	}

	per := total.Div(decimal.NewFromInt(int64(len(ts))))
	for i := range out {
		setBudget(&out[i], per)
	}
	return out
}

// =============================================================================
// WEIGHT BY EFFICIENCY
// =============================================================================

// WeightByEfficiency splits total budget proportionally to 1/cost
// efficiency: 1/CPM when estimated, else 1/CPC, else 1/CPA, else a
// neutral weight of 1. Returns the input unchanged if the total weight
// is somehow 0.
func WeightByEfficiency(ts []plan.Tactic) []plan.Tactic {
	if len(ts) == 0 {
		return ts
	}
	total := totalBudget(ts)

	weights := make([]decimal.Decimal, len(ts))
	weightSum := decimal.Zero
	for i, t := range ts {
		weights[i] = efficiencyWeight(t)
		weightSum = weightSum.Add(weights[i])
	}
	if weightSum.IsZero() {
		return ts
	}

	out := plan.CloneTactics(ts)
	for i := range out {
		setBudget(&out[i], total.Mul(weights[i]).Div(weightSum))
	}
	return out
}

func efficiencyWeight(t plan.Tactic) decimal.Decimal {
	one := decimal.NewFromInt(1)
	for _, est := range []float64{t.EstCPM, t.EstCPC, t.EstCPA} {
		if est > 0 && !math.IsInf(est, 0) && !math.IsNaN(est) {
			return one.Div(decimal.NewFromFloat(est))
		}
	}
	return one
}

// =============================================================================
// CHANNEL CAP
// =============================================================================

// EnforceChannelCap scales every channel whose aggregate spend exceeds
// capShare of the total down to exactly the cap, then redistributes the
// shortfall to channels that still have headroom, proportional to their
// remaining capacity (and within a channel proportional to each tactic's
// current share, or evenly when the channel currently totals 0).
//
// When no channel has headroom - every channel already at its cap - the
// shortfall is spread evenly across all tactics instead, so money is
// never silently lost.
//
// capShare outside (0, 1) is a no-op.
func EnforceChannelCap(ts []plan.Tactic, capShare float64) []plan.Tactic {
	if len(ts) == 0 || capShare <= 0 || capShare >= 1 {
		return ts
	}

	total := totalBudget(ts)
	if total.IsZero() {
		return ts
	}
	capValue := total.Mul(decimal.NewFromFloat(capShare))

	out := plan.CloneTactics(ts)

	// Pass 1: scale over-cap channels down to the cap.
	groupTotals := channelTotals(out)
	for i := range out {
		g := groupTotals[out[i].Channel]
		if g.GreaterThan(capValue) {
			setBudget(&out[i], budgetOf(out[i]).Mul(capValue).Div(g))
		}
	}

	shortfall := total.Sub(totalBudget(out))
	if !shortfall.IsPositive() {
		return out
	}

	// Pass 2: hand the shortfall to channels with headroom, by capacity.
	groupTotals = channelTotals(out)
	headroom := map[plan.Channel]decimal.Decimal{}
	headroomSum := decimal.Zero
	for ch, g := range groupTotals {
		h := capValue.Sub(g)
		if h.IsPositive() {
			headroom[ch] = h
			headroomSum = headroomSum.Add(h)
		}
	}

	if headroomSum.IsZero() {
		// Every channel is at its cap. Deliberate fallback: spread the
		// remainder evenly regardless of channel.
		per := shortfall.Div(decimal.NewFromInt(int64(len(out))))
		for i := range out {
			setBudget(&out[i], budgetOf(out[i]).Add(per))
		}
		return out
	}

	for i := range out {
		ch := out[i].Channel
		h, ok := headroom[ch]
		if !ok {
			continue
		}
		channelGrant := shortfall.Mul(h).Div(headroomSum)

		g := groupTotals[ch]
		var share decimal.Decimal
		if g.IsZero() {
			share = decimal.NewFromInt(1).Div(decimal.NewFromInt(int64(channelCount(out, ch))))
		} else {
			share = budgetOf(out[i]).Div(g)
		}
		setBudget(&out[i], budgetOf(out[i]).Add(channelGrant.Mul(share)))
	}
	return out
}

func channelTotals(ts []plan.Tactic) map[plan.Channel]decimal.Decimal {
	totals := map[plan.Channel]decimal.Decimal{}
	for _, t := range ts {
		totals[t.Channel] = totals[t.Channel].Add(budgetOf(t))
	}
	return totals
}

func channelCount(ts []plan.Tactic, ch plan.Channel) int {
	n := 0
	for _, t := range ts {
		if t.Channel == ch {
			n++
		}
	}
	return n
}

// =============================================================================
// ROUND TO NEAREST
// =============================================================================

// RoundToNearest snaps every tactic's budget independently to the
// nearest multiple of n (e.g. 100). Non-positive n is a no-op.
func RoundToNearest(ts []plan.Tactic, n float64) []plan.Tactic {
	if len(ts) == 0 || n <= 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return ts
	}
	step := decimal.NewFromFloat(n)
	out := plan.CloneTactics(ts)
	for i := range out {
		multiples := budgetOf(out[i]).Div(step).Round(0)
		setBudget(&out[i], multiples.Mul(step))
	}
	return out
}
