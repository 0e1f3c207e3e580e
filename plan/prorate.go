/*
prorate.go - Day-overlap proration of totals across buckets

PURPOSE:
  Distributes a numeric total over a date range proportionally to day
  overlap with a set of calendar buckets. This is the arithmetic core of
  the block-plan matrix: a tactic's $14,000 over Jan 1-14 contributes
  $7,000 to each of two fully-overlapping weeks.

CONSERVATION:
  When the buckets form a full, non-overlapping cover of the owner range,
  the prorated values sum back to the total exactly (up to float
  rounding). When buckets only partially cover the range - an export
  window narrower than the flight - the sum is smaller by the excluded
  proportion. That is intended: the excluded days' share simply is not
  in view.

DEGENERACY:
  Non-positive or non-finite totals, and owner ranges with zero
  inclusive days, prorate to all zeros. The engine prefers silently-safe
  zeros over NaN propagation; plan data is edited incrementally and
  transient invalid states are expected.
*/
package plan

import "math"

// Prorate distributes total across buckets by day overlap with the owner
// range. The result has one value per bucket, in bucket order.
func Prorate(total float64, owner DateRange, buckets []Block) []float64 {
	out := make([]float64, len(buckets))

	days := owner.Days()
	if days == 0 || total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return out
	}

	perDay := total / float64(days)
	for i, b := range buckets {
		out[i] = perDay * float64(OverlapDays(owner, b.Range()))
	}
	return out
}

// sanitize coerces NaN and infinities to 0 so malformed numeric plan
// data never propagates into aggregates.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
