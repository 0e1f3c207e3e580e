/*
errors.go - Centralized error types for the plan engine

PURPOSE:
  All sentinel errors in one place. The engine distinguishes two failure
  shapes:

  1. Structural errors (below) - a caller referenced something that does
     not exist in the plan, or called an operation whose preconditions
     the plan cannot meet. These indicate caller bugs and fail loudly.

  2. Invariant-protection rejections - the operation is disallowed right
     now (toggling the last active week, editing a non-draft plan).
     These are NOT errors: the operation returns the input plan
     unchanged and callers detect the no-op by identity comparison.

USAGE:
  Domain packages and the API wrap these with context:

    if errors.Is(err, plan.ErrLineItemNotFound) { ... 404 ... }
*/
package plan

import "errors"

var (
	// ErrPlanNotFound is returned by stores when a plan id is unknown.
	ErrPlanNotFound = errors.New("plan not found")

	// ErrLineItemNotFound is returned when a referenced line item does
	// not exist in the plan.
	ErrLineItemNotFound = errors.New("line item not found")

	// ErrFlightNotFound is returned when a referenced flight does not
	// exist in the plan.
	ErrFlightNotFound = errors.New("flight not found")

	// ErrCampaignNotFound is returned when a referenced campaign does
	// not exist in the plan.
	ErrCampaignNotFound = errors.New("campaign not found")

	// ErrTacticNotFound is returned when a referenced tactic does not
	// exist in the plan.
	ErrTacticNotFound = errors.New("tactic not found")

	// ErrNoFlightAssigned is returned when an operation requires a line
	// item's flight and none is assigned.
	ErrNoFlightAssigned = errors.New("line item has no flight assigned")

	// ErrNoBlockPlan is returned when a week operation targets a line
	// item that has no block plan yet (EnsureBlockPlans was not run).
	ErrNoBlockPlan = errors.New("line item has no block plan")

	// ErrWeekNotFound is returned when a week key does not exist in the
	// line item's block-plan grid.
	ErrWeekNotFound = errors.New("week not found in block plan")

	// ErrVersionConflict is returned by stores when an optimistic save
	// loses a concurrent update.
	ErrVersionConflict = errors.New("plan version conflict")
)

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPlanNotFound) ||
		errors.Is(err, ErrLineItemNotFound) ||
		errors.Is(err, ErrFlightNotFound) ||
		errors.Is(err, ErrCampaignNotFound) ||
		errors.Is(err, ErrTacticNotFound)
}
