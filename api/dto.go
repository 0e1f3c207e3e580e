/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupling the engine's types
  from the external contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request structs carry validator/v10 tags; handlers run them through a
  shared validator before touching the engine. Field-level domain
  validation (rates, dates) stays in the fields package.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/warp/plan-engine/plan"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CreatePlanRequest creates an empty draft plan.
type CreatePlanRequest struct {
	Name      string `json:"name" validate:"required"`
	Code      string `json:"code"`
	Actor     string `json:"actor" validate:"required"`
	WeekStart string `json:"week_start" validate:"omitempty,oneof=monday sunday"`
}

// ToggleWeekRequest flips one block-plan week.
type ToggleWeekRequest struct {
	LineItemID string `json:"line_item_id" validate:"required"`
	WeekKey    string `json:"week_key" validate:"required"`
}

// WeekStartRequest changes the plan's week-start convention.
type WeekStartRequest struct {
	WeekStart string `json:"week_start" validate:"required,oneof=monday sunday"`
}

// AllocateRequest applies one budget-allocator operation to the plan's
// tactics.
type AllocateRequest struct {
	Operation string  `json:"operation" validate:"required,oneof=even efficiency cap round"`
	CapShare  float64 `json:"cap_share" validate:"omitempty,gt=0,lt=1"`
	Nearest   float64 `json:"nearest" validate:"omitempty,gt=0"`
}

// WorkflowRequest drives a lifecycle transition.
type WorkflowRequest struct {
	Actor   string `json:"actor" validate:"required"`
	Comment string `json:"comment"`
}

// FieldWriteRequest writes one flighting-grid cell.
type FieldWriteRequest struct {
	Value any `json:"value"`
}

// LoadScenarioRequest loads a demo scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// PlanResponse wraps a plan plus whether the last operation changed it.
// Invariant-protection rejections return the plan unchanged with
// Changed=false instead of an error.
type PlanResponse struct {
	Plan    *plan.Plan `json:"plan"`
	Changed bool       `json:"changed"`
}

// TotalsDTO is the dashboard summary.
type TotalsDTO struct {
	TotalBudget      string            `json:"total_budget"`
	TotalImpressions float64           `json:"total_impressions"`
	CPM              string            `json:"cpm"`
	Channels         []ChannelTotalDTO `json:"channels"`
}

type ChannelTotalDTO struct {
	Channel     string  `json:"channel"`
	Budget      string  `json:"budget"`
	Impressions float64 `json:"impressions"`
	Share       float64 `json:"share"`
	TacticCount int     `json:"tactic_count"`
}

// FieldReadDTO is the read side of one grid cell.
type FieldReadDTO struct {
	Field    string `json:"field"`
	Value    any    `json:"value"`
	Writable bool   `json:"writable"`
}

// FieldWriteResponse reports a write plus its validation outcome.
type FieldWriteResponse struct {
	Plan       *plan.Plan `json:"plan,omitempty"`
	Changed    bool       `json:"changed"`
	Validation *string    `json:"validation,omitempty"`
}

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toTotalsDTO(t plan.PlanTotals) TotalsDTO {
	out := TotalsDTO{
		TotalBudget:      t.TotalBudget.StringFixed(2),
		TotalImpressions: t.TotalImpressions,
		CPM:              t.CPM.StringFixed(2),
	}
	for _, ch := range t.Channels {
		out.Channels = append(out.Channels, ChannelTotalDTO{
			Channel:     string(ch.Channel),
			Budget:      ch.Budget.StringFixed(2),
			Impressions: ch.Impressions,
			Share:       ch.Share,
			TacticCount: ch.TacticCount,
		})
	}
	return out
}
