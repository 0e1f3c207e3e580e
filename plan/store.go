/*
store.go - Persistence interface for plans

PURPOSE:
  Defines the interface between the engine and the database. The engine
  itself performs no I/O; it consumes validated Plan values from a store
  and hands updated values back.

OPTIMISTIC CONCURRENCY:
  SavePlan checks the plan's Version against the stored one and bumps it
  on success. A stale save returns ErrVersionConflict; the caller
  reloads and retries.

APPROVAL TRAIL:
  Approval events are append-only. Implementations must never rewrite or
  delete events already persisted; SavePlan only adds the ones the plan
  gained since the last load.

IMPLEMENTATIONS:
  - store/sqlite:    Production SQLite
  - plan/store:      In-memory for testing
*/
package plan

import (
	"context"
	"time"
)

// PlanSummary is the list-view projection of a plan.
type PlanSummary struct {
	ID        PlanID    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Status    Status    `json:"status"`
	Version   int       `json:"version"`
	StartDate Date      `json:"start_date"`
	EndDate   Date      `json:"end_date"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PlanStore handles plan persistence.
type PlanStore interface {
	// SavePlan persists the plan, bumping its version. Returns
	// ErrVersionConflict when the stored version has moved on.
	SavePlan(ctx context.Context, p *Plan) (*Plan, error)

	// GetPlan loads a plan by id, or ErrPlanNotFound.
	GetPlan(ctx context.Context, id PlanID) (*Plan, error)

	// ListPlans returns summaries for all plans, most recently updated
	// first.
	ListPlans(ctx context.Context) ([]PlanSummary, error)

	// DeletePlan removes a plan, or ErrPlanNotFound.
	DeletePlan(ctx context.Context, id PlanID) error
}

// Summary builds the list-view projection of a plan.
func (p *Plan) Summary() PlanSummary {
	return PlanSummary{
		ID:        p.ID,
		Name:      p.Name,
		Code:      p.Code,
		Status:    p.Status,
		Version:   p.Version,
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		UpdatedAt: p.UpdatedAt,
	}
}
