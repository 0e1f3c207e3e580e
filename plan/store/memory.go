// Package store provides PlanStore implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/plan-engine/plan"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu    sync.RWMutex
	plans map[plan.PlanID]*plan.Plan
}

func NewMemory() *Memory {
	return &Memory{plans: make(map[plan.PlanID]*plan.Plan)}
}

// SavePlan stores a deep copy with a bumped version. Stale versions are
// rejected with ErrVersionConflict.
func (m *Memory) SavePlan(_ context.Context, p *plan.Plan) (*plan.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.plans[p.ID]; ok && existing.Version != p.Version {
		return nil, plan.ErrVersionConflict
	}
	stored := p.Clone()
	stored.Version++
	m.plans[p.ID] = stored
	return stored.Clone(), nil
}

func (m *Memory) GetPlan(_ context.Context, id plan.PlanID) (*plan.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.plans[id]
	if !ok {
		return nil, plan.ErrPlanNotFound
	}
	return p.Clone(), nil
}

func (m *Memory) ListPlans(_ context.Context) ([]plan.PlanSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]plan.PlanSummary, 0, len(m.plans))
	for _, p := range m.plans {
		out = append(out, p.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (m *Memory) DeletePlan(_ context.Context, id plan.PlanID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.plans[id]; !ok {
		return plan.ErrPlanNotFound
	}
	delete(m.plans, id)
	return nil
}
