package plan_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/plan-engine/plan"
)

func at(day int) time.Time {
	return time.Date(2025, time.May, day, 12, 0, 0, 0, time.UTC)
}

func TestWorkflow_HappyPath(t *testing.T) {
	p := plan.NewPlan("p1", "Launch", "L-1", "alice", at(1))
	require.Equal(t, plan.StatusDraft, p.Status)
	require.Len(t, p.Approvals, 1)
	assert.Equal(t, plan.ActionCreated, p.Approvals[0].Action)

	p = plan.Submit(p, "alice", at(2))
	assert.Equal(t, plan.StatusSubmitted, p.Status)

	p = plan.Approve(p, "bob", "looks good", at(3))
	assert.Equal(t, plan.StatusApproved, p.Status)

	// Trail is append-only: created, submitted, approved, in order.
	require.Len(t, p.Approvals, 3)
	assert.Equal(t, plan.ActionSubmitted, p.Approvals[1].Action)
	assert.Equal(t, plan.ActionApproved, p.Approvals[2].Action)
	assert.Equal(t, "looks good", p.Approvals[2].Comment)
	assert.Equal(t, "bob", p.Approvals[2].Actor)
}

func TestWorkflow_RejectThenRevert(t *testing.T) {
	p := plan.NewPlan("p1", "Launch", "L-1", "alice", at(1))
	p = plan.Submit(p, "alice", at(2))
	p = plan.Reject(p, "bob", "budget too high", at(3))
	require.Equal(t, plan.StatusRejected, p.Status)
	assert.False(t, p.Status.Editable())

	p = plan.Revert(p, "alice", at(4))
	assert.Equal(t, plan.StatusDraft, p.Status)
	assert.True(t, p.Status.Editable())
	assert.Len(t, p.Approvals, 4)
}

func TestWorkflow_InvalidTransitionsAreNoOps(t *testing.T) {
	draft := plan.NewPlan("p1", "Launch", "L-1", "alice", at(1))

	// Approving a draft: identity no-op, not an error, not a transition.
	out := plan.Approve(draft, "bob", "", at(2))
	assert.Same(t, draft, out)

	// Reverting a draft likewise.
	out = plan.Revert(draft, "alice", at(2))
	assert.Same(t, draft, out)

	// Submitting twice.
	submitted := plan.Submit(draft, "alice", at(2))
	out = plan.Submit(submitted, "alice", at(3))
	assert.Same(t, submitted, out)
}

func TestWorkflow_TransitionsDoNotMutateInput(t *testing.T) {
	draft := plan.NewPlan("p1", "Launch", "L-1", "alice", at(1))
	events := len(draft.Approvals)

	_ = plan.Submit(draft, "alice", at(2))

	assert.Equal(t, plan.StatusDraft, draft.Status)
	assert.Len(t, draft.Approvals, events)
}

func TestWorkflow_Archive(t *testing.T) {
	// Archivable from any state.
	p := plan.NewPlan("p1", "Launch", "L-1", "alice", at(1))
	archived := plan.Archive(p, "alice", at(2))
	assert.Equal(t, plan.StatusArchived, archived.Status)

	// Archiving again is a no-op.
	again := plan.Archive(archived, "alice", at(3))
	assert.Same(t, archived, again)

	approved := plan.Approve(plan.Submit(p, "alice", at(2)), "bob", "", at(3))
	assert.Equal(t, plan.StatusArchived, plan.Archive(approved, "alice", at(4)).Status)
}

func TestWorkflow_Duplicate(t *testing.T) {
	p := plan.NewPlan("p1", "Launch", "L-1", "alice", at(1))
	p.Tactics = []plan.Tactic{{ID: "t1", Channel: plan.ChannelTV, Budget: 1000}}
	p = plan.Submit(p, "alice", at(2))
	p = plan.Approve(p, "bob", "", at(3))

	copyPlan := plan.Duplicate(p, "p2", "carol", at(4))

	assert.Equal(t, plan.PlanID("p2"), copyPlan.ID)
	assert.Equal(t, "Launch (copy)", copyPlan.Name)
	assert.Equal(t, plan.StatusDraft, copyPlan.Status)
	assert.Equal(t, 1, copyPlan.Version)
	// Fresh trail: a single duplicated event, the source trail is not
	// carried over.
	require.Len(t, copyPlan.Approvals, 1)
	assert.Equal(t, plan.ActionDuplicated, copyPlan.Approvals[0].Action)
	// Content is carried over.
	require.Len(t, copyPlan.Tactics, 1)
	assert.Equal(t, 1000.0, copyPlan.Tactics[0].Budget)

	// Deep copy: editing the duplicate leaves the source alone.
	copyPlan.Tactics[0].Budget = 2000
	assert.Equal(t, 1000.0, p.Tactics[0].Budget)
}

func TestWorkflow_RecordEdit(t *testing.T) {
	p := plan.NewPlan("p1", "Launch", "L-1", "alice", at(1))

	edited := plan.RecordEdit(p, "alice", "set budgets", at(2))
	require.Len(t, edited.Approvals, 2)
	assert.Equal(t, plan.ActionEdited, edited.Approvals[1].Action)

	// Non-drafts are not editable.
	submitted := plan.Submit(edited, "alice", at(3))
	out := plan.RecordEdit(submitted, "alice", "sneaky", at(4))
	assert.Same(t, submitted, out)
}

func TestWorkflow_EventIDsAreUnique(t *testing.T) {
	p := plan.NewPlan("p1", "Launch", "L-1", "alice", at(1))
	p = plan.Submit(p, "alice", at(2))
	p = plan.Reject(p, "bob", "", at(3))
	p = plan.Revert(p, "alice", at(4))

	seen := map[string]bool{}
	for _, ev := range p.Approvals {
		if seen[ev.ID] {
			t.Fatalf("duplicate event id %s", ev.ID)
		}
		seen[ev.ID] = true
	}
}
