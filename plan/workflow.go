/*
workflow.go - Plan lifecycle and the approval audit trail

PURPOSE:
  Moves plans through draft -> submitted -> approved/rejected, with
  revert back to draft and archive at the end. Every successful
  transition appends an immutable ApprovalEvent; the trail is
  append-only and never edited.

TRANSITION RULES:
  Submit:  draft -> submitted
  Approve: submitted -> approved
  Reject:  submitted -> rejected
  Revert:  approved/rejected -> draft
  Archive: any state -> archived

  A transition that does not apply to the current state is an
  invariant-protection rejection: the input plan is returned unchanged.
  Callers identity-compare to detect the no-op.
*/
package plan

import (
	"time"

	"github.com/google/uuid"
)

// NewPlan creates an empty draft plan with the `created` audit event.
func NewPlan(id PlanID, name, code, actor string, now time.Time) *Plan {
	return &Plan{
		ID:        id,
		Name:      name,
		Code:      code,
		Version:   1,
		Status:    StatusDraft,
		WeekStart: WeekStartMonday,
		CreatedAt: now,
		UpdatedAt: now,
		Approvals: []ApprovalEvent{newEvent(actor, ActionCreated, "", now)},
	}
}

func newEvent(actor string, action ApprovalAction, comment string, now time.Time) ApprovalEvent {
	return ApprovalEvent{
		ID:      uuid.NewString(),
		Actor:   actor,
		Action:  action,
		Comment: comment,
		At:      now,
	}
}

// Submit moves a draft into review.
func Submit(p *Plan, actor string, now time.Time) *Plan {
	return transition(p, StatusDraft, StatusSubmitted, actor, ActionSubmitted, "", now)
}

// Approve accepts a submitted plan.
func Approve(p *Plan, actor, comment string, now time.Time) *Plan {
	return transition(p, StatusSubmitted, StatusApproved, actor, ActionApproved, comment, now)
}

// Reject declines a submitted plan.
func Reject(p *Plan, actor, comment string, now time.Time) *Plan {
	return transition(p, StatusSubmitted, StatusRejected, actor, ActionRejected, comment, now)
}

// Revert returns an approved or rejected plan to draft for rework.
func Revert(p *Plan, actor string, now time.Time) *Plan {
	if p.Status != StatusApproved && p.Status != StatusRejected {
		return p
	}
	out := p.Clone()
	out.Status = StatusDraft
	out.UpdatedAt = now
	out.Approvals = append(out.Approvals, newEvent(actor, ActionReverted, "", now))
	return out
}

// Archive retires a plan from any state. Archiving an archived plan is
// a no-op.
func Archive(p *Plan, actor string, now time.Time) *Plan {
	if p.Status == StatusArchived {
		return p
	}
	out := p.Clone()
	out.Status = StatusArchived
	out.UpdatedAt = now
	out.Approvals = append(out.Approvals, newEvent(actor, ActionEdited, "archived", now))
	return out
}

// Duplicate copies a plan into a fresh draft with a new identity and a
// clean audit trail (one `duplicated` event referencing nothing from the
// source trail).
func Duplicate(p *Plan, newID PlanID, actor string, now time.Time) *Plan {
	out := p.Clone()
	out.ID = newID
	out.Name = p.Name + " (copy)"
	out.Version = 1
	out.Status = StatusDraft
	out.CreatedAt = now
	out.UpdatedAt = now
	out.Approvals = []ApprovalEvent{newEvent(actor, ActionDuplicated, "from "+string(p.ID), now)}
	return out
}

// RecordEdit appends an `edited` audit event. Only drafts are editable;
// anything else returns the input unchanged.
func RecordEdit(p *Plan, actor, comment string, now time.Time) *Plan {
	if !p.Status.Editable() {
		return p
	}
	out := p.Clone()
	out.UpdatedAt = now
	out.Approvals = append(out.Approvals, newEvent(actor, ActionEdited, comment, now))
	return out
}

func transition(p *Plan, from, to Status, actor string, action ApprovalAction, comment string, now time.Time) *Plan {
	if p.Status != from {
		return p
	}
	out := p.Clone()
	out.Status = to
	out.UpdatedAt = now
	out.Approvals = append(out.Approvals, newEvent(actor, action, comment, now))
	return out
}
