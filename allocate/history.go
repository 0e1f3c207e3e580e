/*
history.go - Bounded undo/redo history for editing sessions

PURPOSE:
  Session-lived snapshot stack for plan edits. Every successful mutation
  records a deep-cloned snapshot; undo/redo move a cursor through the
  stack and hand back fresh deep copies, never shared references, so
  edits after an undo correctly truncate the redo future.

STATE MACHINE:
  The editor records a snapshot whenever the plan it holds changes -
  including the change caused by undo/redo itself. To keep that echo out
  of the stack the history runs a two-state machine:

    Idle              normal recording
    ApplyingSnapshot  entered by Undo/Redo; the next Record call is
                      swallowed (exactly one) and the state returns to
                      Idle

  This replaces the usual ref-guarded effect with an explicit
  transition.

BOUNDS:
  Capacity is 20 snapshots. When full, the oldest snapshot is evicted;
  undo depth shortens, nothing else changes. The history belongs to the
  editing session and is reset whenever a new plan is loaded.
*/
package allocate

import "github.com/warp/plan-engine/plan"

// Capacity is the maximum number of snapshots retained.
const Capacity = 20

type historyState int

const (
	stateIdle historyState = iota
	stateApplyingSnapshot
)

// History is a bounded undo/redo stack of plan snapshots. Not safe for
// concurrent use; the editing session owns it.
type History struct {
	snapshots []*plan.Plan
	cursor    int
	state     historyState
	lastMove  int // cursor delta of the pending Undo/Redo, for CancelApply
}

// NewHistory starts a history at the given plan state.
func NewHistory(initial *plan.Plan) *History {
	return &History{snapshots: []*plan.Plan{initial.Clone()}}
}

// Record pushes a deep-cloned snapshot, truncating any redo future.
// The single Record following an Undo/Redo is the echo of applying the
// snapshot and is suppressed.
func (h *History) Record(p *plan.Plan) {
	if h.state == stateApplyingSnapshot {
		h.state = stateIdle
		return
	}

	h.snapshots = append(h.snapshots[:h.cursor+1], p.Clone())
	if len(h.snapshots) > Capacity {
		h.snapshots = h.snapshots[1:]
	}
	h.cursor = len(h.snapshots) - 1
}

// Undo steps back one snapshot. Returns a deep copy of the restored
// state, or (nil, false) when at the beginning.
func (h *History) Undo() (*plan.Plan, bool) {
	if h.cursor == 0 {
		return nil, false
	}
	h.cursor--
	h.state = stateApplyingSnapshot
	h.lastMove = -1
	return h.snapshots[h.cursor].Clone(), true
}

// Redo steps forward one snapshot. Returns a deep copy, or (nil, false)
// when there is no future.
func (h *History) Redo() (*plan.Plan, bool) {
	if h.cursor >= len(h.snapshots)-1 {
		return nil, false
	}
	h.cursor++
	h.state = stateApplyingSnapshot
	h.lastMove = 1
	return h.snapshots[h.cursor].Clone(), true
}

// CancelApply reverses the cursor move of a pending Undo/Redo whose
// snapshot could not be applied, returning the history to Idle at its
// prior position. No-op when no apply is pending.
func (h *History) CancelApply() {
	if h.state != stateApplyingSnapshot {
		return
	}
	h.cursor -= h.lastMove
	h.state = stateIdle
}

func (h *History) CanUndo() bool { return h.cursor > 0 }
func (h *History) CanRedo() bool { return h.cursor < len(h.snapshots)-1 }

// Len returns the number of retained snapshots.
func (h *History) Len() int { return len(h.snapshots) }

// Reset discards everything and restarts at the given state. Called
// when a new plan is loaded into the session.
func (h *History) Reset(initial *plan.Plan) {
	h.snapshots = []*plan.Plan{initial.Clone()}
	h.cursor = 0
	h.state = stateIdle
	h.lastMove = 0
}
