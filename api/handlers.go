/*
handlers.go - HTTP API handlers for the plan engine

PURPOSE:
  Exposes the plan computation engine via REST. Handles HTTP
  request/response and JSON serialization, and delegates everything else
  to the engine packages.

ENDPOINTS:
  Plans:
    GET    /api/plans                       List plan summaries
    POST   /api/plans                       Create a draft plan
    GET    /api/plans/{id}                  Get a plan
    PUT    /api/plans/{id}                  Replace a draft plan's content
    DELETE /api/plans/{id}                  Delete a plan

  Reporting:
    GET    /api/plans/{id}/matrix           Block-plan matrix
    GET    /api/plans/{id}/totals           Dashboard totals
    GET    /api/plans/{id}/warnings         Pacing warnings

  Block plan editing:
    POST   /api/plans/{id}/blockplans/ensure
    POST   /api/plans/{id}/blockplans/toggle
    POST   /api/plans/{id}/week-start

  Allocator:
    POST   /api/plans/{id}/allocate
    POST   /api/plans/{id}/undo
    POST   /api/plans/{id}/redo

  Flighting grid:
    GET    /api/plans/{id}/fields/{lineItemID}/{fieldID}
    PUT    /api/plans/{id}/fields/{lineItemID}/{fieldID}

  Workflow:
    POST   /api/plans/{id}/submit|approve|reject|revert|archive|duplicate

  Scenarios:
    GET    /api/scenarios
    POST   /api/scenarios/load

MUTATION FLOW:
  1. Load plan from the store
  2. Run the pure engine operation on it
  3. If the engine rejected (returned the same plan), respond with
     changed=false and skip the save
  4. Otherwise save, record an undo snapshot, respond changed=true

ERROR HANDLING:
  - 400: Validation errors, malformed input
  - 404: Unknown plan/line item/flight/tactic
  - 409: Version conflicts
  - 500: Internal errors
  Invariant-protection rejections are 200 with changed=false, not
  errors.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/plan-engine/allocate"
	"github.com/warp/plan-engine/fields"
	"github.com/warp/plan-engine/plan"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  plan.PlanStore
	Fields *fields.Registry
	Log    *zap.Logger

	validate *validator.Validate

	// Session-lived undo/redo, one history per plan. Reset when a
	// scenario reloads the plan.
	mu        sync.Mutex
	histories map[plan.PlanID]*planHistory

	now func() time.Time
}

// NewHandler creates a new handler with the given store.
func NewHandler(store plan.PlanStore, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Store:     store,
		Fields:    fields.DefaultRegistry(),
		Log:       log,
		validate:  validator.New(),
		histories: make(map[plan.PlanID]*planHistory),
		now:       time.Now,
	}
}

// planHistory serializes one plan's undo stack. History is not safe
// for concurrent use, and the Undo -> save -> Record sequence must not
// interleave with another request's Record or the suppressed echo
// lands on the wrong snapshot.
type planHistory struct {
	mu   sync.Mutex
	hist *allocate.History
}

func (h *Handler) history(p *plan.Plan) *planHistory {
	h.mu.Lock()
	defer h.mu.Unlock()
	ph, ok := h.histories[p.ID]
	if !ok {
		ph = &planHistory{hist: allocate.NewHistory(p)}
		h.histories[p.ID] = ph
	}
	return ph
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, err error) {
	respondJSON(w, status, ErrorResponse{Error: err.Error()})
}

func (h *Handler) respondEngineError(w http.ResponseWriter, err error) {
	switch {
	case plan.IsNotFound(err):
		respondError(w, http.StatusNotFound, err)
	case errors.Is(err, plan.ErrVersionConflict):
		respondError(w, http.StatusConflict, err)
	case errors.Is(err, plan.ErrNoBlockPlan),
		errors.Is(err, plan.ErrNoFlightAssigned),
		errors.Is(err, plan.ErrWeekNotFound):
		respondError(w, http.StatusBadRequest, err)
	default:
		h.Log.Error("internal error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, err)
	}
}

func (h *Handler) decodeValid(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

// mutatePlan loads, transforms, and saves a plan. The transform returns
// the updated plan; returning the input signals a rejected operation
// and skips the save.
func (h *Handler) mutatePlan(w http.ResponseWriter, r *http.Request, transform func(*plan.Plan) (*plan.Plan, error)) {
	id := plan.PlanID(chi.URLParam(r, "id"))
	p, err := h.Store.GetPlan(r.Context(), id)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}

	updated, err := transform(p)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	if updated == p {
		respondJSON(w, http.StatusOK, PlanResponse{Plan: p, Changed: false})
		return
	}

	// Save and record under the plan's history lock so a racing
	// undo/redo cannot interleave between the two.
	ph := h.history(p)
	ph.mu.Lock()
	defer ph.mu.Unlock()
	saved, err := h.Store.SavePlan(r.Context(), updated)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	ph.hist.Record(saved)
	respondJSON(w, http.StatusOK, PlanResponse{Plan: saved, Changed: true})
}

// =============================================================================
// PLAN CRUD
// =============================================================================

func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.Store.ListPlans(r.Context())
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summaries)
}

func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req CreatePlanRequest
	if !h.decodeValid(w, r, &req) {
		return
	}

	p := plan.NewPlan(plan.PlanID(uuid.NewString()), req.Name, req.Code, req.Actor, h.now())
	if req.WeekStart != "" {
		p.WeekStart = plan.WeekStartDay(req.WeekStart)
	}
	p.Version = 0 // first save bumps to 1

	saved, err := h.Store.SavePlan(r.Context(), p)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	h.history(saved)
	respondJSON(w, http.StatusCreated, PlanResponse{Plan: saved, Changed: true})
}

func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	id := plan.PlanID(chi.URLParam(r, "id"))
	p, err := h.Store.GetPlan(r.Context(), id)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// UpdatePlan replaces a draft plan's content wholesale (the editor
// saves whole plans). Week grids and the timeline are realigned before
// persisting. Non-draft plans reject the update.
func (h *Handler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	var incoming plan.Plan
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	h.mutatePlan(w, r, func(p *plan.Plan) (*plan.Plan, error) {
		if !p.Status.Editable() {
			return p, nil
		}
		next := incoming.Clone()
		next.ID = p.ID
		next.Version = p.Version
		next.Status = p.Status
		next.Approvals = append([]plan.ApprovalEvent(nil), p.Approvals...)
		next.CreatedAt = p.CreatedAt
		next.UpdatedAt = h.now()
		plan.UpdatePlanTimeline(next)
		return plan.EnsureBlockPlans(next), nil
	})
}

func (h *Handler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	id := plan.PlanID(chi.URLParam(r, "id"))
	if err := h.Store.DeletePlan(r.Context(), id); err != nil {
		h.respondEngineError(w, err)
		return
	}
	h.mu.Lock()
	delete(h.histories, id)
	h.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// REPORTING
// =============================================================================

func (h *Handler) GetMatrix(w http.ResponseWriter, r *http.Request) {
	id := plan.PlanID(chi.URLParam(r, "id"))
	p, err := h.Store.GetPlan(r.Context(), id)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}

	q := r.URL.Query()
	opts := plan.MatrixOptions{
		Grain:   plan.Grain(q.Get("grain")),
		GroupBy: plan.GroupBy(q.Get("group_by")),
		Metric:  plan.Metric(q.Get("metric")),
	}
	if s := q.Get("start"); s != "" {
		d, err := plan.ParseDate(s)
		if err != nil {
			respondError(w, http.StatusBadRequest, err)
			return
		}
		opts.RangeStart = d
	}
	if s := q.Get("end"); s != "" {
		d, err := plan.ParseDate(s)
		if err != nil {
			respondError(w, http.StatusBadRequest, err)
			return
		}
		opts.RangeEnd = d
	}

	respondJSON(w, http.StatusOK, plan.BuildMatrix(p, opts))
}

func (h *Handler) GetTotals(w http.ResponseWriter, r *http.Request) {
	id := plan.PlanID(chi.URLParam(r, "id"))
	p, err := h.Store.GetPlan(r.Context(), id)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toTotalsDTO(plan.CalculateTotals(p)))
}

func (h *Handler) GetWarnings(w http.ResponseWriter, r *http.Request) {
	id := plan.PlanID(chi.URLParam(r, "id"))
	p, err := h.Store.GetPlan(r.Context(), id)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	now := h.now()
	today := plan.NewDate(now.Year(), now.Month(), now.Day())
	warnings := plan.BuildPacingWarnings(p, today)
	if warnings == nil {
		warnings = []string{}
	}
	respondJSON(w, http.StatusOK, warnings)
}

// =============================================================================
// BLOCK PLAN EDITING
// =============================================================================

func (h *Handler) EnsureBlockPlans(w http.ResponseWriter, r *http.Request) {
	h.mutatePlan(w, r, func(p *plan.Plan) (*plan.Plan, error) {
		return plan.EnsureBlockPlans(p), nil
	})
}

func (h *Handler) ToggleWeek(w http.ResponseWriter, r *http.Request) {
	var req ToggleWeekRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	h.mutatePlan(w, r, func(p *plan.Plan) (*plan.Plan, error) {
		return plan.ToggleBlockPlanWeek(p, plan.LineItemID(req.LineItemID), req.WeekKey)
	})
}

func (h *Handler) ChangeWeekStart(w http.ResponseWriter, r *http.Request) {
	var req WeekStartRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	h.mutatePlan(w, r, func(p *plan.Plan) (*plan.Plan, error) {
		return plan.ChangeWeekStart(p, plan.WeekStartDay(req.WeekStart)), nil
	})
}

// =============================================================================
// ALLOCATOR
// =============================================================================

func (h *Handler) Allocate(w http.ResponseWriter, r *http.Request) {
	var req AllocateRequest
	if !h.decodeValid(w, r, &req) {
		return
	}

	h.mutatePlan(w, r, func(p *plan.Plan) (*plan.Plan, error) {
		if !p.Status.Editable() {
			return p, nil
		}

		var next []plan.Tactic
		switch req.Operation {
		case "even":
			next = allocate.SplitEvenly(p.Tactics, p.Constraints)
		case "efficiency":
			next = allocate.WeightByEfficiency(p.Tactics)
		case "cap":
			capShare := req.CapShare
			if capShare == 0 && p.Constraints.MaxSharePerChannel != nil {
				capShare = *p.Constraints.MaxSharePerChannel
			}
			next = allocate.EnforceChannelCap(p.Tactics, capShare)
		case "round":
			next = allocate.RoundToNearest(p.Tactics, req.Nearest)
		}

		if tacticsIdentical(p.Tactics, next) {
			return p, nil
		}
		out := p.Clone()
		out.Tactics = next
		out.UpdatedAt = h.now()
		return out, nil
	})
}

func tacticsIdentical(a, b []plan.Tactic) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) { h.moveHistory(w, r, true) }
func (h *Handler) Redo(w http.ResponseWriter, r *http.Request) { h.moveHistory(w, r, false) }

// moveHistory applies an undo/redo snapshot and persists it under the
// current stored version.
func (h *Handler) moveHistory(w http.ResponseWriter, r *http.Request, undo bool) {
	id := plan.PlanID(chi.URLParam(r, "id"))
	current, err := h.Store.GetPlan(r.Context(), id)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}

	ph := h.history(current)
	ph.mu.Lock()
	defer ph.mu.Unlock()

	var snapshot *plan.Plan
	var ok bool
	if undo {
		snapshot, ok = ph.hist.Undo()
	} else {
		snapshot, ok = ph.hist.Redo()
	}
	if !ok {
		respondJSON(w, http.StatusOK, PlanResponse{Plan: current, Changed: false})
		return
	}

	// The snapshot predates later saves; adopt the live version so the
	// optimistic guard passes.
	snapshot.Version = current.Version
	saved, err := h.Store.SavePlan(r.Context(), snapshot)
	if err != nil {
		ph.hist.CancelApply()
		h.respondEngineError(w, err)
		return
	}
	ph.hist.Record(saved) // swallowed by the ApplyingSnapshot state
	respondJSON(w, http.StatusOK, PlanResponse{Plan: saved, Changed: true})
}

// =============================================================================
// FLIGHTING GRID FIELDS
// =============================================================================

func (h *Handler) ReadField(w http.ResponseWriter, r *http.Request) {
	id := plan.PlanID(chi.URLParam(r, "id"))
	liID := plan.LineItemID(chi.URLParam(r, "lineItemID"))
	fieldID := fields.FieldID(chi.URLParam(r, "fieldID"))

	p, err := h.Store.GetPlan(r.Context(), id)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	ctx, err := fields.NewContext(p, liID)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	li, _ := p.FindLineItem(liID)

	resolver, ok := h.Fields.Resolve(li.Channel, fieldID)
	if !ok {
		// No resolver: the column is display-only for this channel.
		respondJSON(w, http.StatusOK, FieldReadDTO{Field: string(fieldID), Writable: false})
		return
	}
	respondJSON(w, http.StatusOK, FieldReadDTO{
		Field:    string(fieldID),
		Value:    resolver.Read(ctx),
		Writable: resolver.Write != nil,
	})
}

func (h *Handler) WriteField(w http.ResponseWriter, r *http.Request) {
	liID := plan.LineItemID(chi.URLParam(r, "lineItemID"))
	fieldID := fields.FieldID(chi.URLParam(r, "fieldID"))

	var req FieldWriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	id := plan.PlanID(chi.URLParam(r, "id"))
	p, err := h.Store.GetPlan(r.Context(), id)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	li, err := p.FindLineItem(liID)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	resolver, ok := h.Fields.Resolve(li.Channel, fieldID)
	if !ok || resolver.Write == nil {
		respondError(w, http.StatusBadRequest, errors.New("field is read-only"))
		return
	}

	// Form validation runs first; an invalid value blocks the write and
	// surfaces the message inline.
	if resolver.Validate != nil {
		ctx, _ := fields.NewContext(p, liID)
		if m := resolver.Validate(req.Value, ctx); m != nil {
			respondJSON(w, http.StatusOK, FieldWriteResponse{Plan: p, Changed: false, Validation: m})
			return
		}
	}

	updated, err := resolver.Write(p, liID, req.Value)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	if updated == p {
		respondJSON(w, http.StatusOK, FieldWriteResponse{Plan: p, Changed: false})
		return
	}
	ph := h.history(p)
	ph.mu.Lock()
	defer ph.mu.Unlock()
	saved, err := h.Store.SavePlan(r.Context(), updated)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	ph.hist.Record(saved)
	respondJSON(w, http.StatusOK, FieldWriteResponse{Plan: saved, Changed: true})
}

// =============================================================================
// WORKFLOW
// =============================================================================

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	h.workflow(w, r, func(p *plan.Plan, req WorkflowRequest) *plan.Plan {
		return plan.Submit(p, req.Actor, h.now())
	})
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.workflow(w, r, func(p *plan.Plan, req WorkflowRequest) *plan.Plan {
		return plan.Approve(p, req.Actor, req.Comment, h.now())
	})
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.workflow(w, r, func(p *plan.Plan, req WorkflowRequest) *plan.Plan {
		return plan.Reject(p, req.Actor, req.Comment, h.now())
	})
}

func (h *Handler) Revert(w http.ResponseWriter, r *http.Request) {
	h.workflow(w, r, func(p *plan.Plan, req WorkflowRequest) *plan.Plan {
		return plan.Revert(p, req.Actor, h.now())
	})
}

func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	h.workflow(w, r, func(p *plan.Plan, req WorkflowRequest) *plan.Plan {
		return plan.Archive(p, req.Actor, h.now())
	})
}

func (h *Handler) workflow(w http.ResponseWriter, r *http.Request, apply func(*plan.Plan, WorkflowRequest) *plan.Plan) {
	var req WorkflowRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	h.mutatePlan(w, r, func(p *plan.Plan) (*plan.Plan, error) {
		return apply(p, req), nil
	})
}

// Duplicate copies a plan into a new draft and stores it under a fresh
// id.
func (h *Handler) Duplicate(w http.ResponseWriter, r *http.Request) {
	var req WorkflowRequest
	if !h.decodeValid(w, r, &req) {
		return
	}

	id := plan.PlanID(chi.URLParam(r, "id"))
	p, err := h.Store.GetPlan(r.Context(), id)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}

	dup := plan.Duplicate(p, plan.PlanID(uuid.NewString()), req.Actor, h.now())
	dup.Version = 0
	saved, err := h.Store.SavePlan(r.Context(), dup)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	h.history(saved)
	respondJSON(w, http.StatusCreated, PlanResponse{Plan: saved, Changed: true})
}
