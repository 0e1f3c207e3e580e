/*
Package sqlite provides a SQLite-backed implementation of plan.PlanStore.

PURPOSE:
  Persists the Plan aggregate as a JSON document plus a separate
  append-only approval_events table. In production the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  plans:            One row per plan: identity/status columns for list
                    queries, aggregate JSON in `doc` (without the
                    approval trail).
  approval_events:  Immutable audit trail. INSERT only; SavePlan adds
                    the events the plan gained since load and never
                    touches existing rows.

CONCURRENCY:
  Optimistic: the plans row carries a version; SavePlan updates with a
  WHERE version = ? guard and reports ErrVersionConflict on a miss.
  A sync.RWMutex serializes access on top, as SQLite allows a single
  writer.

WAL MODE:
  Opened with WAL (Write-Ahead Logging): multiple readers don't block,
  single writer at a time, better crash recovery.

USAGE:
  st, err := sqlite.New("./data/plans.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

SEE ALSO:
  - plan/store.go: Interface definition
  - plan/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/plan-engine/plan"
)

// Store implements plan.PlanStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS plans (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		code TEXT,
		status TEXT NOT NULL,
		version INTEGER NOT NULL,
		week_start TEXT NOT NULL,
		start_date TEXT,
		end_date TEXT,
		doc TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Approval trail (append-only)
	CREATE TABLE IF NOT EXISTS approval_events (
		id TEXT PRIMARY KEY,
		plan_id TEXT NOT NULL,
		actor TEXT NOT NULL,
		action TEXT NOT NULL,
		comment TEXT,
		created_at TEXT NOT NULL,
		FOREIGN KEY (plan_id) REFERENCES plans(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_plans_status ON plans(status);
	CREATE INDEX IF NOT EXISTS idx_plans_updated ON plans(updated_at);
	CREATE INDEX IF NOT EXISTS idx_approval_events_plan ON approval_events(plan_id, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// planDoc is the JSON stored in the doc column. The approval trail
// lives in its own table and is stripped before marshalling.
func planDoc(p *plan.Plan) ([]byte, error) {
	doc := p.Clone()
	doc.Approvals = nil
	return json.Marshal(doc)
}

// SavePlan upserts the plan row with an optimistic version guard and
// appends any new approval events.
func (s *Store) SavePlan(ctx context.Context, p *plan.Plan) (*plan.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := p.Clone()
	stored.Version = p.Version + 1

	doc, err := planDoc(stored)
	if err != nil {
		return nil, fmt.Errorf("failed to encode plan: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var currentVersion int
	err = tx.QueryRowContext(ctx, `SELECT version FROM plans WHERE id = ?`, string(p.ID)).Scan(&currentVersion)
	switch {
	case err == sql.ErrNoRows:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO plans (id, name, code, status, version, week_start, start_date, end_date, doc, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			string(stored.ID), stored.Name, stored.Code, string(stored.Status), stored.Version,
			string(stored.WeekStart), dateCol(stored.StartDate), dateCol(stored.EndDate),
			string(doc), stored.CreatedAt.UTC().Format(time.RFC3339), stored.UpdatedAt.UTC().Format(time.RFC3339))
		if err != nil {
			return nil, fmt.Errorf("failed to insert plan: %w", err)
		}
	case err != nil:
		return nil, err
	default:
		if currentVersion != p.Version {
			return nil, plan.ErrVersionConflict
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE plans SET name = ?, code = ?, status = ?, version = ?, week_start = ?,
				start_date = ?, end_date = ?, doc = ?, updated_at = ?
			WHERE id = ? AND version = ?`,
			stored.Name, stored.Code, string(stored.Status), stored.Version, string(stored.WeekStart),
			dateCol(stored.StartDate), dateCol(stored.EndDate), string(doc),
			stored.UpdatedAt.UTC().Format(time.RFC3339),
			string(stored.ID), p.Version)
		if err != nil {
			return nil, fmt.Errorf("failed to update plan: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, plan.ErrVersionConflict
		}
	}

	// Append-only: only events not yet persisted land; existing rows
	// are never rewritten.
	for _, ev := range stored.Approvals {
		_, err = tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO approval_events (id, plan_id, actor, action, comment, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			ev.ID, string(stored.ID), ev.Actor, string(ev.Action), ev.Comment,
			ev.At.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return nil, fmt.Errorf("failed to append approval event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return stored, nil
}

// GetPlan loads the plan document and recomposes its approval trail.
func (s *Store) GetPlan(ctx context.Context, id plan.PlanID) (*plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM plans WHERE id = ?`, string(id)).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, plan.ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}

	var p plan.Plan
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return nil, fmt.Errorf("failed to decode plan %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor, action, comment, created_at
		FROM approval_events WHERE plan_id = ? ORDER BY created_at, id`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var ev plan.ApprovalEvent
		var action, createdAt string
		if err := rows.Scan(&ev.ID, &ev.Actor, &action, &ev.Comment, &createdAt); err != nil {
			return nil, err
		}
		ev.Action = plan.ApprovalAction(action)
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			ev.At = t
		}
		p.Approvals = append(p.Approvals, ev)
	}
	return &p, rows.Err()
}

// ListPlans returns summaries ordered by recency.
func (s *Store) ListPlans(ctx context.Context) ([]plan.PlanSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, code, status, version, start_date, end_date, updated_at
		FROM plans ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []plan.PlanSummary
	for rows.Next() {
		var sm plan.PlanSummary
		var id, status, start, end, updated string
		if err := rows.Scan(&id, &sm.Name, &sm.Code, &status, &sm.Version, &start, &end, &updated); err != nil {
			return nil, err
		}
		sm.ID = plan.PlanID(id)
		sm.Status = plan.Status(status)
		sm.StartDate = plan.MustDate(start)
		sm.EndDate = plan.MustDate(end)
		if t, err := time.Parse(time.RFC3339, updated); err == nil {
			sm.UpdatedAt = t
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}

// DeletePlan removes the plan row; the approval trail cascades.
func (s *Store) DeletePlan(ctx context.Context, id plan.PlanID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM plans WHERE id = ?`, string(id))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return plan.ErrPlanNotFound
	}
	return nil
}

func dateCol(d plan.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}
