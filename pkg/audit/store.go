// Package audit persists scheduler errors and feasibility warnings to
// Postgres so a post-mortem tool can reconstruct a failing placement
// decision. The scheduling core never imports this package; it is
// wired by the CLI/server host only after Schedule or feasibility.Report
// return.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/khryptorgraphics/taskorch/internal/feasibility"
	"github.com/khryptorgraphics/taskorch/internal/schederr"
)

// Store wraps a Postgres connection pool for audit writes.
type Store struct {
	db *sqlx.DB
}

// Open connects to Postgres at dsn and verifies the connection.
func Open(dsn string) (*Store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("audit: connecting to postgres: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

const schemaSQL = `
CREATE TABLE IF NOT EXISTS scheduler_errors (
	id            BIGSERIAL PRIMARY KEY,
	run_id        TEXT NOT NULL,
	occurred_at   TIMESTAMPTZ NOT NULL,
	kind          TEXT NOT NULL,
	task_name     TEXT,
	node_id       TEXT,
	detail        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS feasibility_warnings (
	id          BIGSERIAL PRIMARY KEY,
	run_id      TEXT NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL,
	node_id     TEXT NOT NULL,
	cpu         INTEGER NOT NULL,
	util_sum    DOUBLE PRECISION NOT NULL,
	util_bound  DOUBLE PRECISION NOT NULL,
	task_names  TEXT NOT NULL
);
`

// Migrate creates the audit tables if they do not already exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("audit: migrating schema: %w", err)
	}
	return nil
}

// RecordError persists a terminal SchedulerError under runID.
func (s *Store) RecordError(ctx context.Context, runID string, err schederr.SchedulerError) error {
	kind, taskName, nodeID := classify(err)
	_, execErr := s.db.ExecContext(ctx,
		`INSERT INTO scheduler_errors (run_id, occurred_at, kind, task_name, node_id, detail)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		runID, time.Now().UTC(), kind, taskName, nodeID, err.Error(),
	)
	if execErr != nil {
		return fmt.Errorf("audit: recording scheduler error: %w", execErr)
	}
	return nil
}

// RecordWarnings persists every feasibility warning under runID.
func (s *Store) RecordWarnings(ctx context.Context, runID string, warnings []feasibility.Warning) error {
	now := time.Now().UTC()
	for _, w := range warnings {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO feasibility_warnings (run_id, occurred_at, node_id, cpu, util_sum, util_bound, task_names)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			runID, now, w.Node, w.CPU, w.Sum, w.Bound, joinNames(w.Tasks),
		)
		if err != nil {
			return fmt.Errorf("audit: recording feasibility warning for node %s cpu %d: %w", w.Node, w.CPU, err)
		}
	}
	return nil
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ","
		}
		out += n
	}
	return out
}

// classify extracts the task/node fields a post-mortem query filters
// on, when the error carries them.
func classify(err schederr.SchedulerError) (kind, taskName, nodeID string) {
	switch e := err.(type) {
	case schederr.NoSchedulableNode:
		return "no_schedulable_node", e.Task, ""
	case schederr.AdmissionRejected:
		return "admission_rejected", e.Task, e.Node
	case schederr.MissingTargetNode:
		return "missing_target_node", e.Task, e.Node
	case schederr.MissingWorkloadID:
		return "missing_workload_id", e.Task, ""
	case schederr.UnknownAlgorithm:
		return "unknown_algorithm", "", ""
	case schederr.NoValidPeriods:
		return "no_valid_periods", "", ""
	case schederr.NoTasks:
		return "no_tasks", "", ""
	case schederr.ConfigNotLoaded:
		return "config_not_loaded", "", ""
	default:
		return "unknown", "", ""
	}
}
