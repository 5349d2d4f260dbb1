// SPDX-License-Identifier: MIT

// Package history records finished anonymization runs in SQLite. The CLI
// `history` subcommand and the API's /v1/runs endpoint read from it.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ManuGH/geoanonymizer/internal/metrics"
	"github.com/ManuGH/geoanonymizer/internal/persistence/sqlite"
)

const schemaVersion = 1

// Run is one finished anonymization run.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Mode       string    `json:"mode"`     // cli, api, watch, batch
	Strategy   string    `json:"strategy"` // full spec as given
	Input      string    `json:"input"`
	Output     string    `json:"output"`
	Rows       int       `json:"rows"`
	Masked     int       `json:"masked"`
	Dropped    int       `json:"dropped"`
	Failed     int       `json:"failed"`
	Outcome    string    `json:"outcome"` // success, failure
	Error      string    `json:"error,omitempty"`
}

// Store persists runs.
type Store struct {
	db *sql.DB
}

// Open creates or opens the history database at path and migrates its
// schema.
func Open(path string) (*Store, error) {
	db, err := sqlite.Open(path, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history store: migration failed: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	var currentVersion int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&currentVersion); err != nil {
		return err
	}
	if currentVersion >= schemaVersion {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		mode TEXT NOT NULL,
		strategy TEXT NOT NULL,
		input TEXT NOT NULL,
		output TEXT NOT NULL,
		rows_total INTEGER NOT NULL,
		rows_masked INTEGER NOT NULL,
		rows_dropped INTEGER NOT NULL,
		rows_failed INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
	`
	if _, err := tx.Exec(schema); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

// Record inserts a finished run. Recording the same run ID twice updates the
// stored row, so retried writes stay idempotent.
func (s *Store) Record(ctx context.Context, run Run) error {
	query := `
	INSERT INTO runs (id, started_at, finished_at, mode, strategy, input, output,
		rows_total, rows_masked, rows_dropped, rows_failed, outcome, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		finished_at = excluded.finished_at,
		rows_total = excluded.rows_total,
		rows_masked = excluded.rows_masked,
		rows_dropped = excluded.rows_dropped,
		rows_failed = excluded.rows_failed,
		outcome = excluded.outcome,
		error = excluded.error
	`
	_, err := s.db.ExecContext(ctx, query,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.Mode, run.Strategy, run.Input, run.Output,
		run.Rows, run.Masked, run.Dropped, run.Failed,
		run.Outcome, run.Error,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
	SELECT id, started_at, finished_at, mode, strategy, input, output,
		rows_total, rows_masked, rows_dropped, rows_failed, outcome, error
	FROM runs ORDER BY started_at DESC LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var run Run
		var started, finished string
		if err := rows.Scan(&run.ID, &started, &finished, &run.Mode, &run.Strategy,
			&run.Input, &run.Output, &run.Rows, &run.Masked, &run.Dropped,
			&run.Failed, &run.Outcome, &run.Error); err != nil {
			return nil, err
		}
		run.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		run.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		out = append(out, run)
	}
	return out, rows.Err()
}

// Get returns one run by ID, or sql.ErrNoRows wrapped when absent.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	query := `
	SELECT id, started_at, finished_at, mode, strategy, input, output,
		rows_total, rows_masked, rows_dropped, rows_failed, outcome, error
	FROM runs WHERE id = ?
	`
	var run Run
	var started, finished string
	err := s.db.QueryRowContext(ctx, query, id).Scan(&run.ID, &started, &finished,
		&run.Mode, &run.Strategy, &run.Input, &run.Output, &run.Rows, &run.Masked,
		&run.Dropped, &run.Failed, &run.Outcome, &run.Error)
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	run.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
	run.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
	return run, nil
}

// Prune removes all but the newest keep runs and returns how many rows were
// deleted. keep <= 0 disables pruning.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	query := `
	DELETE FROM runs WHERE id NOT IN (
		SELECT id FROM runs ORDER BY started_at DESC LIMIT ?
	)
	`
	res, err := s.db.ExecContext(ctx, query, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	metrics.AddHistoryPruned(n)
	return n, nil
}

// Ping reports whether the database answers, for the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error { return s.db.Close() }
