package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/yourusername/community-manager/internal/batch"
	"github.com/yourusername/community-manager/internal/membership"
)

var (
	db *sql.DB
)

// Run statuses
const (
	StatusRunning     = "running"
	StatusCompleted   = "completed"
	StatusAborted     = "aborted"
	StatusInterrupted = "interrupted"
)

// Run is one batch execution
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt *time.Time
	Mode       string
	Input      string
	Limit      string
	Status     string
	Stats      batch.Stats
}

// InitDB initializes the database connection and creates tables
func InitDB(dbPath string) error {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	var err error
	db, err = sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// Create tables
	if err := createTables(); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// createTables creates the required database tables
func createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP,
		mode TEXT NOT NULL,
		input TEXT,
		record_limit TEXT,
		status TEXT NOT NULL,
		adds_succeeded INTEGER DEFAULT 0,
		adds_failed INTEGER DEFAULT 0,
		removes_succeeded INTEGER DEFAULT 0,
		removes_failed INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS outcomes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		record_index INTEGER NOT NULL,
		operation TEXT NOT NULL,
		community TEXT NOT NULL,
		phone TEXT,
		result TEXT NOT NULL,
		failing_step TEXT,
		error TEXT,
		snapshot TEXT,
		recorded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_outcomes_run ON outcomes(run_id);
	CREATE INDEX IF NOT EXISTS idx_outcomes_phone ON outcomes(phone);
	CREATE INDEX IF NOT EXISTS idx_outcomes_recorded_at ON outcomes(recorded_at);
	`

	_, err := db.Exec(schema)
	return err
}

// Close closes the database connection
func Close() error {
	if db != nil {
		err := db.Close()
		db = nil
		return err
	}
	return nil
}

// StartRun opens a ledger entry for a new batch and returns its id
func StartRun(mode, input, limit string) (string, error) {
	id := uuid.NewString()
	query := `
		INSERT INTO runs (id, started_at, mode, input, record_limit, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query, id, time.Now().UTC(), mode, input, limit, StatusRunning)
	if err != nil {
		return "", fmt.Errorf("failed to start run: %w", err)
	}

	return id, nil
}

// FinishRun stores the final counters of a run
func FinishRun(runID string, stats batch.Stats, status string) error {
	query := `
		UPDATE runs
		SET finished_at = ?, status = ?,
			adds_succeeded = ?, adds_failed = ?, removes_succeeded = ?, removes_failed = ?
		WHERE id = ?
	`

	result, err := db.Exec(query, time.Now().UTC(), status,
		stats.AddsSucceeded, stats.AddsFailed, stats.RemovesSucceeded, stats.RemovesFailed, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("no run found with id: %s", runID)
	}

	return nil
}

// GetRun loads a run by id
func GetRun(runID string) (Run, error) {
	query := `
		SELECT id, started_at, finished_at, mode, input, record_limit, status,
			adds_succeeded, adds_failed, removes_succeeded, removes_failed
		FROM runs WHERE id = ?
	`

	var run Run
	var finishedAt sql.NullTime
	err := db.QueryRow(query, runID).Scan(&run.ID, &run.StartedAt, &finishedAt, &run.Mode, &run.Input,
		&run.Limit, &run.Status, &run.Stats.AddsSucceeded, &run.Stats.AddsFailed,
		&run.Stats.RemovesSucceeded, &run.Stats.RemovesFailed)
	if err != nil {
		return Run{}, fmt.Errorf("failed to load run: %w", err)
	}

	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}

	return run, nil
}

// RecordOutcome appends one operation outcome to a run. The write outlives
// cancellation of ctx so the outcome rows always match the run counters.
func RecordOutcome(ctx context.Context, runID string, index int, o membership.Outcome) error {
	query := `
		INSERT INTO outcomes (run_id, record_index, operation, community, phone, result, failing_step, error, snapshot)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var errText sql.NullString
	if o.Err != nil {
		errText = sql.NullString{String: o.Err.Error(), Valid: true}
	}

	_, err := db.ExecContext(context.WithoutCancel(ctx), query, runID, index, o.Kind.String(), o.Community, string(o.Target),
		o.Result.String(), string(o.FailingStep), errText, o.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to record outcome: %w", err)
	}

	return nil
}

// GetStats returns statistics about the database
func GetStats() (map[string]int, error) {
	stats := make(map[string]int)

	queries := []struct {
		key   string
		query string
	}{
		{"total_runs", "SELECT COUNT(*) FROM runs"},
		{"members_added", "SELECT COUNT(*) FROM outcomes WHERE operation = 'add' AND result = 'success'"},
		{"members_removed", "SELECT COUNT(*) FROM outcomes WHERE operation = 'remove' AND result = 'success'"},
		{"failed_operations", "SELECT COUNT(*) FROM outcomes WHERE result = 'failure'"},
		{"operations_today", "SELECT COUNT(*) FROM outcomes WHERE DATE(recorded_at) = DATE('now')"},
	}

	for _, q := range queries {
		var n int
		if err := db.QueryRow(q.query).Scan(&n); err != nil {
			return nil, err
		}
		stats[q.key] = n
	}

	return stats, nil
}

// RunLedger records outcomes of one run as the batch produces them
type RunLedger struct {
	RunID string
}

// Record implements batch.Recorder
func (l RunLedger) Record(ctx context.Context, index int, o membership.Outcome) error {
	return RecordOutcome(ctx, l.RunID, index, o)
}
