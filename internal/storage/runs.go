package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrRunNotFound is returned when a replay run does not exist.
var ErrRunNotFound = errors.New("replay run not found")

const errRunIDRequired = "run_id is required"

// CreateRun records the start of a replay.
func (s *SQLiteStore) CreateRun(ctx context.Context, run *Run) error {
	if run == nil {
		return errors.New("run cannot be nil")
	}
	if run.RunID == "" {
		return errors.New(errRunIDRequired)
	}
	status := run.Status
	if status == "" {
		status = "running"
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO replay_runs (
			run_id, mode, trace_path, work_dir, restart_index, total,
			status, failed_index, started_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.RunID,
		run.Mode,
		run.TracePath,
		run.WorkDir,
		run.RestartIndex,
		run.Total,
		status,
		run.FailedIndex,
		run.StartedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("replay run with id %s already exists", run.RunID)
		}
		return fmt.Errorf("failed to create replay run: %w", err)
	}
	return nil
}

// FinishRun records the final status of a replay.
func (s *SQLiteStore) FinishRun(ctx context.Context, runID, status string, failedIndex int, endedAt, durationMs int64) error {
	if runID == "" {
		return errors.New(errRunIDRequired)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE replay_runs SET status = ?, failed_index = ?, ended_at = ?, duration_ms = ?
		WHERE run_id = ?
	`, status, failedIndex, endedAt, durationMs, runID)
	if err != nil {
		return fmt.Errorf("failed to update replay run: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrRunNotFound
	}
	return nil
}

// RecordEntry stores the outcome of one entry. Recording the same index
// twice keeps the latest outcome.
func (s *SQLiteStore) RecordEntry(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return errors.New("entry cannot be nil")
	}
	if entry.RunID == "" {
		return errors.New(errRunIDRequired)
	}
	if entry.Index < 1 {
		return fmt.Errorf("entry index must be >= 1, got %d", entry.Index)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO replay_entries (
			run_id, idx, category, primary_cmd, secondary_cmd, status, exit_code, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.RunID,
		entry.Index,
		entry.Category,
		entry.Primary,
		entry.Secondary,
		entry.Status,
		entry.ExitCode,
		entry.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to record replay entry: %w", err)
	}
	return nil
}

const runColumns = `run_id, mode, trace_path, work_dir, restart_index, total,
	status, failed_index, started_at, ended_at, duration_ms`

func scanRun(row *sql.Row) (*Run, error) {
	var r Run
	err := row.Scan(
		&r.RunID, &r.Mode, &r.TracePath, &r.WorkDir, &r.RestartIndex, &r.Total,
		&r.Status, &r.FailedIndex, &r.StartedAt, &r.EndedAt, &r.DurationMs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read replay run: %w", err)
	}
	return &r, nil
}

// GetRun returns the run with runID.
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	if runID == "" {
		return nil, errors.New(errRunIDRequired)
	}
	return scanRun(s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM replay_runs WHERE run_id = ?`, runID))
}

// LastRun returns the most recently started run.
func (s *SQLiteStore) LastRun(ctx context.Context) (*Run, error) {
	return scanRun(s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM replay_runs ORDER BY started_at DESC, rowid DESC LIMIT 1`))
}

// RunEntries returns the entries of a run ordered by index.
func (s *SQLiteStore) RunEntries(ctx context.Context, runID string) ([]Entry, error) {
	if runID == "" {
		return nil, errors.New(errRunIDRequired)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, idx, category, primary_cmd, secondary_cmd, status, exit_code, duration_ms
		FROM replay_entries WHERE run_id = ? ORDER BY idx
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query replay entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.RunID, &e.Index, &e.Category, &e.Primary, &e.Secondary,
			&e.Status, &e.ExitCode, &e.DurationMs); err != nil {
			return nil, fmt.Errorf("failed to scan replay entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
