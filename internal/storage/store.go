// Package storage persists replay runs so an interrupted instrumentation can
// be inspected and resumed.
package storage

import "context"

// Store defines the persistence operations used by the CLI.
type Store interface {
	CreateRun(ctx context.Context, run *Run) error
	FinishRun(ctx context.Context, runID, status string, failedIndex int, endedAt, durationMs int64) error
	RecordEntry(ctx context.Context, entry *Entry) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	LastRun(ctx context.Context) (*Run, error)
	RunEntries(ctx context.Context, runID string) ([]Entry, error)
	Close() error
}

// Run is one replay of a trace.
type Run struct {
	RunID        string
	Mode         string // "inst-replay" or "replay"
	TracePath    string
	WorkDir      string
	RestartIndex int
	Total        int
	Status       string // "running", "passed", "failed"
	FailedIndex  int
	StartedAt    int64 // Unix ms
	EndedAt      int64
	DurationMs   int64
}

// Entry is the outcome of one database entry within a run.
type Entry struct {
	RunID      string
	Index      int
	Category   string
	Primary    string
	Secondary  string
	Status     string
	ExitCode   int
	DurationMs int64
}

// ResumeIndex returns the index to restart from after this run.
func (r *Run) ResumeIndex() int {
	if r.Status == "failed" && r.FailedIndex > 0 {
		return r.FailedIndex
	}
	return 1
}
