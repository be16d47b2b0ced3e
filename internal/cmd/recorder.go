package cmd

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/ganeshutah/FPChecker/internal/config"
	"github.com/ganeshutah/FPChecker/internal/replay"
	"github.com/ganeshutah/FPChecker/internal/storage"
)

const (
	modeReplay     = "replay"
	modeInstReplay = "inst-replay"
)

// runRecorder persists replay progress. It is a replay.Observer; every
// storage failure is logged and otherwise ignored, and with no store it does
// nothing.
type runRecorder struct {
	ctx    context.Context
	store  storage.Store
	logger *slog.Logger
	runID  string
}

func openRunRecorder(ctx context.Context, cfg *config.Config, disabled bool, logger *slog.Logger) *runRecorder {
	// Writes must outlive a Ctrl+C so the interrupted entry is kept.
	r := &runRecorder{ctx: context.WithoutCancel(ctx), logger: logger}
	if disabled {
		return r
	}
	path := cfg.StateDBPath()
	store, err := storage.NewSQLiteStore(path)
	if err != nil {
		logger.Warn("replay history disabled", "path", path, "error", err)
		return r
	}
	r.store = store
	return r
}

// Start opens a new run.
func (r *runRecorder) Start(mode, tracePath string, restart, total int) {
	if r.store == nil {
		return
	}
	wd, _ := os.Getwd()
	run := &storage.Run{
		RunID:        uuid.NewString(),
		Mode:         mode,
		TracePath:    tracePath,
		WorkDir:      wd,
		RestartIndex: restart,
		Total:        total,
		StartedAt:    time.Now().UnixMilli(),
	}
	if err := r.store.CreateRun(r.ctx, run); err != nil {
		r.logger.Warn("failed to record replay run", "error", err)
		r.runID = ""
		return
	}
	r.runID = run.RunID
}

func (r *runRecorder) CommandStart(int, int, replay.Phase, string) {}
func (r *runRecorder) CommandEnd(int, replay.Phase, string, error)  {}

func (r *runRecorder) EntryEnd(res *replay.EntryResult) {
	if r.store == nil || r.runID == "" || res == nil {
		return
	}
	entry := &storage.Entry{
		RunID:      r.runID,
		Index:      res.Index,
		Category:   res.Category.String(),
		Primary:    res.Primary,
		Secondary:  res.Secondary,
		Status:     res.Status,
		ExitCode:   res.ExitCode,
		DurationMs: res.DurationMs,
	}
	if err := r.store.RecordEntry(r.ctx, entry); err != nil {
		r.logger.Warn("failed to record replay entry", "index", res.Index, "error", err)
	}
}

// Finish closes the current run with the replay result.
func (r *runRecorder) Finish(res *replay.Result) {
	if r.store == nil || r.runID == "" || res == nil {
		return
	}
	err := r.store.FinishRun(r.ctx, r.runID, res.Status, res.FailedIndex, time.Now().UnixMilli(), res.DurationMs)
	if err != nil {
		r.logger.Warn("failed to finish replay run", "error", err)
	}
	r.runID = ""
}

// Close releases the store.
func (r *runRecorder) Close() {
	if r.store == nil {
		return
	}
	if err := r.store.Close(); err != nil {
		r.logger.Warn("failed to close state database", "error", err)
	}
}
