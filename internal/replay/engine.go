// Package replay executes rewritten build commands in trace order and stops
// at the first failure.
package replay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/ganeshutah/FPChecker/internal/classify"
	"github.com/ganeshutah/FPChecker/internal/rewrite"
)

// Entry status values.
const (
	StatusPassed  = "passed"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Phase names which command of an entry is running.
type Phase string

const (
	PhasePrimary   Phase = "primary"
	PhaseSecondary Phase = "secondary"
	PhaseTrace     Phase = "trace"
)

// ErrCommandFailed is matched by every *CommandError.
var ErrCommandFailed = errors.New("command failed")

// CommandError reports the command that stopped a replay.
type CommandError struct {
	Index    int
	Phase    Phase
	Command  string
	ExitCode int
	Output   string
	Err      error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %d (%s) failed with exit code %d: %s", e.Index, e.Phase, e.ExitCode, e.Command)
}

func (e *CommandError) Unwrap() error { return e.Err }

func (e *CommandError) Is(target error) bool { return target == ErrCommandFailed }

// EntryResult is the outcome of one database entry.
type EntryResult struct {
	Index           int
	Category        classify.Category
	Status          string
	ExitCode        int
	DurationMs      int64
	Primary         string
	Secondary       string // empty when no secondary ran
	PrimaryOutput   string
	SecondaryOutput string
}

// Result is the outcome of a replay.
type Result struct {
	Status      string // "passed" or "failed"
	Total       int
	Restart     int
	FailedIndex int // 0 unless Status is "failed"
	Entries     []*EntryResult
	DurationMs  int64
	Error       error
}

// Config configures the engine. It is not modified after NewEngine.
type Config struct {
	WorkDir      string
	Env          []string // nil inherits the environment
	Restart      int      // 1-based first entry to run; 0 means 1
	SkipSuffixes []string
	RunSecondary bool
	BufferSize   int
	Observer     Observer
	Logger       *slog.Logger
}

// Engine replays a command database.
type Engine struct {
	group  processGroup
	config Config
	logger *slog.Logger
}

// NewEngine creates an engine running commands through the platform shell.
func NewEngine(cfg Config) *Engine {
	if cfg.Restart <= 0 {
		cfg.Restart = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultBufferSize
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		group:  newProcessGroup(),
		config: cfg,
		logger: logger,
	}
}

// Run executes db from the configured restart index to the end. Entries
// before the restart index are never touched. The first non-zero exit stops
// the replay; the returned error is then a *CommandError.
func (e *Engine) Run(ctx context.Context, db *rewrite.Database) (*Result, error) {
	start := time.Now()
	result := &Result{Status: StatusPassed, Total: db.Len(), Restart: e.config.Restart}

	pairs, err := db.From(e.config.Restart)
	if err != nil {
		result.Status = StatusFailed
		result.Error = err
		return result, err
	}

	e.logger.Debug("replay started", "total", db.Len(), "restart", e.config.Restart)
	for _, pair := range pairs {
		if err := ctx.Err(); err != nil {
			return e.fail(result, start, pair.Index, err)
		}

		er, err := e.runEntry(ctx, pair, db.Len())
		result.Entries = append(result.Entries, er)
		e.config.Observer.EntryEnd(er)
		if err != nil {
			return e.fail(result, start, pair.Index, err)
		}
	}

	result.DurationMs = time.Since(start).Milliseconds()
	e.logger.Debug("replay finished", "entries", len(result.Entries), "duration_ms", result.DurationMs)
	return result, nil
}

func (e *Engine) fail(result *Result, start time.Time, index int, err error) (*Result, error) {
	result.Status = StatusFailed
	result.FailedIndex = index
	result.Error = err
	result.DurationMs = time.Since(start).Milliseconds()
	return result, err
}

func (e *Engine) runEntry(ctx context.Context, pair rewrite.Pair, total int) (*EntryResult, error) {
	entryStart := time.Now()
	er := &EntryResult{
		Index:    pair.Index,
		Category: pair.Category,
		Status:   StatusPassed,
	}
	defer func() { er.DurationMs = time.Since(entryStart).Milliseconds() }()

	primary, secondary := pair.Primary, pair.Secondary
	if pair.Skipped || e.skipped(pair.Source) {
		primary, secondary = rewrite.SkipNotice(pair.Source), ""
		er.Status = StatusSkipped
	}
	er.Primary = primary

	out, code, err := e.exec(ctx, pair.Index, total, PhasePrimary, primary)
	er.PrimaryOutput, er.ExitCode = out, code
	if err != nil {
		er.Status = StatusFailed
		return er, err
	}

	if secondary == "" || !e.config.RunSecondary {
		return er, nil
	}
	er.Secondary = secondary
	out, code, err = e.exec(ctx, pair.Index, total, PhaseSecondary, secondary)
	er.SecondaryOutput, er.ExitCode = out, code
	if err != nil {
		er.Status = StatusFailed
		return er, err
	}
	return er, nil
}

func (e *Engine) skipped(source string) bool {
	if source == "" {
		return false
	}
	for _, s := range e.config.SkipSuffixes {
		if s != "" && strings.HasSuffix(source, s) {
			return true
		}
	}
	return false
}

// exec runs one command to completion and returns its combined output.
func (e *Engine) exec(ctx context.Context, index, total int, phase Phase, command string) (string, int, error) {
	e.config.Observer.CommandStart(index, total, phase, command)

	output, code, err := e.run(ctx, command)
	if err != nil {
		cerr := &CommandError{
			Index:    index,
			Phase:    phase,
			Command:  command,
			ExitCode: code,
			Output:   output,
			Err:      err,
		}
		e.config.Observer.CommandEnd(index, phase, output, cerr)
		return output, code, cerr
	}
	e.config.Observer.CommandEnd(index, phase, output, nil)
	return output, 0, nil
}

func (e *Engine) run(ctx context.Context, command string) (string, int, error) {
	env := e.config.Env
	if env == nil {
		env = os.Environ()
	}
	cmd, err := shellCommand(command, e.config.WorkDir, env)
	if err != nil {
		return "", 1, fmt.Errorf("building command: %w", err)
	}

	buf := NewOutputBuffer(e.config.BufferSize)
	cmd.Stdout = buf
	cmd.Stderr = buf

	if err := e.group.start(cmd); err != nil {
		return "", 1, fmt.Errorf("starting process: %w", err)
	}
	// No timeout: build commands are expected to terminate.
	waitErr := waitGroup(ctx, e.group, cmd, DefaultGracePeriod)
	if waitErr != nil {
		return buf.String(), exitCodeFromError(waitErr), waitErr
	}
	return buf.String(), 0, nil
}

// exitCodeFromError extracts the exit code from an exec error.
func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code > 0 {
			return code
		}
	}
	return 1
}
