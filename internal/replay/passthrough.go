package replay

import (
	"context"
	"time"
)

// RunTrace re-executes the raw trace verbatim, without instrumentation, with
// the same stop-at-first-failure policy as Run. The restart index and skip
// list do not apply.
func (e *Engine) RunTrace(ctx context.Context, lines []string) (*Result, error) {
	start := time.Now()
	result := &Result{Status: StatusPassed, Total: len(lines), Restart: 1}

	for i, line := range lines {
		index := i + 1
		if err := ctx.Err(); err != nil {
			return e.fail(result, start, index, err)
		}

		entryStart := time.Now()
		out, code, err := e.exec(ctx, index, len(lines), PhaseTrace, line)
		er := &EntryResult{
			Index:         index,
			Status:        StatusPassed,
			ExitCode:      code,
			Primary:       line,
			PrimaryOutput: out,
			DurationMs:    time.Since(entryStart).Milliseconds(),
		}
		if err != nil {
			er.Status = StatusFailed
		}
		result.Entries = append(result.Entries, er)
		e.config.Observer.EntryEnd(er)
		if err != nil {
			return e.fail(result, start, index, err)
		}
	}

	result.DurationMs = time.Since(start).Milliseconds()
	return result, nil
}
