package replay

import (
	"context"
	"errors"
	"os/exec"
	"time"
)

// DefaultGracePeriod is how long an interrupted build command may take to
// exit before it is killed.
const DefaultGracePeriod = 5 * time.Second

var errNotStarted = errors.New("process not started")

// processGroup starts a command as the leader of its own process group and
// signals the whole group. nvcc and make spawn children that must stop with
// the command that started them.
type processGroup interface {
	start(cmd *exec.Cmd) error
	// stop asks the group to exit; force kills it.
	stop(cmd *exec.Cmd, force bool) error
}

// waitGroup waits for cmd. When ctx ends first the group is interrupted, and
// killed if it is still running after grace.
func waitGroup(ctx context.Context, pg processGroup, cmd *exec.Cmd, grace time.Duration) error {
	if cmd.Process == nil {
		return errNotStarted
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
	}

	_ = pg.stop(cmd, false)
	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case err := <-done:
		return err
	case <-timer.C:
		_ = pg.stop(cmd, true)
		return <-done
	}
}
