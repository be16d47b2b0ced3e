//go:build !windows

package replay

import (
	"os/exec"
	"syscall"
)

type unixGroup struct{}

func newProcessGroup() processGroup { return unixGroup{} }

func (unixGroup) start(cmd *exec.Cmd) error {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	setPdeathsig(cmd.SysProcAttr)
	return cmd.Start()
}

// stop signals the group through the negated leader pid.
func (unixGroup) stop(cmd *exec.Cmd, force bool) error {
	if cmd.Process == nil {
		return errNotStarted
	}
	sig := syscall.SIGINT
	if force {
		sig = syscall.SIGKILL
	}
	return syscall.Kill(-cmd.Process.Pid, sig)
}
