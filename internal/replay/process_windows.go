//go:build windows

package replay

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

type windowsGroup struct{}

func newProcessGroup() processGroup { return windowsGroup{} }

func (windowsGroup) start(cmd *exec.Cmd) error {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
	return cmd.Start()
}

// stop sends CTRL_BREAK to the console group, or kills the leader when forced.
func (windowsGroup) stop(cmd *exec.Cmd, force bool) error {
	if cmd.Process == nil {
		return errNotStarted
	}
	if force {
		return cmd.Process.Kill()
	}
	return windows.GenerateConsoleCtrlEvent(windows.CTRL_BREAK_EVENT, uint32(cmd.Process.Pid))
}
