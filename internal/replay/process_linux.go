//go:build linux

package replay

import "syscall"

// setPdeathsig kills the build command if fpchecker itself dies.
func setPdeathsig(attr *syscall.SysProcAttr) {
	attr.Pdeathsig = syscall.SIGKILL
}
