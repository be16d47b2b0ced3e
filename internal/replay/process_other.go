//go:build !linux && !windows

package replay

import "syscall"

// setPdeathsig is a no-op where Pdeathsig is unsupported.
func setPdeathsig(_ *syscall.SysProcAttr) {}
