//go:build windows

package replay

import "os/exec"

// shellArgs prefers a POSIX sh (MSYS, Cygwin) since traces hold POSIX
// command lines, and falls back to cmd.exe.
func shellArgs(command string) (string, []string) {
	if sh, err := exec.LookPath("sh"); err == nil {
		return sh, []string{"-c", command}
	}
	return "cmd.exe", []string{"/C", command}
}
