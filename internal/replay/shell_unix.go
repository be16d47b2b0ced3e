//go:build !windows

package replay

func shellArgs(command string) (string, []string) {
	return "/bin/sh", []string{"-c", command}
}
