package replay

import (
	"errors"
	"os/exec"
)

var errEmptyCommand = errors.New("command is empty")

// shellCommand returns the exec.Cmd that runs one traced command line
// through the platform shell. Traced lines may chain commands with && and
// rely on shell quoting, so they are never split here.
func shellCommand(command, workDir string, env []string) (*exec.Cmd, error) {
	if command == "" {
		return nil, errEmptyCommand
	}
	name, args := shellArgs(command)
	cmd := exec.Command(name, args...)
	cmd.Dir = workDir
	cmd.Env = env
	return cmd, nil
}
