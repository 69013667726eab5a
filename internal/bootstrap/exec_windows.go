//go:build windows

package bootstrap

import (
	"os"
	"os/exec"
)

// replaceProcess approximates exec(2) on Windows, which has no process
// replacement: the server runs as a child with inherited stdio and this
// process exits with the child's status. From the supervisor's point of
// view the handoff is still one-way.
func replaceProcess(argv0 string, argv []string, env []string) error {
	cmd := exec.Command(argv0, argv[1:]...)
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Exit(exitErr.ExitCode())
		}
		return err
	}
	os.Exit(0)
	return nil
}
