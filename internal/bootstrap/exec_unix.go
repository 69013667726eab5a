//go:build unix

package bootstrap

import "syscall"

// replaceProcess performs the exec(2) handoff. It does not return on success.
func replaceProcess(argv0 string, argv []string, env []string) error {
	return syscall.Exec(argv0, argv, env)
}
