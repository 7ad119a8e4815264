//go:build !windows

package process

import (
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

// Replace swaps the current process image for program, located through PATH.
// argv[0] is program as given, followed by args. It only returns on failure, and
// the error is always a *ReplaceError.
func Replace(program string, args []string) error {
	path, err := exec.LookPath(program)
	if err != nil {
		return &ReplaceError{Program: program, Err: err}
	}

	argv := append([]string{program}, args...)
	err = unix.Exec(path, argv, childEnv(os.Environ()))
	return &ReplaceError{Program: program, Path: path, Err: err}
}
