package process

import (
	"errors"
	"fmt"
	"os/exec"
)

// Exit statuses for failures that happen before the listing utility runs.
const (
	ExitSpawnFailed   = 1
	ExitNotExecutable = 126
	ExitNotFound      = 127
)

// ErrUnsupported is the cause carried by Replace on platforms without execve.
var ErrUnsupported = errors.ErrUnsupported

// SpawnError reports that the duplicate could not be created.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("spawn duplicate: %v", e.Err)
	}
	return fmt.Sprintf("spawn duplicate %s: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

func (e *SpawnError) ExitCode() int { return ExitSpawnFailed }

// ReplaceError reports that the process image could not be replaced.
type ReplaceError struct {
	Program string
	// Path is the resolved executable, empty when the search failed.
	Path string
	Err  error
}

func (e *ReplaceError) Error() string {
	if e.Path != "" && e.Path != e.Program {
		return fmt.Sprintf("replace image with %s (%s): %v", e.Program, e.Path, e.Err)
	}
	return fmt.Sprintf("replace image with %s: %v", e.Program, e.Err)
}

func (e *ReplaceError) Unwrap() error { return e.Err }

func (e *ReplaceError) ExitCode() int {
	if errors.Is(e.Err, exec.ErrNotFound) {
		return ExitNotFound
	}
	return ExitNotExecutable
}

// ChildError reports that the duplicate terminated unsuccessfully.
type ChildError struct {
	Termination Termination
}

func (e *ChildError) Error() string {
	msg := "child " + e.Termination.String()
	if e.Termination.ReplaceFailure != "" {
		msg += ": " + e.Termination.ReplaceFailure
	}
	return msg
}

func (e *ChildError) ExitCode() int {
	if code := e.Termination.Code(); code != 0 {
		return code
	}
	return 1
}

type exitCoder interface {
	ExitCode() int
}

// ExitCode maps err to a process exit status: 0 for nil, the code carried by
// the first error in the chain that has one, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var coder exitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return 1
}
