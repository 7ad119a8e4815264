package process

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"time"
)

// RoleEnv is the environment variable that marks a process as the duplicate.
const RoleEnv = "FORKEXEC_ROLE"

const roleChildPrefix = "child:"

// Role identifies which side of a duplication the current process is on.
type Role int

const (
	RoleParent Role = iota
	RoleChild
)

func (r Role) String() string {
	if r == RoleChild {
		return "child"
	}
	return "parent"
}

// CurrentRole reports the role of the running process. The marker names the
// original's pid, so a marker inherited from anywhere else is ignored.
func CurrentRole() Role {
	if os.Getenv(RoleEnv) == roleMarker(os.Getppid()) {
		return RoleChild
	}
	return RoleParent
}

func roleMarker(parentPID int) string {
	return roleChildPrefix + strconv.Itoa(parentPID)
}

// SpawnResult is the outcome of Spawn. It is one of Failed, Child or Parent.
type SpawnResult interface {
	isSpawnResult()
}

// Failed reports that the duplicate could not be created.
type Failed struct {
	Err error
}

// Child is returned inside the duplicate.
type Child struct{}

// Parent is returned inside the original and carries the duplicate's handle.
type Parent struct {
	Handle *Handle
}

func (Failed) isSpawnResult() {}
func (Child) isSpawnResult()  {}
func (Parent) isSpawnResult() {}

// Spawner creates duplicates of the running program.
type Spawner struct {
	// Path is the executable started as the duplicate. Defaults to the running
	// executable.
	Path string
	// Args are passed to the duplicate after argv[0]. Nil means os.Args[1:].
	Args []string
	// Dir is the duplicate's working directory. Empty inherits the caller's.
	Dir string
	// Env is appended to the inherited environment.
	Env []string

	// Stdin, Stdout and Stderr default to the caller's standard streams.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Spawn duplicates the running program. The duplicate observes Child from the same
// call; the original observes Parent.
func (s *Spawner) Spawn(ctx context.Context) SpawnResult {
	if CurrentRole() == RoleChild {
		return Child{}
	}
	if err := ctx.Err(); err != nil {
		return Failed{Err: &SpawnError{Path: s.Path, Err: err}}
	}

	path := s.Path
	if path == "" {
		self, err := os.Executable()
		if err != nil {
			return Failed{Err: &SpawnError{Err: fmt.Errorf("resolve own executable: %w", err)}}
		}
		path = self
	}

	args := s.Args
	if args == nil && len(os.Args) > 1 {
		args = os.Args[1:]
	}

	// exec.Command rather than CommandContext: the wait must not be cancellable.
	cmd := exec.Command(path, args...)
	cmd.Dir = s.Dir
	cmd.Env = append(append(os.Environ(), s.Env...), RoleEnv+"="+roleMarker(os.Getpid()))
	cmd.Stdin = orReader(s.Stdin, os.Stdin)
	cmd.Stdout = orWriter(s.Stdout, os.Stdout)
	cmd.Stderr = orWriter(s.Stderr, os.Stderr)

	report, reportEnd, err := openReport(cmd)
	if err != nil {
		return Failed{Err: &SpawnError{Path: path, Err: fmt.Errorf("replace report pipe: %w", err)}}
	}

	started := time.Now()
	err = cmd.Start()
	if reportEnd != nil {
		reportEnd.Close()
	}
	if err != nil {
		if report != nil {
			report.Close()
		}
		return Failed{Err: &SpawnError{Path: path, Err: err}}
	}

	return Parent{Handle: &Handle{cmd: cmd, started: started, report: report}}
}

func orReader(r io.Reader, fallback io.Reader) io.Reader {
	if r != nil {
		return r
	}
	return fallback
}

func orWriter(w io.Writer, fallback io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return fallback
}
