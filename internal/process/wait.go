package process

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Handle refers to a running duplicate.
type Handle struct {
	cmd     *exec.Cmd
	started time.Time
	// report is the read end of the replace report pipe; nil where unsupported.
	report *os.File
}

// PID returns the duplicate's process identifier.
func (h *Handle) PID() int {
	if h == nil || h.cmd == nil || h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

// Termination describes how a duplicate ended.
type Termination struct {
	PID int

	// Exited is set for a normal exit; ExitCode is then meaningful.
	Exited   bool
	ExitCode int

	// Signaled is set when the duplicate was killed by a signal.
	Signaled   bool
	Signal     string
	SignalNum  int
	CoreDumped bool

	// ReplaceFailure is the duplicate's own account of a failed image
	// replacement. Empty when the replacement succeeded or was never tried.
	ReplaceFailure string

	Duration time.Duration
}

// Ended reports whether the termination was actually observed.
func (t Termination) Ended() bool {
	return t.Exited || t.Signaled
}

// Success reports whether the duplicate exited normally with status zero.
func (t Termination) Success() bool {
	return t.Exited && t.ExitCode == 0
}

// Code folds the termination into a single exit status, using 128+signal for
// signal deaths.
func (t Termination) Code() int {
	if t.Signaled {
		return 128 + t.SignalNum
	}
	return t.ExitCode
}

func (t Termination) String() string {
	if t.Signaled {
		s := fmt.Sprintf("pid %d killed by signal %s", t.PID, t.Signal)
		if t.CoreDumped {
			s += " (core dumped)"
		}
		return s
	}
	return fmt.Sprintf("pid %d exited with status %d", t.PID, t.ExitCode)
}

// Wait blocks until the duplicate terminates. A non-zero exit is reported through
// the Termination, not as an error.
func (h *Handle) Wait() (Termination, error) {
	if h == nil || h.cmd == nil || h.cmd.Process == nil {
		return Termination{}, errors.New("wait: process not started")
	}

	err := h.cmd.Wait()
	replaceFailure := h.readReport()

	state := h.cmd.ProcessState
	if state == nil {
		return Termination{PID: h.PID()}, fmt.Errorf("wait pid %d: %w", h.PID(), err)
	}
	term := decodeState(state)
	term.Duration = time.Since(h.started)
	term.ReplaceFailure = replaceFailure

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		// The process ended but copying its output failed.
		return term, fmt.Errorf("wait pid %d: %w", h.PID(), err)
	}
	return term, nil
}

// readReport drains the report pipe. Every write end is closed once the duplicate
// has exited or replaced its image, so this does not block.
func (h *Handle) readReport() string {
	if h.report == nil {
		return ""
	}
	defer h.report.Close()
	msg, err := io.ReadAll(h.report)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(msg))
}
