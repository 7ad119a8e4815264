//go:build !windows

package process

import (
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

// reportFD is the duplicate's end of the replace report pipe (ExtraFiles[0]).
const reportFD = 3

// openReport attaches a pipe the duplicate writes to when image replacement
// fails. A successful replacement closes the duplicate's end on exec, so the
// original reads nothing.
func openReport(cmd *exec.Cmd) (r, w *os.File, err error) {
	r, w, err = os.Pipe()
	if err != nil {
		return nil, nil, err
	}
	cmd.ExtraFiles = []*os.File{w}
	return r, w, nil
}

// reportWriter returns the duplicate's end of the report pipe, or nil when the
// descriptor is not open.
func reportWriter() *os.File {
	if _, err := unix.FcntlInt(reportFD, unix.F_GETFD, 0); err != nil {
		return nil
	}
	unix.CloseOnExec(reportFD)
	return os.NewFile(reportFD, "replace-report")
}
