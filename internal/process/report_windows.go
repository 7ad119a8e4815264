//go:build windows

package process

import (
	"os"
	"os/exec"
)

func openReport(cmd *exec.Cmd) (r, w *os.File, err error) {
	return nil, nil, nil
}

func reportWriter() *os.File {
	return nil
}
