//go:build !windows

package process

import (
	"os"
	"syscall"
)

func decodeState(state *os.ProcessState) Termination {
	term := Termination{PID: state.Pid()}
	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok {
		term.Exited = state.Exited()
		term.ExitCode = state.ExitCode()
		return term
	}
	switch {
	case ws.Exited():
		term.Exited = true
		term.ExitCode = ws.ExitStatus()
	case ws.Signaled():
		term.Signaled = true
		term.Signal = ws.Signal().String()
		term.SignalNum = int(ws.Signal())
		term.CoreDumped = ws.CoreDump()
	}
	return term
}
