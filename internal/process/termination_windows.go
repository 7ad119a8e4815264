//go:build windows

package process

import "os"

func decodeState(state *os.ProcessState) Termination {
	return Termination{
		PID:      state.Pid(),
		Exited:   state.Exited(),
		ExitCode: state.ExitCode(),
	}
}
