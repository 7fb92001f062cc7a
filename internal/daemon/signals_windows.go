//go:build windows

package daemon

import (
	"os"
	"os/exec"
)

// Windows has no reload signal; use Controller.Reload instead.
var (
	reloadSignals    []os.Signal
	terminateSignals = []os.Signal{os.Interrupt}
)

func signalFor(kind EventKind) os.Signal {
	if kind == EventReload {
		return nil
	}
	return os.Kill
}

func detach(cmd *exec.Cmd) {}

func processAlive(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	p.Release()
	return true
}
