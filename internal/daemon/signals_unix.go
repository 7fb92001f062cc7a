//go:build !windows

package daemon

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

var (
	reloadSignals    = []os.Signal{unix.SIGHUP}
	terminateSignals = []os.Signal{unix.SIGINT, unix.SIGQUIT, unix.SIGTERM}
)

// signalFor returns the signal a remote Signal call sends for kind.
func signalFor(kind EventKind) os.Signal {
	if kind == EventReload {
		return unix.SIGHUP
	}
	return unix.SIGTERM
}

// detach starts cmd in its own session so it survives the parent.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}
}

// processAlive probes pid with the null signal.
func processAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}
