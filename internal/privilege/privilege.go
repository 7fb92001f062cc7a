// Package privilege checks for and acquires the root privileges needed to
// manage system services.
package privilege

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// IsRoot returns true if the current process is running as root.
func IsRoot() bool {
	return os.Geteuid() == 0
}

// sudoCommand builds the command that re-runs executable with args as root.
func sudoCommand(executable string, args []string) *exec.Cmd {
	cmd := exec.Command("sudo", append([]string{executable}, args...)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd
}

// Elevate re-executes the current command with sudo and exits with its
// exit code. It prints reason to w first. Does not return on success.
func Elevate(w io.Writer, reason string) error {
	if IsRoot() {
		return nil
	}
	fmt.Fprintf(w, "Requesting administrator privileges: %s\n", reason)

	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	if err := sudoCommand(executable, os.Args[1:]).Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		return fmt.Errorf("sudo failed: %w", err)
	}

	os.Exit(0)
	return nil
}

// RequireRoot returns immediately when running as root and elevates
// otherwise.
func RequireRoot(reason string) error {
	if IsRoot() {
		return nil
	}
	return Elevate(os.Stderr, reason)
}
