package daemon

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Common errors
var (
	ErrAlreadyRunning = errors.New("daemon is already running")
	ErrNotRunning     = errors.New("daemon is not running")
	ErrNoReloadSignal = errors.New("reload signal not supported on this platform")
)

// PIDFile records the process id of a running daemon and lets other
// processes control it.
type PIDFile struct {
	path string
}

// NewPIDFile returns a PIDFile stored at path.
func NewPIDFile(path string) *PIDFile {
	return &PIDFile{path: path}
}

// Path returns the location of the PID file.
func (p *PIDFile) Path() string {
	return p.path
}

// Write records the current process id, creating the parent directory.
func (p *PIDFile) Write() error {
	return p.write(os.Getpid())
}

func (p *PIDFile) write(pid int) error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0700); err != nil {
		return fmt.Errorf("failed to create PID directory: %w", err)
	}
	return os.WriteFile(p.path, []byte(strconv.Itoa(pid)+"\n"), 0644)
}

// Read returns the recorded process id.
func (p *PIDFile) Read() (int, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return 0, err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID in file: %w", err)
	}
	return pid, nil
}

// Remove deletes the PID file. A missing file is not an error.
func (p *PIDFile) Remove() error {
	err := os.Remove(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// IsRunning reports whether the recorded process is alive.
func (p *PIDFile) IsRunning() bool {
	pid, err := p.Read()
	if err != nil {
		return false
	}
	return processAlive(pid)
}

// CleanStale removes the PID file if the recorded process is gone.
func (p *PIDFile) CleanStale() error {
	pid, err := p.Read()
	if err != nil {
		return nil
	}
	if !processAlive(pid) {
		return p.Remove()
	}
	return nil
}

// Signal delivers a reload or terminate request to the recorded process.
// Returns ErrNotRunning, removing a stale file, when nothing is running.
func (p *PIDFile) Signal(kind EventKind) error {
	pid, err := p.Read()
	if err != nil {
		return ErrNotRunning
	}

	sig := signalFor(kind)
	if sig == nil {
		return ErrNoReloadSignal
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		_ = p.Remove()
		return ErrNotRunning
	}

	if err := process.Signal(sig); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			_ = p.Remove()
			return ErrNotRunning
		}
		return fmt.Errorf("failed to send %s: %w", sig, err)
	}
	return nil
}

// Spawn starts executable with args as a detached background process and
// records its id. Returns ErrAlreadyRunning if a live process is recorded.
func (p *PIDFile) Spawn(executable string, args ...string) (int, error) {
	if p.IsRunning() {
		return 0, ErrAlreadyRunning
	}
	if err := p.CleanStale(); err != nil {
		return 0, err
	}

	cmd := exec.Command(executable, args...)
	cmd.Env = os.Environ()
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start daemon: %w", err)
	}

	pid := cmd.Process.Pid
	if err := p.write(pid); err != nil {
		_ = cmd.Process.Kill()
		return 0, fmt.Errorf("failed to write PID file: %w", err)
	}
	_ = cmd.Process.Release()
	return pid, nil
}
