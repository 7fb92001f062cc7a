// Package paths resolves the default file locations of swarmd following the
// XDG Base Directory layout, with system-wide locations when run as root.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

const appName = "swarmd"

// HomeEnv overrides every directory with a single root when set.
const HomeEnv = "SWARMD_HOME"

// Paths holds all resolved paths for the daemon.
type Paths struct {
	// ConfigDir holds config.yaml.
	// XDG: $XDG_CONFIG_HOME/swarmd or ~/.config/swarmd
	ConfigDir string

	// StateDir holds persistent state and, by default, the logs.
	// XDG: $XDG_STATE_HOME/swarmd or ~/.local/state/swarmd
	// macOS fallback: ~/Library/Application Support/swarmd
	StateDir string

	// RuntimeDir holds the PID file.
	// XDG: $XDG_RUNTIME_DIR/swarmd, falling back to StateDir
	RuntimeDir string

	// LogDir holds the daemon log file and its rotated archives.
	LogDir string

	ConfigFile string
	PIDFile    string
	LogFile    string
}

var (
	defaultPaths *Paths
	pathsOnce    sync.Once
)

// Default returns the default paths for the current system.
// The result is cached after the first call.
func Default() *Paths {
	pathsOnce.Do(func() {
		defaultPaths = resolve()
	})
	return defaultPaths
}

func resolve() *Paths {
	p := &Paths{}

	switch {
	case os.Getenv(HomeEnv) != "":
		root := os.Getenv(HomeEnv)
		p.ConfigDir = root
		p.StateDir = root
		p.RuntimeDir = root
		p.LogDir = filepath.Join(root, "log")
	case os.Geteuid() == 0:
		p.ConfigDir = filepath.Join("/etc", appName)
		p.StateDir = filepath.Join("/var/lib", appName)
		p.RuntimeDir = filepath.Join("/run", appName)
		p.LogDir = filepath.Join("/var/log", appName)
	default:
		home := homeDir()
		p.ConfigDir = resolveConfigDir(home)
		p.StateDir = resolveStateDir(home)
		p.RuntimeDir = resolveRuntimeDir(p.StateDir)
		p.LogDir = p.StateDir
	}

	p.ConfigFile = filepath.Join(p.ConfigDir, "config.yaml")
	p.PIDFile = filepath.Join(p.RuntimeDir, appName+".pid")
	p.LogFile = filepath.Join(p.LogDir, appName+".log")

	return p
}

func resolveConfigDir(home string) string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	return filepath.Join(home, ".config", appName)
}

func resolveStateDir(home string) string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support", appName)
	}
	return filepath.Join(home, ".local", "state", appName)
}

// resolveRuntimeDir falls back to the state directory on systems without
// a runtime directory (macOS, minimal containers).
func resolveRuntimeDir(stateDir string) string {
	if xdg := os.Getenv("XDG_RUNTIME_DIR"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	return stateDir
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return home
	}
	return "/"
}

// EnsureDirectories creates all necessary directories with owner-only permissions.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.ConfigDir, p.StateDir, p.RuntimeDir, p.LogDir} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}
	return nil
}

// Reset clears the cached default paths.
// Useful for testing with different environment variables.
func Reset() {
	defaultPaths = nil
	pathsOnce = sync.Once{}
}

// ConfigDir returns the configuration directory path.
func ConfigDir() string {
	return Default().ConfigDir
}

// StateDir returns the state directory path.
func StateDir() string {
	return Default().StateDir
}

// RuntimeDir returns the runtime directory path.
func RuntimeDir() string {
	return Default().RuntimeDir
}

// LogDir returns the log directory path.
func LogDir() string {
	return Default().LogDir
}

// ConfigFile returns the main configuration file path.
func ConfigFile() string {
	return Default().ConfigFile
}

// PIDFile returns the daemon PID file path.
func PIDFile() string {
	return Default().PIDFile
}

// LogFile returns the daemon log file path.
func LogFile() string {
	return Default().LogFile
}

// EnsureDirectories creates all necessary directories using default paths.
func EnsureDirectories() error {
	return Default().EnsureDirectories()
}
