package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// clearEnv unsets every variable that influences path resolution for the
// duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{HomeEnv, "XDG_CONFIG_HOME", "XDG_STATE_HOME", "XDG_RUNTIME_DIR"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func skipIfRoot(t *testing.T) {
	t.Helper()
	if os.Geteuid() == 0 {
		t.Skip("root uses system-wide paths")
	}
}

func TestDefault(t *testing.T) {
	Reset()
	defer Reset()

	p := Default()

	for name, path := range map[string]string{
		"ConfigDir":  p.ConfigDir,
		"StateDir":   p.StateDir,
		"RuntimeDir": p.RuntimeDir,
		"LogDir":     p.LogDir,
		"ConfigFile": p.ConfigFile,
		"PIDFile":    p.PIDFile,
		"LogFile":    p.LogFile,
	} {
		if path == "" {
			t.Errorf("%s is empty", name)
		}
	}
}

func TestDefaultCaching(t *testing.T) {
	Reset()
	defer Reset()

	if Default() != Default() {
		t.Error("Default() should return cached instance")
	}
}

func TestHomeOverride(t *testing.T) {
	Reset()
	defer Reset()
	clearEnv(t)

	root := t.TempDir()
	t.Setenv(HomeEnv, root)

	p := Default()

	if p.ConfigDir != root || p.StateDir != root || p.RuntimeDir != root {
		t.Errorf("dirs = %q %q %q, want all %q", p.ConfigDir, p.StateDir, p.RuntimeDir, root)
	}
	if want := filepath.Join(root, "log", "swarmd.log"); p.LogFile != want {
		t.Errorf("LogFile = %q, want %q", p.LogFile, want)
	}
}

func TestXDGConfigHome(t *testing.T) {
	skipIfRoot(t)
	Reset()
	defer Reset()
	clearEnv(t)

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	p := Default()

	if want := filepath.Join(tmpDir, "swarmd"); p.ConfigDir != want {
		t.Errorf("ConfigDir = %q, want %q", p.ConfigDir, want)
	}
	if want := filepath.Join(tmpDir, "swarmd", "config.yaml"); p.ConfigFile != want {
		t.Errorf("ConfigFile = %q, want %q", p.ConfigFile, want)
	}
}

func TestXDGStateHome(t *testing.T) {
	skipIfRoot(t)
	Reset()
	defer Reset()
	clearEnv(t)

	tmpDir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", tmpDir)

	p := Default()

	expected := filepath.Join(tmpDir, "swarmd")
	if p.StateDir != expected {
		t.Errorf("StateDir = %q, want %q", p.StateDir, expected)
	}
	if p.LogDir != expected {
		t.Errorf("LogDir = %q, want %q", p.LogDir, expected)
	}
}

func TestXDGRuntimeDir(t *testing.T) {
	skipIfRoot(t)
	Reset()
	defer Reset()
	clearEnv(t)

	tmpDir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", tmpDir)

	p := Default()

	expected := filepath.Join(tmpDir, "swarmd")
	if p.RuntimeDir != expected {
		t.Errorf("RuntimeDir = %q, want %q", p.RuntimeDir, expected)
	}
	if want := filepath.Join(expected, "swarmd.pid"); p.PIDFile != want {
		t.Errorf("PIDFile = %q, want %q", p.PIDFile, want)
	}
}

func TestDefaultPaths_NoXDG(t *testing.T) {
	skipIfRoot(t)
	Reset()
	defer Reset()
	clearEnv(t)

	p := Default()
	home, _ := os.UserHomeDir()

	if want := filepath.Join(home, ".config", "swarmd"); p.ConfigDir != want {
		t.Errorf("ConfigDir = %q, want %q", p.ConfigDir, want)
	}

	want := filepath.Join(home, ".local", "state", "swarmd")
	if runtime.GOOS == "darwin" {
		want = filepath.Join(home, "Library", "Application Support", "swarmd")
	}
	if p.StateDir != want {
		t.Errorf("StateDir = %q, want %q", p.StateDir, want)
	}

	if p.RuntimeDir != p.StateDir {
		t.Errorf("RuntimeDir = %q, want %q (fallback to StateDir)", p.RuntimeDir, p.StateDir)
	}
}

func TestEnsureDirectories(t *testing.T) {
	Reset()
	defer Reset()
	clearEnv(t)

	t.Setenv(HomeEnv, filepath.Join(t.TempDir(), "swarm"))

	p := Default()

	if _, err := os.Stat(p.ConfigDir); !os.IsNotExist(err) {
		t.Error("ConfigDir should not exist before EnsureDirectories")
	}

	if err := EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories() error = %v", err)
	}

	for _, dir := range []string{p.ConfigDir, p.StateDir, p.RuntimeDir, p.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Errorf("stat %s: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", dir)
		}
		if perm := info.Mode().Perm(); perm != 0700 {
			t.Errorf("%s permissions = %o, want %o", dir, perm, 0700)
		}
	}
}

func TestConvenienceFunctions(t *testing.T) {
	Reset()
	defer Reset()

	p := Default()

	checks := []struct {
		name string
		got  string
		want string
	}{
		{"ConfigDir", ConfigDir(), p.ConfigDir},
		{"StateDir", StateDir(), p.StateDir},
		{"RuntimeDir", RuntimeDir(), p.RuntimeDir},
		{"LogDir", LogDir(), p.LogDir},
		{"ConfigFile", ConfigFile(), p.ConfigFile},
		{"PIDFile", PIDFile(), p.PIDFile},
		{"LogFile", LogFile(), p.LogFile},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s() = %q, want %q", c.name, c.got, c.want)
		}
	}
}

func TestReset(t *testing.T) {
	Reset()
	defer Reset()
	clearEnv(t)

	t.Setenv(HomeEnv, t.TempDir())
	p1 := Default()

	Reset()
	t.Setenv(HomeEnv, t.TempDir())
	p2 := Default()

	if p1.ConfigDir == p2.ConfigDir {
		t.Error("Reset() should allow paths to be recalculated")
	}
}
