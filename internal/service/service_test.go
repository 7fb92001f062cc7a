package service

import (
	"strings"
	"testing"
)

func TestGenerateUnit(t *testing.T) {
	unit := generateUnit(Config{
		BinaryPath: "/usr/local/bin/swarmd",
		Args:       []string{"-c", "/etc/swarmd/my config.yaml", "-D", "app.price=$5"},
	})

	t.Run("runs the daemon in the foreground", func(t *testing.T) {
		if !strings.Contains(unit, "ExecStart=/usr/local/bin/swarmd run -c ") {
			t.Errorf("unit should start 'swarmd run', got:\n%s", unit)
		}
	})

	t.Run("quotes arguments with spaces", func(t *testing.T) {
		if !strings.Contains(unit, `"/etc/swarmd/my config.yaml"`) {
			t.Errorf("argument with space should be quoted, got:\n%s", unit)
		}
	})

	t.Run("escapes dollar signs", func(t *testing.T) {
		if !strings.Contains(unit, `"app.price=$$5"`) {
			t.Errorf("dollar sign should be doubled, got:\n%s", unit)
		}
	})

	t.Run("reloads with SIGHUP", func(t *testing.T) {
		if !strings.Contains(unit, "ExecReload=/bin/kill -HUP $MAINPID") {
			t.Error("unit should reload via SIGHUP")
		}
	})

	t.Run("stops with SIGTERM", func(t *testing.T) {
		if !strings.Contains(unit, "KillSignal=SIGTERM") {
			t.Error("unit should stop via SIGTERM")
		}
	})
}

func TestGeneratePlist(t *testing.T) {
	binaryPath := "/usr/local/bin/swarmd"

	t.Run("contains label and arguments", func(t *testing.T) {
		plist := generatePlist(Config{BinaryPath: binaryPath, Args: []string{"-D", "a=<b>"}})

		for _, want := range []string{
			"<string>" + Label + "</string>",
			"<string>" + binaryPath + "</string>",
			"<string>run</string>",
			"<string>a=&lt;b&gt;</string>",
		} {
			if !strings.Contains(plist, want) {
				t.Errorf("plist should contain %s", want)
			}
		}
	})

	t.Run("restarts only after failure", func(t *testing.T) {
		plist := generatePlist(Config{BinaryPath: binaryPath})
		if !strings.Contains(plist, "<key>SuccessfulExit</key>") {
			t.Error("plist should keep the daemon alive only after unsuccessful exits")
		}
	})

	t.Run("log paths only when configured", func(t *testing.T) {
		if strings.Contains(generatePlist(Config{BinaryPath: binaryPath}), "StandardOutPath") {
			t.Error("plist should not redirect output without a log file")
		}
		plist := generatePlist(Config{BinaryPath: binaryPath, LogFile: "/var/log/swarmd/stdout.log"})
		if !strings.Contains(plist, "<string>/var/log/swarmd/stdout.log</string>") {
			t.Error("plist should configure log path")
		}
	})
}

func TestConfigResolve(t *testing.T) {
	cfg := Config{}
	if err := cfg.resolve(); err != nil {
		t.Fatalf("resolve() error = %v", err)
	}
	if cfg.BinaryPath == "" {
		t.Error("resolve() should fill in the executable path")
	}

	explicit := Config{BinaryPath: "/opt/swarmd"}
	if err := explicit.resolve(); err != nil || explicit.BinaryPath != "/opt/swarmd" {
		t.Errorf("resolve() changed explicit path: %q, %v", explicit.BinaryPath, err)
	}
}
