package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
)

func TestShortenPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("could not get home dir: %v", err)
	}

	t.Run("shortens home directory to tilde", func(t *testing.T) {
		input := home + "/.local/state/swarmd/swarmd.pid"
		expected := "~/.local/state/swarmd/swarmd.pid"

		result := shortenPath(input)
		if result != expected {
			t.Errorf("expected %q, got %q", expected, result)
		}
	})

	t.Run("shortens exact home directory", func(t *testing.T) {
		result := shortenPath(home)
		if result != "~" {
			t.Errorf("expected %q, got %q", "~", result)
		}
	})

	t.Run("leaves non-home paths unchanged", func(t *testing.T) {
		input := "/var/run/swarmd.pid"

		result := shortenPath(input)
		if result != input {
			t.Errorf("expected %q, got %q", input, result)
		}
	})

	t.Run("leaves home inside another path unchanged", func(t *testing.T) {
		input := "/backup" + home + "/swarmd.log"

		result := shortenPath(input)
		if result != input {
			t.Errorf("expected %q, got %q", input, result)
		}
	})

	t.Run("handles empty path", func(t *testing.T) {
		result := shortenPath("")
		if result != "" {
			t.Errorf("expected empty path, got %q", result)
		}
	})
}

func TestOutputStatusText(t *testing.T) {
	t.Run("running daemon", func(t *testing.T) {
		var buf bytes.Buffer
		err := outputStatusText(&buf, Status{
			Running:  true,
			PID:      4242,
			PIDFile:  "/run/swarmd.pid",
			LogFile:  "/var/log/swarmd/swarmd.log",
			LogLevel: "information",
			Metrics:  ":9464",
		})
		if err != nil {
			t.Fatalf("outputStatusText() error = %v", err)
		}

		out := buf.String()
		for _, want := range []string{"swarmd is running (pid 4242)", "/run/swarmd.pid", "information", ":9464"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("stopped daemon omits metrics", func(t *testing.T) {
		var buf bytes.Buffer
		if err := outputStatusText(&buf, Status{LogLevel: "debug"}); err != nil {
			t.Fatalf("outputStatusText() error = %v", err)
		}

		out := buf.String()
		if !strings.Contains(out, "swarmd is not running") {
			t.Errorf("expected not running message, got:\n%s", out)
		}
		if strings.Contains(out, "Metrics:") {
			t.Errorf("metrics line should be omitted, got:\n%s", out)
		}
	})
}

func TestOutputStatusJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := outputStatusJSON(&buf, Status{Running: false, PIDFile: "/run/swarmd.pid"}); err != nil {
		t.Fatalf("outputStatusJSON() error = %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got["running"] != false {
		t.Errorf("running = %v, want false", got["running"])
	}
	if _, ok := got["pid"]; ok {
		t.Error("pid should be omitted when not running")
	}
	if got["pid_file"] != "/run/swarmd.pid" {
		t.Errorf("pid_file = %v", got["pid_file"])
	}
}

func TestGetStatus(t *testing.T) {
	home := setHome(t)

	status := getStatus()
	if status.Running {
		t.Error("expected daemon not running in a fresh home")
	}
	if !strings.HasPrefix(status.PIDFile, home) {
		t.Errorf("PIDFile = %q, want below %q", status.PIDFile, home)
	}
	if status.LogLevel != "information" {
		t.Errorf("LogLevel = %q, want default", status.LogLevel)
	}
}
