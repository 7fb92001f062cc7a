// Package service installs swarmd as a system service: a systemd unit on
// Linux and a launchd daemon on macOS. The service manager then starts
// 'swarmd run', stops it with SIGTERM and reloads it with SIGHUP.
package service

import (
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
)

// Name is the service name used by systemd; launchd uses Label.
const (
	Name  = "swarmd"
	Label = "com.swarmcom.swarmd"
)

// ErrUnsupported is returned on platforms without a supported service
// manager.
var ErrUnsupported = errors.New("system service not supported on this platform")

// Config holds service installation configuration.
type Config struct {
	// BinaryPath is the path to the swarmd binary.
	// If empty, the current executable path is used.
	BinaryPath string
	// Args are passed to 'swarmd run', e.g. "-c", "/etc/swarmd/swarmd.yaml".
	Args []string
	// LogFile receives the daemon's stdout and stderr under launchd.
	LogFile string
}

func (c *Config) resolve() error {
	if c.BinaryPath != "" {
		return nil
	}
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}
	c.BinaryPath, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return fmt.Errorf("failed to resolve executable path: %w", err)
	}
	return nil
}

func (c Config) command() []string {
	return append([]string{c.BinaryPath, "run"}, c.Args...)
}

// IsInstalled checks if swarmd is installed as a system service.
func IsInstalled() bool {
	return isInstalled()
}

// Install writes the service definition and registers it.
func Install(cfg Config) error {
	if err := cfg.resolve(); err != nil {
		return err
	}
	return install(cfg)
}

// Uninstall stops the service and removes its definition.
func Uninstall() error {
	return uninstall()
}

// Start starts the system service.
func Start() error {
	return start()
}

// Stop stops the system service.
func Stop() error {
	return stop()
}

// DefinitionPath returns where the service definition is written.
func DefinitionPath() string {
	return definitionPath()
}

// generateUnit renders a systemd unit for cfg.
func generateUnit(cfg Config) string {
	quoted := make([]string, 0, len(cfg.Args)+2)
	for _, arg := range cfg.command() {
		quoted = append(quoted, systemdQuote(arg))
	}

	return fmt.Sprintf(`[Unit]
Description=swarm daemon
After=network.target

[Service]
Type=simple
ExecStart=%s
ExecReload=/bin/kill -HUP $MAINPID
KillSignal=SIGTERM
Restart=on-failure
RestartSec=5

[Install]
WantedBy=multi-user.target
`, strings.Join(quoted, " "))
}

func systemdQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\"'\\$%") {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "$", "$$")
	s = strings.ReplaceAll(s, "%", "%%")
	return `"` + s + `"`
}

// generatePlist renders a launchd property list for cfg.
func generatePlist(cfg Config) string {
	var args strings.Builder
	for _, arg := range cfg.command() {
		fmt.Fprintf(&args, "        <string>%s</string>\n", html.EscapeString(arg))
	}

	var logs string
	if cfg.LogFile != "" {
		path := html.EscapeString(cfg.LogFile)
		logs = fmt.Sprintf(`    <key>StandardOutPath</key>
    <string>%s</string>
    <key>StandardErrorPath</key>
    <string>%s</string>
`, path, path)
	}

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>%s</string>
    <key>ProgramArguments</key>
    <array>
%s    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <dict>
        <key>SuccessfulExit</key>
        <false/>
    </dict>
%s</dict>
</plist>
`, Label, args.String(), logs)
}
