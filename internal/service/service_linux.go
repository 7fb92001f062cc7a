//go:build linux

package service

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const serviceDir = "/etc/systemd/system"

func definitionPath() string {
	return filepath.Join(serviceDir, Name+".service")
}

func isInstalled() bool {
	_, err := os.Stat(definitionPath())
	return err == nil
}

func systemctl(args ...string) error {
	output, err := exec.Command("systemctl", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("systemctl %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return nil
}

func install(cfg Config) error {
	if err := os.MkdirAll(serviceDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", serviceDir, err)
	}
	if err := os.WriteFile(definitionPath(), []byte(generateUnit(cfg)), 0644); err != nil {
		return fmt.Errorf("failed to write service file: %w", err)
	}

	if err := systemctl("daemon-reload"); err != nil {
		return err
	}
	return systemctl("enable", Name)
}

func uninstall() error {
	_ = stop()
	_ = systemctl("disable", Name)

	if err := os.Remove(definitionPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove service file: %w", err)
	}
	return systemctl("daemon-reload")
}

func start() error {
	return systemctl("start", Name)
}

func stop() error {
	return systemctl("stop", Name)
}
