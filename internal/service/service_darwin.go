//go:build darwin

package service

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const plistDir = "/Library/LaunchDaemons"

func definitionPath() string {
	return filepath.Join(plistDir, Label+".plist")
}

func isInstalled() bool {
	_, err := os.Stat(definitionPath())
	return err == nil
}

func launchctl(args ...string) error {
	output, err := exec.Command("launchctl", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("launchctl %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return nil
}

func install(cfg Config) error {
	if err := os.MkdirAll(plistDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", plistDir, err)
	}
	if err := os.WriteFile(definitionPath(), []byte(generatePlist(cfg)), 0644); err != nil {
		return fmt.Errorf("failed to write plist: %w", err)
	}
	return nil
}

func uninstall() error {
	_ = stop()
	if err := os.Remove(definitionPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove plist: %w", err)
	}
	return nil
}

func start() error {
	return launchctl("load", definitionPath())
}

func stop() error {
	return launchctl("unload", definitionPath())
}
