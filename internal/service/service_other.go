//go:build !linux && !darwin

package service

func definitionPath() string   { return "" }
func isInstalled() bool        { return false }
func install(cfg Config) error { return ErrUnsupported }
func uninstall() error         { return ErrUnsupported }
func start() error             { return ErrUnsupported }
func stop() error              { return ErrUnsupported }
