package config

import (
	"fmt"
	"os"
	"time"

	"github.com/swarmcom/swarm/internal/logging"
	"github.com/swarmcom/swarm/internal/paths"
)

// Settings is the typed view of the keys swarmd itself consumes. Host
// applications read their own keys directly from the Store.
type Settings struct {
	Logging   LoggingSettings   `yaml:"logging"`
	Heartbeat HeartbeatSettings `yaml:"heartbeat"`
	Metrics   MetricsSettings   `yaml:"metrics"`
}

// LoggingSettings configures the default log sink.
type LoggingSettings struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	PurgeCount int    `yaml:"purge_count"`
}

// HeartbeatSettings configures the reference worker.
type HeartbeatSettings struct {
	Interval time.Duration `yaml:"interval"`
}

// MetricsSettings configures the Prometheus endpoint. An empty Listen
// disables it.
type MetricsSettings struct {
	Listen string `yaml:"listen"`
}

// Default returns Settings with the built-in default values.
func Default() *Settings {
	return &Settings{
		Logging: LoggingSettings{
			File:       paths.LogFile(),
			Level:      "information",
			Format:     logging.DefaultFormat,
			PurgeCount: 0,
		},
		Heartbeat: HeartbeatSettings{
			Interval: 30 * time.Second,
		},
		Metrics: MetricsSettings{
			Listen: "",
		},
	}
}

// ApplyDefaults registers the default values as the lowest store layer.
func ApplyDefaults(s *Store) {
	def := Default()
	s.SetDefault("logging.file", def.Logging.File)
	s.SetDefault("logging.level", def.Logging.Level)
	s.SetDefault("logging.format", def.Logging.Format)
	s.SetDefault("logging.purge_count", def.Logging.PurgeCount)
	s.SetDefault("heartbeat.interval", def.Heartbeat.Interval.String())
	s.SetDefault("metrics.listen", def.Metrics.Listen)
}

// Load reads Settings from the store, falling back to Default for absent keys.
func Load(s *Store) (*Settings, error) {
	def := Default()
	var (
		cfg Settings
		err error
	)

	if cfg.Logging.File, err = s.StringOr("logging.file", def.Logging.File); err != nil {
		return nil, err
	}
	if cfg.Logging.Level, err = s.StringOr("logging.level", def.Logging.Level); err != nil {
		return nil, err
	}
	if cfg.Logging.Format, err = s.RawStringOr("logging.format", def.Logging.Format); err != nil {
		return nil, err
	}
	if cfg.Logging.PurgeCount, err = s.IntOr("logging.purge_count", def.Logging.PurgeCount); err != nil {
		return nil, err
	}
	if cfg.Heartbeat.Interval, err = s.DurationOr("heartbeat.interval", def.Heartbeat.Interval); err != nil {
		return nil, err
	}
	if cfg.Metrics.Listen, err = s.StringOr("metrics.listen", def.Metrics.Listen); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings for errors.
func (c *Settings) Validate() error {
	if c.Logging.File == "" {
		return fmt.Errorf("logging.file is required")
	}
	if _, err := logging.ParsePriority(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if c.Logging.PurgeCount < 0 {
		return fmt.Errorf("logging.purge_count must not be negative")
	}
	if c.Heartbeat.Interval <= 0 {
		return fmt.Errorf("heartbeat.interval must be positive")
	}
	return nil
}

// WriteDefaultFile creates path with the default settings unless it
// already exists.
func WriteDefaultFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	s := NewStore(WithEnvPrefix(""))
	ApplyDefaults(s)
	return s.Save(path)
}
