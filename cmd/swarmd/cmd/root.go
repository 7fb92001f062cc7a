// Package cmd provides the CLI commands for swarmd.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/swarmcom/swarm/internal/logging"
)

// Build-time variables set via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "swarmd",
	Short: "Daemon life-cycle harness",
	Long: `swarmd hosts a long-running worker and manages its life cycle:

  - Command-line options with per-occurrence callbacks
  - Layered configuration with reload on SIGHUP or file change
  - A log file that heals itself when deleted or moved, with daily rotation
  - PID file based start, stop, reload and status control

Run 'swarmd run' in the foreground under a service manager, or
'swarmd start' to launch it in the background.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	logging.SetupText(logging.LevelWarn, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("swarmd version {{.Version}}\ncommit: %s\nbuilt: %s\n", Commit, BuildDate))
}
