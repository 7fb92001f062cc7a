package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/swarmcom/swarm/internal/daemon"
	"github.com/swarmcom/swarm/internal/paths"
)

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reload daemon configuration",
	Long: `Reload the daemon configuration without restarting.

This sends SIGHUP to the daemon, which re-reads its configuration files
and applies the new log priority and heartbeat interval. Every request
results in one reload.`,
	Run: func(cmd *cobra.Command, args []string) {
		err := daemon.NewPIDFile(paths.PIDFile()).Signal(daemon.EventReload)
		switch {
		case err == nil:
			fmt.Println("reload requested")
		case errors.Is(err, daemon.ErrNotRunning):
			fmt.Println("swarmd is not running")
			os.Exit(1)
		default:
			fmt.Fprintf(os.Stderr, "failed to reload daemon: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(reloadCmd)
}
