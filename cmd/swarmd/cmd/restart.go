package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/swarmcom/swarm/internal/daemon"
	"github.com/swarmcom/swarm/internal/paths"
)

var restartCmd = &cobra.Command{
	Use:   "restart [run options]",
	Short: "Restart the daemon",
	Long: `Stop the daemon if it is running and start it again in the background.

Any arguments are passed on to 'swarmd run'.`,
	DisableFlagParsing: true,
	Run: func(cmd *cobra.Command, args []string) {
		pidFile := daemon.NewPIDFile(paths.PIDFile())
		if pidFile.IsRunning() {
			if err := stopDaemon(pidFile, stopTimeout); err != nil && !errors.Is(err, daemon.ErrNotRunning) {
				fmt.Fprintf(os.Stderr, "failed to stop daemon: %v\n", err)
				os.Exit(1)
			}
		}

		pid, err := startDaemon(args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start daemon: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("swarmd restarted (pid %d)\n", pid)
	},
}

func init() {
	rootCmd.AddCommand(restartCmd)
}
