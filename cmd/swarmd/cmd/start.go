package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/swarmcom/swarm/internal/daemon"
	"github.com/swarmcom/swarm/internal/paths"
)

var startCmd = &cobra.Command{
	Use:   "start [run options]",
	Short: "Start the daemon in the background",
	Long: `Start the swarm daemon in the background.

Any arguments are passed on to 'swarmd run'. The process id is recorded
in the PID file so that 'swarmd stop', 'swarmd reload' and 'swarmd status'
can find it.`,
	DisableFlagParsing: true,
	Run: func(cmd *cobra.Command, args []string) {
		pid, err := startDaemon(args)
		if err != nil {
			if errors.Is(err, daemon.ErrAlreadyRunning) {
				fmt.Println("swarmd is already running")
				os.Exit(1)
			}
			fmt.Fprintf(os.Stderr, "failed to start daemon: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("swarmd started (pid %d)\n", pid)
	},
}

// startDaemon spawns 'swarmd run' with args in the background.
func startDaemon(args []string) (int, error) {
	if err := paths.EnsureDirectories(); err != nil {
		return 0, fmt.Errorf("failed to create directories: %w", err)
	}

	exe, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("failed to get executable path: %w", err)
	}
	return daemon.NewPIDFile(paths.PIDFile()).Spawn(exe, append([]string{"run"}, args...)...)
}

func init() {
	rootCmd.AddCommand(startCmd)
}
