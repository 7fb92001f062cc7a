package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/swarmcom/swarm/internal/daemon"
	"github.com/swarmcom/swarm/internal/paths"
)

const stopPollInterval = 100 * time.Millisecond

var stopTimeout time.Duration

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the daemon",
	Long: `Stop the running swarm daemon gracefully.

A terminate request is sent and the command waits until the daemon has
removed its PID file.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := stopDaemon(daemon.NewPIDFile(paths.PIDFile()), stopTimeout); err != nil {
			if errors.Is(err, daemon.ErrNotRunning) {
				fmt.Println("swarmd is not running")
				os.Exit(1)
			}
			fmt.Fprintf(os.Stderr, "failed to stop daemon: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("swarmd stopped")
	},
}

// stopDaemon sends a terminate request and waits up to timeout for the
// process to go away.
func stopDaemon(p *daemon.PIDFile, timeout time.Duration) error {
	if err := p.Signal(daemon.EventTerminate); err != nil {
		return err
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !p.IsRunning() {
			return nil
		}
		time.Sleep(stopPollInterval)
	}
	return fmt.Errorf("daemon did not stop within %s", timeout)
}

func init() {
	stopCmd.Flags().DurationVar(&stopTimeout, "timeout", 10*time.Second, "How long to wait for the daemon to exit")
	rootCmd.AddCommand(stopCmd)
}
