package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/swarmcom/swarm/internal/config"
	"github.com/swarmcom/swarm/internal/daemon"
	"github.com/swarmcom/swarm/internal/paths"
)

var statusJSONOutput bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	Long: `Display whether the swarm daemon is running, its process id, and the
files it uses.`,
	Run: func(cmd *cobra.Command, args []string) {
		status := getStatus()

		var err error
		if statusJSONOutput {
			err = outputStatusJSON(os.Stdout, status)
		} else {
			err = outputStatusText(os.Stdout, status)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to print status: %v\n", err)
			os.Exit(1)
		}
	},
}

// Status describes the daemon as seen from outside.
type Status struct {
	Running    bool   `json:"running"`
	PID        int    `json:"pid,omitempty"`
	PIDFile    string `json:"pid_file"`
	ConfigFile string `json:"config_file"`
	LogFile    string `json:"log_file"`
	LogLevel   string `json:"log_level"`
	Metrics    string `json:"metrics,omitempty"`
}

func getStatus() Status {
	pidFile := daemon.NewPIDFile(paths.PIDFile())

	status := Status{
		Running:    pidFile.IsRunning(),
		PIDFile:    pidFile.Path(),
		ConfigFile: paths.ConfigFile(),
	}
	if status.Running {
		status.PID, _ = pidFile.Read()
	}

	cfg := config.Default()
	if store, err := loadStore(nil); err == nil {
		if loaded, err := config.Load(store); err == nil {
			cfg = loaded
		}
	}
	status.LogFile = cfg.Logging.File
	status.LogLevel = cfg.Logging.Level
	status.Metrics = cfg.Metrics.Listen
	return status
}

// shortenPath replaces the home directory prefix with ~.
func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + strings.TrimPrefix(path, home)
	}
	return path
}

func outputStatusText(w io.Writer, status Status) error {
	if status.Running {
		fmt.Fprintf(w, "swarmd is running (pid %d)\n", status.PID)
	} else {
		fmt.Fprintln(w, "swarmd is not running")
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  PID file:\t%s\n", shortenPath(status.PIDFile))
	fmt.Fprintf(tw, "  Config:\t%s\n", shortenPath(status.ConfigFile))
	fmt.Fprintf(tw, "  Log file:\t%s\n", shortenPath(status.LogFile))
	fmt.Fprintf(tw, "  Log level:\t%s\n", status.LogLevel)
	if status.Metrics != "" {
		fmt.Fprintf(tw, "  Metrics:\t%s\n", status.Metrics)
	}
	return tw.Flush()
}

func outputStatusJSON(w io.Writer, status Status) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(status)
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSONOutput, "json", false, "Output in JSON format")
	rootCmd.AddCommand(statusCmd)
}
