package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/swarmcom/swarm/internal/privilege"
	"github.com/swarmcom/swarm/internal/service"
)

var serviceLogFile string

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage the swarmd system service",
	Long: `Install swarmd as a systemd unit (Linux) or launchd daemon (macOS).

The service manager runs 'swarmd run', reloads it with SIGHUP and stops it
with SIGTERM.`,
}

var serviceInstallCmd = &cobra.Command{
	Use:   "install [-- run options]",
	Short: "Install and enable the system service",
	Run: func(cmd *cobra.Command, args []string) {
		requireRoot("installing the system service")

		cfg := service.Config{Args: args, LogFile: serviceLogFile}
		if err := service.Install(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "failed to install service: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("installed %s\n", service.DefinitionPath())
	},
}

var serviceUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Stop and remove the system service",
	Run: func(cmd *cobra.Command, args []string) {
		requireRoot("removing the system service")

		if !service.IsInstalled() {
			fmt.Println("service is not installed")
			return
		}
		if err := service.Uninstall(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to uninstall service: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("service removed")
	},
}

var serviceStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the system service",
	Run: func(cmd *cobra.Command, args []string) {
		requireRoot("starting the system service")
		if err := service.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to start service: %v\n", err)
			os.Exit(1)
		}
	},
}

var serviceStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the system service",
	Run: func(cmd *cobra.Command, args []string) {
		requireRoot("stopping the system service")
		if err := service.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to stop service: %v\n", err)
			os.Exit(1)
		}
	},
}

func requireRoot(reason string) {
	if err := privilege.RequireRoot(reason); err != nil {
		fmt.Fprintf(os.Stderr, "failed to elevate privileges: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	serviceInstallCmd.Flags().StringVar(&serviceLogFile, "stdout-log", "", "Capture daemon stdout/stderr in this file (launchd only)")
	serviceCmd.AddCommand(serviceInstallCmd, serviceUninstallCmd, serviceStartCmd, serviceStopCmd)
	rootCmd.AddCommand(serviceCmd)
}
