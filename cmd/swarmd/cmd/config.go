package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/swarmcom/swarm/internal/config"
	"github.com/swarmcom/swarm/internal/paths"
)

var configFiles []string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and create the swarmd configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the merged configuration",
	Long: `Print the configuration as the daemon would see it: built-in defaults,
the configuration file, any files given with -c, and SWARM_* environment
variables.`,
	Run: func(cmd *cobra.Command, args []string) {
		store, err := loadStore(configFiles)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
			os.Exit(1)
		}
		if err := writeSettings(os.Stdout, store); err != nil {
			fmt.Fprintf(os.Stderr, "failed to print configuration: %v\n", err)
			os.Exit(1)
		}
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the configuration file with default values",
	Long:  `Write the default configuration to the configuration file unless it already exists.`,
	Run: func(cmd *cobra.Command, args []string) {
		path := paths.ConfigFile()
		if err := config.WriteDefaultFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Println(path)
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the file locations swarmd uses",
	Run: func(cmd *cobra.Command, args []string) {
		p := paths.Default()
		fmt.Printf("config:  %s\n", p.ConfigFile)
		fmt.Printf("pid:     %s\n", p.PIDFile)
		fmt.Printf("log:     %s\n", p.LogFile)
	},
}

// loadStore builds a store the way the daemon does: defaults, then the
// configuration file if present, then files.
func loadStore(files []string) (*config.Store, error) {
	store := config.NewStore()
	config.ApplyDefaults(store)

	if _, err := os.Stat(paths.ConfigFile()); err == nil {
		if err := store.LoadFile(paths.ConfigFile()); err != nil {
			return nil, err
		}
	}
	for _, f := range files {
		if err := store.LoadFile(f); err != nil {
			return nil, err
		}
	}
	return store, nil
}

func writeSettings(w io.Writer, store *config.Store) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(store.AllSettings()); err != nil {
		return err
	}
	return enc.Close()
}

func init() {
	configShowCmd.Flags().StringSliceVarP(&configFiles, "config", "c", nil, "Additional configuration file (repeatable)")
	configCmd.AddCommand(configShowCmd, configInitCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}
