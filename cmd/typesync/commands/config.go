package commands

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/stackforge/typesync/config"
)

// ConfigCmd groups the configuration subcommands.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage typesync configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter typesync.toml in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.WriteStarter(config.ConfigFileName); err != nil {
			return err
		}
		fmt.Printf("✓ Wrote %s\n", config.ConfigFileName)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  `Print the fully merged configuration: defaults, user config, project config, and TYPESYNC_* environment variables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		data, err := toml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

func init() {
	ConfigCmd.AddCommand(configInitCmd)
	ConfigCmd.AddCommand(configShowCmd)
}
