package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stackforge/typesync/cmd/typesync/commands"
	"github.com/stackforge/typesync/logger"
)

var rootCmd = &cobra.Command{
	Use:   "typesync",
	Short: "typesync - Keep frontend types in sync with the backend API",
	Long: `typesync - Backend-to-frontend type synchronization.

typesync extracts the OpenAPI schema from a running backend, fingerprints
it, and regenerates TypeScript types, an API client, and React Query hooks
only when the schema actually changed.

Available commands:
  sync       - Run one synchronization cycle
  watch      - Watch backend sources and sync on change
  cache      - Inspect and manage the generation cache
  diff       - Compare two generated output directories
  generators - List registered generators
  config     - Manage typesync configuration

Examples:
  typesync sync                  # One cycle against the configured backend
  typesync sync --force          # Regenerate even on a cache hit
  typesync watch                 # Continuous sync during development
  typesync cache stats           # Show cache metrics
  typesync config init           # Write a starter typesync.toml`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json-logs")
		if err := logger.Initialize(jsonOutput); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit logs as JSON")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default: search for typesync.toml)")

	rootCmd.AddCommand(commands.SyncCmd)
	rootCmd.AddCommand(commands.WatchCmd)
	rootCmd.AddCommand(commands.CacheCmd)
	rootCmd.AddCommand(commands.DiffCmd)
	rootCmd.AddCommand(commands.GeneratorsCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Cleanup()
		os.Exit(1)
	}
}
