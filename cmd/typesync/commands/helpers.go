package commands

import (
	"github.com/spf13/cobra"

	"github.com/stackforge/typesync/config"
	"github.com/stackforge/typesync/extract"
	"github.com/stackforge/typesync/logger"
	"github.com/stackforge/typesync/pipeline"
)

// loadConfig resolves configuration, honoring the global --config flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// newOrchestrator builds the pipeline over an HTTP extraction source. The
// caller must Close it.
func newOrchestrator(cfg *config.Config) (*pipeline.Orchestrator, error) {
	source := extract.NewHTTPSource(cfg.Backend.BaseURL, cfg.Backend.SchemaPath, logger.Logger)
	return pipeline.New(cfg, source, logger.Logger)
}
