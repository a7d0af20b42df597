package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stackforge/typesync/logger"
)

// WatchCmd keeps artifacts in sync with backend source changes.
var WatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch backend sources and sync on change",
	Long: `Run an initial sync, then watch the configured source globs and
re-run the pipeline whenever backend files change. Changes are debounced,
and at most one cycle runs at a time. Stops on SIGINT/SIGTERM.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	orch, err := newOrchestrator(cfg)
	if err != nil {
		return err
	}
	defer orch.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := orch.Watch(ctx); err != nil {
		return err
	}
	logger.Infow("Watch mode stopped")
	return nil
}
