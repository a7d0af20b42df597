package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/stackforge/typesync/cache"
	"github.com/stackforge/typesync/config"
	"github.com/stackforge/typesync/logger"
)

// CacheCmd groups the generation cache subcommands.
var CacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the generation cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(store *cache.Store, cfg *config.Config) error {
			m := store.Metrics()

			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				data, err := json.MarshalIndent(m, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			total := m.Hits + m.Misses
			fmt.Printf("Cache directory: %s\n", cfg.Cache.Dir)
			fmt.Printf("Entries:         %d\n", m.EntryCount)
			fmt.Printf("Size:            %d / %d bytes\n", m.TotalBytes, cfg.Cache.MaxSizeBytes)
			fmt.Printf("Hits:            %d\n", m.Hits)
			fmt.Printf("Misses:          %d\n", m.Misses)
			fmt.Printf("Evictions:       %d\n", m.Evictions)
			if total > 0 {
				fmt.Printf("Hit rate:        %.1f%%\n", float64(m.Hits)/float64(total)*100)
			}
			return nil
		})
	},
}

var cacheCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove entries older than the configured TTL",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(store *cache.Store, cfg *config.Config) error {
			removed, err := store.Cleanup()
			if err != nil {
				return err
			}
			fmt.Printf("✓ Removed %d expired entries\n", removed)
			return nil
		})
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(store *cache.Store, cfg *config.Config) error {
			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Printf("✓ Cache cleared: %s\n", cfg.Cache.Dir)
			return nil
		})
	},
}

func init() {
	cacheStatsCmd.Flags().BoolP("json", "j", false, "Output metrics as JSON")

	CacheCmd.AddCommand(cacheStatsCmd)
	CacheCmd.AddCommand(cacheCleanupCmd)
	CacheCmd.AddCommand(cacheClearCmd)
}

// withStore opens the cache from config, runs fn, and closes it. The
// background cleanup timer stays off for one-shot commands.
func withStore(cmd *cobra.Command, fn func(*cache.Store, *config.Config) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := cache.Open(cache.Options{
		Dir:          cfg.Cache.Dir,
		MaxSizeBytes: cfg.Cache.MaxSizeBytes,
		TTL:          time.Duration(cfg.Cache.TTLHours) * time.Hour,
		Compression:  cfg.Cache.Compression,
	}, logger.Logger)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(store, cfg)
}
