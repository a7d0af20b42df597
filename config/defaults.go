package config

import (
	"github.com/spf13/viper"
)

// Default cache budget: 100 MB, trimmed to 80% on eviction.
const DefaultCacheMaxSizeBytes = 100 * 1024 * 1024

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Backend defaults
	v.SetDefault("backend.base_url", "http://localhost:8000")
	v.SetDefault("backend.schema_path", "/openapi.json")
	v.SetDefault("backend.health_check_path", "/health")
	v.SetDefault("backend.timeout_seconds", 30)
	v.SetDefault("backend.retries", 2)
	v.SetDefault("backend.snapshot_path", ".typesync/schema.json")

	// Output defaults
	v.SetDefault("output.dir", "src/generated")

	// Cache defaults
	v.SetDefault("cache.dir", ".typesync/cache")
	v.SetDefault("cache.max_size_bytes", DefaultCacheMaxSizeBytes)
	v.SetDefault("cache.ttl_hours", 24*7) // one week
	v.SetDefault("cache.compression", true)
	v.SetDefault("cache.cleanup_interval_minutes", 60)

	// Generator defaults: everything on, modest parallelism
	v.SetDefault("generators.types", true)
	v.SetDefault("generators.client", true)
	v.SetDefault("generators.hooks", true)
	v.SetDefault("generators.concurrency", 4)
	v.SetDefault("generators.incremental", true)

	// Watch defaults
	v.SetDefault("watch.globs", []string{
		"apps/api/src/**/*.py",
		"apps/api/main.py",
	})
	v.SetDefault("watch.debounce_ms", 300)
	v.SetDefault("watch.trigger_file", ".typesync/reload-trigger")
	v.SetDefault("watch.max_cycles_per_minute", 30)

	// Monitoring defaults
	v.SetDefault("monitoring.enabled", false)
}
