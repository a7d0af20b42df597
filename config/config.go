// Package config manages typesync configuration.
//
// Configuration is merged from TOML files and environment variables using
// Viper. Precedence (lowest to highest): defaults < user config
// (~/.typesync/config.toml) < project config (typesync.toml found by walking
// up from the working directory) < TYPESYNC_* environment variables.
package config

// Config is the root configuration for the sync pipeline.
type Config struct {
	Backend    BackendConfig    `mapstructure:"backend" toml:"backend"`
	Output     OutputConfig     `mapstructure:"output" toml:"output"`
	Cache      CacheConfig      `mapstructure:"cache" toml:"cache"`
	Generators GeneratorsConfig `mapstructure:"generators" toml:"generators"`
	Watch      WatchConfig      `mapstructure:"watch" toml:"watch"`
	Monitoring MonitoringConfig `mapstructure:"monitoring" toml:"monitoring"`
}

// BackendConfig describes the backend whose schema is extracted.
type BackendConfig struct {
	// BaseURL is the root URL of the running backend, e.g. "http://localhost:8000"
	BaseURL string `mapstructure:"base_url" toml:"base_url"`
	// SchemaPath is the path serving the OpenAPI document
	SchemaPath string `mapstructure:"schema_path" toml:"schema_path"`
	// HealthCheckPath is probed before fetching the schema; empty disables the probe
	HealthCheckPath string `mapstructure:"health_check_path" toml:"health_check_path"`
	// TimeoutSeconds bounds a single extraction attempt
	TimeoutSeconds int `mapstructure:"timeout_seconds" toml:"timeout_seconds"`
	// Retries is the number of additional attempts after the first failure
	Retries int `mapstructure:"retries" toml:"retries"`
	// SnapshotPath is where the last successfully extracted schema is persisted
	SnapshotPath string `mapstructure:"snapshot_path" toml:"snapshot_path"`
}

// OutputConfig describes where generated artifacts land.
type OutputConfig struct {
	Dir string `mapstructure:"dir" toml:"dir"`
}

// CacheConfig controls the generation cache.
type CacheConfig struct {
	Dir string `mapstructure:"dir" toml:"dir"`
	// MaxSizeBytes bounds the total tracked entry size; eviction trims to 80%
	MaxSizeBytes int64 `mapstructure:"max_size_bytes" toml:"max_size_bytes"`
	// TTLHours expires entries independent of size pressure
	TTLHours int `mapstructure:"ttl_hours" toml:"ttl_hours"`
	// Compression gzips entry files
	Compression bool `mapstructure:"compression" toml:"compression"`
	// CleanupIntervalMinutes drives the background TTL sweep; 0 disables it
	CleanupIntervalMinutes int `mapstructure:"cleanup_interval_minutes" toml:"cleanup_interval_minutes"`
}

// GeneratorsConfig gates generator categories and bounds their concurrency.
type GeneratorsConfig struct {
	Types  bool `mapstructure:"types" toml:"types"`
	Client bool `mapstructure:"client" toml:"client"`
	Hooks  bool `mapstructure:"hooks" toml:"hooks"`
	// Concurrency bounds how many generators of one group run at once
	Concurrency int `mapstructure:"concurrency" toml:"concurrency"`
	// Incremental enables cache-hit skipping; disabling forces regeneration
	Incremental bool `mapstructure:"incremental" toml:"incremental"`
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	// Globs select the backend source files that trigger a sync cycle
	Globs []string `mapstructure:"globs" toml:"globs"`
	// DebounceMs collapses bursts of file events into one cycle
	DebounceMs int `mapstructure:"debounce_ms" toml:"debounce_ms"`
	// TriggerFile is touched after a successful cycle for dev-server reload
	TriggerFile string `mapstructure:"trigger_file" toml:"trigger_file"`
	// MaxCyclesPerMinute rate-limits watch-triggered cycles
	MaxCyclesPerMinute int `mapstructure:"max_cycles_per_minute" toml:"max_cycles_per_minute"`
}

// GeneratorEnabled reports whether a generator category is switched on.
// IDs outside the built-in categories are always enabled.
func (c *Config) GeneratorEnabled(id string) bool {
	switch id {
	case "types":
		return c.Generators.Types
	case "client":
		return c.Generators.Client
	case "hooks":
		return c.Generators.Hooks
	default:
		return true
	}
}

// MonitoringConfig controls per-cycle performance reporting.
type MonitoringConfig struct {
	// Enabled adds a phase timing breakdown to sync results
	Enabled bool `mapstructure:"enabled" toml:"enabled"`
}
