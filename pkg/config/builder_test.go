package config

import "time"

// ConfigBuilder provides a fluent API for building Config instances in tests.
// It starts with default values and allows selective overrides.
type ConfigBuilder struct {
	cfg *Config
}

// NewTestConfig creates a ConfigBuilder holding a valid default configuration
// that keeps reports in memory.
func NewTestConfig() *ConfigBuilder {
	cfg := DefaultConfig()
	cfg.Reports.Backend = "memory"
	return &ConfigBuilder{cfg: cfg}
}

// Build returns the built Config instance.
func (b *ConfigBuilder) Build() *Config {
	return b.cfg
}

func (b *ConfigBuilder) WithDictionariesPath(path string) *ConfigBuilder {
	b.cfg.Dictionaries.Path = path
	return b
}

func (b *ConfigBuilder) WithWatch(debounce time.Duration) *ConfigBuilder {
	b.cfg.Dictionaries.Watch = true
	b.cfg.Dictionaries.DebounceInterval = debounce
	return b
}

func (b *ConfigBuilder) WithWorkers(n int) *ConfigBuilder {
	b.cfg.Validation.Workers = n
	return b
}

func (b *ConfigBuilder) WithSQLite(path, driver string) *ConfigBuilder {
	b.cfg.Reports.Backend = "sqlite"
	b.cfg.Reports.SQLite.Path = path
	b.cfg.Reports.SQLite.Driver = driver
	return b
}

func (b *ConfigBuilder) WithLoggingLevel(level string) *ConfigBuilder {
	b.cfg.Telemetry.Logging.Level = level
	return b
}

func (b *ConfigBuilder) WithMetricsEnabled(enabled bool) *ConfigBuilder {
	b.cfg.Telemetry.Metrics.Enabled = enabled
	return b
}
