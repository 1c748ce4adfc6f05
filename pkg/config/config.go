package config

import "time"

// Config is the root configuration structure for Lectern.
// It contains the sections for dictionary loading, validation, report
// storage and telemetry.
type Config struct {
	// Dictionaries controls where dictionary documents are loaded from and
	// whether the directory is watched for changes.
	Dictionaries DictionariesConfig `yaml:"dictionaries"`

	// Validation contains settings for record validation and regular
	// expression handling.
	Validation ValidationConfig `yaml:"validation"`

	// Reports contains configuration for validation report storage and
	// retention.
	Reports ReportsConfig `yaml:"reports"`

	// Telemetry contains configuration for logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// DictionariesConfig contains configuration for the dictionary manager.
type DictionariesConfig struct {
	// Path is the directory (or single file) holding dictionary documents.
	// Default: "./dictionaries"
	Path string `yaml:"path"`

	// Watch enables reloading dictionaries when files under Path change.
	// Default: false
	Watch bool `yaml:"watch"`

	// DebounceInterval is how long the watcher waits after the last file
	// event before reloading.
	// Default: 100ms
	DebounceInterval time.Duration `yaml:"debounce_interval"`

	// Extensions lists the file extensions treated as dictionary documents.
	// Default: [".json", ".yaml", ".yml"]
	Extensions []string `yaml:"extensions"`
}

// ValidationConfig contains configuration for record validation.
type ValidationConfig struct {
	// Workers is the number of goroutines validating records of one schema.
	// Zero uses one worker per CPU.
	// Default: 0
	Workers int `yaml:"workers"`

	// Regex bounds the regular expressions taken from dictionaries.
	Regex RegexConfig `yaml:"regex"`
}

// RegexConfig contains limits for dictionary regular expressions.
type RegexConfig struct {
	// MaxPatternLength is the longest pattern accepted, in bytes.
	// Default: 1024
	MaxPatternLength int `yaml:"max_pattern_length"`

	// MaxProgramSize is the largest compiled program accepted, in
	// instructions.
	// Default: 10000
	MaxProgramSize int `yaml:"max_program_size"`

	// CacheSize is the number of compiled patterns kept in memory.
	// Default: 512
	CacheSize int `yaml:"cache_size"`
}

// ReportsConfig contains configuration for validation reports.
type ReportsConfig struct {
	// Enabled controls whether validation reports are persisted.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Backend selects the storage backend: "memory" or "sqlite".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains settings for the SQLite backend.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Retention controls how long reports are kept.
	Retention RetentionConfig `yaml:"retention"`
}

// SQLiteConfig contains configuration for the SQLite report store.
type SQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/reports.db"
	Path string `yaml:"path"`

	// Driver is the database/sql driver name: "sqlite" (pure Go) or
	// "sqlite3" (cgo).
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// WALMode enables write-ahead logging.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is how long a connection waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// MaxOpenConns limits open database connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`
}

// RetentionConfig contains configuration for report pruning.
type RetentionConfig struct {
	// Days is the maximum report age in days.
	// Default: 30
	Days int `yaml:"days"`

	// MaxReports caps the number of stored reports. Zero means no cap.
	// Default: 0
	MaxReports int64 `yaml:"max_reports"`

	// Schedule is the cron expression for the pruning job.
	// Default: "0 3 * * *"
	Schedule string `yaml:"schedule"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains structured logging settings.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics settings.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains configuration for structured logging.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn" or "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format: "json", "text" or "console".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes the source file and line in log records.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactFields lists attribute keys whose values are replaced in logs,
	// for example donor identifiers.
	RedactFields []string `yaml:"redact_fields"`
}

// MetricsConfig contains configuration for Prometheus metrics.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace prefixes every metric name.
	// Default: "lectern"
	Namespace string `yaml:"namespace"`

	// Subsystem is an optional second prefix.
	Subsystem string `yaml:"subsystem"`

	// TextfilePath, when set, is where the CLI writes metrics in the node
	// exporter textfile format before exiting.
	TextfilePath string `yaml:"textfile_path"`
}
