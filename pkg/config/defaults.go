package config

import "time"

// Default values for configuration fields.
const (
	// Dictionary defaults
	DefaultDictionariesPath  = "./dictionaries"
	DefaultDictionariesWatch = false
	DefaultDebounceInterval  = 100 * time.Millisecond

	// Validation defaults
	DefaultValidationWorkers   = 0
	DefaultRegexMaxPatternLen  = 1024
	DefaultRegexMaxProgramSize = 10000
	DefaultRegexCacheSize      = 512

	// Report defaults
	DefaultReportsEnabled        = true
	DefaultReportsBackend        = "sqlite"
	DefaultReportsSQLitePath     = "data/reports.db"
	DefaultReportsSQLiteDriver   = "sqlite"
	DefaultReportsSQLiteWALMode  = true
	DefaultReportsSQLiteBusy     = 5 * time.Second
	DefaultReportsSQLiteMaxConns = 10
	DefaultRetentionDays         = 30
	DefaultRetentionMaxReports   = int64(0)
	DefaultRetentionSchedule     = "0 3 * * *"

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsEnabled   = true
	DefaultMetricsNamespace = "lectern"
)

// DefaultExtensions are the dictionary file extensions loaded when none are
// configured.
var DefaultExtensions = []string{".json", ".yaml", ".yml"}

// DefaultConfig returns a configuration holding every default value.
// Loading starts from it so that boolean settings absent from the file keep
// their defaults while explicit false values are honoured.
func DefaultConfig() *Config {
	cfg := &Config{
		Dictionaries: DictionariesConfig{Watch: DefaultDictionariesWatch},
		Reports: ReportsConfig{
			Enabled: DefaultReportsEnabled,
			SQLite:  SQLiteConfig{WALMode: DefaultReportsSQLiteWALMode},
		},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults sets defaults for fields that have zero values.
// Boolean fields are left alone; see DefaultConfig.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Dictionary defaults
	if cfg.Dictionaries.Path == "" {
		cfg.Dictionaries.Path = DefaultDictionariesPath
	}
	if cfg.Dictionaries.DebounceInterval == 0 {
		cfg.Dictionaries.DebounceInterval = DefaultDebounceInterval
	}
	if len(cfg.Dictionaries.Extensions) == 0 {
		cfg.Dictionaries.Extensions = append([]string(nil), DefaultExtensions...)
	}

	// Validation defaults
	if cfg.Validation.Regex.MaxPatternLength == 0 {
		cfg.Validation.Regex.MaxPatternLength = DefaultRegexMaxPatternLen
	}
	if cfg.Validation.Regex.MaxProgramSize == 0 {
		cfg.Validation.Regex.MaxProgramSize = DefaultRegexMaxProgramSize
	}
	if cfg.Validation.Regex.CacheSize == 0 {
		cfg.Validation.Regex.CacheSize = DefaultRegexCacheSize
	}

	// Report defaults
	if cfg.Reports.Backend == "" {
		cfg.Reports.Backend = DefaultReportsBackend
	}
	if cfg.Reports.SQLite.Path == "" {
		cfg.Reports.SQLite.Path = DefaultReportsSQLitePath
	}
	if cfg.Reports.SQLite.Driver == "" {
		cfg.Reports.SQLite.Driver = DefaultReportsSQLiteDriver
	}
	if cfg.Reports.SQLite.BusyTimeout == 0 {
		cfg.Reports.SQLite.BusyTimeout = DefaultReportsSQLiteBusy
	}
	if cfg.Reports.SQLite.MaxOpenConns == 0 {
		cfg.Reports.SQLite.MaxOpenConns = DefaultReportsSQLiteMaxConns
	}
	if cfg.Reports.Retention.Days == 0 {
		cfg.Reports.Retention.Days = DefaultRetentionDays
	}
	if cfg.Reports.Retention.Schedule == "" {
		cfg.Reports.Retention.Schedule = DefaultRetentionSchedule
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
}
