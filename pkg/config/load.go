package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable override.
const EnvPrefix = "LECTERN_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use
// LoadConfigWithEnvOverrides for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention LECTERN_SECTION_FIELD (e.g., LECTERN_REPORTS_BACKEND).
// Environment variables always take precedence over file-based configuration.
//
// An empty path skips the file and starts from defaults.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = DefaultConfig()
	} else {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

func parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	// Clear slices so the file replaces defaults instead of merging with them.
	cfg.Dictionaries.Extensions = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Values that fail to parse are ignored.
func applyEnvOverrides(cfg *Config) {
	// Dictionary overrides
	envString("DICTIONARIES_PATH", &cfg.Dictionaries.Path)
	envBool("DICTIONARIES_WATCH", &cfg.Dictionaries.Watch)
	envDuration("DICTIONARIES_DEBOUNCE_INTERVAL", &cfg.Dictionaries.DebounceInterval)
	envList("DICTIONARIES_EXTENSIONS", &cfg.Dictionaries.Extensions)

	// Validation overrides
	envInt("VALIDATION_WORKERS", &cfg.Validation.Workers)
	envInt("VALIDATION_REGEX_MAX_PATTERN_LENGTH", &cfg.Validation.Regex.MaxPatternLength)
	envInt("VALIDATION_REGEX_MAX_PROGRAM_SIZE", &cfg.Validation.Regex.MaxProgramSize)
	envInt("VALIDATION_REGEX_CACHE_SIZE", &cfg.Validation.Regex.CacheSize)

	// Report overrides
	envBool("REPORTS_ENABLED", &cfg.Reports.Enabled)
	envString("REPORTS_BACKEND", &cfg.Reports.Backend)
	envString("REPORTS_SQLITE_PATH", &cfg.Reports.SQLite.Path)
	envString("REPORTS_SQLITE_DRIVER", &cfg.Reports.SQLite.Driver)
	envBool("REPORTS_SQLITE_WAL_MODE", &cfg.Reports.SQLite.WALMode)
	envDuration("REPORTS_SQLITE_BUSY_TIMEOUT", &cfg.Reports.SQLite.BusyTimeout)
	envInt("REPORTS_SQLITE_MAX_OPEN_CONNS", &cfg.Reports.SQLite.MaxOpenConns)
	envInt("REPORTS_RETENTION_DAYS", &cfg.Reports.Retention.Days)
	if val := os.Getenv(EnvPrefix + "REPORTS_RETENTION_MAX_REPORTS"); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Reports.Retention.MaxReports = n
		}
	}
	envString("REPORTS_RETENTION_SCHEDULE", &cfg.Reports.Retention.Schedule)

	// Telemetry overrides
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_LOGGING_ADD_SOURCE", &cfg.Telemetry.Logging.AddSource)
	envList("TELEMETRY_LOGGING_REDACT_FIELDS", &cfg.Telemetry.Logging.RedactFields)
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("TELEMETRY_METRICS_NAMESPACE", &cfg.Telemetry.Metrics.Namespace)
	envString("TELEMETRY_METRICS_SUBSYSTEM", &cfg.Telemetry.Metrics.Subsystem)
	envString("TELEMETRY_METRICS_TEXTFILE_PATH", &cfg.Telemetry.Metrics.TextfilePath)
}

func envString(key string, dst *string) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		*dst = val
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

// envList reads a comma-separated list.
func envList(key string, dst *[]string) {
	val := os.Getenv(EnvPrefix + key)
	if val == "" {
		return
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}
