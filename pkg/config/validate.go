package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "reports.backend").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateDictionaries(&cfg.Dictionaries)...)
	errs = append(errs, validateValidation(&cfg.Validation)...)
	errs = append(errs, validateReports(&cfg.Reports)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateDictionaries(cfg *DictionariesConfig) []FieldError {
	var errs []FieldError

	if cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "dictionaries.path",
			Message: "path is required",
		})
	}
	if cfg.DebounceInterval < 0 {
		errs = append(errs, FieldError{
			Field:   "dictionaries.debounce_interval",
			Message: "debounce interval must be non-negative",
		})
	}
	for i, ext := range cfg.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("dictionaries.extensions[%d]", i),
				Message: fmt.Sprintf("invalid extension %q: must start with '.'", ext),
			})
		}
	}

	return errs
}

func validateValidation(cfg *ValidationConfig) []FieldError {
	var errs []FieldError

	if cfg.Workers < 0 {
		errs = append(errs, FieldError{
			Field:   "validation.workers",
			Message: "workers must be non-negative",
		})
	}
	if cfg.Regex.MaxPatternLength < 1 {
		errs = append(errs, FieldError{
			Field:   "validation.regex.max_pattern_length",
			Message: "max pattern length must be positive",
		})
	}
	if cfg.Regex.MaxProgramSize < 1 {
		errs = append(errs, FieldError{
			Field:   "validation.regex.max_program_size",
			Message: "max program size must be positive",
		})
	}
	if cfg.Regex.CacheSize < 1 {
		errs = append(errs, FieldError{
			Field:   "validation.regex.cache_size",
			Message: "cache size must be positive",
		})
	}

	return errs
}

func validateReports(cfg *ReportsConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	switch cfg.Backend {
	case "memory":
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "reports.sqlite.path",
				Message: "SQLite path is required when backend is 'sqlite'",
			})
		}
		if cfg.SQLite.Driver != "sqlite" && cfg.SQLite.Driver != "sqlite3" {
			errs = append(errs, FieldError{
				Field:   "reports.sqlite.driver",
				Message: fmt.Sprintf("invalid driver %q: must be 'sqlite' or 'sqlite3'", cfg.SQLite.Driver),
			})
		}
		if cfg.SQLite.BusyTimeout < 0 {
			errs = append(errs, FieldError{
				Field:   "reports.sqlite.busy_timeout",
				Message: "busy timeout must be non-negative",
			})
		}
		if cfg.SQLite.MaxOpenConns < 1 {
			errs = append(errs, FieldError{
				Field:   "reports.sqlite.max_open_conns",
				Message: "max open connections must be positive",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "reports.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'memory' or 'sqlite'", cfg.Backend),
		})
	}

	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{
			Field:   "reports.retention.days",
			Message: "retention days must be non-negative",
		})
	}
	if cfg.Retention.Days > 3650 {
		errs = append(errs, FieldError{
			Field:   "reports.retention.days",
			Message: "retention days exceeds reasonable limit (3650 days / 10 years)",
		})
	}
	if cfg.Retention.MaxReports < 0 {
		errs = append(errs, FieldError{
			Field:   "reports.retention.max_reports",
			Message: "max reports must be non-negative",
		})
	}
	if _, err := cron.ParseStandard(cfg.Retention.Schedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "reports.retention.schedule",
			Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.Retention.Schedule, err),
		})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "console": true}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q: must be 'json', 'text', or 'console'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Namespace == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.namespace",
			Message: "namespace is required when metrics are enabled",
		})
	}

	return errs
}
