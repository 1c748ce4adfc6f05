// Package config provides configuration management for Lectern.
//
// Configuration is read from a YAML file, completed with defaults,
// overridden from the environment and validated.
//
// # Configuration Loading
//
//	cfg, err := config.LoadConfig("lectern.yaml")
//	cfg, err := config.LoadConfigWithEnvOverrides("lectern.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention LECTERN_SECTION_FIELD:
//
//   - LECTERN_DICTIONARIES_PATH overrides dictionaries.path
//   - LECTERN_REPORTS_SQLITE_DRIVER overrides reports.sqlite.driver
//   - LECTERN_TELEMETRY_LOGGING_REDACT_FIELDS overrides telemetry.logging.redact_fields (comma-separated)
//
// # Configuration Precedence
//
//  1. Default values (defaults.go)
//  2. Values from the YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Validation
//
// All problems are collected into a ValidationError:
//
//	configuration validation failed with 2 errors:
//	  - reports.backend: invalid backend "postgres": must be 'memory' or 'sqlite'
//	  - telemetry.logging.level: invalid log level "trace": must be 'debug', 'info', 'warn', or 'error'
//
// # Example Configuration
//
//	dictionaries:
//	  path: "./dictionaries"
//	  watch: true
//
//	validation:
//	  workers: 4
//
//	reports:
//	  backend: "sqlite"
//	  sqlite:
//	    path: "data/reports.db"
//	  retention:
//	    days: 30
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//	    redact_fields: ["donor_id"]
package config
