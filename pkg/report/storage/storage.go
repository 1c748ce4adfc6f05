package storage

import (
	"fmt"
	"log/slog"

	"lectern-hq/lectern/pkg/config"
	"lectern-hq/lectern/pkg/report"
)

// New creates the backend selected by cfg.Backend.
func New(cfg *config.ReportsConfig, logger *slog.Logger) (report.Storage, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStorage(), nil
	case "sqlite":
		return NewSQLiteStorage(&SQLiteConfig{
			Path:         cfg.SQLite.Path,
			Driver:       cfg.SQLite.Driver,
			MaxOpenConns: cfg.SQLite.MaxOpenConns,
			WALMode:      cfg.SQLite.WALMode,
			BusyTimeout:  cfg.SQLite.BusyTimeout,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown report backend %q", cfg.Backend)
	}
}
