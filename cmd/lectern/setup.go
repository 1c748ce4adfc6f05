package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"lectern-hq/lectern/pkg/cli"
	"lectern-hq/lectern/pkg/config"
	"lectern-hq/lectern/pkg/engine"
	"lectern-hq/lectern/pkg/report"
	"lectern-hq/lectern/pkg/report/storage"
	"lectern-hq/lectern/pkg/telemetry/logging"
	"lectern-hq/lectern/pkg/telemetry/metrics"
)

// runtimeDeps holds what every command builds from the configuration.
type runtimeDeps struct {
	config  *config.Config
	logger  *slog.Logger
	metrics *metrics.Collector
}

func setup() (*runtimeDeps, error) {
	if err := config.Initialize(cfgFile); err != nil {
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()
	if cfg == nil {
		return nil, cli.NewConfigError("", "configuration is not loaded")
	}

	logCfg := logging.FromConfig(cfg.Telemetry.Logging)
	if verbose {
		logCfg.Level = "debug"
	}
	l, err := logging.New(logCfg)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	logger := l.Slog()
	slog.SetDefault(logger)

	deps := &runtimeDeps{config: cfg, logger: logger}
	if cfg.Telemetry.Metrics.Enabled {
		deps.metrics = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	}
	return deps, nil
}

func (d *runtimeDeps) openStore() (report.Storage, error) {
	store, err := storage.New(&d.config.Reports, d.logger)
	if err != nil {
		return nil, cli.NewConfigError("reports", err.Error())
	}
	return store, nil
}

func (d *runtimeDeps) newEngine(opts engine.Options) (*engine.Engine, error) {
	opts.Metrics = d.metrics
	opts.Logger = d.logger
	return engine.New(d.config, opts)
}

// flushMetrics writes the textfile export when one is configured.
func (d *runtimeDeps) flushMetrics() {
	path := d.config.Telemetry.Metrics.TextfilePath
	if d.metrics == nil || path == "" {
		return
	}
	if err := d.metrics.WriteTextfile(path); err != nil {
		d.logger.Warn("failed to write metrics textfile", "path", path, "error", err)
	}
}

// openOutput returns stdout for an empty path and a created file otherwise.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
