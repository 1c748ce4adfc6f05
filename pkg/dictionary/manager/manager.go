package manager

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"lectern-hq/lectern/pkg/config"
	"lectern-hq/lectern/pkg/dictionary"
	"lectern-hq/lectern/pkg/telemetry/metrics"
)

// Manager owns the loaded dictionaries and keeps them current.
type Manager struct {
	config   *config.DictionariesConfig
	loader   *Loader
	registry *Registry
	metrics  *metrics.Collector
	logger   *slog.Logger

	mu          sync.Mutex
	lastLoadErr error
}

// New creates a manager. collector may be nil. A nil logger uses slog.Default().
func New(cfg *config.DictionariesConfig, collector *metrics.Collector, logger *slog.Logger) *Manager {
	if cfg == nil {
		defaults := config.DefaultConfig().Dictionaries
		cfg = &defaults
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		config:   cfg,
		loader:   NewLoader(nil, cfg.Extensions),
		registry: NewRegistry(),
		metrics:  collector,
		logger:   logger.With("component", "dictionary.manager"),
	}
}

// Load loads and resolves every dictionary under the configured path and
// replaces the registry's contents. On failure the registry is unchanged.
func (m *Manager) Load() error {
	start := time.Now()

	dicts, err := m.loader.Load(m.config.Path)
	if err == nil {
		err = m.registry.Replace(dicts)
	}

	m.mu.Lock()
	m.lastLoadErr = err
	m.mu.Unlock()

	if err != nil {
		m.metrics.RecordReload("error")
		m.logger.Error("failed to load dictionaries",
			"path", m.config.Path,
			"error", err,
			"kept", m.registry.Count(),
		)
		return fmt.Errorf("failed to load dictionaries from %s: %w", m.config.Path, err)
	}

	m.metrics.RecordReload("success")
	m.metrics.UpdateDictionariesLoaded(len(dicts))

	m.logger.Info("dictionaries loaded",
		"path", m.config.Path,
		"count", len(dicts),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Get returns the dictionary with the given name and version. An empty
// version selects the latest.
func (m *Manager) Get(name, version string) (*dictionary.Dictionary, error) {
	if version == "" {
		return m.Latest(name)
	}
	d, ok := m.registry.Get(name, version)
	if !ok {
		return nil, fmt.Errorf("%w: %s@%s", ErrDictionaryNotFound, name, version)
	}
	return d, nil
}

// Latest returns the highest version of the named dictionary.
func (m *Manager) Latest(name string) (*dictionary.Dictionary, error) {
	d, ok := m.registry.Latest(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDictionaryNotFound, name)
	}
	return d, nil
}

// List returns every loaded dictionary ordered by name and version.
func (m *Manager) List() []*dictionary.Dictionary {
	return m.registry.List()
}

// LastLoadTime returns when dictionaries were last loaded successfully.
func (m *Manager) LastLoadTime() time.Time {
	return m.registry.LoadTime()
}

// LastLoadError returns the error of the most recent load, or nil.
func (m *Manager) LastLoadError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastLoadErr
}

// Watch reloads dictionaries whenever files under the configured path change.
// It blocks until ctx is cancelled.
func (m *Manager) Watch(ctx context.Context) error {
	fw, err := NewFileWatcher(&FileWatcherConfig{
		Path:             m.config.Path,
		DebounceInterval: m.config.DebounceInterval,
		Extensions:       m.config.Extensions,
	}, m.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := fw.Stop(); err != nil {
			m.logger.Warn("failed to stop dictionary watcher", "error", err)
		}
	}()

	return fw.Watch(ctx, m.Load)
}
