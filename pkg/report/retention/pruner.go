// Package retention removes old validation reports, by age and by count,
// either on demand or on a cron schedule.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lectern-hq/lectern/pkg/config"
	"lectern-hq/lectern/pkg/report"
)

// Config contains configuration for the retention pruner.
type Config struct {
	// RetentionDays is the maximum report age. 0 disables age pruning.
	RetentionDays int

	// MaxReports is the maximum number of reports kept. 0 means unlimited.
	MaxReports int64

	// Schedule is a cron expression for scheduled pruning, e.g. "0 3 * * *".
	// Empty disables the scheduler.
	Schedule string
}

// FromConfig converts the reports retention section.
func FromConfig(cfg config.RetentionConfig) *Config {
	return &Config{
		RetentionDays: cfg.Days,
		MaxReports:    cfg.MaxReports,
		Schedule:      cfg.Schedule,
	}
}

// PruneListener is told how many reports a prune removed.
type PruneListener func(deleted int64)

// Pruner enforces retention on a report store.
type Pruner struct {
	storage   report.Storage
	config    *Config
	logger    *slog.Logger
	listener  PruneListener
	scheduler *Scheduler
	now       func() time.Time
}

// NewPruner creates a pruner. A nil logger uses slog.Default().
func NewPruner(storage report.Storage, cfg *Config, logger *slog.Logger) *Pruner {
	if cfg == nil {
		cfg = FromConfig(config.DefaultConfig().Reports.Retention)
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pruner{
		storage: storage,
		config:  cfg,
		logger:  logger.With("component", "report.retention"),
		now:     time.Now,
	}
	p.scheduler = NewScheduler(p)
	return p
}

// OnPrune registers fn to be called after every successful prune.
func (p *Pruner) OnPrune(fn PruneListener) {
	p.listener = fn
}

// Prune deletes reports older than the retention period, then the oldest
// reports beyond the maximum count. It returns the number deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.config.RetentionDays > 0 {
		deleted, err := p.pruneByAge(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by age failed: %w", err)
		}
		total += deleted
	}

	if p.config.MaxReports > 0 {
		deleted, err := p.pruneByCount(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by count failed: %w", err)
		}
		total += deleted
	}

	if total > 0 {
		p.logger.Info("report pruning completed",
			"deleted_count", total,
			"retention_days", p.config.RetentionDays,
			"max_reports", p.config.MaxReports,
		)
	} else {
		p.logger.Debug("no reports pruned")
	}

	if p.listener != nil {
		p.listener(total)
	}
	return total, nil
}

func (p *Pruner) pruneByAge(ctx context.Context) (int64, error) {
	cutoff := p.now().AddDate(0, 0, -p.config.RetentionDays)
	p.logger.Debug("pruning by age", "cutoff_time", cutoff)

	deleted, err := p.storage.Delete(ctx, &report.Query{EndTime: &cutoff})
	if err != nil {
		return 0, &Error{RetentionDays: p.config.RetentionDays, Cause: err}
	}
	return deleted, nil
}

func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	count, err := p.storage.Count(ctx, &report.Query{})
	if err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	excess := count - p.config.MaxReports
	if excess <= 0 {
		return 0, nil
	}

	oldest, err := p.storage.Query(ctx, &report.Query{
		SortOrder: report.SortAsc,
		Limit:     int(min(excess, report.MaxLimit)),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to query oldest reports: %w", err)
	}
	if len(oldest) == 0 {
		return 0, nil
	}

	ids := make([]string, len(oldest))
	for i, r := range oldest {
		ids[i] = r.ID
	}
	deleted, err := p.storage.Delete(ctx, &report.Query{IDs: ids})
	if err != nil {
		return 0, fmt.Errorf("delete failed: %w", err)
	}
	return deleted, nil
}

// Start starts scheduled pruning until ctx is cancelled or Stop is called.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops scheduled pruning and waits for a running prune to finish.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the time of the next scheduled prune, or nil.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}

// Error reports a failed age-based prune.
type Error struct {
	RetentionDays int
	Cause         error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("retention error [retention_days=%d]: %v", e.RetentionDays, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *Error) Unwrap() error {
	return e.Cause
}
