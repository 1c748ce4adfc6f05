package storage

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"lectern-hq/lectern/pkg/report"
)

// MemoryStorage implements report.Storage with an in-memory map.
type MemoryStorage struct {
	reports map[string]*report.Report
	mu      sync.RWMutex
	closed  bool
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		reports: make(map[string]*report.Report),
	}
}

// Store keeps a copy of r.
func (s *MemoryStorage) Store(ctx context.Context, r *report.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return report.NewStorageError("memory", "store", fmt.Errorf("storage is closed"))
	}
	if _, exists := s.reports[r.ID]; exists {
		return report.NewStorageError("memory", "store", fmt.Errorf("report %s already exists", r.ID))
	}

	reportCopy := *r
	s.reports[r.ID] = &reportCopy
	return nil
}

// Get returns a copy of the report with the given ID.
func (s *MemoryStorage) Get(ctx context.Context, id string) (*report.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[id]
	if !ok {
		return nil, report.ErrReportNotFound
	}
	reportCopy := *r
	return &reportCopy, nil
}

// Query returns copies of the matching reports.
func (s *MemoryStorage) Query(ctx context.Context, query *report.Query) ([]*report.Report, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	results := []*report.Report{}
	for _, r := range s.reports {
		if query.Matches(r) {
			reportCopy := *r
			results = append(results, &reportCopy)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(results, func(a, b *report.Report) int {
		c := a.CreatedAt.Compare(b.CreatedAt)
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if !query.Ascending() {
			c = -c
		}
		return c
	})

	if query.Offset >= len(results) {
		return []*report.Report{}, nil
	}
	results = results[query.Offset:]
	if query.Limit > 0 && query.Limit < len(results) {
		results = results[:query.Limit]
	}
	return results, nil
}

// Count returns the number of matching reports.
func (s *MemoryStorage) Count(ctx context.Context, query *report.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, r := range s.reports {
		if query.Matches(r) {
			n++
		}
	}
	return n, nil
}

// Delete removes the matching reports.
func (s *MemoryStorage) Delete(ctx context.Context, query *report.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, report.NewStorageError("memory", "delete", fmt.Errorf("storage is closed"))
	}

	var n int64
	for id, r := range s.reports {
		if query.Matches(r) {
			delete(s.reports, id)
			n++
		}
	}
	return n, nil
}

// Close marks the store closed; later writes fail.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
