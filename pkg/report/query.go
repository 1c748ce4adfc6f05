package report

import (
	"fmt"
	"time"
)

const (
	// MaxLimit is the largest page size a query may request.
	MaxLimit = 10000

	// SortAsc orders reports oldest first.
	SortAsc = "asc"
	// SortDesc orders reports newest first.
	SortDesc = "desc"
)

// Query defines filter parameters for report lookups.
type Query struct {
	// IDs restricts the result to the given report IDs.
	IDs []string `json:"ids,omitempty"`

	Dictionary string `json:"dictionary,omitempty"`
	Version    string `json:"version,omitempty"`
	Schema     string `json:"schema,omitempty"`

	// Valid filters on the report outcome when set.
	Valid *bool `json:"valid,omitempty"`

	StartTime *time.Time `json:"start_time,omitempty"` // inclusive
	EndTime   *time.Time `json:"end_time,omitempty"`   // inclusive

	// Limit caps the result size. Zero means no limit.
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// SortOrder is "asc" or "desc" by creation time. Default: "desc".
	SortOrder string `json:"sort_order,omitempty"`
}

// Validate returns a *QueryError if any parameter is invalid.
func (q *Query) Validate() error {
	if q.Limit < 0 {
		return NewQueryError(q, fmt.Errorf("limit must be >= 0, got %d", q.Limit))
	}
	if q.Limit > MaxLimit {
		return NewQueryError(q, fmt.Errorf("limit must be <= %d, got %d", MaxLimit, q.Limit))
	}
	if q.Offset < 0 {
		return NewQueryError(q, fmt.Errorf("offset must be >= 0, got %d", q.Offset))
	}
	if q.SortOrder != "" && q.SortOrder != SortAsc && q.SortOrder != SortDesc {
		return NewQueryError(q, fmt.Errorf("invalid sort order: %s (must be 'asc' or 'desc')", q.SortOrder))
	}
	if q.StartTime != nil && q.EndTime != nil && q.StartTime.After(*q.EndTime) {
		return NewQueryError(q, fmt.Errorf("start_time must be before end_time"))
	}
	return nil
}

// Ascending reports whether results are ordered oldest first.
func (q *Query) Ascending() bool {
	return q.SortOrder == SortAsc
}

// Matches reports whether r passes the query's filters.
func (q *Query) Matches(r *Report) bool {
	if len(q.IDs) > 0 {
		found := false
		for _, id := range q.IDs {
			if id == r.ID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.Dictionary != "" && r.Dictionary != q.Dictionary {
		return false
	}
	if q.Version != "" && r.Version != q.Version {
		return false
	}
	if q.Schema != "" && r.Schema != q.Schema {
		return false
	}
	if q.Valid != nil && r.Valid != *q.Valid {
		return false
	}
	if q.StartTime != nil && r.CreatedAt.Before(*q.StartTime) {
		return false
	}
	if q.EndTime != nil && r.CreatedAt.After(*q.EndTime) {
		return false
	}
	return true
}
