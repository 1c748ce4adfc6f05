package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"lectern-hq/lectern/pkg/report"
	"lectern-hq/lectern/pkg/validation"
)

const (
	// DriverModernc is the pure Go driver registered by modernc.org/sqlite.
	DriverModernc = "sqlite"
	// DriverMattn is the cgo driver registered by github.com/mattn/go-sqlite3.
	DriverMattn = "sqlite3"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path. ":memory:" opens a private database.
	Path string

	// Driver is DriverModernc or DriverMattn.
	// Default: DriverModernc
	Driver string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int

	// WALMode enables write-ahead logging.
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/reports.db",
		Driver:       DriverModernc,
		MaxOpenConns: 10,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements report.Storage using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens the database and creates the schema.
func NewSQLiteStorage(cfg *SQLiteConfig, logger *slog.Logger) (*SQLiteStorage, error) {
	if cfg == nil {
		cfg = DefaultSQLiteConfig()
	}
	if cfg.Driver == "" {
		cfg.Driver = DriverModernc
	}
	if cfg.Driver != DriverModernc && cfg.Driver != DriverMattn {
		return nil, report.NewStorageError("sqlite", "open", fmt.Errorf("unsupported driver %q", cfg.Driver))
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "report.storage.sqlite")

	db, err := sql.Open(cfg.Driver, dsn(cfg))
	if err != nil {
		return nil, report.NewStorageError("sqlite", "open", err)
	}

	// An in-memory database exists per connection.
	if cfg.Path == ":memory:" {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	s := &SQLiteStorage{
		db:     db,
		config: cfg,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite report storage initialized",
		"path", cfg.Path,
		"driver", cfg.Driver,
		"wal_mode", cfg.WALMode,
		"max_open_conns", cfg.MaxOpenConns,
	)

	return s, nil
}

func (s *SQLiteStorage) initialize() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return report.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return report.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return report.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return report.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

// dsn appends the pragmas to the path in the parameter syntax of the driver,
// so that every pooled connection applies them.
func dsn(cfg *SQLiteConfig) string {
	var params []string
	ms := cfg.BusyTimeout.Milliseconds()
	wal := cfg.WALMode && cfg.Path != ":memory:"

	switch cfg.Driver {
	case DriverMattn:
		if ms > 0 {
			params = append(params, fmt.Sprintf("_busy_timeout=%d", ms))
		}
		if wal {
			params = append(params, "_journal_mode=WAL")
		}
	default:
		if ms > 0 {
			params = append(params, fmt.Sprintf("_pragma=busy_timeout(%d)", ms))
		}
		if wal {
			params = append(params, "_pragma=journal_mode(WAL)")
		}
	}

	if len(params) == 0 {
		return cfg.Path
	}
	return cfg.Path + "?" + strings.Join(params, "&")
}

// Store inserts a report.
func (s *SQLiteStorage) Store(ctx context.Context, r *report.Report) error {
	errs, err := json.Marshal(r.Errors)
	if err != nil {
		return report.NewStorageError("sqlite", "store", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO reports ("+reportColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		r.ID, r.Dictionary, r.Version, r.Schema,
		r.CreatedAt.UnixNano(),
		r.RecordCount, r.InvalidRecordCount, r.Valid,
		string(errs),
	)
	if err != nil {
		return report.NewStorageError("sqlite", "store", err)
	}
	return nil
}

// Get returns the report with the given ID.
func (s *SQLiteStorage) Get(ctx context.Context, id string) (*report.Report, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+reportColumns+" FROM reports WHERE id = ?", id)
	if err != nil {
		return nil, report.NewStorageError("sqlite", "get", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, report.NewStorageError("sqlite", "get", err)
		}
		return nil, report.ErrReportNotFound
	}
	r, err := scanReport(rows)
	if err != nil {
		return nil, report.NewStorageError("sqlite", "scan", err)
	}
	return r, nil
}

// Query retrieves reports matching the query filters.
func (s *SQLiteStorage) Query(ctx context.Context, query *report.Query) ([]*report.Report, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	whereClause, args := buildWhereClause(query)

	sqlQuery := "SELECT " + reportColumns + " FROM reports"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	order := "DESC"
	if query.Ascending() {
		order = "ASC"
	}
	sqlQuery += fmt.Sprintf(" ORDER BY created_at %s, id %s", order, order)

	if query.Limit > 0 {
		sqlQuery += fmt.Sprintf(" LIMIT %d", query.Limit)
	} else if query.Offset > 0 {
		sqlQuery += " LIMIT -1"
	}
	if query.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, report.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	reports := []*report.Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, report.NewStorageError("sqlite", "scan", err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, report.NewStorageError("sqlite", "query", err)
	}

	return reports, nil
}

// Count returns the number of reports matching the query filters.
func (s *SQLiteStorage) Count(ctx context.Context, query *report.Query) (int64, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "SELECT COUNT(*) FROM reports"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, report.NewStorageError("sqlite", "count", err)
	}
	return count, nil
}

// Delete removes reports matching the query filters.
func (s *SQLiteStorage) Delete(ctx context.Context, query *report.Query) (int64, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "DELETE FROM reports"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	result, err := s.db.ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		return 0, report.NewStorageError("sqlite", "delete", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, report.NewStorageError("sqlite", "delete", err)
	}
	return count, nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return report.NewStorageError("sqlite", "close", err)
	}
	s.logger.Debug("SQLite report storage closed")
	return nil
}

// buildWhereClause returns the conditions (without "WHERE") and arguments
// for the query's filters.
func buildWhereClause(query *report.Query) (string, []any) {
	var conditions []string
	var args []any

	if len(query.IDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(query.IDs)), ", ")
		conditions = append(conditions, "id IN ("+placeholders+")")
		for _, id := range query.IDs {
			args = append(args, id)
		}
	}
	if query.Dictionary != "" {
		conditions = append(conditions, "dictionary = ?")
		args = append(args, query.Dictionary)
	}
	if query.Version != "" {
		conditions = append(conditions, "version = ?")
		args = append(args, query.Version)
	}
	if query.Schema != "" {
		conditions = append(conditions, "schema_name = ?")
		args = append(args, query.Schema)
	}
	if query.Valid != nil {
		conditions = append(conditions, "valid = ?")
		args = append(args, *query.Valid)
	}
	if query.StartTime != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, query.StartTime.UnixNano())
	}
	if query.EndTime != nil {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, query.EndTime.UnixNano())
	}

	return strings.Join(conditions, " AND "), args
}

func scanReport(rows *sql.Rows) (*report.Report, error) {
	var (
		r         report.Report
		createdAt int64
		errs      sql.NullString
	)
	if err := rows.Scan(
		&r.ID, &r.Dictionary, &r.Version, &r.Schema,
		&createdAt,
		&r.RecordCount, &r.InvalidRecordCount, &r.Valid,
		&errs,
	); err != nil {
		return nil, err
	}
	r.CreatedAt = time.Unix(0, createdAt).UTC()

	if errs.Valid && errs.String != "" && errs.String != "null" {
		var recordErrors []validation.RecordError
		if err := json.Unmarshal([]byte(errs.String), &recordErrors); err != nil {
			return nil, fmt.Errorf("failed to decode errors of report %s: %w", r.ID, err)
		}
		r.Errors = recordErrors
	}
	return &r, nil
}
