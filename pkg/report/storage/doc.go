// Package storage provides report.Storage backends.
//
// MemoryStorage keeps reports in a map and suits tests and one-shot CLI runs.
// SQLiteStorage persists reports with either SQLite driver: "sqlite"
// (modernc.org/sqlite, pure Go, the default) or "sqlite3"
// (github.com/mattn/go-sqlite3, requires cgo). New picks the backend from
// configuration.
package storage
