package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the report database schema.
// created_at holds Unix nanoseconds so ordering and range filters behave the
// same under both drivers.
const Schema = `
CREATE TABLE IF NOT EXISTS reports (
    id TEXT PRIMARY KEY,
    dictionary TEXT NOT NULL,
    version TEXT NOT NULL,
    schema_name TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    record_count INTEGER NOT NULL,
    invalid_record_count INTEGER NOT NULL,
    valid BOOLEAN NOT NULL,
    errors TEXT
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);
CREATE INDEX IF NOT EXISTS idx_reports_dictionary ON reports(dictionary, version);
CREATE INDEX IF NOT EXISTS idx_reports_schema ON reports(schema_name);
`

// InsertSchemaVersion records the schema version.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const reportColumns = `id, dictionary, version, schema_name, created_at, record_count, invalid_record_count, valid, errors`
