package repository

import (
	"context"
	"database/sql"
	"log/slog"

	_ "modernc.org/sqlite"
)

// Schema is applied on every open; all statements are idempotent.
const schema = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS cabinet_templates (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	slug          TEXT NOT NULL UNIQUE,
	description   TEXT,
	category_id   TEXT,
	catalog_path  TEXT NOT NULL,
	base_width    REAL,
	base_height   REAL,
	base_depth    REAL,
	created_at    TIMESTAMP NOT NULL,
	updated_at    TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS template_files (
	id            TEXT PRIMARY KEY,
	template_id   TEXT NOT NULL REFERENCES cabinet_templates(id) ON DELETE CASCADE,
	filename      TEXT NOT NULL,
	relative_path TEXT NOT NULL,
	content_hash  BLOB NOT NULL,
	quantity      INTEGER NOT NULL DEFAULT 1,
	sort_order    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS parameter_groups (
	id          TEXT PRIMARY KEY,
	template_id TEXT NOT NULL REFERENCES cabinet_templates(id) ON DELETE CASCADE,
	name        TEXT NOT NULL,
	sort_order  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS template_parameters (
	id            TEXT PRIMARY KEY,
	template_id   TEXT NOT NULL REFERENCES cabinet_templates(id) ON DELETE CASCADE,
	group_id      TEXT REFERENCES parameter_groups(id),
	name          TEXT NOT NULL,
	default_value TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	param_type    TEXT NOT NULL,
	sort_id       INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS jobs (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT,
	status      TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL,
	updated_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS job_items (
	id            TEXT PRIMARY KEY,
	job_id        TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
	cabinet_id    TEXT NOT NULL REFERENCES cabinet_templates(id),
	name          TEXT NOT NULL,
	width         REAL,
	height        REAL,
	depth         REAL,
	quantity      INTEGER NOT NULL DEFAULT 1,
	output_status TEXT NOT NULL,
	created_at    TIMESTAMP NOT NULL,
	updated_at    TIMESTAMP NOT NULL,
	UNIQUE (job_id, name)
);

CREATE TABLE IF NOT EXISTS item_parameter_values (
	id         TEXT PRIMARY KEY,
	item_id    TEXT NOT NULL REFERENCES job_items(id) ON DELETE CASCADE,
	param_name TEXT NOT NULL,
	value      TEXT NOT NULL,
	UNIQUE (item_id, param_name)
);

CREATE TABLE IF NOT EXISTS item_file_quantities (
	item_id  TEXT NOT NULL REFERENCES job_items(id) ON DELETE CASCADE,
	file_id  TEXT NOT NULL REFERENCES template_files(id) ON DELETE CASCADE,
	quantity INTEGER NOT NULL,
	PRIMARY KEY (item_id, file_id)
);

CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Open opens (or creates) the sqlite database at path and applies the
// schema.
func Open(ctx context.Context, path string, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("opening database", "path", path)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		logger.Error("failed to open database", "path", path, "error", err)
		return nil, err
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent background recalculations.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		logger.Error("failed to apply schema", "error", err)
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database gracefully.
func Close(db *sql.DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil && logger != nil {
		logger.Error("failed to close database", "error", err)
	}
}
