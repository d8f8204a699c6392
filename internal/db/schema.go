package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username
    ON users(username);

CREATE TABLE IF NOT EXISTS catalog_entries (
    id         TEXT PRIMARY KEY,
    kind       TEXT NOT NULL CHECK (kind IN ('room', 'owner', 'brand', 'category')),
    name       TEXT NOT NULL CHECK (length(name) > 0),
    icon       BLOB,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_catalog_kind_name
    ON catalog_entries(kind, name COLLATE NOCASE);

CREATE TABLE IF NOT EXISTS items (
    id                TEXT PRIMARY KEY,
    name              TEXT NOT NULL CHECK (length(name) > 0),
    purchase_date     DATETIME,
    price             INTEGER NOT NULL DEFAULT 0,
    serial_number     TEXT,
    remark            TEXT,
    warranty_months   INTEGER NOT NULL DEFAULT 0,
    image             BLOB,
    image_file_name   TEXT,
    invoice           BLOB,
    invoice_file_name TEXT,
    room_id           TEXT NOT NULL REFERENCES catalog_entries(id) ON DELETE RESTRICT,
    owner_id          TEXT NOT NULL REFERENCES catalog_entries(id) ON DELETE RESTRICT,
    brand_id          TEXT NOT NULL REFERENCES catalog_entries(id) ON DELETE RESTRICT,
    category_id       TEXT NOT NULL REFERENCES catalog_entries(id) ON DELETE RESTRICT,
    created_at        DATETIME NOT NULL,
    updated_at        DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_items_room ON items(room_id);
CREATE INDEX IF NOT EXISTS idx_items_owner ON items(owner_id);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: expiry lookups for revoked token cleanup.
	`CREATE INDEX IF NOT EXISTS idx_revoked_tokens_expires
	     ON revoked_tokens(expires_at)`,
}

// EnsureSchema creates all tables and indexes if they don't already exist
// and applies pending migrations.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
