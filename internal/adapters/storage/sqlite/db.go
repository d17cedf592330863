// Package sqlite es el store embebido para despliegues de un solo nodo.
// Timestamps en INTEGER (unix micros, UTC), montos en unidades mínimas.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const schema = `
CREATE TABLE IF NOT EXISTS content_signals (
	content_id    TEXT PRIMARY KEY,
	published_at  INTEGER NOT NULL,
	demand_score  REAL NOT NULL DEFAULT 0 CHECK (demand_score >= 0 AND demand_score <= 1),
	base_amount   INTEGER NOT NULL CHECK (base_amount >= 0),
	base_currency TEXT NOT NULL,
	updated_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS access_grants (
	id                 TEXT PRIMARY KEY,
	user_id            TEXT NOT NULL,
	content_id         TEXT NOT NULL,
	tier_name          TEXT NOT NULL,
	tier_description   TEXT NOT NULL DEFAULT '',
	tier_features      TEXT NOT NULL DEFAULT '[]',
	tier_base_amount   INTEGER NOT NULL,
	tier_base_currency TEXT NOT NULL,
	issued_at          INTEGER NOT NULL,
	expires_at         INTEGER NOT NULL,
	price_amount       INTEGER NOT NULL CHECK (price_amount >= 0),
	price_currency     TEXT NOT NULL,
	CHECK (expires_at > issued_at)
);
CREATE INDEX IF NOT EXISTS idx_access_grants_user_content ON access_grants(user_id, content_id);

CREATE TABLE IF NOT EXISTS ledger_entries (
	id             TEXT PRIMARY KEY,
	grant_id       TEXT NOT NULL UNIQUE,
	user_id        TEXT NOT NULL,
	content_id     TEXT NOT NULL,
	tier_name      TEXT NOT NULL,
	price_amount   INTEGER NOT NULL CHECK (price_amount >= 0),
	price_currency TEXT NOT NULL,
	recorded_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ledger_entries_content ON ledger_entries(content_id, recorded_at);
`

// Open abre (o crea) la base en path y aplica el schema.
// path ":memory:" sirve para tests.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Una sola conexión: serializa escrituras y mantiene viva una base :memory:.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return db, nil
}

func isUniqueViolation(err error, column string) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	if se.Code() != sqlite3.SQLITE_CONSTRAINT_UNIQUE && se.Code() != sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
		return false
	}
	return column == "" || strings.Contains(se.Error(), column)
}

func toUnix(t time.Time) int64 { return t.UTC().UnixMicro() }

func fromUnix(n int64) time.Time { return time.UnixMicro(n).UTC() }
