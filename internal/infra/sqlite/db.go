// Package sqlite provides SQLite-based persistent storage for Workstake.
// Uses WAL mode for concurrent reads and crash-safe writes. The store
// implements domain.MarketStore: a full snapshot load at startup plus
// atomic per-transition ChangeSet application.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dir/state.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "state.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Connection pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id              TEXT PRIMARY KEY,
			display_name    TEXT NOT NULL DEFAULT '',
			contact         TEXT NOT NULL DEFAULT '',
			reputation      INTEGER NOT NULL DEFAULT 0,
			registered      BOOLEAN NOT NULL DEFAULT 1,
			registered_at   INTEGER NOT NULL,
			tasks_created   INTEGER NOT NULL DEFAULT 0,
			tasks_completed INTEGER NOT NULL DEFAULT 0,
			tasks_failed    INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS tasks (
			id                   INTEGER PRIMARY KEY,
			title                TEXT NOT NULL,
			reference            TEXT NOT NULL DEFAULT '',
			status               INTEGER NOT NULL,
			category             INTEGER NOT NULL,
			creator              TEXT NOT NULL,
			member               TEXT NOT NULL DEFAULT '',
			reward               INTEGER NOT NULL,
			creator_stake        INTEGER NOT NULL DEFAULT 0,
			member_stake         INTEGER NOT NULL DEFAULT 0,
			deadline_hours       INTEGER NOT NULL,
			deadline_at          INTEGER,
			max_revision         INTEGER NOT NULL,
			creator_stake_locked BOOLEAN NOT NULL DEFAULT 0,
			member_stake_locked  BOOLEAN NOT NULL DEFAULT 0,
			reward_claimed       BOOLEAN NOT NULL DEFAULT 0,
			task_exists          BOOLEAN NOT NULL DEFAULT 1,
			created_at           INTEGER NOT NULL,
			assigned_at          INTEGER,
			resolved_at          INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_creator ON tasks(creator)`,

		`CREATE TABLE IF NOT EXISTS join_requests (
			task_id      INTEGER NOT NULL,
			position     INTEGER NOT NULL,
			applicant    TEXT NOT NULL,
			stake_amount INTEGER NOT NULL,
			status       INTEGER NOT NULL,
			pending      BOOLEAN NOT NULL,
			withdrawn    BOOLEAN NOT NULL,
			created_at   INTEGER NOT NULL,
			PRIMARY KEY (task_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_applicant ON join_requests(applicant)`,

		`CREATE TABLE IF NOT EXISTS submissions (
			task_id       INTEGER PRIMARY KEY,
			reference     TEXT NOT NULL DEFAULT '',
			submitter     TEXT NOT NULL DEFAULT '',
			note          TEXT NOT NULL DEFAULT '',
			status        INTEGER NOT NULL,
			revision_time INTEGER NOT NULL DEFAULT 0,
			new_deadline  INTEGER,
			updated_at    INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS balances (
			account TEXT PRIMARY KEY,
			balance INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS ledger_entries (
			id        TEXT PRIMARY KEY,
			timestamp INTEGER NOT NULL,
			kind      TEXT NOT NULL,
			account   TEXT NOT NULL,
			amount    INTEGER NOT NULL,
			task_id   INTEGER,
			reason    TEXT,
			balance   INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_account ON ledger_entries(account)`,

		`CREATE TABLE IF NOT EXISTS events (
			id      TEXT PRIMARY KEY,
			type    TEXT NOT NULL,
			task_id INTEGER,
			actor   TEXT,
			amount  INTEGER,
			note    TEXT,
			at      INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func nullableUnix(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func timeFromNull(v sql.NullInt64) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	return time.Unix(v.Int64, 0)
}
