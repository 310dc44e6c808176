// Package sqlite implements the repository interfaces on a single SQLite
// file shared by two processes: the HTTP server and the reminder dispatch job.
//
// CONCURRENCY MODEL:
// Neither process holds long-lived locks. Every repository method is one
// statement (or one short transaction for cascading deletes), so the two
// processes only ever contend for the duration of a single query. WAL mode
// lets readers proceed while the other process writes, and busy_timeout
// makes a writer wait briefly instead of failing with SQLITE_BUSY.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite. No CGo, so both binaries
// cross-compile without a C toolchain.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// busyTimeoutMillis is how long a writer waits on a lock held by the other process.
const busyTimeoutMillis = 5000

// DB wraps the connection pool and implements every repository interface.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and brings the schema up
// to date.
//
// dbPath examples:
//   - "data/users.db" → file-based, parent directory created if missing
//   - ":memory:"      → in-memory, used by tests
//
// The pool is pinned to a single connection. SQLite serializes writers
// anyway, and for ":memory:" every extra connection would see its own
// empty database.
func New(dbPath string) (*DB, error) {
	if dbPath != ":memory:" && !strings.HasPrefix(dbPath, "file:") {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: creating database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeoutMillis),
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", p, err)
		}
	}

	db := &DB{conn: conn}

	if err := db.migrate(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the store is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate creates the tables for a fresh database and upgrades older ones.
//
// The scheduled_posts table predates the reminder feature: early databases
// have no reminder_minutes / reminder_sent columns. CREATE TABLE IF NOT
// EXISTS leaves such a table untouched, so Upgrade fills the gap in place.
func (db *DB) migrate(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			email     TEXT UNIQUE NOT NULL,
			password  TEXT NOT NULL,
			role      TEXT NOT NULL DEFAULT 'user',
			api_calls INTEGER NOT NULL DEFAULT 0
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS scheduled_posts (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			user_email       TEXT NOT NULL,
			platform         TEXT NOT NULL,
			content          TEXT NOT NULL,
			schedule_time    TEXT NOT NULL,
			reminder_minutes INTEGER NOT NULL DEFAULT 60,
			reminder_sent    BOOLEAN NOT NULL DEFAULT 0
		);
	`)
	if err != nil {
		return fmt.Errorf("creating scheduled_posts table: %w", err)
	}

	if err := db.Upgrade(ctx); err != nil {
		return err
	}

	_, err = db.conn.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_scheduled_posts_user_email ON scheduled_posts(user_email);
		CREATE INDEX IF NOT EXISTS idx_scheduled_posts_reminder_sent ON scheduled_posts(reminder_sent);
	`)
	if err != nil {
		return fmt.Errorf("creating scheduled_posts indexes: %w", err)
	}

	return nil
}

// Upgrade adds columns introduced after the first schema vintage.
// It is idempotent: columns that already exist are skipped, so running it
// any number of times yields the same schema.
func (db *DB) Upgrade(ctx context.Context) error {
	columns := []struct {
		name, definition string
	}{
		{"reminder_minutes", "INTEGER NOT NULL DEFAULT 60"},
		{"reminder_sent", "BOOLEAN NOT NULL DEFAULT 0"},
	}
	for _, c := range columns {
		if err := db.addColumnIfNotExists(ctx, "scheduled_posts", c.name, c.definition); err != nil {
			return fmt.Errorf("adding %s to scheduled_posts: %w", c.name, err)
		}
	}
	return nil
}

// addColumnIfNotExists makes ALTER TABLE ... ADD COLUMN safe to repeat.
// SQLite has no "ADD COLUMN IF NOT EXISTS", so we look at pragma_table_info first.
func (db *DB) addColumnIfNotExists(ctx context.Context, table, column, definition string) error {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil
	}
	_, err = db.conn.ExecContext(ctx, fmt.Sprintf(
		`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition,
	))
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "duplicate column name") {
		// another process upgraded the table between our check and ALTER
		return nil
	}
	return err
}

// isUniqueViolation recognises SQLite UNIQUE constraint failures.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}

// scheduleEpoch is the SQL expression turning the stored ISO-8601 string
// into Unix seconds. strftime honours the embedded offset; unparsable
// strings yield NULL, which never compares true.
const scheduleEpoch = `CAST(strftime('%s', schedule_time) AS INTEGER)`
