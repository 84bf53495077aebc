package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a row does not exist. The HTTP layer maps
// it to 404.
var ErrNotFound = errors.New("not found")

// DB wraps the application database connection. The backing engine is
// MySQL in production and SQLite for local development and tests; the
// stores only use portable SQL so they never need to know which.
type DB struct {
	conn   *sql.DB
	driver string
}

// Open connects to the configured database and runs migrations.
// driver is "mysql" or "sqlite"; for sqlite the dsn is a file path and
// parent directories are created as needed.
func Open(driver, dsn string) (*DB, error) {
	var conn *sql.DB
	var err error

	switch driver {
	case "mysql":
		// parseTime so DATETIME columns scan into time.Time.
		if !strings.Contains(dsn, "parseTime") {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn += sep + "parseTime=true"
		}
		conn, err = sql.Open("mysql", dsn)
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		conn, err = sql.Open("sqlite", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
		if err == nil {
			// SQLite only supports one writer — limit to a single
			// connection to prevent SQLITE_BUSY
			conn.SetMaxOpenConns(1)
		}
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	db := &DB{conn: conn, driver: driver}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Driver returns "mysql" or "sqlite".
func (db *DB) Driver() string {
	return db.driver
}

func (db *DB) migrate() error {
	// Portable DDL: VARCHAR keys (MySQL rejects TEXT primary keys),
	// DATETIME timestamps, BOOLEAN flags. Statements are idempotent.
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'active',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id VARCHAR(36) PRIMARY KEY,
			project_id VARCHAR(36) NOT NULL,
			title VARCHAR(255) NOT NULL,
			description TEXT NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'todo',
			priority VARCHAR(16) NOT NULL DEFAULT 'medium',
			due_date DATETIME NULL,
			assignee VARCHAR(255) NOT NULL DEFAULT '',
			imported BOOLEAN NOT NULL DEFAULT FALSE,
			overdue BOOLEAN NOT NULL DEFAULT FALSE,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX idx_tasks_project ON tasks(project_id)`,
		`CREATE INDEX idx_tasks_due ON tasks(due_date)`,
		`CREATE TABLE IF NOT EXISTS db_connections (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			driver VARCHAR(16) NOT NULL,
			host VARCHAR(255) NOT NULL DEFAULT '',
			port INTEGER NOT NULL DEFAULT 0,
			database_name VARCHAR(255) NOT NULL DEFAULT '',
			username VARCHAR(255) NOT NULL DEFAULT '',
			ssl_mode VARCHAR(32) NOT NULL DEFAULT 'disable',
			extra_json TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS import_jobs (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			source_type VARCHAR(32) NOT NULL,
			source_config TEXT NOT NULL,
			transforms TEXT NOT NULL,
			target_project_id VARCHAR(36) NOT NULL,
			field_mapping TEXT NOT NULL,
			sync_mode VARCHAR(16) NOT NULL DEFAULT 'append',
			dedupe_key VARCHAR(255) NOT NULL DEFAULT '',
			trigger_type VARCHAR(16) NOT NULL DEFAULT 'manual',
			trigger_config VARCHAR(255) NOT NULL DEFAULT '',
			enabled BOOLEAN NOT NULL DEFAULT FALSE,
			last_run_at DATETIME NULL,
			last_status VARCHAR(16) NOT NULL DEFAULT '',
			last_error TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS import_runs (
			id VARCHAR(36) PRIMARY KEY,
			job_id VARCHAR(36) NOT NULL,
			started_at DATETIME NOT NULL,
			finished_at DATETIME NOT NULL,
			status VARCHAR(16) NOT NULL,
			rows_read INTEGER NOT NULL DEFAULT 0,
			rows_written INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL
		)`,
		`CREATE INDEX idx_import_runs_job ON import_runs(job_id)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			// CREATE INDEX has no portable IF NOT EXISTS on MySQL —
			// a duplicate index on re-run is safe to ignore.
			if strings.HasPrefix(m, "CREATE INDEX") && isDuplicateErr(err) {
				continue
			}
			return fmt.Errorf("migration failed: %s: %w", m[:40], err)
		}
	}
	return nil
}

func isDuplicateErr(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "already exists") ||
		strings.Contains(msg, "Duplicate key name")
}
