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

	_ "modernc.org/sqlite"
)

// Config holds SQLite connection settings.
type Config struct {
	// DSN is the database file path or connection string.
	DSN string

	// BusyTimeout sets how long to wait for database locks.
	BusyTimeout time.Duration

	// JournalMode sets the SQLite journal mode (WAL, DELETE, TRUNCATE, etc.).
	JournalMode string

	// MaxOpenConns sets the maximum number of open connections.
	MaxOpenConns int

	// Now stamps collection writes. Defaults to time.Now.
	Now func() time.Time
}

// DefaultConfig returns settings suited to a single-process desktop store.
func DefaultConfig(dsn string) Config {
	return Config{
		DSN:          dsn,
		BusyTimeout:  5 * time.Second,
		JournalMode:  "WAL",
		MaxOpenConns: 1,
	}
}

// ConnectionPool owns the database handle and its pragmas.
type ConnectionPool struct {
	db     *sql.DB
	config Config
}

// NewConnectionPool opens the database and applies connection pragmas.
func NewConnectionPool(config Config) (*ConnectionPool, error) {
	if strings.TrimSpace(config.DSN) == "" {
		return nil, errors.New("sqlite: DSN is required")
	}

	if err := createDatabaseDir(config.DSN); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}

	pool := &ConnectionPool{db: db, config: config}
	if err := pool.configure(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return pool, nil
}

func (cp *ConnectionPool) configure() error {
	if cp.config.BusyTimeout > 0 {
		if _, err := cp.db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cp.config.BusyTimeout.Milliseconds())); err != nil {
			return fmt.Errorf("failed to set busy timeout: %w", err)
		}
	}
	if mode := strings.TrimSpace(cp.config.JournalMode); mode != "" && !isMemoryDSN(cp.config.DSN) {
		if _, err := cp.db.Exec("PRAGMA journal_mode = " + mode); err != nil {
			return fmt.Errorf("failed to set journal mode: %w", err)
		}
	}
	return nil
}

// DB exposes the pooled handle.
func (cp *ConnectionPool) DB() *sql.DB {
	return cp.db
}

// Close releases the pool.
func (cp *ConnectionPool) Close() error {
	if cp.db == nil {
		return nil
	}
	return cp.db.Close()
}

// WithTransaction runs fn in a transaction. It commits when fn returns nil and
// rolls back otherwise, re-raising panics after the rollback.
func (cp *ConnectionPool) WithTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := cp.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed (rollback error: %v): %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// MapError annotates SQLite-specific failures with a readable class.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "database is locked"), strings.Contains(errStr, "database is busy"):
		return fmt.Errorf("database locked: %w", err)
	case strings.Contains(errStr, "constraint failed"):
		return fmt.Errorf("constraint violation: %w", err)
	case strings.Contains(errStr, "no such table"):
		return fmt.Errorf("schema missing: %w", err)
	}
	return err
}

func createDatabaseDir(dsn string) error {
	path := filePath(dsn)
	if path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func filePath(dsn string) string {
	if isMemoryDSN(dsn) {
		return ""
	}
	path := strings.TrimPrefix(dsn, "file:")
	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		path = path[:idx]
	}
	return path
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
