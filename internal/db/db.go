// Package db provides the scoped database session collaborator. Handlers
// never hold a raw connection; they borrow one through WithSession, which
// guarantees release on every exit path including cancellation.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/anomaly/labs-api/internal/config"
)

const (
	dirPermissions    = 0o750
	connectionTimeout = 5 * time.Second
)

// SessionProvider is the scoped-acquisition capability injected into
// handlers. The session is released when fn returns, errors, or the context
// is canceled.
type SessionProvider interface {
	WithSession(ctx context.Context, fn func(ctx context.Context, conn *sql.Conn) error) error
}

// DB wraps a sql.DB and implements SessionProvider.
type DB struct {
	*sql.DB
	path string
}

// Open connects to the SQLite database described by cfg, creating the
// containing directory and file when absent, and verifies connectivity with
// a ping before returning.
func Open(cfg config.DatabaseConfig) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), dirPermissions); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on", cfg.Path, cfg.BusyTimeout*1000)
	if cfg.WALMode {
		dsn += "&_journal_mode=WAL&_synchronous=NORMAL"
	}

	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite supports a single writer; keep the pool minimal.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("verifying database connection: %w", err)
	}

	return &DB{DB: sqlDB, path: cfg.Path}, nil
}

// WithSession acquires a dedicated connection and hands it to fn. The
// connection is returned to the pool on every exit path.
func (db *DB) WithSession(ctx context.Context, fn func(ctx context.Context, conn *sql.Conn) error) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquiring session: %w", err)
	}
	defer conn.Close()
	return fn(ctx, conn)
}

// Close closes the underlying pool. Call during shutdown.
func (db *DB) Close() error {
	if db.DB == nil {
		return nil
	}
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// Path returns the filesystem path to the database file.
func (db *DB) Path() string {
	return db.path
}
