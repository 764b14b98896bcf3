// Package sqlite implements the storage engine: one connection pool over
// the single local database file, with schema migrations applied at
// startup. All SQL in the repository is static and parameterized.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/fieldworks/radioforms/internal/sqlite/migrations"
	"github.com/fieldworks/radioforms/pkg/types"
)

// DBFileName is the name of the live database file inside the data
// directory.
const DBFileName = "radioforms.db"

// Backend owns the connection pool over the database file. Initialize
// must be called exactly once per process before Pool is usable.
type Backend struct {
	mu          sync.RWMutex
	initialized bool
	path        string
	db          *sql.DB
	logger      *slog.Logger
}

// NewBackend creates an uninitialized backend. A nil logger falls back
// to slog.Default.
func NewBackend(logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{logger: logger}
}

// Initialize opens or creates the database file at path and applies the
// embedded migrations in order. Returns types.ErrAlreadyInitialized on a
// second call.
func (b *Backend) Initialize(ctx context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initialized {
		return types.ErrAlreadyInitialized
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("pinging database: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return fmt.Errorf("applying migrations: %w", err)
	}

	b.db = db
	b.path = path
	b.initialized = true
	b.logger.Info("storage engine initialized", "path", path)
	return nil
}

// Pool returns the shared connection pool. Returns
// types.ErrNotInitialized before Initialize has succeeded.
func (b *Backend) Pool() (*sql.DB, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.initialized {
		return nil, types.ErrNotInitialized
	}
	return b.db, nil
}

// Path returns the database file path. Empty before initialization.
func (b *Backend) Path() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.path
}

// Close releases the connection pool. Idempotent; after Close the
// backend reports not initialized.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return nil
	}
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	b.db = nil
	b.initialized = false
	return nil
}

// runMigrations applies the embedded goose migrations in order.
func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// dsn builds the driver DSN for the database file. The busy timeout
// keeps short-lived writers from failing with SQLITE_BUSY while the
// auto-save flusher holds the write lock.
func dsn(path string) string {
	return "file:" + path + "?_pragma=busy_timeout(5000)"
}
