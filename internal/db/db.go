package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hpungsan/shutter/internal/config"
	_ "modernc.org/sqlite"
)

// FileName is the store file created under the base directory.
const FileName = "shutter.db"

// Option customizes Init/Open.
type Option func(*options)

type options struct {
	defaultSaveDir string
}

// WithDefaultSaveDir sets the save directory seeded by migration 3.
func WithDefaultSaveDir(dir string) Option {
	return func(o *options) {
		o.defaultSaveDir = dir
	}
}

// Init initializes the SQLite database at baseDir/shutter.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.shutter.
func Init(baseDir string, opts ...Option) (*sql.DB, error) {
	// Create base directory with restricted permissions
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	// Explicit chmod (best-effort, may not work on all platforms)
	_ = os.Chmod(baseDir, 0700)

	return Open(filepath.Join(baseDir, FileName), opts...)
}

// Open opens (creating if needed) the store at dbPath and runs migrations.
// The caller owns the returned handle and must Close it.
func Open(dbPath string, opts ...Option) (*sql.DB, error) {
	o := options{defaultSaveDir: config.DefaultSaveDirectory()}
	for _, opt := range opts {
		opt(&o)
	}

	// Open database with pragmas in connection string (applies to all connections)
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify WAL mode is active
	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	// Run migrations (this creates the file if it doesn't exist)
	if err := migrate(db, &o); err != nil {
		db.Close()
		return nil, err
	}

	// Set file permissions after file exists (best-effort)
	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}
