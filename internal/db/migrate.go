package db

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/hpungsan/shutter/internal/errors"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 4

// SchemaVersionKey is the metadata key holding the applied version.
const SchemaVersionKey = "schema_version"

// Migration is one ordered schema step. Up runs inside a transaction and
// must be safe to re-run (IF NOT EXISTS, column checks, INSERT OR IGNORE).
type Migration struct {
	Version int
	Name    string
	Up      func(tx *sql.Tx, o *options) error
}

var migrations = []Migration{
	{Version: 1, Name: "create screenshots", Up: migrateCreateScreenshots},
	{Version: 2, Name: "add title", Up: migrateAddTitle},
	{Version: 3, Name: "seed settings", Up: migrateSeedSettings},
	{Version: 4, Name: "add phash", Up: migrateAddPHash},
}

// migrate applies every migration whose version is above schema_version.
func migrate(db *sql.DB, o *options) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS metadata (
		  key   TEXT PRIMARY KEY,
		  value TEXT NOT NULL
		);
	`); err != nil {
		return errors.NewMigrationFailure(0, err)
	}

	current, err := GetSchemaVersion(db)
	if err != nil {
		return errors.NewMigrationFailure(0, err)
	}

	for _, m := range migrations {
		if current >= m.Version {
			continue
		}
		if err := applyMigration(db, m, o); err != nil {
			return errors.NewMigrationFailure(m.Version, fmt.Errorf("%s: %w", m.Name, err))
		}
		current = m.Version
	}

	return nil
}

func applyMigration(db *sql.DB, m Migration, o *options) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := m.Up(tx, o); err != nil {
		return err
	}
	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)",
		SchemaVersionKey, strconv.Itoa(m.Version),
	); err != nil {
		return err
	}
	return tx.Commit()
}

// GetSchemaVersion returns the applied schema version; 0 when unset.
func GetSchemaVersion(db *sql.DB) (int, error) {
	var value string
	err := db.QueryRow("SELECT value FROM metadata WHERE key = ?", SchemaVersionKey).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get schema_version: %w", err)
	}
	version, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid schema_version %q: %w", value, err)
	}
	return version, nil
}

// Migration 0 -> 1: screenshots table
func migrateCreateScreenshots(tx *sql.Tx, _ *options) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS screenshots (
		  id        INTEGER PRIMARY KEY AUTOINCREMENT,
		  filepath  TEXT NOT NULL,
		  size      INTEGER NOT NULL,
		  width     INTEGER NOT NULL,
		  height    INTEGER NOT NULL,
		  mimetype  TEXT NOT NULL DEFAULT 'image/png',
		  timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	return err
}

// Migration 1 -> 2: nullable title
func migrateAddTitle(tx *sql.Tx, _ *options) error {
	return addColumnIfMissing(tx, "screenshots", "title", "TEXT NULL")
}

// Migration 2 -> 3: default settings
func migrateSeedSettings(tx *sql.Tx, o *options) error {
	seeds := [][2]string{
		{SettingsPrefix + "save_directory", o.defaultSaveDir},
		{SettingsPrefix + "font_size", "16"},
	}
	for _, kv := range seeds {
		if _, err := tx.Exec("INSERT OR IGNORE INTO metadata (key, value) VALUES (?, ?)", kv[0], kv[1]); err != nil {
			return err
		}
	}
	return nil
}

// Migration 3 -> 4: perceptual hash + timestamp index
func migrateAddPHash(tx *sql.Tx, _ *options) error {
	if err := addColumnIfMissing(tx, "screenshots", "phash", "TEXT NULL"); err != nil {
		return err
	}
	_, err := tx.Exec(`
		CREATE INDEX IF NOT EXISTS idx_screenshots_timestamp
		ON screenshots(timestamp DESC, id DESC);
	`)
	return err
}

// addColumnIfMissing keeps ALTER TABLE ADD COLUMN re-runnable.
func addColumnIfMissing(tx *sql.Tx, table, column, decl string) error {
	exists, err := hasColumn(tx, table, column)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = tx.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, decl))
	return err
}

func hasColumn(tx *sql.Tx, table, column string) (bool, error) {
	var n int
	err := tx.QueryRow("SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?", table, column).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
