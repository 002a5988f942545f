package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/shutter/internal/errors"
)

// SettingsPrefix namespaces user settings inside the metadata table.
const SettingsPrefix = "settings:"

// GetMetadata returns the value for key and whether it was present.
func GetMetadata(ctx context.Context, db *sql.DB, key string) (string, bool, error) {
	var value string
	err := db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.NewInternal(err)
	}
	return value, true, nil
}

// SetMetadata upserts key.
func SetMetadata(ctx context.Context, db *sql.DB, key, value string) error {
	_, err := db.ExecContext(ctx, "INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)", key, value)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// ListMetadataPrefix returns every key starting with prefix, with the
// prefix stripped.
func ListMetadataPrefix(ctx context.Context, db *sql.DB, prefix string) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT key, value FROM metadata WHERE substr(key, 1, ?) = ?", len(prefix), prefix)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, errors.NewInternal(err)
		}
		result[strings.TrimPrefix(key, prefix)] = value
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return result, nil
}
