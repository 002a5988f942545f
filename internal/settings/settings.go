// Package settings reads and writes user preferences stored in the
// metadata table, falling back to in-process defaults.
package settings

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/hpungsan/shutter/internal/db"
	"github.com/hpungsan/shutter/internal/errors"
)

// Known setting keys (stored as "settings:<key>").
const (
	KeySaveDirectory = "save_directory"
	KeyFontSize      = "font_size"
)

// DefaultFontSize is used when no font size is stored.
const DefaultFontSize = 16

// Settings is the resolved view of user preferences.
type Settings struct {
	SaveDirectory string `json:"save_directory"`
	FontSize      int    `json:"font_size"`
}

// validators check a raw value for each known key.
var validators = map[string]func(string) error{
	KeySaveDirectory: func(v string) error {
		if strings.TrimSpace(v) == "" {
			return errors.NewInvalidRequest("save_directory must not be empty")
		}
		if !filepath.IsAbs(v) {
			return errors.NewInvalidRequest("save_directory must be an absolute path")
		}
		return nil
	},
	KeyFontSize: func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n < 8 || n > 72 {
			return errors.NewInvalidRequest("font_size must be an integer between 8 and 72")
		}
		return nil
	},
}

// Keys returns the known setting keys, sorted.
func Keys() []string {
	keys := make([]string, 0, len(validators))
	for k := range validators {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns stored settings; missing or unreadable values use fallbackDir
// and DefaultFontSize.
func Get(ctx context.Context, database *sql.DB, fallbackDir string) (*Settings, error) {
	stored, err := db.ListMetadataPrefix(ctx, database, db.SettingsPrefix)
	if err != nil {
		return nil, err
	}

	s := &Settings{SaveDirectory: fallbackDir, FontSize: DefaultFontSize}
	if v := stored[KeySaveDirectory]; v != "" {
		s.SaveDirectory = v
	}
	if v, ok := stored[KeyFontSize]; ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			s.FontSize = n
		}
	}
	return s, nil
}

// Set validates and stores values. Unknown keys are rejected and nothing
// is written when any value is invalid.
func Set(ctx context.Context, database *sql.DB, values map[string]string) error {
	if len(values) == 0 {
		return errors.NewInvalidRequest("no settings provided")
	}
	for k, v := range values {
		validate, ok := validators[k]
		if !ok {
			return errors.NewInvalidRequest(fmt.Sprintf("unknown setting %q (known: %s)", k, strings.Join(Keys(), ", ")))
		}
		if err := validate(v); err != nil {
			return err
		}
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := values[k]
		if k == KeySaveDirectory {
			v = filepath.Clean(v)
		}
		if err := db.SetMetadata(ctx, database, db.SettingsPrefix+k, v); err != nil {
			return err
		}
	}
	return nil
}

// SaveDir resolves the save directory and makes sure it exists.
func SaveDir(ctx context.Context, database *sql.DB, fallbackDir string) (string, error) {
	s, err := Get(ctx, database, fallbackDir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.SaveDirectory, 0755); err != nil {
		return "", errors.NewPersistenceFailure("create save directory", err)
	}
	return s.SaveDirectory, nil
}
