package library

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/shutter/internal/db"
	"github.com/hpungsan/shutter/internal/screenshot"
)

// RenameInput contains parameters for the Rename operation.
type RenameInput struct {
	ID    int64
	Title string // empty clears the title and keeps the file name
}

// RenameOutput contains the result of the Rename operation.
type RenameOutput struct {
	ID       int64   `json:"id"`
	Title    *string `json:"title"`
	Filepath string  `json:"filepath"`
	Renamed  bool    `json:"renamed"`
	Warning  string  `json:"warning,omitempty"`
}

// Rename sets the title and renames the file after it. An existing file
// is never overwritten: a numeric suffix (_1, _2, ...) is added instead.
// If the on-disk rename fails the title is still stored and Renamed is false.
func Rename(ctx context.Context, database *sql.DB, input RenameInput) (*RenameOutput, error) {
	s, err := db.GetScreenshot(ctx, database, input.ID)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		if err := db.UpdateScreenshotTitle(ctx, database, s.ID, nil, ""); err != nil {
			return nil, err
		}
		return &RenameOutput{ID: s.ID, Filepath: s.Filepath}, nil
	}

	oldPath := s.Filepath
	stem := screenshot.SanitizeTitle(title)
	if stem == "" {
		if err := db.UpdateScreenshotTitle(ctx, database, s.ID, &title, ""); err != nil {
			return nil, err
		}
		return &RenameOutput{ID: s.ID, Title: &title, Filepath: oldPath}, nil
	}

	newPath := freePath(filepath.Dir(oldPath), stem, filepath.Ext(oldPath), oldPath)
	if newPath == oldPath {
		if err := db.UpdateScreenshotTitle(ctx, database, s.ID, &title, ""); err != nil {
			return nil, err
		}
		return &RenameOutput{ID: s.ID, Title: &title, Filepath: oldPath}, nil
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		if err := db.UpdateScreenshotTitle(ctx, database, s.ID, &title, ""); err != nil {
			return nil, err
		}
		return &RenameOutput{
			ID:       s.ID,
			Title:    &title,
			Filepath: oldPath,
			Warning:  fmt.Sprintf("failed to rename file, title was updated: %v", err),
		}, nil
	}

	if err := db.UpdateScreenshotTitle(ctx, database, s.ID, &title, newPath); err != nil {
		// Keep disk and row consistent
		_ = os.Rename(newPath, oldPath)
		return nil, err
	}

	return &RenameOutput{
		ID:       s.ID,
		Title:    &title,
		Filepath: newPath,
		Renamed:  true,
	}, nil
}

// freePath returns dir/stem+ext, or the first dir/stem_N+ext that does not
// exist. current is treated as free so renaming to the same name is a no-op.
func freePath(dir, stem, ext, current string) string {
	candidate := filepath.Join(dir, stem+ext)
	for n := 1; ; n++ {
		if candidate == current {
			return candidate
		}
		if _, err := os.Lstat(candidate); os.IsNotExist(err) {
			return candidate
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
	}
}
