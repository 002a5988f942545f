package library

import (
	"context"
	"database/sql"

	"github.com/hpungsan/shutter/internal/db"
	"github.com/hpungsan/shutter/internal/screenshot"
)

// ListOutput contains the result of List and ListNewer.
type ListOutput struct {
	Items []*screenshot.Screenshot `json:"items"`
	Count int                      `json:"count"`
}

// List returns all screenshots, most recent first.
func List(ctx context.Context, database *sql.DB) (*ListOutput, error) {
	items, err := db.ListScreenshots(ctx, database)
	if err != nil {
		return nil, err
	}
	return &ListOutput{Items: items, Count: len(items)}, nil
}

// ListNewer returns screenshots with id > lastID, most recent first.
func ListNewer(ctx context.Context, database *sql.DB, lastID int64) (*ListOutput, error) {
	items, err := db.ListScreenshotsNewerThan(ctx, database, lastID)
	if err != nil {
		return nil, err
	}
	return &ListOutput{Items: items, Count: len(items)}, nil
}

// Get returns one screenshot by id.
func Get(ctx context.Context, database *sql.DB, id int64) (*screenshot.Screenshot, error) {
	return db.GetScreenshot(ctx, database, id)
}
