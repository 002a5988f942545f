package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hpungsan/shutter/internal/errors"
	"github.com/hpungsan/shutter/internal/screenshot"
)

const screenshotColumns = `id, filepath, title, width, height, size, mimetype, timestamp, phash`

// InsertScreenshot stores a new row and sets s.ID.
// Timestamp defaults to the store's CURRENT_TIMESTAMP when zero.
func InsertScreenshot(ctx context.Context, db *sql.DB, s *screenshot.Screenshot) (int64, error) {
	fields := map[string]any{
		"filepath": s.Filepath,
		"size":     s.Size,
		"width":    s.Width,
		"height":   s.Height,
	}
	if s.Mimetype != "" {
		fields["mimetype"] = s.Mimetype
	}
	if s.Title != nil {
		fields["title"] = *s.Title
	}
	if s.PHash != nil {
		fields["phash"] = *s.PHash
	}
	if !s.Timestamp.IsZero() {
		fields["timestamp"] = formatTimestamp(s.Timestamp)
	}

	id, err := Insert(ctx, db, "screenshots", fields)
	if err != nil {
		return 0, err
	}
	s.ID = id
	return id, nil
}

// GetScreenshot retrieves a screenshot by id.
func GetScreenshot(ctx context.Context, db *sql.DB, id int64) (*screenshot.Screenshot, error) {
	row := db.QueryRowContext(ctx, "SELECT "+screenshotColumns+" FROM screenshots WHERE id = ?", id)
	s, err := scanScreenshot(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return s, nil
}

// ListScreenshots returns every row, most recent first.
func ListScreenshots(ctx context.Context, db *sql.DB) ([]*screenshot.Screenshot, error) {
	return queryScreenshots(ctx, db, `
		SELECT `+screenshotColumns+`
		FROM screenshots
		ORDER BY timestamp DESC, id DESC
	`)
}

// ListScreenshotsNewerThan returns rows with id > lastID, most recent first.
func ListScreenshotsNewerThan(ctx context.Context, db *sql.DB, lastID int64) ([]*screenshot.Screenshot, error) {
	return queryScreenshots(ctx, db, `
		SELECT `+screenshotColumns+`
		FROM screenshots
		WHERE id > ?
		ORDER BY timestamp DESC, id DESC
	`, lastID)
}

// DeleteScreenshot removes the row. The backing file is the caller's concern.
func DeleteScreenshot(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, "DELETE FROM screenshots WHERE id = ?", id)
	if err != nil {
		return errors.NewInternal(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}
	return nil
}

// UpdateScreenshotTitle sets title (nil clears it) and, when filepath is
// non-empty, the new file location in the same statement.
func UpdateScreenshotTitle(ctx context.Context, db *sql.DB, id int64, title *string, filepath string) error {
	fields := map[string]any{"title": toNullString(title)}
	if filepath != "" {
		fields["filepath"] = filepath
	}
	return updateOne(ctx, db, id, fields)
}

// UpdateScreenshotImage records new file size, dimensions and hash after an
// in-place edit.
func UpdateScreenshotImage(ctx context.Context, db *sql.DB, id int64, size int64, width, height int, phash *string) error {
	return updateOne(ctx, db, id, map[string]any{
		"size":   size,
		"width":  width,
		"height": height,
		"phash":  toNullString(phash),
	})
}

// HashEntry pairs a screenshot id with its stored perceptual hash.
type HashEntry struct {
	ID    int64
	PHash string
}

// ListScreenshotHashes returns every row that has a perceptual hash.
func ListScreenshotHashes(ctx context.Context, db *sql.DB) ([]HashEntry, error) {
	rows, err := db.QueryContext(ctx, "SELECT id, phash FROM screenshots WHERE phash IS NOT NULL ORDER BY id")
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var entries []HashEntry
	for rows.Next() {
		var e HashEntry
		if err := rows.Scan(&e.ID, &e.PHash); err != nil {
			return nil, errors.NewInternal(err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return entries, nil
}

// CountScreenshots returns the number of stored rows.
func CountScreenshots(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM screenshots").Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

func updateOne(ctx context.Context, db *sql.DB, id int64, fields map[string]any) error {
	n, err := updateRows(ctx, db, "screenshots", fields, []Condition{Eq("id", id)})
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.NewNotFound(id)
	}
	return nil
}

func queryScreenshots(ctx context.Context, db *sql.DB, query string, args ...any) ([]*screenshot.Screenshot, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	result := []*screenshot.Screenshot{}
	for rows.Next() {
		s, err := scanScreenshot(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return result, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanScreenshot scans a single row into a Screenshot struct.
func scanScreenshot(row scanner) (*screenshot.Screenshot, error) {
	var (
		s     screenshot.Screenshot
		title sql.NullString
		phash sql.NullString
		ts    any
	)
	if err := row.Scan(&s.ID, &s.Filepath, &title, &s.Width, &s.Height, &s.Size, &s.Mimetype, &ts, &phash); err != nil {
		return nil, err
	}
	s.Title = fromNullString(title)
	s.PHash = fromNullString(phash)

	t, err := parseTimestamp(ts)
	if err != nil {
		return nil, err
	}
	s.Timestamp = t
	return &s, nil
}

// timestampLayout matches SQLite's CURRENT_TIMESTAMP (UTC).
const timestampLayout = "2006-01-02 15:04:05"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// parseTimestamp accepts what the driver hands back for a DATETIME column:
// a parsed time.Time or the stored text.
func parseTimestamp(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		return parseTimestampString(t)
	case []byte:
		return parseTimestampString(string(t))
	case nil:
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("unexpected timestamp type %T", v)
	}
}

func parseTimestampString(s string) (time.Time, error) {
	for _, layout := range []string{timestampLayout, time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
