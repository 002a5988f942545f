package library

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/hpungsan/shutter/internal/db"
)

// Delete warnings.
const (
	WarnFileMissing = "file already missing"
)

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	Deleted bool   `json:"deleted"`
	ID      int64  `json:"id"`
	Warning string `json:"warning,omitempty"`
}

// Delete removes the backing file (best-effort) and then the row.
// A missing or undeletable file never blocks the row removal.
func Delete(ctx context.Context, database *sql.DB, id int64) (*DeleteOutput, error) {
	s, err := db.GetScreenshot(ctx, database, id)
	if err != nil {
		return nil, err
	}

	var warning string
	if err := os.Remove(s.Filepath); err != nil {
		if os.IsNotExist(err) {
			warning = WarnFileMissing
		} else {
			warning = fmt.Sprintf("could not delete file: %v", err)
		}
	}

	if err := db.DeleteScreenshot(ctx, database, id); err != nil {
		return nil, err
	}

	return &DeleteOutput{
		Deleted: true,
		ID:      id,
		Warning: warning,
	}, nil
}
