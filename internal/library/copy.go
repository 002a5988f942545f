package library

import (
	"context"
	"database/sql"
	"os"

	"github.com/hpungsan/shutter/internal/db"
	"github.com/hpungsan/shutter/internal/errors"
	"github.com/hpungsan/shutter/internal/imaging"
)

// Copy places a screenshot's PNG bytes on the clipboard.
func Copy(ctx context.Context, database *sql.DB, clip Clipboard, id int64) error {
	s, err := db.GetScreenshot(ctx, database, id)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(s.Filepath)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewFileNotFound(s.Filepath)
		}
		return errors.NewInternal(err)
	}
	if err := clip.WriteImage(data); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// CopyImage places edited PNG bytes on the clipboard. Nothing is stored.
func CopyImage(clip Clipboard, png []byte) error {
	if len(png) == 0 {
		return errors.NewInvalidRequest("png data is required")
	}
	if _, _, err := imaging.DecodeConfig(png); err != nil {
		return errors.NewInvalidRequest(err.Error())
	}
	if err := clip.WriteImage(png); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Reveal shows a screenshot's file in the file manager.
func Reveal(ctx context.Context, database *sql.DB, opener Opener, id int64) error {
	s, err := db.GetScreenshot(ctx, database, id)
	if err != nil {
		return err
	}
	if err := requireFile(s.Filepath); err != nil {
		return err
	}
	if err := opener.Reveal(s.Filepath); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Open opens a screenshot's file with the default viewer.
func Open(ctx context.Context, database *sql.DB, opener Opener, id int64) error {
	s, err := db.GetScreenshot(ctx, database, id)
	if err != nil {
		return err
	}
	if err := requireFile(s.Filepath); err != nil {
		return err
	}
	if err := opener.Open(s.Filepath); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}
