package library

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/shutter/internal/db"
	"github.com/hpungsan/shutter/internal/errors"
	"github.com/hpungsan/shutter/internal/imaging"
)

// SaveInput contains parameters for the Save operation.
type SaveInput struct {
	ID  int64
	PNG []byte // edited image, PNG encoded
}

// SaveOutput contains the result of the Save operation.
type SaveOutput struct {
	ID       int64  `json:"id"`
	Filepath string `json:"filepath"`
	Size     int64  `json:"size"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// Save overwrites a screenshot's file with edited PNG bytes and refreshes
// its size, dimensions and perceptual hash.
func Save(ctx context.Context, database *sql.DB, input SaveInput) (*SaveOutput, error) {
	if len(input.PNG) == 0 {
		return nil, errors.NewInvalidRequest("png data is required")
	}
	img, err := imaging.DecodePNG(input.PNG)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, errors.NewInvalidRequest("image has no pixels")
	}

	s, err := db.GetScreenshot(ctx, database, input.ID)
	if err != nil {
		return nil, err
	}

	if err := WriteFileAtomic(s.Filepath, input.PNG, 0644); err != nil {
		return nil, errors.NewPersistenceFailure("write file", err)
	}

	var phash *string
	if h, err := imaging.PerceptualHash(img); err == nil {
		phash = &h
	}

	size := int64(len(input.PNG))
	if err := db.UpdateScreenshotImage(ctx, database, s.ID, size, b.Dx(), b.Dy(), phash); err != nil {
		return nil, err
	}

	return &SaveOutput{
		ID:       s.ID,
		Filepath: s.Filepath,
		Size:     size,
		Width:    b.Dx(),
		Height:   b.Dy(),
	}, nil
}

// SaveAsInput contains parameters for the SaveAs operation.
type SaveAsInput struct {
	ID   int64
	Dest string // absolute destination path

	// PNG, when set, is written instead of the stored file (an annotated
	// export). ID may then be zero.
	PNG []byte
}

// SaveAsOutput contains the result of the SaveAs operation.
type SaveAsOutput struct {
	ID   int64  `json:"id,omitempty"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// allowedExportExts are the extensions a copy may be saved under.
var allowedExportExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

// SaveAs writes a screenshot's file, or the given PNG bytes, to Dest.
// The stored row is unchanged.
func SaveAs(ctx context.Context, database *sql.DB, input SaveAsInput) (*SaveAsOutput, error) {
	if strings.TrimSpace(input.Dest) == "" {
		return nil, errors.NewInvalidRequest("destination path is required")
	}
	dest := filepath.Clean(input.Dest)
	if !filepath.IsAbs(dest) {
		return nil, errors.NewInvalidRequest("destination path must be absolute")
	}
	if ext := strings.ToLower(filepath.Ext(dest)); !allowedExportExts[ext] {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("unsupported extension %q (use .png, .jpg or .jpeg)", ext))
	}

	data := input.PNG
	if len(data) > 0 {
		if _, _, err := imaging.DecodeConfig(data); err != nil {
			return nil, errors.NewInvalidRequest(err.Error())
		}
	}

	if input.ID != 0 || len(data) == 0 {
		s, err := db.GetScreenshot(ctx, database, input.ID)
		if err != nil {
			return nil, err
		}
		if dest == s.Filepath {
			return nil, errors.NewInvalidRequest("destination is the screenshot's own file")
		}
		if len(data) == 0 {
			data, err = os.ReadFile(s.Filepath)
			if err != nil {
				if os.IsNotExist(err) {
					return nil, errors.NewFileNotFound(s.Filepath)
				}
				return nil, errors.NewInternal(err)
			}
		}
	}

	if err := WriteFileAtomic(dest, data, 0644); err != nil {
		return nil, errors.NewPersistenceFailure("write file", err)
	}

	return &SaveAsOutput{ID: input.ID, Path: dest, Size: int64(len(data))}, nil
}
