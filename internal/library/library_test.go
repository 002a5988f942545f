package library

import (
	"database/sql"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/hpungsan/shutter/internal/db"
	"github.com/hpungsan/shutter/internal/imaging"
	"github.com/hpungsan/shutter/internal/screenshot"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Init(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func testPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	data, err := imaging.EncodePNG(img)
	require.NoError(t, err)
	return data
}

// addShot writes a PNG at dir/name and inserts its row.
func addShot(t *testing.T, database *sql.DB, dir, name string) *screenshot.Screenshot {
	t.Helper()
	data := testPNG(t, 4, 3, color.White)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))

	s := &screenshot.Screenshot{Filepath: path, Size: int64(len(data)), Width: 4, Height: 3}
	_, err := db.InsertScreenshot(t.Context(), database, s)
	require.NoError(t, err)
	return s
}

type fakeClipboard struct {
	data []byte
	err  error
}

func (f *fakeClipboard) WriteImage(png []byte) error {
	if f.err != nil {
		return f.err
	}
	f.data = png
	return nil
}

type fakeOpener struct {
	revealed []string
	opened   []string
}

func (f *fakeOpener) Reveal(path string) error {
	f.revealed = append(f.revealed, path)
	return nil
}

func (f *fakeOpener) Open(path string) error {
	f.opened = append(f.opened, path)
	return nil
}
