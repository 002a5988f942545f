// Package screenshot defines the persisted capture record.
package screenshot

import (
	"fmt"
	"time"
)

// MimePNG is the only mimetype the capture pipeline writes.
const MimePNG = "image/png"

// Screenshot is one captured image and its metadata.
// The file at Filepath may have been removed out of band.
type Screenshot struct {
	// ID is the store-assigned row id
	ID int64 `json:"id"`

	// Filepath is the absolute path of the PNG on disk
	Filepath string `json:"filepath"`

	// Title is an optional user-supplied name (nullable)
	Title *string `json:"title,omitempty"`

	// Width and Height are in device pixels, always > 0
	Width  int `json:"width"`
	Height int `json:"height"`

	// Size is the file length in bytes
	Size int64 `json:"size"`

	Mimetype  string    `json:"mimetype"`
	Timestamp time.Time `json:"timestamp"`

	// PHash is the perceptual hash string (nullable, best-effort)
	PHash *string `json:"phash,omitempty"`
}

// DisplayName returns the title, or "Screenshot #<id>" when unset.
func (s *Screenshot) DisplayName() string {
	if s.Title != nil && *s.Title != "" {
		return *s.Title
	}
	return fmt.Sprintf("Screenshot #%d", s.ID)
}

// FileName returns the capture file name for t: <unix-millis>.png.
func FileName(t time.Time) string {
	return fmt.Sprintf("%d.png", t.UnixMilli())
}
