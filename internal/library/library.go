// Package library implements the screenshot gallery operations: listing,
// deleting, renaming, saving and exporting captures.
//
// Each operation takes an XxxInput and returns an XxxOutput. Partial
// successes (file already missing, rename failed but title stored) are
// reported through the output's Warning field rather than as errors.
package library

import (
	"os"

	"github.com/hpungsan/shutter/internal/errors"
)

// Clipboard receives PNG bytes.
type Clipboard interface {
	WriteImage(png []byte) error
}

// Opener hands a file to the desktop environment.
type Opener interface {
	// Reveal shows the file in the system file manager.
	Reveal(path string) error
	// Open opens the file with the default viewer.
	Open(path string) error
}

// requireFile returns FILE_NOT_FOUND when path does not exist.
func requireFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return errors.NewFileNotFound(path)
		}
		return errors.NewInternal(err)
	}
	return nil
}
