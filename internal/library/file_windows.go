//go:build windows

package library

import (
	"os"
)

// createNoFollow creates a file for writing.
// On Windows, O_NOFOLLOW is not available; O_EXCL still refuses an existing path.
func createNoFollow(path string, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, perm)
}
