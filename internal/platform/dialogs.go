package platform

import (
	stderrors "errors"

	"github.com/sqweek/dialog"
)

// Dialogs shows native pickers. A cancelled picker returns "" and no error.
type Dialogs struct{}

// SelectFolder asks for a directory.
func (Dialogs) SelectFolder(title, startDir string) (string, error) {
	dir, err := dialog.Directory().Title(title).SetStartDir(startDir).Browse()
	return picked(dir, err)
}

// SaveFile asks for a PNG or JPEG destination.
func (Dialogs) SaveFile(title, startDir, suggestedName string) (string, error) {
	path, err := dialog.File().
		Title(title).
		Filter("PNG image", "png").
		Filter("JPEG image", "jpg", "jpeg").
		SetStartDir(startDir).
		SetStartFile(suggestedName).
		Save()
	return picked(path, err)
}

func picked(path string, err error) (string, error) {
	if stderrors.Is(err, dialog.ErrCancelled) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return path, nil
}
