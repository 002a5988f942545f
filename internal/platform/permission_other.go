//go:build !darwin

package platform

import (
	"context"

	"github.com/hpungsan/shutter/internal/capture"
)

// Permissions reports consent as granted; these platforms have no
// screen-recording consent.
type Permissions struct{}

// Status implements capture.Permissions.
func (Permissions) Status(context.Context) (capture.PermissionStatus, error) {
	return capture.PermissionGranted, nil
}

// OpenSettings is a no-op.
func (Permissions) OpenSettings(context.Context) error {
	return nil
}
