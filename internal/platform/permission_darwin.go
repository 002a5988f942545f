//go:build darwin

package platform

import (
	"context"
	"image"
	"os/exec"

	"github.com/kbinani/screenshot"

	"github.com/hpungsan/shutter/internal/capture"
)

const screenCaptureSettingsURL = "x-apple.systempreferences:com.apple.preference.security?Privacy_ScreenCapture"

// Permissions probes Screen Recording consent with a 1x1 grab.
type Permissions struct{}

// Status implements capture.Permissions.
func (Permissions) Status(context.Context) (capture.PermissionStatus, error) {
	if _, err := screenshot.CaptureRect(image.Rect(0, 0, 1, 1)); err != nil {
		return capture.PermissionDenied, nil
	}
	return capture.PermissionGranted, nil
}

// OpenSettings opens the Screen Recording privacy pane.
func (Permissions) OpenSettings(ctx context.Context) error {
	return exec.CommandContext(ctx, "open", screenCaptureSettingsURL).Run()
}
