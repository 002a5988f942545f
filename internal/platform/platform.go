// Package platform binds the capture pipeline to the desktop: display
// enumeration and screen grabs, consent, clipboard, notifications,
// file manager hand-off and native pickers.
package platform

import (
	"context"
	stderrors "errors"
	"fmt"
	"image"
	"strconv"

	"github.com/kbinani/screenshot"

	"github.com/hpungsan/shutter/internal/capture"
	"github.com/hpungsan/shutter/internal/imaging"
	"github.com/hpungsan/shutter/internal/region"
)

// ErrNoDisplays is returned when the OS reports no active display.
var ErrNoDisplays = stderrors.New("no active displays found")

// Screens enumerates displays and grabs their contents.
// Display IDs are display indexes as reported by the OS, the first being
// the main display.
type Screens struct {
	// ScaleFactor is reported for every display; values <= 0 mean 1.
	ScaleFactor float64
}

var (
	_ capture.Displays = (*Screens)(nil)
	_ capture.Sources  = (*Screens)(nil)
)

func (s *Screens) scale() float64 {
	if s == nil || s.ScaleFactor <= 0 {
		return 1
	}
	return s.ScaleFactor
}

// Displays implements capture.Displays.
func (s *Screens) Displays(_ context.Context) ([]capture.Display, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, ErrNoDisplays
	}
	out := make([]capture.Display, n)
	for i := 0; i < n; i++ {
		b := toBounds(screenshot.GetDisplayBounds(i))
		out[i] = capture.Display{
			ID:          strconv.Itoa(i),
			Bounds:      b,
			WorkArea:    b,
			ScaleFactor: s.scale(),
			Primary:     i == 0,
		}
	}
	return out, nil
}

// CursorDisplay implements capture.Displays. Pointer position is not
// available, so the main display is returned.
func (s *Screens) CursorDisplay(ctx context.Context) (capture.Display, error) {
	displays, err := s.Displays(ctx)
	if err != nil {
		return capture.Display{}, err
	}
	return displays[0], nil
}

// Sources implements capture.Sources. Each display is grabbed and scaled
// to width x height.
func (s *Screens) Sources(ctx context.Context, width, height int) ([]capture.Source, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, ErrNoDisplays
	}
	out := make([]capture.Source, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := screenshot.CaptureDisplay(i)
		if err != nil {
			return nil, fmt.Errorf("capture display %d: %w", i, err)
		}
		id := strconv.Itoa(i)
		out = append(out, capture.Source{
			ID:        "screen:" + id,
			DisplayID: id,
			Name:      fmt.Sprintf("Screen %d", i+1),
			Thumbnail: imaging.ResizeExact(img, width, height),
		})
	}
	return out, nil
}

func toBounds(r image.Rectangle) region.Bounds {
	return region.Bounds{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}
