package capture

import (
	"context"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/hpungsan/shutter/internal/errors"
	"github.com/hpungsan/shutter/internal/imaging"
	"github.com/hpungsan/shutter/internal/library"
	"github.com/hpungsan/shutter/internal/region"
	"github.com/hpungsan/shutter/internal/screenshot"
)

// FullscreenRequest captures one whole display.
type FullscreenRequest struct {
	// DisplayID selects the display; empty means the display under the cursor.
	DisplayID string `json:"display_id,omitempty"`
}

// PartialRequest captures a selection drawn on an overlay window.
type PartialRequest struct {
	Selection region.Selection `json:"selection"`

	// WindowBounds is the sender overlay's frame; its center picks the display.
	WindowBounds *region.Bounds `json:"window_bounds,omitempty"`

	// ContentBounds is the sender's content area; its origin relative to the
	// display origin offsets the selection.
	ContentBounds *region.Bounds `json:"content_bounds,omitempty"`
}

// Result describes a finished or aborted capture.
// On abort, State is StateAborted and the error carries the reason.
type Result struct {
	CaptureID    string `json:"capture_id"`
	State        State  `json:"state"`
	DisplayID    string `json:"display_id,omitempty"`
	ScreenshotID int64  `json:"screenshot_id,omitempty"`
	Filepath     string `json:"filepath,omitempty"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	Size         int64  `json:"size,omitempty"`
	// Warning is set when the image reached the clipboard but was not fully persisted.
	Warning string `json:"warning,omitempty"`
}

// run tracks one capture's progress.
type run struct {
	result *Result
	log    logrus.FieldLogger
}

// enter moves the run to s. A finished run stays finished.
func (r *run) enter(s State) {
	if r.result.State.Terminal() {
		r.log.WithFields(logrus.Fields{"state": r.result.State, "next": s}).Warn("capture already finished")
		return
	}
	r.result.State = s
	r.log.WithField("state", s).Debug("capture state")
}

// CaptureFullscreen captures the requested (or cursor) display at full
// device resolution.
func (o *Orchestrator) CaptureFullscreen(ctx context.Context, req FullscreenRequest) (*Result, error) {
	if !o.inFlight.CompareAndSwap(false, true) {
		return nil, errors.NewCaptureInProgress()
	}
	defer o.inFlight.Store(false)

	r := o.start("fullscreen")
	if err := o.checkPermission(ctx, r); err != nil {
		return o.abort(r, err)
	}

	r.enter(StateSourceDiscovery)
	display, err := o.fullscreenDisplay(ctx, req.DisplayID)
	if err != nil {
		return o.abortNotify(r, err, "Failed to find screen source", "Please try again later, check your display settings.")
	}

	img, err := o.acquire(ctx, r, display)
	if err != nil {
		return o.abort(r, err)
	}

	return o.persist(ctx, r, img)
}

// CapturePartial captures the selected region of the display that holds
// the sender window.
func (o *Orchestrator) CapturePartial(ctx context.Context, req PartialRequest) (*Result, error) {
	if !o.inFlight.CompareAndSwap(false, true) {
		return nil, errors.NewCaptureInProgress()
	}
	defer o.inFlight.Store(false)

	r := o.start("partial")
	if err := o.checkPermission(ctx, r); err != nil {
		return o.abort(r, err)
	}

	r.enter(StateSourceDiscovery)
	display, err := o.partialDisplay(ctx, req.WindowBounds)
	if err != nil {
		return o.abortNotify(r, err, "Failed to find screen source", "Please try again later, check your display settings.")
	}

	img, err := o.acquire(ctx, r, display)
	if err != nil {
		return o.abort(r, err)
	}

	r.enter(StateCrop)
	var offset region.Offset
	if req.ContentBounds != nil {
		offset = region.OffsetBetween(*req.ContentBounds, display.Bounds)
	}
	rect, err := region.Compute(req.Selection, display.Scale(), offset)
	if err == nil {
		b := img.Bounds()
		err = region.Validate(rect, b.Dx(), b.Dy())
	}
	if err != nil {
		return o.abortNotify(r, err, "Invalid selection", "The selected area is outside the screen. Please try again.")
	}

	return o.persist(ctx, r, region.Crop(img, rect))
}

func (o *Orchestrator) start(kind string) *run {
	id := ulid.Make().String()
	r := &run{
		result: &Result{CaptureID: id, State: StateIdle},
		log:    o.log.WithFields(logrus.Fields{"capture_id": id, "kind": kind}),
	}
	r.log.Info("capture started")
	return r
}

// checkPermission aborts unless consent is granted. A denied or
// undetermined status is re-read once after the settle delay since the
// OS can report a stale value right after the user answers the prompt.
func (o *Orchestrator) checkPermission(ctx context.Context, r *run) error {
	r.enter(StatePermissionCheck)

	status := o.permissionStatus(ctx, r)
	if status == PermissionDenied || status == PermissionNotDetermined {
		if err := o.sleep(ctx, o.settle); err != nil {
			return errors.NewInternal(err)
		}
		status = o.permissionStatus(ctx, r)
	}
	if status == PermissionGranted {
		return nil
	}

	if err := o.deps.Permissions.OpenSettings(ctx); err != nil {
		r.log.WithError(err).Warn("failed to open screen recording settings")
	}
	o.notify(r, Notification{
		Title: "Permission denied",
		Body:  `To capture the screen, enable "Screen Recording" for shutter in your system privacy settings, then restart the app.`,
		Level: LevelError,
	})
	return errors.NewPermissionDenied(string(status))
}

func (o *Orchestrator) permissionStatus(ctx context.Context, r *run) PermissionStatus {
	status, err := o.deps.Permissions.Status(ctx)
	if err != nil {
		r.log.WithError(err).Warn("permission status query failed")
		return PermissionUnknown
	}
	return status
}

func (o *Orchestrator) fullscreenDisplay(ctx context.Context, displayID string) (Display, error) {
	if displayID == "" {
		d, err := o.deps.Displays.CursorDisplay(ctx)
		if err != nil {
			return Display{}, errors.NewSourceNotFound("", err)
		}
		return d, nil
	}

	displays, err := o.deps.Displays.Displays(ctx)
	if err != nil {
		return Display{}, errors.NewSourceNotFound(displayID, err)
	}
	for _, d := range displays {
		if d.ID == displayID {
			return d, nil
		}
	}
	return Display{}, errors.NewSourceNotFound(displayID, nil)
}

// partialDisplay picks the display containing the sender window's center,
// falling back to the cursor display.
func (o *Orchestrator) partialDisplay(ctx context.Context, window *region.Bounds) (Display, error) {
	if window != nil {
		displays, err := o.deps.Displays.Displays(ctx)
		if err == nil {
			bounds := make([]region.Bounds, len(displays))
			for i, d := range displays {
				bounds[i] = d.Bounds
			}
			if i := region.DisplayForPoint(bounds, region.Center(*window)); i >= 0 {
				return displays[i], nil
			}
		}
	}
	d, err := o.deps.Displays.CursorDisplay(ctx)
	if err != nil {
		return Display{}, errors.NewSourceNotFound("", err)
	}
	return d, nil
}

// acquire finds the display's source and returns its image at exactly the
// display's device-pixel size.
func (o *Orchestrator) acquire(ctx context.Context, r *run, d Display) (image.Image, error) {
	r.result.DisplayID = d.ID
	width := int(math.Round(float64(d.Bounds.Width) * d.Scale()))
	height := int(math.Round(float64(d.Bounds.Height) * d.Scale()))
	r.log = r.log.WithFields(logrus.Fields{"display_id": d.ID, "width": width, "height": height})

	sources, err := o.deps.Sources.Sources(ctx, width, height)
	if err != nil {
		o.notify(r, Notification{
			Title: "Screen capture failed",
			Body:  `Unable to capture screen. Check that "Screen Recording" permission is enabled for shutter, then restart the app.`,
			Level: LevelError,
		})
		return nil, errors.NewSourceNotFound(d.ID, err)
	}

	var source *Source
	for i := range sources {
		if sources[i].DisplayID == d.ID {
			source = &sources[i]
			break
		}
	}
	if source == nil || source.Thumbnail == nil {
		o.notify(r, Notification{
			Title: "Failed to find screen source",
			Body:  "Please try again later, check your display settings.",
			Level: LevelError,
		})
		return nil, errors.NewSourceNotFound(d.ID, nil)
	}

	r.enter(StateImageAcquisition)
	img := source.Thumbnail
	if b := img.Bounds(); b.Dx() != width || b.Dy() != height {
		r.log.WithFields(logrus.Fields{"actual_width": b.Dx(), "actual_height": b.Dy()}).Debug("resizing source image")
		img = imaging.ResizeExact(img, width, height)
	}
	return img, nil
}

// persist writes the PNG and its row, then places it on the clipboard.
// File or row failures degrade to a clipboard-only capture with a Warning.
func (o *Orchestrator) persist(ctx context.Context, r *run, img image.Image) (*Result, error) {
	r.enter(StatePersist)

	data, err := imaging.EncodePNG(img)
	if err != nil {
		return o.abortNotify(r, errors.NewPersistenceFailure("encode png", err), "Screen capture failed", "The captured image could not be encoded.")
	}
	b := img.Bounds()
	res := r.result
	res.Width, res.Height, res.Size = b.Dx(), b.Dy(), int64(len(data))

	var phash *string
	if h, err := imaging.PerceptualHash(img); err == nil {
		phash = &h
	} else {
		r.log.WithError(err).Debug("perceptual hash failed")
	}

	var stored *screenshot.Screenshot
	path, err := o.writeFile(ctx, data)
	if err != nil {
		r.log.WithError(errors.NewPersistenceFailure("write file", err)).Error("capture not saved to disk")
		res.Warning = "The capture could not be saved to disk; it was copied to the clipboard only."
	} else {
		shot := &screenshot.Screenshot{
			Filepath: path,
			Size:     int64(len(data)),
			Width:    b.Dx(),
			Height:   b.Dy(),
			Mimetype: screenshot.MimePNG,
			PHash:    phash,
		}
		if _, err := o.deps.Store.InsertScreenshot(ctx, shot); err != nil {
			r.log.WithError(errors.NewPersistenceFailure("insert row", err)).Error("capture not recorded in library")
			if rmErr := os.Remove(path); rmErr != nil {
				r.log.WithError(rmErr).WithField("path", path).Warn("failed to remove unrecorded capture file")
			}
			res.Warning = "The capture could not be added to the library; it was copied to the clipboard only."
		} else {
			stored = shot
			res.ScreenshotID = shot.ID
			res.Filepath = path
		}
	}

	if err := o.deps.Clipboard.WriteImage(data); err != nil {
		r.log.WithError(err).Warn("clipboard write failed")
	}

	if res.Warning != "" {
		o.notify(r, Notification{Title: "Screen captured with problems", Body: res.Warning, Level: LevelWarning})
	} else {
		o.notify(r, Notification{
			Title: "Screen captured",
			Body:  "The screen has been captured and copied to the clipboard.",
			Level: LevelSuccess,
		})
	}

	r.enter(StateDone)
	r.log.WithFields(logrus.Fields{"screenshot_id": res.ScreenshotID, "size": res.Size}).Info("capture finished")

	if stored != nil && o.deps.OnCaptured != nil {
		o.deps.OnCaptured(stored)
	}
	return res, nil
}

func (o *Orchestrator) writeFile(ctx context.Context, data []byte) (string, error) {
	dir, err := o.deps.SaveDir(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve save directory: %w", err)
	}
	path := filepath.Join(dir, screenshot.FileName(o.now()))
	if err := library.WriteFileAtomic(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

func (o *Orchestrator) notify(r *run, n Notification) {
	if o.deps.Notifier == nil {
		return
	}
	if err := o.deps.Notifier.Notify(n); err != nil {
		r.log.WithError(err).Warn("notification failed")
	}
}

func (o *Orchestrator) abort(r *run, err error) (*Result, error) {
	r.enter(StateAborted)
	r.log.WithError(err).Warn("capture aborted")
	return r.result, err
}

func (o *Orchestrator) abortNotify(r *run, err error, title, body string) (*Result, error) {
	o.notify(r, Notification{Title: title, Body: body, Level: LevelError})
	return o.abort(r, err)
}
