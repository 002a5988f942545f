package ipc

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/hpungsan/shutter/internal/capture"
	"github.com/hpungsan/shutter/internal/errors"
	"github.com/hpungsan/shutter/internal/library"
	"github.com/hpungsan/shutter/internal/region"
	"github.com/hpungsan/shutter/internal/session"
	"github.com/hpungsan/shutter/internal/settings"
)

type modeInput struct {
	Mode string `json:"mode"`
}

type partialInput struct {
	Selection region.Selection `json:"selection"`
	// ContentBounds defaults to the sender window's frame.
	ContentBounds *region.Bounds `json:"content_bounds,omitempty"`
}

type idInput struct {
	ID int64 `json:"id"`
}

type newerInput struct {
	LastID int64 `json:"last_id"`
}

type renameInput struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type saveInput struct {
	ID  int64  `json:"id"`
	PNG []byte `json:"png"` // base64 in JSON
}

type saveAsInput struct {
	ID   int64  `json:"id,omitempty"`
	Dest string `json:"dest,omitempty"`
	PNG  []byte `json:"png,omitempty"` // annotated image, base64 in JSON
}

type pngInput struct {
	PNG []byte `json:"png"`
}

type titleInput struct {
	Title string `json:"title"`
}

// idResult is returned for pending-id lookups; a nil ID means none.
type idResult struct {
	ID *int64 `json:"id"`
}

type windowResult struct {
	WindowID string `json:"window_id"`
}

type folderResult struct {
	Directory string `json:"directory"`
}

type okResult struct {
	OK bool `json:"ok"`
}

func (r *Router) getMode(context.Context, Request) (any, error) {
	return modeInput{Mode: string(r.deps.Session.Mode())}, nil
}

func (r *Router) setMode(_ context.Context, req Request) (any, error) {
	in, err := decode[modeInput](req.Payload)
	if err != nil {
		return nil, err
	}
	mode, err := session.ParseMode(in.Mode)
	if err != nil {
		return nil, err
	}
	if err := r.deps.Session.SetMode(mode); err != nil {
		return nil, err
	}
	return modeInput{Mode: string(mode)}, nil
}

func (r *Router) takeFullscreen(ctx context.Context, req Request) (any, error) {
	in, err := decode[capture.FullscreenRequest](req.Payload)
	if err != nil {
		return nil, err
	}
	res, err := r.deps.Capture.CaptureFullscreen(ctx, in)
	r.afterCapture(res)
	return res, err
}

func (r *Router) takePartial(ctx context.Context, req Request) (any, error) {
	in, err := decode[partialInput](req.Payload)
	if err != nil {
		return nil, err
	}
	preq := capture.PartialRequest{Selection: in.Selection, ContentBounds: in.ContentBounds}
	if b, ok := r.deps.Session.WindowBounds(req.WindowID); ok {
		preq.WindowBounds = &b
		if preq.ContentBounds == nil {
			preq.ContentBounds = &b
		}
	}
	res, err := r.deps.Capture.CapturePartial(ctx, preq)
	r.afterCapture(res)
	return res, err
}

// afterCapture dismisses the capture UI when no preview replaced it.
func (r *Router) afterCapture(res *capture.Result) {
	if res != nil && res.ScreenshotID != 0 {
		return
	}
	if r.deps.Session.Active() {
		r.deps.Session.CloseAll()
	}
}

func (r *Router) list(ctx context.Context, _ Request) (any, error) {
	return library.List(ctx, r.deps.DB)
}

func (r *Router) listNewer(ctx context.Context, req Request) (any, error) {
	in, err := decode[newerInput](req.Payload)
	if err != nil {
		return nil, err
	}
	return library.ListNewer(ctx, r.deps.DB, in.LastID)
}

func (r *Router) get(ctx context.Context, req Request) (any, error) {
	in, err := decode[idInput](req.Payload)
	if err != nil {
		return nil, err
	}
	return library.Get(ctx, r.deps.DB, in.ID)
}

func (r *Router) delete(ctx context.Context, req Request) (any, error) {
	in, err := decode[idInput](req.Payload)
	if err != nil {
		return nil, err
	}
	return library.Delete(ctx, r.deps.DB, in.ID)
}

func (r *Router) rename(ctx context.Context, req Request) (any, error) {
	in, err := decode[renameInput](req.Payload)
	if err != nil {
		return nil, err
	}
	return library.Rename(ctx, r.deps.DB, library.RenameInput{ID: in.ID, Title: in.Title})
}

func (r *Router) save(ctx context.Context, req Request) (any, error) {
	in, err := decode[saveInput](req.Payload)
	if err != nil {
		return nil, err
	}
	out, err := library.Save(ctx, r.deps.DB, library.SaveInput{ID: in.ID, PNG: in.PNG})
	r.announce(err, noteSaved, "Failed to save screenshot.")
	if err != nil {
		return nil, err
	}
	return out, nil
}

// saveAs exports the stored file, or annotated PNG bytes, asking for a
// destination when none is given. A cancelled dialog returns a nil result.
func (r *Router) saveAs(ctx context.Context, req Request) (any, error) {
	in, err := decode[saveAsInput](req.Payload)
	if err != nil {
		return nil, err
	}
	dest := strings.TrimSpace(in.Dest)
	if dest == "" {
		if r.deps.Dialogs == nil {
			return nil, errors.NewInvalidRequest("dest is required")
		}
		dir, name, err := r.exportDefaults(ctx, in.ID)
		if err != nil {
			return nil, err
		}
		dest, err = r.deps.Dialogs.SaveFile("Save screenshot as", dir, name)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		if dest == "" {
			return nil, nil
		}
	}
	out, err := library.SaveAs(ctx, r.deps.DB, library.SaveAsInput{ID: in.ID, Dest: dest, PNG: in.PNG})
	r.announce(err, noteSaved, "Failed to save screenshot.")
	if err != nil {
		return nil, err
	}
	return out, nil
}

// exportDefaults picks the save dialog's start directory and file name.
func (r *Router) exportDefaults(ctx context.Context, id int64) (dir, name string, err error) {
	if id != 0 {
		shot, err := library.Get(ctx, r.deps.DB, id)
		if err != nil {
			return "", "", err
		}
		return filepath.Dir(shot.Filepath), filepath.Base(shot.Filepath), nil
	}
	dir, err = settings.SaveDir(ctx, r.deps.DB, r.deps.FallbackSaveDir)
	if err != nil {
		return "", "", err
	}
	return dir, "screenshot.png", nil
}

func (r *Router) copy(ctx context.Context, req Request) (any, error) {
	in, err := decode[idInput](req.Payload)
	if err != nil {
		return nil, err
	}
	err = library.Copy(ctx, r.deps.DB, r.deps.Clipboard, in.ID)
	r.announce(err, noteCopied, "Failed to copy screenshot.")
	if err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

// copyDrawing puts an annotated image on the clipboard without storing it.
func (r *Router) copyDrawing(_ context.Context, req Request) (any, error) {
	in, err := decode[pngInput](req.Payload)
	if err != nil {
		return nil, err
	}
	err = library.CopyImage(r.deps.Clipboard, in.PNG)
	r.announce(err, noteCopied, "Failed to copy screenshot.")
	if err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

var (
	noteSaved  = capture.Notification{Title: "Saved!", Body: "Screenshot saved successfully.", Level: capture.LevelSuccess}
	noteCopied = capture.Notification{Title: "Copied!", Body: "Image copied to clipboard", Level: capture.LevelSuccess}
)

// announce tells the user how an export went.
func (r *Router) announce(err error, success capture.Notification, failure string) {
	if r.deps.Notifier == nil {
		return
	}
	note := success
	if err != nil {
		note = capture.Notification{Title: "Error", Body: failure, Level: capture.LevelError}
	}
	if nerr := r.deps.Notifier.Notify(note); nerr != nil {
		r.log.WithError(nerr).Debug("notification not delivered")
	}
}

func (r *Router) reveal(ctx context.Context, req Request) (any, error) {
	in, err := decode[idInput](req.Payload)
	if err != nil {
		return nil, err
	}
	if err := library.Reveal(ctx, r.deps.DB, r.deps.Opener, in.ID); err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

func (r *Router) open(ctx context.Context, req Request) (any, error) {
	in, err := decode[idInput](req.Payload)
	if err != nil {
		return nil, err
	}
	if err := library.Open(ctx, r.deps.DB, r.deps.Opener, in.ID); err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

func (r *Router) previewID(context.Context, Request) (any, error) {
	return pendingID(r.deps.Session.PreviewID()), nil
}

func (r *Router) detailID(context.Context, Request) (any, error) {
	return pendingID(r.deps.Session.DetailID()), nil
}

func pendingID(id int64) idResult {
	if id == 0 {
		return idResult{}
	}
	return idResult{ID: &id}
}

func (r *Router) openDetail(ctx context.Context, req Request) (any, error) {
	in, err := decode[idInput](req.Payload)
	if err != nil {
		return nil, err
	}
	if _, err := library.Get(ctx, r.deps.DB, in.ID); err != nil {
		return nil, err
	}
	w, err := r.deps.Session.OpenDetail(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	return windowResult{WindowID: w.ID()}, nil
}

func (r *Router) settingsGet(ctx context.Context, _ Request) (any, error) {
	return settings.Get(ctx, r.deps.DB, r.deps.FallbackSaveDir)
}

func (r *Router) settingsSet(ctx context.Context, req Request) (any, error) {
	in, err := decode[map[string]string](req.Payload)
	if err != nil {
		return nil, err
	}
	if err := settings.Set(ctx, r.deps.DB, in); err != nil {
		return nil, err
	}
	return settings.Get(ctx, r.deps.DB, r.deps.FallbackSaveDir)
}

// selectFolder asks for a directory. A cancelled dialog returns a nil result.
func (r *Router) selectFolder(ctx context.Context, _ Request) (any, error) {
	if r.deps.Dialogs == nil {
		return nil, errors.NewInvalidRequest("folder selection is not available")
	}
	current, err := settings.Get(ctx, r.deps.DB, r.deps.FallbackSaveDir)
	if err != nil {
		return nil, err
	}
	dir, err := r.deps.Dialogs.SelectFolder("Select the folder where you want to save your screenshots", current.SaveDirectory)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if dir == "" {
		return nil, nil
	}
	return folderResult{Directory: dir}, nil
}

func (r *Router) escape(context.Context, Request) (any, error) {
	r.deps.Session.Escape()
	return okResult{OK: true}, nil
}

func (r *Router) openScreen(k session.Kind) handlerFunc {
	return func(ctx context.Context, _ Request) (any, error) {
		w, err := r.deps.Session.OpenScreen(ctx, k)
		if err != nil {
			return nil, err
		}
		return windowResult{WindowID: w.ID()}, nil
	}
}

func (r *Router) setTitle(_ context.Context, req Request) (any, error) {
	in, err := decode[titleInput](req.Payload)
	if err != nil {
		return nil, err
	}
	if err := r.deps.Session.SetTitle(req.WindowID, in.Title); err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

func (r *Router) notify(_ context.Context, req Request) (any, error) {
	in, err := decode[capture.Notification](req.Payload)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, errors.NewInvalidRequest("title is required")
	}
	if in.Level == "" {
		in.Level = capture.LevelSuccess
	}
	if r.deps.Notifier == nil {
		return okResult{OK: false}, nil
	}
	if err := r.deps.Notifier.Notify(in); err != nil {
		return nil, errors.NewInternal(err)
	}
	return okResult{OK: true}, nil
}
