package session

import (
	"context"
	"fmt"

	"github.com/hpungsan/shutter/internal/capture"
	"github.com/hpungsan/shutter/internal/errors"
	"github.com/hpungsan/shutter/internal/region"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// Dock geometry.
const (
	DockMaxWidth = 600
	DockHeight   = 60
	dockMargin   = 40
	dockBottom   = 10
)

// screenSizes are the initial sizes of persistent screens.
var screenSizes = map[Kind][2]int{
	KindLibrary:  {1200, 800},
	KindSettings: {800, 600},
	KindDetail:   {1000, 800},
	KindPreview:  {1000, 800},
}

// DockBounds places the dock at the bottom center of a work area.
func DockBounds(work region.Bounds) region.Bounds {
	w := min(DockMaxWidth, work.Width-dockMargin)
	return region.Bounds{
		X:      work.X + (work.Width-w)/2,
		Y:      work.Y + work.Height - DockHeight - dockBottom,
		Width:  w,
		Height: DockHeight,
	}
}

// centered returns a w x h frame centered in work, shrunk to fit.
func centered(work region.Bounds, w, h int) region.Bounds {
	w, h = min(w, work.Width), min(h, work.Height)
	return region.Bounds{
		X:      work.X + (work.Width-w)/2,
		Y:      work.Y + (work.Height-h)/2,
		Width:  w,
		Height: h,
	}
}

// Begin starts a capture session: leftovers are closed, one overlay is
// opened per display, the dock opens on the cursor display, and every
// overlay receives ready-to-take-print with the current mode.
func (s *Session) Begin(ctx context.Context) error {
	s.ops.Lock()
	defer s.ops.Unlock()

	s.closeTransients()

	displays, err := s.displays.Displays(ctx)
	if err != nil {
		return errors.NewSourceNotFound("", err)
	}
	if len(displays) == 0 {
		return errors.NewSourceNotFound("", fmt.Errorf("no displays"))
	}

	for _, d := range displays {
		w, err := s.factory.Open(ctx, WindowSpec{
			Kind:        KindOverlay,
			DisplayID:   d.ID,
			Bounds:      d.Bounds,
			Frameless:   true,
			Transparent: true,
			AlwaysOnTop: true,
		})
		if err != nil {
			s.closeTransients()
			return errors.NewInternal(fmt.Errorf("open overlay for display %s: %w", d.ID, err))
		}
		s.addOverlay(w)
	}

	cursor, err := s.displays.CursorDisplay(ctx)
	if err != nil {
		s.log.WithError(err).Debug("cursor display unknown, using primary")
		cursor = primary(displays)
	}
	dock, err := s.factory.Open(ctx, WindowSpec{
		Kind:        KindDock,
		DisplayID:   cursor.ID,
		Bounds:      DockBounds(cursor.WorkArea),
		Frameless:   true,
		Transparent: true,
		AlwaysOnTop: true,
	})
	if err != nil {
		s.closeTransients()
		return errors.NewInternal(fmt.Errorf("open dock: %w", err))
	}
	s.mu.Lock()
	s.dock = dock
	mode := s.mode
	overlays := append([]Window(nil), s.overlays...)
	s.mu.Unlock()
	dock.OnClose(func() { s.clearDock(dock.ID()) })

	s.log.WithFields(logrus.Fields{
		"session_id": ulid.Make().String(),
		"overlays":   len(overlays),
	}).Info("capture session started")
	s.sendAll(overlays, EventReadyToTakePrint, ModePayload{Mode: mode})
	return nil
}

// CloseAll closes every overlay and the dock and forgets the pending preview.
func (s *Session) CloseAll() {
	s.ops.Lock()
	defer s.ops.Unlock()

	s.closeTransients()
	s.mu.Lock()
	s.preview = 0
	s.mu.Unlock()
}

// Escape tells the transient surfaces to stand down, then closes them.
// A capture already running is not cancelled.
func (s *Session) Escape() {
	s.mu.Lock()
	targets := append([]Window(nil), s.overlays...)
	if s.dock != nil {
		targets = append(targets, s.dock)
	}
	s.mu.Unlock()

	s.sendAll(targets, EventEscape, struct{}{})
	s.CloseAll()
}

// OpenScreen closes the transient surfaces and opens (or returns the
// already open) persistent screen of kind k.
func (s *Session) OpenScreen(ctx context.Context, k Kind) (Window, error) {
	if !k.Persistent() {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("%q is not a screen", k))
	}
	s.ops.Lock()
	defer s.ops.Unlock()

	s.closeTransients()
	if w := s.Screen(k); w != nil {
		return w, nil
	}
	return s.openScreen(ctx, k)
}

// ShowPreview opens a fresh preview screen for screenshot id.
func (s *Session) ShowPreview(ctx context.Context, id int64) (Window, error) {
	return s.reopen(ctx, KindPreview, func() { s.preview = id })
}

// OpenDetail opens a fresh detail screen for screenshot id.
func (s *Session) OpenDetail(ctx context.Context, id int64) (Window, error) {
	return s.reopen(ctx, KindDetail, func() { s.detail = id })
}

func (s *Session) reopen(ctx context.Context, k Kind, set func()) (Window, error) {
	s.ops.Lock()
	defer s.ops.Unlock()

	s.closeTransients()
	s.mu.Lock()
	set()
	old := s.screens[k]
	delete(s.screens, k)
	s.mu.Unlock()
	if old != nil {
		closeWindow(s.log, old)
	}
	return s.openScreen(ctx, k)
}

func (s *Session) openScreen(ctx context.Context, k Kind) (Window, error) {
	var work region.Bounds
	if d, err := s.displays.CursorDisplay(ctx); err == nil {
		work = d.WorkArea
	} else if all, err := s.displays.Displays(ctx); err == nil && len(all) > 0 {
		work = primary(all).WorkArea
	}
	size := screenSizes[k]

	w, err := s.factory.Open(ctx, WindowSpec{
		Kind:      k,
		Bounds:    centered(work, size[0], size[1]),
		Resizable: true,
	})
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("open %s: %w", k, err))
	}
	s.mu.Lock()
	s.screens[k] = w
	s.mu.Unlock()
	w.OnClose(func() { s.clearScreen(k, w.ID()) })
	return w, nil
}

// closeTransients closes the overlays and dock. Callers hold s.ops.
func (s *Session) closeTransients() {
	s.mu.Lock()
	windows := s.overlays
	if s.dock != nil {
		windows = append(windows, s.dock)
	}
	s.overlays = nil
	s.dock = nil
	s.mu.Unlock()

	for _, w := range windows {
		closeWindow(s.log, w)
	}
}

func (s *Session) addOverlay(w Window) {
	s.mu.Lock()
	s.overlays = append(s.overlays, w)
	s.mu.Unlock()
	w.OnClose(func() { s.removeOverlay(w.ID()) })
}

func (s *Session) removeOverlay(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.overlays[:0]
	for _, w := range s.overlays {
		if w.ID() != id {
			kept = append(kept, w)
		}
	}
	clear(s.overlays[len(kept):])
	s.overlays = kept
}

func (s *Session) clearDock(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dock != nil && s.dock.ID() == id {
		s.dock = nil
	}
}

func (s *Session) clearScreen(k Kind, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w := s.screens[k]; w != nil && w.ID() == id {
		delete(s.screens, k)
	}
}

func primary(displays []capture.Display) capture.Display {
	for _, d := range displays {
		if d.Primary {
			return d
		}
	}
	return displays[0]
}
