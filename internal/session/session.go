// Package session owns the transient capture UI: one overlay per display,
// the mode dock, and the persistent screens (library, settings, detail,
// preview) that replace them. All state lives on a Session value.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/hpungsan/shutter/internal/capture"
	"github.com/hpungsan/shutter/internal/errors"
	"github.com/hpungsan/shutter/internal/region"
)

// Mode selects how an overlay interaction ends in a capture.
type Mode string

const (
	ModeFullscreen Mode = "FULLSCREEN"
	ModePartial    Mode = "PARTIAL_SCREEN"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeFullscreen, ModePartial:
		return Mode(s), nil
	}
	return "", errors.NewInvalidRequest(fmt.Sprintf("unknown capture mode %q", s))
}

// Kind names a UI surface.
type Kind string

const (
	KindOverlay  Kind = "overlay"
	KindDock     Kind = "dock"
	KindLibrary  Kind = "library"
	KindSettings Kind = "settings"
	KindDetail   Kind = "detail"
	KindPreview  Kind = "preview"
)

// Persistent reports whether k is a normal application screen.
func (k Kind) Persistent() bool {
	switch k {
	case KindLibrary, KindSettings, KindDetail, KindPreview:
		return true
	}
	return false
}

// Broadcast channels sent to surfaces.
const (
	EventModeChanged      = "mode-changed"
	EventReadyToTakePrint = "ready-to-take-print"
	EventEscape           = "escape"
	EventSetWindowTitle   = "set-window-title"
)

// ModePayload is the body of mode-changed and ready-to-take-print.
type ModePayload struct {
	Mode Mode `json:"mode"`
}

// WindowSpec describes a surface to open.
type WindowSpec struct {
	Kind        Kind          `json:"kind"`
	DisplayID   string        `json:"display_id,omitempty"`
	Bounds      region.Bounds `json:"bounds"`
	Frameless   bool          `json:"frameless"`
	Transparent bool          `json:"transparent"`
	AlwaysOnTop bool          `json:"always_on_top"`
	Resizable   bool          `json:"resizable"`
}

// Window is an open surface.
type Window interface {
	ID() string
	Kind() Kind
	Bounds() region.Bounds
	// Send delivers an event to the surface.
	Send(channel string, payload any) error
	Close() error
	// OnClose registers fn to run once the surface is gone, whoever closed it.
	OnClose(fn func())
}

// WindowFactory opens surfaces.
type WindowFactory interface {
	Open(ctx context.Context, spec WindowSpec) (Window, error)
}

// Session is the capture UI context. It is safe for concurrent use.
type Session struct {
	factory  WindowFactory
	displays capture.Displays
	log      logrus.FieldLogger

	// ops serializes Begin, CloseAll and OpenScreen.
	ops sync.Mutex

	mu       sync.Mutex
	mode     Mode
	overlays []Window
	dock     Window
	screens  map[Kind]Window
	preview  int64
	detail   int64
}

// New creates a Session in fullscreen mode.
func New(factory WindowFactory, displays capture.Displays, log logrus.FieldLogger) *Session {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Session{
		factory:  factory,
		displays: displays,
		log:      log,
		mode:     ModeFullscreen,
		screens:  make(map[Kind]Window),
	}
}

// Mode returns the current capture mode.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode stores mode and tells every live overlay.
func (s *Session) SetMode(mode Mode) error {
	if _, err := ParseMode(string(mode)); err != nil {
		return err
	}
	s.mu.Lock()
	s.mode = mode
	overlays := append([]Window(nil), s.overlays...)
	s.mu.Unlock()

	s.sendAll(overlays, EventModeChanged, ModePayload{Mode: mode})
	return nil
}

// Overlays returns the live overlays in creation order.
func (s *Session) Overlays() []Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Window(nil), s.overlays...)
}

// Dock returns the live dock, or nil.
func (s *Session) Dock() Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dock
}

// Screen returns the open persistent screen of kind k, or nil.
func (s *Session) Screen(k Kind) Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screens[k]
}

// Active reports whether overlays or the dock are open.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.overlays) > 0 || s.dock != nil
}

// WindowBounds returns the frame of an open surface.
func (s *Session) WindowBounds(windowID string) (region.Bounds, bool) {
	if w := s.find(windowID); w != nil {
		return w.Bounds(), true
	}
	return region.Bounds{}, false
}

// SetTitle sends set-window-title to one surface.
func (s *Session) SetTitle(windowID, title string) error {
	w := s.find(windowID)
	if w == nil {
		return errors.NewInvalidRequest(fmt.Sprintf("unknown window %q", windowID))
	}
	return w.Send(EventSetWindowTitle, map[string]string{"title": title + " | shutter"})
}

func (s *Session) find(id string) Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.overlays {
		if w.ID() == id {
			return w
		}
	}
	if s.dock != nil && s.dock.ID() == id {
		return s.dock
	}
	for _, w := range s.screens {
		if w.ID() == id {
			return w
		}
	}
	return nil
}

// PreviewID returns the screenshot awaiting the preview screen, or 0.
func (s *Session) PreviewID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preview
}

// DetailID returns the screenshot awaiting the detail screen, or 0.
func (s *Session) DetailID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detail
}

func (s *Session) sendAll(windows []Window, channel string, payload any) {
	for _, w := range windows {
		if err := w.Send(channel, payload); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{"window_id": w.ID(), "channel": channel}).Warn("event not delivered")
		}
	}
}

func closeWindow(log logrus.FieldLogger, w Window) {
	if err := w.Close(); err != nil {
		log.WithError(err).WithField("window_id", w.ID()).Warn("failed to close window")
	}
}
