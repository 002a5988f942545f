package session

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/shutter/internal/capture"
	"github.com/hpungsan/shutter/internal/errors"
	"github.com/hpungsan/shutter/internal/region"
)

type sent struct {
	channel string
	payload any
}

type fakeWindow struct {
	id     string
	spec   WindowSpec
	mu     sync.Mutex
	events []sent
	closed bool
	onCl   []func()
}

func (w *fakeWindow) ID() string            { return w.id }
func (w *fakeWindow) Kind() Kind            { return w.spec.Kind }
func (w *fakeWindow) Bounds() region.Bounds { return w.spec.Bounds }

func (w *fakeWindow) Send(channel string, payload any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events = append(w.events, sent{channel, payload})
	return nil
}

func (w *fakeWindow) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	fns := w.onCl
	w.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
	return nil
}

func (w *fakeWindow) OnClose(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onCl = append(w.onCl, fn)
}

func (w *fakeWindow) channels() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []string
	for _, e := range w.events {
		out = append(out, e.channel)
	}
	return out
}

type fakeFactory struct {
	mu      sync.Mutex
	opened  []*fakeWindow
	failAt  int // fail the n-th Open (1-based); 0 never
	counter int
}

func (f *fakeFactory) Open(_ context.Context, spec WindowSpec) (Window, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counter++
	if f.failAt == f.counter {
		return nil, stderrors.New("shell not connected")
	}
	w := &fakeWindow{id: fmt.Sprintf("w%d", f.counter), spec: spec}
	f.opened = append(f.opened, w)
	return w, nil
}

type fakeDisplays struct {
	displays []capture.Display
	cursor   int
}

func (f *fakeDisplays) Displays(context.Context) ([]capture.Display, error) {
	return f.displays, nil
}

func (f *fakeDisplays) CursorDisplay(context.Context) (capture.Display, error) {
	return f.displays[f.cursor], nil
}

func twoDisplays() *fakeDisplays {
	return &fakeDisplays{
		displays: []capture.Display{
			{ID: "0", Bounds: region.Bounds{Width: 1920, Height: 1080}, WorkArea: region.Bounds{Y: 25, Width: 1920, Height: 1055}, Primary: true},
			{ID: "1", Bounds: region.Bounds{X: 1920, Width: 1280, Height: 1024}, WorkArea: region.Bounds{X: 1920, Width: 1280, Height: 984}},
		},
		cursor: 1,
	}
}

func TestDockBounds(t *testing.T) {
	got := DockBounds(region.Bounds{X: 0, Y: 25, Width: 1920, Height: 1055})
	require.Equal(t, region.Bounds{X: 660, Y: 1010, Width: 600, Height: 60}, got)

	narrow := DockBounds(region.Bounds{X: 100, Y: 0, Width: 500, Height: 400})
	require.Equal(t, 460, narrow.Width)
	require.Equal(t, 120, narrow.X)
	require.Equal(t, 330, narrow.Y)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("PARTIAL_SCREEN")
	require.NoError(t, err)
	require.Equal(t, ModePartial, m)

	_, err = ParseMode("area")
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestBegin_OpensOverlaysAndDock(t *testing.T) {
	f := &fakeFactory{}
	s := New(f, twoDisplays(), nil)
	require.NoError(t, s.SetMode(ModePartial))

	require.NoError(t, s.Begin(t.Context()))

	overlays := s.Overlays()
	require.Len(t, overlays, 2)
	for i, w := range overlays {
		fw := w.(*fakeWindow)
		require.Equal(t, KindOverlay, fw.spec.Kind)
		require.True(t, fw.spec.Frameless)
		require.True(t, fw.spec.Transparent)
		require.True(t, fw.spec.AlwaysOnTop)
		require.False(t, fw.spec.Resizable)
		require.Equal(t, twoDisplays().displays[i].Bounds, fw.spec.Bounds)
		require.Equal(t, []sent{{EventReadyToTakePrint, ModePayload{Mode: ModePartial}}}, fw.events)
	}

	dock := s.Dock().(*fakeWindow)
	require.Equal(t, KindDock, dock.spec.Kind)
	require.Equal(t, "1", dock.spec.DisplayID)
	require.Equal(t, region.Bounds{X: 2260, Y: 914, Width: 600, Height: 60}, dock.spec.Bounds)
	require.True(t, s.Active())
}

func TestBegin_ClosesLeftovers(t *testing.T) {
	f := &fakeFactory{}
	s := New(f, twoDisplays(), nil)

	require.NoError(t, s.Begin(t.Context()))
	first := append([]*fakeWindow(nil), f.opened...)

	require.NoError(t, s.Begin(t.Context()))
	for _, w := range first {
		require.True(t, w.closed, "window %s should be closed", w.id)
	}
	require.Len(t, s.Overlays(), 2)
}

func TestBegin_FailureRollsBack(t *testing.T) {
	f := &fakeFactory{failAt: 2}
	s := New(f, twoDisplays(), nil)

	err := s.Begin(t.Context())
	require.Error(t, err)
	require.True(t, f.opened[0].closed)
	require.False(t, s.Active())
}

func TestSetMode_BroadcastsToOverlaysOnly(t *testing.T) {
	f := &fakeFactory{}
	s := New(f, twoDisplays(), nil)
	require.NoError(t, s.Begin(t.Context()))

	require.NoError(t, s.SetMode(ModePartial))
	require.Equal(t, ModePartial, s.Mode())

	for _, w := range s.Overlays() {
		require.Equal(t, []string{EventReadyToTakePrint, EventModeChanged}, w.(*fakeWindow).channels())
	}
	require.Empty(t, s.Dock().(*fakeWindow).channels())

	require.Error(t, s.SetMode("bogus"))
	require.Equal(t, ModePartial, s.Mode())
}

func TestOverlaySelfRemovesOnClose(t *testing.T) {
	f := &fakeFactory{}
	s := New(f, twoDisplays(), nil)
	require.NoError(t, s.Begin(t.Context()))

	first := s.Overlays()[0]
	require.NoError(t, first.Close())

	rest := s.Overlays()
	require.Len(t, rest, 1)
	require.NotEqual(t, first.ID(), rest[0].ID())
}

func TestEscape_ClosesEverythingAndClearsPreview(t *testing.T) {
	f := &fakeFactory{}
	s := New(f, twoDisplays(), nil)

	_, err := s.ShowPreview(t.Context(), 42)
	require.NoError(t, err)
	require.Equal(t, int64(42), s.PreviewID())

	require.NoError(t, s.Begin(t.Context()))
	overlays := s.Overlays()
	dock := s.Dock().(*fakeWindow)

	s.Escape()

	require.False(t, s.Active())
	require.Empty(t, s.Overlays())
	require.Nil(t, s.Dock())
	require.Zero(t, s.PreviewID())
	for _, w := range overlays {
		fw := w.(*fakeWindow)
		require.True(t, fw.closed)
		require.Contains(t, fw.channels(), EventEscape)
	}
	require.True(t, dock.closed)
}

func TestOpenScreen_ClosesTransients(t *testing.T) {
	f := &fakeFactory{}
	s := New(f, twoDisplays(), nil)
	require.NoError(t, s.Begin(t.Context()))

	lib, err := s.OpenScreen(t.Context(), KindLibrary)
	require.NoError(t, err)
	require.False(t, s.Active())

	fw := lib.(*fakeWindow)
	require.Equal(t, KindLibrary, fw.spec.Kind)
	require.True(t, fw.spec.Resizable)
	// centered on the cursor display work area, shrunk to fit
	require.Equal(t, region.Bounds{X: 1960, Y: 92, Width: 1200, Height: 800}, fw.spec.Bounds)

	again, err := s.OpenScreen(t.Context(), KindLibrary)
	require.NoError(t, err)
	require.Equal(t, lib.ID(), again.ID())

	_, err = s.OpenScreen(t.Context(), KindOverlay)
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestScreenForgottenOnClose(t *testing.T) {
	f := &fakeFactory{}
	s := New(f, twoDisplays(), nil)

	w, err := s.OpenScreen(t.Context(), KindSettings)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.Nil(t, s.Screen(KindSettings))
}

func TestOpenDetail_ReplacesExisting(t *testing.T) {
	f := &fakeFactory{}
	s := New(f, twoDisplays(), nil)

	first, err := s.OpenDetail(t.Context(), 1)
	require.NoError(t, err)
	second, err := s.OpenDetail(t.Context(), 2)
	require.NoError(t, err)

	require.NotEqual(t, first.ID(), second.ID())
	require.True(t, first.(*fakeWindow).closed)
	require.Equal(t, int64(2), s.DetailID())
	require.Equal(t, second.ID(), s.Screen(KindDetail).ID())
}

func TestWindowBoundsAndTitle(t *testing.T) {
	f := &fakeFactory{}
	s := New(f, twoDisplays(), nil)
	require.NoError(t, s.Begin(t.Context()))

	overlay := s.Overlays()[1]
	b, ok := s.WindowBounds(overlay.ID())
	require.True(t, ok)
	require.Equal(t, 1920, b.X)

	_, ok = s.WindowBounds("nope")
	require.False(t, ok)

	lib, err := s.OpenScreen(t.Context(), KindLibrary)
	require.NoError(t, err)
	require.NoError(t, s.SetTitle(lib.ID(), "Library"))
	fw := lib.(*fakeWindow)
	require.Equal(t, sent{EventSetWindowTitle, map[string]string{"title": "Library | shutter"}}, fw.events[0])

	require.Error(t, s.SetTitle("nope", "x"))
}
