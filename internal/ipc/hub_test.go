package ipc

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/shutter/internal/errors"
	"github.com/hpungsan/shutter/internal/region"
	"github.com/hpungsan/shutter/internal/session"
)

type dispatchFunc func(ctx context.Context, req Request) (any, error)

func (f dispatchFunc) Dispatch(ctx context.Context, req Request) (any, error) { return f(ctx, req) }

// frame is the client-side view of any server frame.
type frame struct {
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	Channel string          `json:"channel"`
	OK      bool            `json:"ok"`
	Result  json.RawMessage `json:"result"`
	Error   *ErrorBody      `json:"error"`
	Payload json.RawMessage `json:"payload"`
}

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(nil)
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(t.Context(), url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.CloseNow() })
	return conn
}

func dialShell(t *testing.T, hub *Hub, url string) *websocket.Conn {
	t.Helper()
	conn := dial(t, url)
	require.Eventually(t, hub.Connected, time.Second, 5*time.Millisecond)
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
	defer cancel()
	var f frame
	require.NoError(t, wsjson.Read(ctx, conn, &f))
	return f
}

func sendRequest(t *testing.T, conn *websocket.Conn, id, channel string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, wsjson.Write(t.Context(), conn, request{Type: TypeRequest, ID: id, Channel: channel, Payload: raw}))
}

func TestHub_RequestResponse(t *testing.T) {
	hub, url := startHub(t)
	hub.SetDispatcher(dispatchFunc(func(_ context.Context, req Request) (any, error) {
		if req.Channel == "boom" {
			return nil, errors.NewNotFound(3)
		}
		return map[string]string{"echo": req.Channel}, nil
	}))
	conn := dialShell(t, hub, url)

	sendRequest(t, conn, "1", "ping", nil)
	f := readFrame(t, conn)
	require.Equal(t, TypeResponse, f.Type)
	require.Equal(t, "1", f.ID)
	require.True(t, f.OK)
	require.JSONEq(t, `{"echo":"ping"}`, string(f.Result))

	sendRequest(t, conn, "2", "boom", nil)
	f = readFrame(t, conn)
	require.False(t, f.OK)
	require.Equal(t, errors.ErrNotFound, f.Error.Code)
}

func TestHub_PanickingHandlerFailsOnlyItsRequest(t *testing.T) {
	hub, url := startHub(t)
	hub.SetDispatcher(dispatchFunc(func(_ context.Context, req Request) (any, error) {
		if req.Channel == ChannelTakePartial {
			panic("image: NewRGBA Rectangle has huge or negative dimensions")
		}
		return map[string]string{"echo": req.Channel}, nil
	}))
	conn := dialShell(t, hub, url)

	sendRequest(t, conn, "1", ChannelTakePartial, nil)
	f := readFrame(t, conn)
	require.Equal(t, "1", f.ID)
	require.False(t, f.OK)
	require.Equal(t, errors.ErrInternal, f.Error.Code)

	// the hub keeps serving
	sendRequest(t, conn, "2", "ping", nil)
	f = readFrame(t, conn)
	require.Equal(t, "2", f.ID)
	require.True(t, f.OK)
}

func TestHub_OpenWithoutShell(t *testing.T) {
	hub, _ := startHub(t)
	_, err := hub.Open(t.Context(), session.WindowSpec{Kind: session.KindDock})
	require.ErrorIs(t, err, ErrNoShell)
}

func TestHub_SurfaceLifecycle(t *testing.T) {
	hub, url := startHub(t)
	shell := dialShell(t, hub, url)

	spec := session.WindowSpec{Kind: session.KindOverlay, DisplayID: "0", Bounds: region.Bounds{Width: 800, Height: 600}}
	w, err := hub.Open(t.Context(), spec)
	require.NoError(t, err)
	require.Equal(t, spec.Bounds, w.Bounds())

	f := readFrame(t, shell)
	require.Equal(t, ChannelWindowOpen, f.Channel)
	var open OpenPayload
	require.NoError(t, json.Unmarshal(f.Payload, &open))
	require.Equal(t, w.ID(), open.ID)
	require.Equal(t, session.KindOverlay, open.Spec.Kind)

	// queued until the surface connects
	require.NoError(t, w.Send(session.EventReadyToTakePrint, session.ModePayload{Mode: session.ModePartial}))

	closed := make(chan struct{})
	w.OnClose(func() { close(closed) })

	surf := dial(t, url+"?window="+w.ID())
	f = readFrame(t, surf)
	require.Equal(t, TypeEvent, f.Type)
	require.Equal(t, session.EventReadyToTakePrint, f.Channel)
	require.JSONEq(t, `{"mode":"PARTIAL_SCREEN"}`, string(f.Payload))

	require.NoError(t, surf.Close(websocket.StatusNormalClosure, ""))
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("close callback not called after surface disconnect")
	}

	f = readFrame(t, shell)
	require.Equal(t, ChannelWindowClose, f.Channel)
	require.Error(t, w.Send("late", nil))
}

func TestHub_QueuedEventsFlushInOrder(t *testing.T) {
	hub, url := startHub(t)
	shell := dialShell(t, hub, url)

	w, err := hub.Open(t.Context(), session.WindowSpec{Kind: session.KindDock})
	require.NoError(t, err)
	readFrame(t, shell) // window.open

	for _, ch := range []string{"first", "second", "third"} {
		require.NoError(t, w.Send(ch, nil))
	}

	surf := dial(t, url+"?window="+w.ID())
	for _, want := range []string{"first", "second", "third"} {
		require.Equal(t, want, readFrame(t, surf).Channel)
	}

	require.Eventually(t, func() bool { return w.(*surface).connection() != nil }, time.Second, 5*time.Millisecond)
	require.NoError(t, w.Send("fourth", nil))
	require.Equal(t, "fourth", readFrame(t, surf).Channel)
}

func TestHub_CloseAsksShell(t *testing.T) {
	hub, url := startHub(t)
	shell := dialShell(t, hub, url)

	w, err := hub.Open(t.Context(), session.WindowSpec{Kind: session.KindLibrary})
	require.NoError(t, err)
	readFrame(t, shell) // window.open

	calls := 0
	w.OnClose(func() { calls++ })
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	require.Equal(t, 1, calls)

	f := readFrame(t, shell)
	require.Equal(t, ChannelWindowClose, f.Channel)
	require.JSONEq(t, `{"id":"`+w.ID()+`"}`, string(f.Payload))

	// registering after close runs immediately
	ran := false
	w.OnClose(func() { ran = true })
	require.True(t, ran)
}

func TestHub_WindowClosedFromShell(t *testing.T) {
	hub, url := startHub(t)
	shell := dialShell(t, hub, url)

	w, err := hub.Open(t.Context(), session.WindowSpec{Kind: session.KindSettings})
	require.NoError(t, err)
	readFrame(t, shell)

	closed := make(chan struct{})
	w.OnClose(func() { close(closed) })

	sendRequest(t, shell, "9", ChannelWindowClosed, windowRef{ID: w.ID()})
	f := readFrame(t, shell)
	require.Equal(t, "9", f.ID)
	require.True(t, f.OK)

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("close callback not called")
	}
}

func TestHub_UnknownWindowRejected(t *testing.T) {
	_, url := startHub(t)
	conn := dial(t, url+"?window=overlay-99")

	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
	defer cancel()
	_, _, err := conn.Read(ctx)
	require.Equal(t, websocket.StatusPolicyViolation, websocket.CloseStatus(err))
}

func TestHub_Broadcast(t *testing.T) {
	hub, url := startHub(t)
	shell := dialShell(t, hub, url)

	hub.Broadcast(EventScreenshotAdded, map[string]int{"id": 5})
	f := readFrame(t, shell)
	require.Equal(t, TypeEvent, f.Type)
	require.Equal(t, EventScreenshotAdded, f.Channel)
	require.JSONEq(t, `{"id":5}`, string(f.Payload))
}

func TestHub_ObserverGetsBroadcastsOnly(t *testing.T) {
	hub, url := startHub(t)
	observer := dial(t, url+"?observer=1")
	require.Eventually(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return len(hub.observers) == 1
	}, time.Second, 5*time.Millisecond)

	require.False(t, hub.Connected())
	_, err := hub.Open(t.Context(), session.WindowSpec{Kind: session.KindPreview})
	require.ErrorIs(t, err, ErrNoShell)

	hub.Broadcast(EventScreenshotAdded, map[string]int{"id": 9})
	f := readFrame(t, observer)
	require.Equal(t, EventScreenshotAdded, f.Channel)
	require.JSONEq(t, `{"id":9}`, string(f.Payload))
}

func TestDecode(t *testing.T) {
	in, err := decode[idInput](nil)
	require.NoError(t, err)
	require.Zero(t, in.ID)

	in, err = decode[idInput](json.RawMessage(`{"id":12}`))
	require.NoError(t, err)
	require.Equal(t, int64(12), in.ID)

	_, err = decode[idInput](json.RawMessage(`{"id":"x"}`))
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
}
