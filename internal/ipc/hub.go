package ipc

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/sirupsen/logrus"

	"github.com/hpungsan/shutter/internal/errors"
	"github.com/hpungsan/shutter/internal/session"
)

// ErrNoShell is returned by Open when no shell client is connected.
var ErrNoShell = stderrors.New("no UI shell connected")

const writeTimeout = 5 * time.Second

// Hub accepts WebSocket clients, routes their requests to a Dispatcher,
// and opens surfaces through the shell client.
type Hub struct {
	log     logrus.FieldLogger
	origins []string
	seq     atomic.Uint64

	mu         sync.Mutex
	dispatcher Dispatcher
	shells     map[*websocket.Conn]struct{}
	observers  map[*websocket.Conn]struct{}
	surfaces   map[string]*surface
}

// NewHub creates a Hub. originPatterns restricts browser origins; nil
// allows same-origin only.
func NewHub(log logrus.FieldLogger, originPatterns ...string) *Hub {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Hub{
		log:       log,
		origins:   originPatterns,
		shells:    make(map[*websocket.Conn]struct{}),
		observers: make(map[*websocket.Conn]struct{}),
		surfaces:  make(map[string]*surface),
	}
}

// SetDispatcher installs the request router.
func (h *Hub) SetDispatcher(d Dispatcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dispatcher = d
}

// Connected reports whether a shell client is attached.
func (h *Hub) Connected() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.shells) > 0
}

// ServeHTTP upgrades the connection and serves it until it closes.
// A client connecting with ?window=<id> is that window's surface; one
// with ?observer=1 only receives broadcasts; anything else is a shell.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		h.log.WithError(err).Error("websocket accept error")
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	windowID := r.URL.Query().Get("window")
	log := h.log.WithFields(logrus.Fields{"remote": r.RemoteAddr, "window_id": windowID})

	switch {
	case windowID == "":
		role := h.shells
		if r.URL.Query().Get("observer") != "" {
			role = h.observers
		}
		h.mu.Lock()
		role[conn] = struct{}{}
		h.mu.Unlock()
		defer func() {
			h.mu.Lock()
			delete(role, conn)
			h.mu.Unlock()
		}()
	default:
		s := h.attach(windowID, conn)
		if s == nil {
			_ = conn.Close(websocket.StatusPolicyViolation, "unknown window")
			return
		}
		defer h.detach(s, conn)
	}
	log.Info("websocket connected")

	// Requests outlive the socket: closing a window does not cancel a
	// capture it started.
	ctx := context.WithoutCancel(r.Context())
	for {
		var req request
		if err := wsjson.Read(r.Context(), conn, &req); err != nil {
			log.WithError(err).Debug("websocket read error")
			return
		}
		if req.Type != TypeRequest || req.Channel == "" {
			continue
		}
		go h.handle(ctx, conn, windowID, req)
	}
}

func (h *Hub) handle(ctx context.Context, conn *websocket.Conn, windowID string, req request) {
	result, err := h.call(ctx, windowID, req)

	resp := response{Type: TypeResponse, ID: req.ID, OK: err == nil, Result: result}
	if err != nil {
		resp.Error = errorBody(err)
		h.log.WithError(err).WithField("channel", req.Channel).Debug("request failed")
	}
	h.write(conn, resp)
}

// call runs one request. A panicking handler fails only its own request.
func (h *Hub) call(ctx context.Context, windowID string, req request) (result any, err error) {
	defer func() {
		if p := recover(); p != nil {
			h.log.WithFields(logrus.Fields{
				"channel": req.Channel,
				"panic":   p,
				"stack":   string(debug.Stack()),
			}).Error("request handler panicked")
			result = nil
			err = errors.NewInternal(fmt.Errorf("%s: handler panicked", req.Channel))
		}
	}()

	if req.Channel == ChannelWindowClosed {
		return nil, h.windowClosed(req)
	}
	h.mu.Lock()
	d := h.dispatcher
	h.mu.Unlock()
	if d == nil {
		return nil, fmt.Errorf("no dispatcher for %s", req.Channel)
	}
	return d.Dispatch(ctx, Request{Channel: req.Channel, Payload: req.Payload, WindowID: windowID})
}

type windowRef struct {
	ID string `json:"id"`
}

// windowClosed handles the shell's report that a window went away.
func (h *Hub) windowClosed(req request) error {
	in, err := decode[windowRef](req.Payload)
	if err != nil {
		return err
	}
	h.mu.Lock()
	s := h.surfaces[in.ID]
	h.mu.Unlock()
	if s != nil {
		h.finish(s, false)
	}
	return nil
}

func (h *Hub) write(conn *websocket.Conn, v any) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, conn, v); err != nil {
		h.log.WithError(err).Debug("websocket write error")
	}
}

// Broadcast sends an event to every connected client.
func (h *Hub) Broadcast(channel string, payload any) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.shells)+len(h.observers)+len(h.surfaces))
	for c := range h.shells {
		conns = append(conns, c)
	}
	for c := range h.observers {
		conns = append(conns, c)
	}
	for _, s := range h.surfaces {
		if c := s.connection(); c != nil {
			conns = append(conns, c)
		}
	}
	h.mu.Unlock()

	msg := event{Type: TypeEvent, Channel: channel, Payload: payload}
	for _, c := range conns {
		h.write(c, msg)
	}
}

func (h *Hub) toShells(channel string, payload any) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.shells))
	for c := range h.shells {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	msg := event{Type: TypeEvent, Channel: channel, Payload: payload}
	for _, c := range conns {
		h.write(c, msg)
	}
}

// OpenPayload is the body of a window.open event.
type OpenPayload struct {
	ID   string             `json:"id"`
	Spec session.WindowSpec `json:"spec"`
}

// Open implements session.WindowFactory. The shell client is asked to
// create the window; events sent before the surface connects are queued.
func (h *Hub) Open(_ context.Context, spec session.WindowSpec) (session.Window, error) {
	h.mu.Lock()
	if len(h.shells) == 0 {
		h.mu.Unlock()
		return nil, ErrNoShell
	}
	id := fmt.Sprintf("%s-%d", spec.Kind, h.seq.Add(1))
	s := &surface{hub: h, id: id, spec: spec}
	h.surfaces[id] = s
	h.mu.Unlock()

	h.toShells(ChannelWindowOpen, OpenPayload{ID: id, Spec: spec})
	h.log.WithFields(logrus.Fields{"window_id": id, "kind": spec.Kind}).Debug("window opened")
	return s, nil
}

// attach binds a surface connection once its queued events are flushed.
// Writes happen outside s.mu; events sent meanwhile join the queue and
// are flushed in order on the next pass.
func (h *Hub) attach(id string, conn *websocket.Conn) *surface {
	h.mu.Lock()
	s := h.surfaces[id]
	h.mu.Unlock()
	if s == nil {
		return nil
	}

	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return nil
		}
		pending := s.queue
		s.queue = nil
		if len(pending) == 0 {
			s.conn = conn
			s.mu.Unlock()
			return s
		}
		s.mu.Unlock()

		for _, e := range pending {
			h.write(conn, e)
		}
	}
}

// detach treats a surface disconnect as the window closing.
func (h *Hub) detach(s *surface, conn *websocket.Conn) {
	s.mu.Lock()
	current := s.conn == conn
	s.mu.Unlock()
	if current {
		h.finish(s, true)
	}
}

// finish marks s closed, forgets it, optionally asks the shell to drop
// the window, and runs close callbacks once.
func (h *Hub) finish(s *surface, tellShell bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	fns := s.onClose
	s.onClose = nil
	conn := s.conn
	s.conn = nil
	s.queue = nil
	s.mu.Unlock()

	h.mu.Lock()
	delete(h.surfaces, s.id)
	h.mu.Unlock()

	if tellShell {
		h.toShells(ChannelWindowClose, windowRef{ID: s.id})
	}
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "window closed")
	}
	for _, fn := range fns {
		fn()
	}
	h.log.WithField("window_id", s.id).Debug("window closed")
}
