package ipc

import (
	"fmt"
	"sync"

	"github.com/coder/websocket"

	"github.com/hpungsan/shutter/internal/region"
	"github.com/hpungsan/shutter/internal/session"
)

// surface is a window hosted by the shell client.
type surface struct {
	hub  *Hub
	id   string
	spec session.WindowSpec

	mu      sync.Mutex
	conn    *websocket.Conn
	queue   []event
	closed  bool
	onClose []func()
}

var _ session.Window = (*surface)(nil)

func (s *surface) ID() string            { return s.id }
func (s *surface) Kind() session.Kind    { return s.spec.Kind }
func (s *surface) Bounds() region.Bounds { return s.spec.Bounds }

func (s *surface) Send(channel string, payload any) error {
	e := event{Type: TypeEvent, Channel: channel, Payload: payload}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("window %s is closed", s.id)
	}
	if s.conn == nil {
		s.queue = append(s.queue, e)
		s.mu.Unlock()
		return nil
	}
	conn := s.conn
	s.mu.Unlock()

	s.hub.write(conn, e)
	return nil
}

func (s *surface) Close() error {
	s.hub.finish(s, true)
	return nil
}

func (s *surface) OnClose(fn func()) {
	s.mu.Lock()
	if !s.closed {
		s.onClose = append(s.onClose, fn)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	fn()
}

func (s *surface) connection() *websocket.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}
