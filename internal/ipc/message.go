// Package ipc is the message hub between the daemon and its UI surfaces.
//
// UI clients connect over WebSocket at /ws. The shell client (no query
// string) hosts windows; each surface connects with ?window=<id>. Frames
// are JSON:
//
//	{"type":"request","id":"7","channel":"library:list","payload":{}}
//	{"type":"response","id":"7","ok":true,"result":{...}}
//	{"type":"event","channel":"mode-changed","payload":{"mode":"FULLSCREEN"}}
package ipc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hpungsan/shutter/internal/errors"
)

// Frame types.
const (
	TypeRequest  = "request"
	TypeResponse = "response"
	TypeEvent    = "event"
)

// Hub-level channels exchanged with the shell client.
const (
	ChannelWindowOpen   = "window.open"
	ChannelWindowClose  = "window.close"
	ChannelWindowClosed = "window.closed"
)

type request struct {
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	Channel string          `json:"channel"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type response struct {
	Type   string     `json:"type"`
	ID     string     `json:"id"`
	OK     bool       `json:"ok"`
	Result any        `json:"result,omitempty"`
	Error  *ErrorBody `json:"error,omitempty"`
}

type event struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
	Payload any    `json:"payload,omitempty"`
}

// ErrorBody is the error member of a failed response.
type ErrorBody struct {
	Code    errors.ErrorCode `json:"code"`
	Message string           `json:"message"`
	Details map[string]any   `json:"details,omitempty"`
}

func errorBody(err error) *ErrorBody {
	se := errors.As(err)
	return &ErrorBody{Code: se.Code, Message: se.Message, Details: se.Details}
}

// Request is one inbound request as seen by a Dispatcher.
type Request struct {
	Channel string
	Payload json.RawMessage
	// WindowID is the sending surface, empty for the shell client.
	WindowID string
}

// Dispatcher answers requests.
type Dispatcher interface {
	Dispatch(ctx context.Context, req Request) (any, error)
}

// decode unmarshals a request payload into a typed struct.
// An empty payload yields the zero value.
func decode[T any](raw json.RawMessage) (T, error) {
	var result T
	if len(raw) == 0 || string(raw) == "null" {
		return result, nil
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return result, errors.NewInvalidRequest(fmt.Sprintf("invalid payload: %v", err))
	}
	return result, nil
}
