package main

import (
	"context"
	"fmt"
	"testing"

	"github.com/hpungsan/shutter/internal/ipc"
	"github.com/hpungsan/shutter/internal/logging"
)

type fakeShell bool

func (f fakeShell) Connected() bool { return bool(f) }

type fakeCapture bool

func (f fakeCapture) Busy() bool { return bool(f) }

type fakeSession struct {
	begun int
	err   error
}

func (f *fakeSession) Begin(context.Context) error {
	f.begun++
	return f.err
}

func TestOnShortcut(t *testing.T) {
	tests := []struct {
		name      string
		connected bool
		busy      bool
		beginErr  error
		wantBegin int
	}{
		{"opens session", true, false, nil, 1},
		{"capture in flight", true, true, nil, 0},
		{"no shell", false, false, nil, 0},
		{"shell gone mid-open", true, false, ipc.ErrNoShell, 1},
		{"begin fails", true, false, fmt.Errorf("no displays"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := &fakeSession{err: tt.beginErr}
			fn := onShortcut(t.Context(), fakeShell(tt.connected), fakeCapture(tt.busy), sess, logging.Discard())
			fn()
			if sess.begun != tt.wantBegin {
				t.Errorf("Begin calls = %d, want %d", sess.begun, tt.wantBegin)
			}
		})
	}
}
