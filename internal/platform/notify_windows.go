//go:build windows

package platform

import (
	"github.com/go-toast/toast"

	"github.com/hpungsan/shutter/internal/capture"
)

// Notify pushes a toast without blocking the caller.
func (n *Notifier) Notify(note capture.Notification) error {
	n.logNotification(note)
	go func() {
		t := toast.Notification{
			AppID:   AppID,
			Title:   note.Title,
			Message: note.Body,
		}
		if err := t.Push(); err != nil && n.Log != nil {
			n.Log.WithError(err).Warn("toast notification failed")
		}
	}()
	return nil
}
