//go:build !windows

package platform

import "github.com/hpungsan/shutter/internal/capture"

// Notify logs the notification.
func (n *Notifier) Notify(note capture.Notification) error {
	n.logNotification(note)
	return nil
}
