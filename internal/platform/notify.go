package platform

import (
	"github.com/sirupsen/logrus"

	"github.com/hpungsan/shutter/internal/capture"
)

// AppID names the application in notifications.
const AppID = "shutter"

// Notifier shows desktop notifications. Every notification is also logged.
type Notifier struct {
	Log logrus.FieldLogger
}

var _ capture.Notifier = (*Notifier)(nil)

func (n *Notifier) logNotification(note capture.Notification) {
	if n.Log == nil {
		return
	}
	entry := n.Log.WithField("title", note.Title)
	switch note.Level {
	case capture.LevelError:
		entry.Error(note.Body)
	case capture.LevelWarning:
		entry.Warn(note.Body)
	default:
		entry.Info(note.Body)
	}
}
