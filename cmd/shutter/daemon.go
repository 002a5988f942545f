package main

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hpungsan/shutter/internal/capture"
	"github.com/hpungsan/shutter/internal/config"
	"github.com/hpungsan/shutter/internal/db"
	"github.com/hpungsan/shutter/internal/hotkey"
	"github.com/hpungsan/shutter/internal/ipc"
	"github.com/hpungsan/shutter/internal/platform"
	"github.com/hpungsan/shutter/internal/screenshot"
	"github.com/hpungsan/shutter/internal/session"
	"github.com/hpungsan/shutter/internal/settings"
	"github.com/hpungsan/shutter/internal/web"
)

// newOrchestrator builds a capture pipeline bound to the local desktop.
func newOrchestrator(database *sql.DB, cfg *config.Config, log logrus.FieldLogger, onCaptured func(*screenshot.Screenshot)) *capture.Orchestrator {
	screens := &platform.Screens{ScaleFactor: cfg.ScaleFactor()}
	return capture.New(capture.Deps{
		Displays:    screens,
		Sources:     screens,
		Permissions: platform.Permissions{},
		Clipboard:   &platform.Clipboard{},
		Notifier:    &platform.Notifier{Log: log},
		Store:       capture.SQLStore{DB: database},
		SaveDir: func(ctx context.Context) (string, error) {
			return settings.SaveDir(ctx, database, cfg.SaveDirectory)
		},
		OnCaptured: onCaptured,
		Logger:     log.WithField("component", "capture"),
	}, capture.WithPermissionSettle(time.Duration(cfg.PermissionSettleMs)*time.Millisecond))
}

// runDaemon wires the window host, capture pipeline, gallery and hotkey,
// and blocks until ctx is done or the gallery server fails.
func runDaemon(ctx context.Context, database *sql.DB, cfg *config.Config, log logrus.FieldLogger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hub := ipc.NewHub(log.WithField("component", "ipc"))
	screens := &platform.Screens{ScaleFactor: cfg.ScaleFactor()}
	sess := session.New(hub, screens, log.WithField("component", "session"))

	var router *ipc.Router
	orch := newOrchestrator(database, cfg, log, func(s *screenshot.Screenshot) {
		router.Captured(s)
	})
	router = ipc.NewRouter(ipc.Deps{
		DB:              database,
		Session:         sess,
		Capture:         orch,
		Clipboard:       &platform.Clipboard{},
		Opener:          &platform.Opener{},
		Notifier:        &platform.Notifier{Log: log},
		Dialogs:         platform.Dialogs{},
		Events:          hub,
		FallbackSaveDir: cfg.SaveDirectory,
		Logger:          log.WithField("component", "router"),
	})
	hub.SetDispatcher(router)

	srv, err := web.NewServer(database, cfg, Version, log.WithField("component", "web"), hub)
	if err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- web.Run(ctx, srv, log)
	}()

	go func() {
		err := hotkey.Listen(ctx, cfg.Hotkey, onShortcut(ctx, hub, orch, sess, log), log)
		if err != nil {
			// Keep serving the gallery without the shortcut.
			log.WithError(err).Error("capture hotkey unavailable")
		}
	}()

	fields := logrus.Fields{"hotkey": cfg.Hotkey}
	if n, err := db.CountScreenshots(ctx, database); err != nil {
		log.WithError(err).Warn("failed to count screenshots")
	} else {
		fields["screenshots"] = n
	}
	log.WithFields(fields).Info("shutter daemon started")
	err = <-serveErr
	cancel()
	sess.CloseAll()
	return err
}

type shellStatus interface {
	Connected() bool
}

type captureStatus interface {
	Busy() bool
}

type sessionStarter interface {
	Begin(ctx context.Context) error
}

// onShortcut opens the capture UI, unless a capture is still running or
// no shell is attached to host the overlays.
func onShortcut(ctx context.Context, shell shellStatus, capt captureStatus, sess sessionStarter, log logrus.FieldLogger) func() {
	return func() {
		if capt.Busy() {
			log.Debug("capture hotkey ignored while a capture is in progress")
			return
		}
		if !shell.Connected() {
			log.Warn("capture hotkey pressed but no UI shell is connected")
			return
		}
		if err := sess.Begin(ctx); err != nil {
			if stderrors.Is(err, ipc.ErrNoShell) {
				log.Warn("UI shell disconnected before the capture session opened")
				return
			}
			log.WithError(err).Error("failed to start capture session")
		}
	}
}
