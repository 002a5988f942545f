package ipc

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/hpungsan/shutter/internal/capture"
	"github.com/hpungsan/shutter/internal/errors"
	"github.com/hpungsan/shutter/internal/library"
	"github.com/hpungsan/shutter/internal/screenshot"
	"github.com/hpungsan/shutter/internal/session"
)

// Request channels.
const (
	ChannelGetMode        = "capture:get-mode"
	ChannelSetMode        = "capture:set-mode"
	ChannelTakeFullscreen = "capture:take-fullscreen"
	ChannelTakePartial    = "capture:take-partial"

	ChannelList       = "library:list"
	ChannelListNewer  = "library:list-newer"
	ChannelGet        = "library:get"
	ChannelDelete     = "library:delete"
	ChannelRename     = "library:rename"
	ChannelSave       = "library:save"
	ChannelSaveAs     = "library:save-as"
	ChannelCopy       = "library:copy"
	ChannelCopyDraw   = "library:copy-drawing"
	ChannelReveal     = "library:reveal"
	ChannelOpen       = "library:open"
	ChannelPreviewID  = "library:preview-id"
	ChannelDetailID   = "library:detail-id"
	ChannelOpenDetail = "library:open-detail"

	ChannelSettingsGet   = "settings:get"
	ChannelSettingsSet   = "settings:set"
	ChannelSelectFolder  = "settings:select-folder"
	ChannelEscape        = "session:escape"
	ChannelOpenLibrary   = "session:open-library"
	ChannelOpenSettings  = "session:open-settings"
	ChannelSetTitle      = "session:set-title"
	ChannelNotify        = "notify"
	EventScreenshotAdded = "screenshot-created"
)

// Dialogs shows native file pickers. An empty path means cancelled.
type Dialogs interface {
	SelectFolder(title, startDir string) (string, error)
	SaveFile(title, startDir, suggestedName string) (string, error)
}

// Broadcaster delivers an event to every client.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// Deps are the Router's collaborators.
type Deps struct {
	DB        *sql.DB
	Session   *session.Session
	Capture   *capture.Orchestrator
	Clipboard library.Clipboard
	Opener    library.Opener
	Notifier  capture.Notifier
	Dialogs   Dialogs
	Events    Broadcaster

	// FallbackSaveDir is used when no save directory is stored.
	FallbackSaveDir string

	Logger logrus.FieldLogger
}

type handlerFunc func(ctx context.Context, req Request) (any, error)

// Router maps channels to operations.
type Router struct {
	deps     Deps
	log      logrus.FieldLogger
	handlers map[string]handlerFunc
}

// NewRouter creates a Router with every channel registered.
func NewRouter(deps Deps) *Router {
	r := &Router{deps: deps, log: deps.Logger}
	if r.log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		r.log = l
	}
	r.handlers = map[string]handlerFunc{
		ChannelGetMode:        r.getMode,
		ChannelSetMode:        r.setMode,
		ChannelTakeFullscreen: r.takeFullscreen,
		ChannelTakePartial:    r.takePartial,

		ChannelList:       r.list,
		ChannelListNewer:  r.listNewer,
		ChannelGet:        r.get,
		ChannelDelete:     r.delete,
		ChannelRename:     r.rename,
		ChannelSave:       r.save,
		ChannelSaveAs:     r.saveAs,
		ChannelCopy:       r.copy,
		ChannelCopyDraw:   r.copyDrawing,
		ChannelReveal:     r.reveal,
		ChannelOpen:       r.open,
		ChannelPreviewID:  r.previewID,
		ChannelDetailID:   r.detailID,
		ChannelOpenDetail: r.openDetail,

		ChannelSettingsGet:  r.settingsGet,
		ChannelSettingsSet:  r.settingsSet,
		ChannelSelectFolder: r.selectFolder,
		ChannelEscape:       r.escape,
		ChannelOpenLibrary:  r.openScreen(session.KindLibrary),
		ChannelOpenSettings: r.openScreen(session.KindSettings),
		ChannelSetTitle:     r.setTitle,
		ChannelNotify:       r.notify,
	}
	return r
}

// Dispatch implements Dispatcher.
func (r *Router) Dispatch(ctx context.Context, req Request) (any, error) {
	h, ok := r.handlers[req.Channel]
	if !ok {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown channel %q", req.Channel))
	}
	return h(ctx, req)
}

// Captured announces a stored capture and opens its preview. It is
// meant to be the capture orchestrator's OnCaptured hook.
func (r *Router) Captured(s *screenshot.Screenshot) {
	if r.deps.Events != nil {
		r.deps.Events.Broadcast(EventScreenshotAdded, s)
	}
	if r.deps.Session == nil {
		return
	}
	if _, err := r.deps.Session.ShowPreview(context.Background(), s.ID); err != nil {
		r.log.WithError(err).WithField("screenshot_id", s.ID).Debug("preview not opened")
	}
}
