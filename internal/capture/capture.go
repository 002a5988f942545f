// Package capture drives one screen capture from trigger to persisted PNG.
//
// A capture runs through the states
//
//	Idle -> PermissionCheck -> SourceDiscovery -> ImageAcquisition -> [Crop] -> Persist -> Done
//
// and may end in Aborted from any state. Only one capture runs at a time
// per Orchestrator; a concurrent request fails with CAPTURE_IN_PROGRESS.
package capture

import (
	"context"
	"database/sql"
	"image"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hpungsan/shutter/internal/db"
	"github.com/hpungsan/shutter/internal/region"
	"github.com/hpungsan/shutter/internal/screenshot"
)

// Display is one monitor. Bounds and WorkArea are in logical pixels.
type Display struct {
	ID          string        `json:"id"`
	Bounds      region.Bounds `json:"bounds"`
	WorkArea    region.Bounds `json:"work_area"`
	ScaleFactor float64       `json:"scale_factor"`
	Primary     bool          `json:"primary"`
}

// Scale returns the device pixel ratio, never below 1.
func (d Display) Scale() float64 {
	if d.ScaleFactor <= 0 {
		return 1
	}
	return d.ScaleFactor
}

// Displays enumerates monitors.
type Displays interface {
	Displays(ctx context.Context) ([]Display, error)
	// CursorDisplay returns the display under the pointer.
	CursorDisplay(ctx context.Context) (Display, error)
}

// Source is a capturable screen with a thumbnail at the requested size.
type Source struct {
	ID        string
	DisplayID string
	Name      string
	Thumbnail image.Image
}

// Sources enumerates capture sources with thumbnails of width x height.
type Sources interface {
	Sources(ctx context.Context, width, height int) ([]Source, error)
}

// PermissionStatus is the OS screen-recording consent state.
type PermissionStatus string

const (
	PermissionGranted       PermissionStatus = "granted"
	PermissionDenied        PermissionStatus = "denied"
	PermissionNotDetermined PermissionStatus = "not-determined"
	PermissionUnknown       PermissionStatus = "unknown"
)

// Permissions queries consent and opens the OS privacy panel.
type Permissions interface {
	Status(ctx context.Context) (PermissionStatus, error)
	OpenSettings(ctx context.Context) error
}

// Clipboard receives PNG bytes.
type Clipboard interface {
	WriteImage(png []byte) error
}

// Level classifies a user notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a native desktop notification.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Level Level  `json:"level"`
}

// Notifier dispatches desktop notifications.
type Notifier interface {
	Notify(n Notification) error
}

// Store persists screenshot rows.
type Store interface {
	InsertScreenshot(ctx context.Context, s *screenshot.Screenshot) (int64, error)
}

// SQLStore is the Store backed by the shutter database.
type SQLStore struct {
	DB *sql.DB
}

// InsertScreenshot implements Store.
func (s SQLStore) InsertScreenshot(ctx context.Context, shot *screenshot.Screenshot) (int64, error) {
	return db.InsertScreenshot(ctx, s.DB, shot)
}

// SaveDirFunc resolves (and creates) the directory captures are written to.
type SaveDirFunc func(ctx context.Context) (string, error)

// Deps are the collaborators an Orchestrator needs. All are required
// except OnCaptured and Logger.
type Deps struct {
	Displays    Displays
	Sources     Sources
	Permissions Permissions
	Clipboard   Clipboard
	Notifier    Notifier
	Store       Store
	SaveDir     SaveDirFunc

	// OnCaptured is called after a row was stored.
	OnCaptured func(s *screenshot.Screenshot)

	Logger logrus.FieldLogger
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithPermissionSettle sets the delay before re-checking a denied or
// undetermined consent status.
func WithPermissionSettle(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.settle = d
	}
}

// WithClock replaces time.Now and the settle sleep. Used by tests.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
		if sleep != nil {
			o.sleep = sleep
		}
	}
}

// DefaultPermissionSettle is the consent re-check delay.
const DefaultPermissionSettle = 500 * time.Millisecond

// Orchestrator runs captures. It is safe for concurrent use; overlapping
// requests are rejected, not queued.
type Orchestrator struct {
	deps   Deps
	log    logrus.FieldLogger
	settle time.Duration
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error

	inFlight atomic.Bool
}

// New creates an Orchestrator.
func New(deps Deps, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		deps:   deps,
		log:    deps.Logger,
		settle: DefaultPermissionSettle,
		now:    time.Now,
		sleep:  sleepCtx,
	}
	if o.log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		o.log = l
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Busy reports whether a capture is in flight.
func (o *Orchestrator) Busy() bool {
	return o.inFlight.Load()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
