// Package hotkey registers the global capture shortcut.
package hotkey

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	xhotkey "golang.design/x/hotkey"
	"golang.design/x/hotkey/mainthread"
)

var keys = map[string]xhotkey.Key{
	"a": xhotkey.KeyA, "b": xhotkey.KeyB, "c": xhotkey.KeyC, "d": xhotkey.KeyD,
	"e": xhotkey.KeyE, "f": xhotkey.KeyF, "g": xhotkey.KeyG, "h": xhotkey.KeyH,
	"i": xhotkey.KeyI, "j": xhotkey.KeyJ, "k": xhotkey.KeyK, "l": xhotkey.KeyL,
	"m": xhotkey.KeyM, "n": xhotkey.KeyN, "o": xhotkey.KeyO, "p": xhotkey.KeyP,
	"q": xhotkey.KeyQ, "r": xhotkey.KeyR, "s": xhotkey.KeyS, "t": xhotkey.KeyT,
	"u": xhotkey.KeyU, "v": xhotkey.KeyV, "w": xhotkey.KeyW, "x": xhotkey.KeyX,
	"y": xhotkey.KeyY, "z": xhotkey.KeyZ,

	"0": xhotkey.Key0, "1": xhotkey.Key1, "2": xhotkey.Key2, "3": xhotkey.Key3,
	"4": xhotkey.Key4, "5": xhotkey.Key5, "6": xhotkey.Key6, "7": xhotkey.Key7,
	"8": xhotkey.Key8, "9": xhotkey.Key9,

	"f1": xhotkey.KeyF1, "f2": xhotkey.KeyF2, "f3": xhotkey.KeyF3, "f4": xhotkey.KeyF4,
	"f5": xhotkey.KeyF5, "f6": xhotkey.KeyF6, "f7": xhotkey.KeyF7, "f8": xhotkey.KeyF8,
	"f9": xhotkey.KeyF9, "f10": xhotkey.KeyF10, "f11": xhotkey.KeyF11, "f12": xhotkey.KeyF12,

	"space":  xhotkey.KeySpace,
	"return": xhotkey.KeyReturn,
	"enter":  xhotkey.KeyReturn,
	"escape": xhotkey.KeyEscape,
	"esc":    xhotkey.KeyEscape,
	"tab":    xhotkey.KeyTab,
	"delete": xhotkey.KeyDelete,
	"del":    xhotkey.KeyDelete,
	"up":     xhotkey.KeyUp,
	"down":   xhotkey.KeyDown,
	"left":   xhotkey.KeyLeft,
	"right":  xhotkey.KeyRight,
}

// Parse turns "ctrl+shift+s" into modifiers and a key. At least one
// modifier is required; names are case-insensitive.
func Parse(spec string) ([]xhotkey.Modifier, xhotkey.Key, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(spec)), "+")
	if len(parts) < 2 {
		return nil, 0, fmt.Errorf("hotkey %q needs a modifier and a key", spec)
	}

	var mods []xhotkey.Modifier
	seen := make(map[xhotkey.Modifier]bool)
	for _, name := range parts[:len(parts)-1] {
		m, ok := modifiers[strings.TrimSpace(name)]
		if !ok {
			return nil, 0, fmt.Errorf("hotkey %q: unknown modifier %q", spec, name)
		}
		if !seen[m] {
			seen[m] = true
			mods = append(mods, m)
		}
	}

	keyName := strings.TrimSpace(parts[len(parts)-1])
	key, ok := keys[keyName]
	if !ok {
		return nil, 0, fmt.Errorf("hotkey %q: unknown key %q", spec, keyName)
	}
	return mods, key, nil
}

// Listen registers spec and calls fn on every press until ctx is done.
// fn runs on the listener goroutine; a slow fn delays the next press.
func Listen(ctx context.Context, spec string, fn func(), log logrus.FieldLogger) error {
	mods, key, err := Parse(spec)
	if err != nil {
		return err
	}

	hk := xhotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return fmt.Errorf("register hotkey %q: %w", spec, err)
	}
	defer func() {
		if err := hk.Unregister(); err != nil && log != nil {
			log.WithError(err).Warn("failed to unregister hotkey")
		}
	}()
	if log != nil {
		log.WithField("hotkey", spec).Info("hotkey registered")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hk.Keydown():
			fn()
		}
	}
}

// RunOnMain runs fn while keeping the main OS thread available for the
// hotkey event loop, which macOS requires. Call it from main.
func RunOnMain(fn func()) {
	mainthread.Init(fn)
}
