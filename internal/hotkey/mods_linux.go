//go:build linux

package hotkey

import xhotkey "golang.design/x/hotkey"

var modifiers = map[string]xhotkey.Modifier{
	"ctrl":    xhotkey.ModCtrl,
	"control": xhotkey.ModCtrl,
	"shift":   xhotkey.ModShift,
	"alt":     xhotkey.Mod1,
	"super":   xhotkey.Mod4,
	"win":     xhotkey.Mod4,
	"cmd":     xhotkey.Mod4,
}
