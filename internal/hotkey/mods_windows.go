//go:build windows

package hotkey

import xhotkey "golang.design/x/hotkey"

var modifiers = map[string]xhotkey.Modifier{
	"ctrl":    xhotkey.ModCtrl,
	"control": xhotkey.ModCtrl,
	"shift":   xhotkey.ModShift,
	"alt":     xhotkey.ModAlt,
	"win":     xhotkey.ModWin,
	"super":   xhotkey.ModWin,
	"cmd":     xhotkey.ModWin,
}
