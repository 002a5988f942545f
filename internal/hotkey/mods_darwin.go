//go:build darwin

package hotkey

import xhotkey "golang.design/x/hotkey"

var modifiers = map[string]xhotkey.Modifier{
	"ctrl":    xhotkey.ModCtrl,
	"control": xhotkey.ModCtrl,
	"shift":   xhotkey.ModShift,
	"alt":     xhotkey.ModOption,
	"option":  xhotkey.ModOption,
	"cmd":     xhotkey.ModCmd,
	"command": xhotkey.ModCmd,
	"super":   xhotkey.ModCmd,
}
