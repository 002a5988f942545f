package platform

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Opener hands files to the desktop shell.
type Opener struct {
	// GOOS overrides runtime.GOOS. Used by tests.
	GOOS string
	// run starts a command; nil means exec.
	run func(name string, args ...string) error
}

func (o *Opener) goos() string {
	if o.GOOS != "" {
		return o.GOOS
	}
	return runtime.GOOS
}

// Reveal shows path selected in the file manager.
func (o *Opener) Reveal(path string) error {
	name, args := revealCommand(o.goos(), path)
	return o.start(name, args...)
}

// Open opens path with the default viewer.
func (o *Opener) Open(path string) error {
	name, args := openCommand(o.goos(), path)
	return o.start(name, args...)
}

func (o *Opener) start(name string, args ...string) error {
	if o.run != nil {
		return o.run(name, args...)
	}
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

func revealCommand(goos, path string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{"-R", path}
	case "windows":
		return "explorer", []string{"/select," + path}
	default:
		// xdg-open cannot select a file; open its folder
		return "xdg-open", []string{filepath.Dir(path)}
	}
}

func openCommand(goos, path string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{path}
	case "windows":
		return "cmd", []string{"/c", "start", "", path}
	default:
		return "xdg-open", []string{path}
	}
}
