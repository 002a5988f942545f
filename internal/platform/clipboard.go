package platform

import (
	"fmt"
	"sync"

	"golang.design/x/clipboard"
)

// Clipboard writes PNG images to the system clipboard.
type Clipboard struct {
	once    sync.Once
	initErr error
	mu      sync.Mutex
}

// WriteImage implements capture.Clipboard and library.Clipboard.
func (c *Clipboard) WriteImage(png []byte) error {
	c.once.Do(func() {
		c.initErr = clipboard.Init()
	})
	if c.initErr != nil {
		return fmt.Errorf("clipboard unavailable: %w", c.initErr)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	clipboard.Write(clipboard.FmtImage, png)
	return nil
}
