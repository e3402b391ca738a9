// Package clipboard provides the host clipboard used by the copy and paste
// key chords.
package clipboard

import (
	"sync"

	"github.com/atotto/clipboard"
)

// Clipboard stores and retrieves plain text.
type Clipboard interface {
	Copy(text string) error
	Paste() (string, error)
}

// System returns the host system clipboard. On headless hosts where no
// clipboard utility is available, operations return the underlying error;
// callers that need a guaranteed clipboard should use NewMemory.
func System() Clipboard {
	return systemClipboard{}
}

type systemClipboard struct{}

func (systemClipboard) Copy(text string) error {
	return clipboard.WriteAll(text)
}

func (systemClipboard) Paste() (string, error) {
	return clipboard.ReadAll()
}

// Memory is an in-process clipboard. It backs tests and headless
// deployments where the system clipboard is unavailable.
type Memory struct {
	mu   sync.Mutex
	text string
}

// NewMemory returns an empty in-process clipboard.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Copy(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	return nil
}

func (m *Memory) Paste() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}
