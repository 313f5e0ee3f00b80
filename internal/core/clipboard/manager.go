package clipboard

import (
	"fmt"

	"github.com/atotto/clipboard"

	"github.com/bethropolis/scribe/internal/logger"
)

// system clipboard hooks, swapped out in tests
var (
	writeAll = clipboard.WriteAll
	readAll  = clipboard.ReadAll
)

// Manager holds the yank register. When system is set the register is
// mirrored to the OS clipboard.
type Manager struct {
	register string
	system   bool
}

// NewManager creates a clipboard manager.
func NewManager(system bool) *Manager {
	return &Manager{system: system}
}

// System reports whether yanks reach the OS clipboard.
func (m *Manager) System() bool { return m.system }

// Yank stores text in the register.
func (m *Manager) Yank(text string) error {
	m.register = text
	logger.Debugf("ClipboardManager: Yanked %d bytes", len(text))
	if !m.system {
		return nil
	}
	if err := writeAll(text); err != nil {
		return fmt.Errorf("write system clipboard: %w", err)
	}
	return nil
}

// Paste returns the text to paste. The OS clipboard wins when enabled and
// readable; otherwise the register is used.
func (m *Manager) Paste() string {
	if m.system {
		text, err := readAll()
		if err == nil {
			return text
		}
		logger.Warnf("ClipboardManager: system clipboard unavailable, using register: %v", err)
	}
	return m.register
}
