package history

import (
	"fmt"
	"time"

	"github.com/bethropolis/scribe/internal/event"
	"github.com/bethropolis/scribe/internal/logger"
)

// Options configures a Manager. Zero values take defaults.
type Options struct {
	MaxHistory    int
	Debounce      time.Duration
	OnStateChange StateChangeFunc
	Events        *event.Manager
	Now           func() time.Time
}

// Manager owns the two independent surface stacks. They never share a lock.
type Manager struct {
	markdown *Stack
	latex    *Stack
}

// NewManager creates a history manager with one stack per surface.
func NewManager(opts Options) *Manager {
	if opts.MaxHistory <= 0 {
		opts.MaxHistory = DefaultMaxHistory
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger.Debugf("History: manager created (max %d, debounce %v)", opts.MaxHistory, opts.Debounce)
	return &Manager{
		markdown: newStack(Markdown, opts),
		latex:    newStack(Latex, opts),
	}
}

// Stack returns the stack for surface.
func (m *Manager) Stack(surface Surface) *Stack {
	if surface == Latex {
		return m.latex
	}
	return m.markdown
}

// Undo undoes on the given surface.
func (m *Manager) Undo(surface Surface) (Entry, error) {
	entry, err := m.Stack(surface).Undo()
	if err != nil {
		return Entry{}, fmt.Errorf("undo %s: %w", surface, err)
	}
	return entry, nil
}

// Redo redoes on the given surface.
func (m *Manager) Redo(surface Surface) (Entry, error) {
	entry, err := m.Stack(surface).Redo()
	if err != nil {
		return Entry{}, fmt.Errorf("redo %s: %w", surface, err)
	}
	return entry, nil
}

// Close cancels pending debounce timers on both stacks.
func (m *Manager) Close() {
	m.markdown.timer.Cancel()
	m.latex.timer.Cancel()
}
