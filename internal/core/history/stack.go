package history

import (
	"sync"
	"time"

	"github.com/bethropolis/scribe/internal/event"
	"github.com/bethropolis/scribe/internal/logger"
	"github.com/bethropolis/scribe/internal/types"
	"github.com/bethropolis/scribe/internal/utils"
)

// DefaultDebounce is the typing pause after which a snapshot is committed.
const DefaultDebounce = 500 * time.Millisecond

// StateChangeFunc restores an entry into the live document. It runs for every
// undo and redo; returning an error leaves the stack where it was.
type StateChangeFunc func(surface Surface, entry Entry) error

// Stack is the bounded history of one surface.
type Stack struct {
	surface Surface

	mutex      sync.Mutex
	entries    []Entry
	index      int // index of the entry matching the live content; -1 when empty
	maxHistory int

	lastSeen string
	seen     bool

	state    State
	pending  *Entry
	timer    utils.Timer
	debounce time.Duration

	onStateChange StateChangeFunc
	events        *event.Manager
	now           func() time.Time
}

func newStack(surface Surface, opts Options) *Stack {
	return &Stack{
		surface:       surface,
		entries:       make([]Entry, 0, opts.MaxHistory),
		index:         -1,
		maxHistory:    opts.MaxHistory,
		debounce:      opts.Debounce,
		onStateChange: opts.OnStateChange,
		events:        opts.Events,
		now:           opts.Now,
	}
}

// Surface returns the surface this stack governs.
func (s *Stack) Surface() Surface { return s.surface }

func (s *Stack) newEntry(content string, cursor *types.CursorPosition, sel *types.Selection) Entry {
	return Entry{Content: content, CursorPosition: cursor, Selection: sel, Timestamp: s.now().UnixMilli()}
}

// Record notes a keystroke-level change. The snapshot is committed once the
// user pauses for the debounce interval; a newer Record replaces it.
func (s *Stack) Record(content string, cursor *types.CursorPosition, sel *types.Selection) {
	s.mutex.Lock()
	entry := s.newEntry(content, cursor, sel)
	s.pending = &entry
	s.state = StateDebouncePending
	s.lastSeen, s.seen = content, true
	s.mutex.Unlock()

	s.timer.Schedule(s.debounce, func() { s.Flush() })
}

// Flush commits the pending typing snapshot now, if there is one.
func (s *Stack) Flush() bool {
	s.timer.Cancel()
	s.mutex.Lock()
	pending := s.pending
	s.pending = nil
	if pending == nil {
		s.mutex.Unlock()
		return false
	}
	pushed := s.pushLocked(*pending)
	s.mutex.Unlock()
	if pushed {
		s.notify()
	}
	return pushed
}

// AddToHistory commits a discrete action (formatting, AI apply, accepted
// change) immediately. Any pending typing snapshot is committed first.
func (s *Stack) AddToHistory(content string, cursor *types.CursorPosition, sel *types.Selection) bool {
	s.Flush()
	s.mutex.Lock()
	pushed := s.pushLocked(s.newEntry(content, cursor, sel))
	s.lastSeen, s.seen = content, true
	s.mutex.Unlock()
	if pushed {
		s.notify()
	}
	return pushed
}

// pushLocked appends entry, dropping redo entries and the oldest entries past
// the bound. Snapshots identical to the current entry are not pushed.
func (s *Stack) pushLocked(entry Entry) bool {
	s.state = StateCommitted
	if s.index >= 0 && s.entries[s.index].Content == entry.Content {
		// same text: keep the newer cursor/selection only
		s.entries[s.index].CursorPosition = entry.CursorPosition
		s.entries[s.index].Selection = entry.Selection
		return false
	}
	if s.index < len(s.entries)-1 {
		s.entries = s.entries[:s.index+1]
	}
	s.entries = append(s.entries, entry)
	if len(s.entries) > s.maxHistory {
		s.entries = s.entries[len(s.entries)-s.maxHistory:]
	}
	s.index = len(s.entries) - 1
	logger.DebugTagf("history", "History[%s]: pushed entry. Index: %d, Count: %d", s.surface, s.index, len(s.entries))
	return true
}

// Undo moves back one entry and hands it to the state-change callback.
func (s *Stack) Undo() (Entry, error) {
	return s.move(-1)
}

// Redo moves forward one entry and hands it to the state-change callback.
func (s *Stack) Redo() (Entry, error) {
	return s.move(1)
}

func (s *Stack) move(step int) (Entry, error) {
	s.Flush()

	s.mutex.Lock()
	target := s.index + step
	if target < 0 || target >= len(s.entries) || s.index < 0 {
		s.mutex.Unlock()
		if step < 0 {
			logger.DebugTagf("history", "History[%s]: nothing to undo", s.surface)
			return Entry{}, ErrNothingToUndo
		}
		logger.DebugTagf("history", "History[%s]: nothing to redo", s.surface)
		return Entry{}, ErrNothingToRedo
	}
	previous := s.index
	s.index = target
	entry := s.entries[target]
	s.lastSeen, s.seen = entry.Content, true
	cb := s.onStateChange
	s.mutex.Unlock()

	if cb != nil {
		if err := cb(s.surface, entry); err != nil {
			logger.Errorf("History[%s]: restoring entry %d failed: %v", s.surface, target, err)
			s.mutex.Lock()
			s.index = previous
			s.lastSeen = s.entries[previous].Content
			s.mutex.Unlock()
			return Entry{}, err
		}
	}
	logger.DebugTagf("history", "History[%s]: moved %d -> %d", s.surface, previous, target)
	s.notify()
	return entry, nil
}

// Sync feeds the content currently held by the document into the stack.
// External content that differs from what the stack last saw means another
// document was loaded: the stack is reset to that content alone.
func (s *Stack) Sync(content string, origin Origin) bool {
	s.mutex.Lock()
	stale := origin == OriginExternal && (!s.seen || content != s.lastSeen)
	s.lastSeen, s.seen = content, true
	if !stale {
		s.mutex.Unlock()
		return false
	}
	s.resetLocked(content)
	s.mutex.Unlock()
	s.timer.Cancel()
	logger.DebugTagf("history", "History[%s]: reset on external content (%d bytes)", s.surface, len(content))
	s.notify()
	return true
}

// Reset replaces the stack with a single entry holding content.
func (s *Stack) Reset(content string) {
	s.timer.Cancel()
	s.mutex.Lock()
	s.resetLocked(content)
	s.lastSeen, s.seen = content, true
	s.mutex.Unlock()
	s.notify()
}

func (s *Stack) resetLocked(content string) {
	s.pending = nil
	s.entries = append(s.entries[:0], s.newEntry(content, nil, nil))
	s.index = 0
	s.state = StateIdle
}

// Clear empties the stack.
func (s *Stack) Clear() {
	s.timer.Cancel()
	s.mutex.Lock()
	s.entries = s.entries[:0]
	s.index = -1
	s.pending = nil
	s.seen = false
	s.lastSeen = ""
	s.state = StateIdle
	s.mutex.Unlock()
	logger.DebugTagf("history", "History[%s]: cleared", s.surface)
	s.notify()
}

// CanUndo returns true if there is an older entry.
func (s *Stack) CanUndo() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.index > 0 || (s.pending != nil && s.index >= 0)
}

// CanRedo returns true if there is a newer entry.
func (s *Stack) CanRedo() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.pending == nil && s.index >= 0 && s.index < len(s.entries)-1
}

// Current returns the entry that matches the live content.
func (s *Stack) Current() (Entry, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.index < 0 {
		return Entry{}, false
	}
	return s.entries[s.index], true
}

// Entries returns a copy of the stack and the current index.
func (s *Stack) Entries() ([]Entry, int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out, s.index
}

// State returns the commit state.
func (s *Stack) State() State {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.state
}

func (s *Stack) notify() {
	s.mutex.Lock()
	data := event.HistoryChangedData{Surface: string(s.surface), Index: s.index, Count: len(s.entries)}
	s.mutex.Unlock()
	s.events.Dispatch(event.TypeHistoryChanged, data)
}
