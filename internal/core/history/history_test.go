package history

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethropolis/scribe/internal/event"
	"github.com/bethropolis/scribe/internal/types"
)

type restoreLog struct {
	surfaces []Surface
	contents []string
	fail     error
}

func (r *restoreLog) onStateChange(surface Surface, e Entry) error {
	if r.fail != nil {
		return r.fail
	}
	r.surfaces = append(r.surfaces, surface)
	r.contents = append(r.contents, e.Content)
	return nil
}

func newTestManager(r *restoreLog) *Manager {
	clock := time.Unix(1700000000, 0)
	return NewManager(Options{
		Debounce:      10 * time.Millisecond,
		OnStateChange: r.onStateChange,
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
	})
}

func TestStack_UndoRedoSymmetry(t *testing.T) {
	r := &restoreLog{}
	m := newTestManager(r)
	s := m.Stack(Markdown)
	s.Sync("e0", OriginExternal)
	for i := 1; i <= 6; i++ {
		s.AddToHistory(fmt.Sprintf("e%d", i), &types.CursorPosition{Line: 1, Column: i}, nil)
	}

	for k := 1; k <= 6; k++ {
		for i := 0; i < k; i++ {
			_, err := m.Undo(Markdown)
			require.NoError(t, err)
		}
		var last Entry
		for i := 0; i < k; i++ {
			var err error
			last, err = m.Redo(Markdown)
			require.NoError(t, err)
		}
		assert.Equal(t, "e6", last.Content)
		cur, _ := s.Current()
		assert.Equal(t, "e6", cur.Content)
	}
}

func TestStack_UndoRestoresCursorAndCallsBack(t *testing.T) {
	r := &restoreLog{}
	m := newTestManager(r)
	s := m.Stack(Latex)
	s.Sync("a", OriginExternal)
	sel := &types.Selection{From: 0, To: 1, Text: "a"}
	s.AddToHistory("ab", &types.CursorPosition{Line: 1, Column: 2}, sel)
	s.AddToHistory("abc", &types.CursorPosition{Line: 1, Column: 3}, nil)

	e, err := m.Undo(Latex)
	require.NoError(t, err)
	assert.Equal(t, "ab", e.Content)
	assert.Equal(t, &types.CursorPosition{Line: 1, Column: 2}, e.CursorPosition)
	assert.Equal(t, sel, e.Selection)
	assert.Equal(t, []Surface{Latex}, r.surfaces)

	_, err = m.Undo(Latex)
	require.NoError(t, err)
	_, err = m.Undo(Latex)
	assert.ErrorIs(t, err, ErrNothingToUndo)
	assert.Equal(t, []string{"ab", "a"}, r.contents)

	_, err = m.Redo(Latex)
	require.NoError(t, err)
	_, err = m.Redo(Latex)
	require.NoError(t, err)
	_, err = m.Redo(Latex)
	assert.ErrorIs(t, err, ErrNothingToRedo)
}

func TestStack_PushTruncatesRedo(t *testing.T) {
	m := newTestManager(&restoreLog{})
	s := m.Stack(Markdown)
	s.Sync("a", OriginExternal)
	s.AddToHistory("b", nil, nil)
	s.AddToHistory("c", nil, nil)
	_, err := s.Undo()
	require.NoError(t, err)
	s.AddToHistory("d", nil, nil)

	assert.False(t, s.CanRedo())
	entries, index := s.Entries()
	assert.Equal(t, 2, index)
	assert.Equal(t, []string{"a", "b", "d"}, contents(entries))
}

func TestStack_Bounded(t *testing.T) {
	m := newTestManager(&restoreLog{})
	s := m.Stack(Markdown)
	for i := 0; i < DefaultMaxHistory+25; i++ {
		s.AddToHistory(fmt.Sprintf("v%d", i), nil, nil)
	}
	entries, index := s.Entries()
	assert.Len(t, entries, DefaultMaxHistory)
	assert.Equal(t, DefaultMaxHistory-1, index)
	assert.Equal(t, "v25", entries[0].Content)
}

func TestStack_DuplicateContentNotPushed(t *testing.T) {
	m := newTestManager(&restoreLog{})
	s := m.Stack(Markdown)
	assert.True(t, s.AddToHistory("x", nil, nil))
	assert.False(t, s.AddToHistory("x", &types.CursorPosition{Line: 1, Column: 1}, nil))
	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, &types.CursorPosition{Line: 1, Column: 1}, cur.CursorPosition)
}

func TestStack_SyncClearingRule(t *testing.T) {
	m := newTestManager(&restoreLog{})
	s := m.Stack(Markdown)

	assert.True(t, s.Sync("doc A", OriginExternal))
	s.AddToHistory("doc A edited", nil, nil)

	// Same content coming back from the store is not a new document.
	assert.False(t, s.Sync("doc A edited", OriginExternal))
	// User input and engine writes never reset.
	assert.False(t, s.Sync("doc A typed", OriginUser))
	assert.False(t, s.Sync("doc A restored", OriginProgrammatic))

	// A different document replaces the stack.
	assert.True(t, s.Sync("doc B", OriginExternal))
	entries, index := s.Entries()
	assert.Equal(t, []string{"doc B"}, contents(entries))
	assert.Equal(t, 0, index)
	assert.False(t, s.CanUndo())
}

func TestStack_DebouncedRecord(t *testing.T) {
	m := newTestManager(&restoreLog{})
	s := m.Stack(Markdown)
	s.Sync("", OriginExternal)

	s.Record("h", nil, nil)
	s.Record("he", nil, nil)
	s.Record("hel", &types.CursorPosition{Line: 1, Column: 3}, nil)
	assert.Equal(t, StateDebouncePending, s.State())

	assert.Eventually(t, func() bool { return s.State() == StateCommitted }, time.Second, 2*time.Millisecond)
	entries, _ := s.Entries()
	assert.Equal(t, []string{"", "hel"}, contents(entries))
}

func TestStack_UndoFlushesPendingTyping(t *testing.T) {
	r := &restoreLog{}
	m := NewManager(Options{Debounce: time.Hour, OnStateChange: r.onStateChange})
	s := m.Stack(Markdown)
	s.Sync("base", OriginExternal)
	s.Record("base typed", nil, nil)
	assert.True(t, s.CanUndo())

	e, err := s.Undo()
	require.NoError(t, err)
	assert.Equal(t, "base", e.Content)
	_, err = s.Redo()
	require.NoError(t, err)
	m.Close()
}

func TestStack_AddToHistoryCommitsPendingFirst(t *testing.T) {
	m := NewManager(Options{Debounce: time.Hour})
	s := m.Stack(Markdown)
	s.Sync("a", OriginExternal)
	s.Record("ab", nil, nil)
	s.AddToHistory("**ab**", nil, nil)
	entries, _ := s.Entries()
	assert.Equal(t, []string{"a", "ab", "**ab**"}, contents(entries))
	assert.False(t, s.timer.Pending())
}

func TestStack_CallbackFailureKeepsPosition(t *testing.T) {
	r := &restoreLog{}
	m := newTestManager(r)
	s := m.Stack(Markdown)
	s.Sync("a", OriginExternal)
	s.AddToHistory("b", nil, nil)

	r.fail = errors.New("write refused")
	_, err := s.Undo()
	assert.ErrorIs(t, err, r.fail)
	cur, _ := s.Current()
	assert.Equal(t, "b", cur.Content)
}

func TestStacks_AreIndependent(t *testing.T) {
	m := newTestManager(&restoreLog{})
	m.Stack(Markdown).AddToHistory("md", nil, nil)
	m.Stack(Latex).AddToHistory("tex", nil, nil)
	m.Stack(Latex).AddToHistory("tex2", nil, nil)

	md, _ := m.Stack(Markdown).Entries()
	tex, _ := m.Stack(Latex).Entries()
	assert.Len(t, md, 1)
	assert.Len(t, tex, 2)
}

func TestStack_DispatchesEvents(t *testing.T) {
	events := event.NewManager()
	var got []event.HistoryChangedData
	events.Subscribe(event.TypeHistoryChanged, func(e event.Event) bool {
		got = append(got, e.Data.(event.HistoryChangedData))
		return false
	})
	m := NewManager(Options{Events: events})
	m.Stack(Latex).AddToHistory("x", nil, nil)
	require.Len(t, got, 1)
	assert.Equal(t, event.HistoryChangedData{Surface: "latex", Index: 0, Count: 1}, got[0])
}

func TestParseSurface(t *testing.T) {
	s, err := ParseSurface("tex")
	require.NoError(t, err)
	assert.Equal(t, Latex, s)
	_, err = ParseSurface("rtf")
	assert.Error(t, err)
}

func contents(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Content
	}
	return out
}
