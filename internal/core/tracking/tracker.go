package tracking

import (
	"context"
	"fmt"
	"sort"

	"github.com/segmentio/ksuid"

	"github.com/bethropolis/scribe/internal/buffer"
	"github.com/bethropolis/scribe/internal/event"
	"github.com/bethropolis/scribe/internal/logger"
	"github.com/bethropolis/scribe/internal/types"
)

// Sink receives the side effects of committing accepted changes, in order:
// source cleanup (which must still see the old content), persistence, and
// finally the history snapshot.
type Sink interface {
	CleanupInsertedSources(ctx context.Context, oldContent, newContent string) error
	Persist(ctx context.Context, content string) error
	PushHistory(content string, cursor *types.CursorPosition, sel *types.Selection)
}

// Tracker holds the pending change field of one view. It is driven from the
// single UI goroutine and is not safe for concurrent use.
type Tracker struct {
	view   buffer.View
	sink   Sink
	events *event.Manager
	newID  func() string

	changes []ChangeBlock

	lastCursor    *types.CursorPosition
	lastSelection *types.Selection
}

// NewTracker creates a tracker for view.
func NewTracker(view buffer.View, sink Sink, events *event.Manager) *Tracker {
	return &Tracker{
		view:   view,
		sink:   sink,
		events: events,
		newID:  func() string { return ksuid.New().String() },
	}
}

// Remember records the last known cursor and selection; the next commit's
// history entry carries them.
func (t *Tracker) Remember(cursor *types.CursorPosition, sel *types.Selection) {
	t.lastCursor = cursor
	t.lastSelection = sel
}

// StartTracking replaces the pending field with the changes that turn the
// current buffer into proposed.
func (t *Tracker) StartTracking(proposed string) []ChangeBlock {
	t.changes = Diff(t.view.String(), proposed, t.newID)
	ids := make([]string, len(t.changes))
	for i, c := range t.changes {
		ids[i] = c.ID
	}
	logger.DebugTagf("tracking", "Tracking: staged %d change(s)", len(t.changes))
	if len(t.changes) == 0 {
		t.changes = nil
		return nil
	}
	t.events.Dispatch(event.TypeChangesTracked, event.ChangesTrackedData{IDs: ids})
	return t.Changes()
}

// Active reports whether any change is pending.
func (t *Tracker) Active() bool {
	return len(t.pendingIndexes()) > 0
}

// Changes returns a copy of the field, including resolved changes.
func (t *Tracker) Changes() []ChangeBlock {
	out := make([]ChangeBlock, len(t.changes))
	copy(out, t.changes)
	return out
}

// Pending returns the changes awaiting a decision.
func (t *Tracker) Pending() []ChangeBlock {
	var out []ChangeBlock
	for _, i := range t.pendingIndexes() {
		out = append(out, t.changes[i])
	}
	return out
}

func (t *Tracker) pendingIndexes() []int {
	var idx []int
	for i, c := range t.changes {
		if c.Pending() {
			idx = append(idx, i)
		}
	}
	return idx
}

func (t *Tracker) find(id string) int {
	for i, c := range t.changes {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// Decorations lists what to render: pending changes only, skipping spans that
// no longer fit the document.
func (t *Tracker) Decorations() []Decoration {
	n := len(t.view.String())
	var out []Decoration
	for _, c := range t.Pending() {
		if !validSpan(c, n) {
			logger.DebugTagf("tracking", "Tracking: skipping decoration %s [%d,%d) in %d bytes", c.ID, c.StartPosition, c.EndPosition, n)
			continue
		}
		out = append(out, Decoration{ID: c.ID, Type: c.Type, From: c.StartPosition, To: c.EndPosition, Inserted: c.NewText})
	}
	return out
}

func validSpan(c ChangeBlock, n int) bool {
	return c.StartPosition >= 0 && c.StartPosition <= c.EndPosition && c.EndPosition <= n
}

// MapThrough re-maps pending changes through an edit made elsewhere in the
// document, keeping their ids. Changes the edit invalidated are dropped.
func (t *Tracker) MapThrough(edit types.EditInfo) {
	if len(t.changes) == 0 {
		return
	}
	n := len(t.view.String())
	kept := t.changes[:0]
	for _, c := range t.changes {
		if c.Pending() {
			c.StartPosition, c.EndPosition = mapSpan(edit, c.StartPosition, c.EndPosition)
			if !validSpan(c, n) {
				logger.DebugTagf("tracking", "Tracking: dropping %s after remap", c.ID)
				continue
			}
		}
		kept = append(kept, c)
	}
	t.changes = kept
	t.clearIfSettled()
}

func mapSpan(edit types.EditInfo, from, to int) (int, int) {
	if from == to {
		p := edit.MapOffset(from, 1)
		return p, p
	}
	nf, nt := edit.MapOffset(from, 1), edit.MapOffset(to, -1)
	if nt < nf {
		nt = nf
	}
	return nf, nt
}

// AcceptChange applies one pending change and commits the result. Unknown or
// already-resolved ids are ignored.
func (t *Tracker) AcceptChange(ctx context.Context, id string) (bool, error) {
	i := t.find(id)
	if i < 0 || !t.changes[i].Pending() {
		logger.DebugTagf("tracking", "Tracking: accept %q ignored (unknown or resolved)", id)
		return false, nil
	}
	old := t.view.String()
	c := t.changes[i]
	if !validSpan(c, len(old)) {
		logger.DebugTagf("tracking", "Tracking: accept %q skipped, span out of range", id)
		return false, nil
	}

	edit, err := t.view.Dispatch(buffer.Mutation{From: c.StartPosition, To: c.EndPosition, Insert: c.NewText})
	if err != nil {
		return false, fmt.Errorf("apply change %s: %w", id, err)
	}
	accepted := true
	t.changes[i].Accepted = &accepted
	for j := range t.changes {
		if j != i && t.changes[j].Pending() {
			t.changes[j].StartPosition, t.changes[j].EndPosition = mapSpan(edit, t.changes[j].StartPosition, t.changes[j].EndPosition)
		}
	}

	if err := t.commit(ctx, old); err != nil {
		return true, err
	}
	t.events.Dispatch(event.TypeChangesResolved, event.ChangesResolvedData{IDs: []string{id}, Accepted: true})
	t.clearIfSettled()
	return true, nil
}

// RejectChange discards one pending change without touching the buffer.
func (t *Tracker) RejectChange(id string) bool {
	i := t.find(id)
	if i < 0 || !t.changes[i].Pending() {
		return false
	}
	rejected := false
	t.changes[i].Accepted = &rejected
	logger.DebugTagf("tracking", "Tracking: rejected %s", id)
	t.events.Dispatch(event.TypeChangesResolved, event.ChangesResolvedData{IDs: []string{id}, Accepted: false})
	t.clearIfSettled()
	return true
}

// ApplyChanges accepts every pending change and commits once. Each change is
// dispatched as its own splice, back to front, so the live selection is mapped
// through every edit. It returns the new content.
func (t *Tracker) ApplyChanges(ctx context.Context) (string, error) {
	idx := t.pendingIndexes()
	old := t.view.String()
	if len(idx) == 0 {
		return old, nil
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return t.changes[idx[a]].StartPosition > t.changes[idx[b]].StartPosition
	})

	accepted := true
	applied := make(map[int]bool, len(idx))
	var ids []string
	for _, i := range idx {
		c := t.changes[i]
		if !validSpan(c, len(t.view.String())) {
			logger.DebugTagf("tracking", "Tracking: skipping %s, span out of range", c.ID)
			continue
		}
		edit, err := t.view.Dispatch(buffer.Mutation{From: c.StartPosition, To: c.EndPosition, Insert: c.NewText})
		if err != nil {
			return t.view.String(), fmt.Errorf("apply change %s: %w", c.ID, err)
		}
		t.changes[i].Accepted = &accepted
		applied[i] = true
		ids = append(ids, c.ID)
		for _, j := range idx {
			if !applied[j] {
				t.changes[j].StartPosition, t.changes[j].EndPosition = mapSpan(edit, t.changes[j].StartPosition, t.changes[j].EndPosition)
			}
		}
	}

	next := t.view.String()
	if err := t.commit(ctx, old); err != nil {
		return next, err
	}
	logger.DebugTagf("tracking", "Tracking: applied %d change(s)", len(ids))
	t.events.Dispatch(event.TypeChangesResolved, event.ChangesResolvedData{IDs: ids, Accepted: true})
	t.changes = nil
	return next, nil
}

// CancelTracking drops every pending change without touching the buffer.
func (t *Tracker) CancelTracking() {
	ids := make([]string, 0, len(t.changes))
	for _, c := range t.Pending() {
		ids = append(ids, c.ID)
	}
	t.changes = nil
	logger.DebugTagf("tracking", "Tracking: cancelled %d pending change(s)", len(ids))
	if len(ids) > 0 {
		t.events.Dispatch(event.TypeChangesResolved, event.ChangesResolvedData{IDs: ids, Accepted: false})
	}
}

// commit runs the sink in order: cleanup against the old content, persist,
// then push history with the known (or freshly read) cursor.
func (t *Tracker) commit(ctx context.Context, old string) error {
	content := t.view.String()
	if t.sink == nil {
		return nil
	}
	if err := t.sink.CleanupInsertedSources(ctx, old, content); err != nil {
		return fmt.Errorf("cleanup inserted sources: %w", err)
	}
	if err := t.sink.Persist(ctx, content); err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	cursor := t.lastCursor
	if cursor == nil {
		pos := buffer.CursorAt(t.view, t.view.Selection().To)
		cursor = &pos
	}
	t.sink.PushHistory(content, cursor, t.lastSelection)
	return nil
}

func (t *Tracker) clearIfSettled() {
	if len(t.changes) > 0 && len(t.pendingIndexes()) == 0 {
		logger.DebugTagf("tracking", "Tracking: no pending changes left, clearing field")
		t.changes = nil
	}
}
