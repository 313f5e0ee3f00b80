package tracking

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethropolis/scribe/internal/buffer"
	"github.com/bethropolis/scribe/internal/event"
	"github.com/bethropolis/scribe/internal/types"
)

type recordingSink struct {
	calls      []string
	cleanupOld string
	cleanupNew string
	persisted  string
	history    []string
	cursor     *types.CursorPosition
	persistErr error
}

func (s *recordingSink) CleanupInsertedSources(_ context.Context, oldContent, newContent string) error {
	s.calls = append(s.calls, "cleanup")
	s.cleanupOld, s.cleanupNew = oldContent, newContent
	return nil
}

func (s *recordingSink) Persist(_ context.Context, content string) error {
	s.calls = append(s.calls, "persist")
	s.persisted = content
	return s.persistErr
}

func (s *recordingSink) PushHistory(content string, cursor *types.CursorPosition, _ *types.Selection) {
	s.calls = append(s.calls, "history")
	s.history = append(s.history, content)
	s.cursor = cursor
}

func newTestTracker(text string) (*Tracker, *buffer.SliceBuffer, *recordingSink) {
	buf := buffer.NewSliceBufferFromString(text)
	sink := &recordingSink{}
	tr := NewTracker(buf, sink, event.NewManager())
	n := 0
	tr.newID = func() string {
		n++
		return fmt.Sprintf("c%d", n)
	}
	return tr, buf, sink
}

func TestDiffClassifiesChanges(t *testing.T) {
	ids := 0
	newID := func() string { ids++; return fmt.Sprintf("c%d", ids) }

	changes := Diff("a\nb\nc\n", "a\nB\nc\nd\n", newID)
	require.Len(t, changes, 2)

	assert.Equal(t, ChangeModify, changes[0].Type)
	assert.Equal(t, "b\n", changes[0].OriginalText)
	assert.Equal(t, "B\n", changes[0].NewText)
	assert.Equal(t, 2, changes[0].StartPosition)
	assert.Equal(t, 4, changes[0].EndPosition)

	assert.Equal(t, ChangeAdd, changes[1].Type)
	assert.Equal(t, "d\n", changes[1].NewText)
	assert.Equal(t, 6, changes[1].StartPosition)
	assert.Equal(t, 6, changes[1].EndPosition)
}

func TestDiffDeletion(t *testing.T) {
	changes := Diff("keep\ndrop\nkeep2\n", "keep\nkeep2\n", func() string { return "x" })
	require.Len(t, changes, 1)
	assert.Equal(t, ChangeDelete, changes[0].Type)
	assert.Equal(t, "drop\n", changes[0].OriginalText)
	assert.Equal(t, types.Span{From: 5, To: 10}, changes[0].Span())
}

func TestStartTrackingIdenticalTextStagesNothing(t *testing.T) {
	tr, _, _ := newTestTracker("same\n")
	assert.Empty(t, tr.StartTracking("same\n"))
	assert.False(t, tr.Active())
	assert.Empty(t, tr.Decorations())
}

func TestAcceptChangeCommitsInOrder(t *testing.T) {
	tr, buf, sink := newTestTracker("a\nb\nc\n")
	changes := tr.StartTracking("a\nB\nc\nd\n")
	require.Len(t, changes, 2)

	ok, err := tr.AcceptChange(context.Background(), changes[0].ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a\nB\nc\n", buf.String())
	assert.Equal(t, []string{"cleanup", "persist", "history"}, sink.calls)
	assert.Equal(t, "a\nb\nc\n", sink.cleanupOld)
	assert.Equal(t, "a\nB\nc\n", sink.cleanupNew)
	require.NotNil(t, sink.cursor)

	// The remaining change is still pending and still lands at the end.
	pending := tr.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, 6, pending[0].StartPosition)

	ok, err = tr.AcceptChange(context.Background(), pending[0].ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a\nB\nc\nd\n", buf.String())
	assert.False(t, tr.Active())
	assert.Empty(t, tr.Changes(), "field clears once nothing is pending")
}

func TestAcceptUnknownOrResolvedIsNoop(t *testing.T) {
	tr, buf, sink := newTestTracker("a\nb\n")
	changes := tr.StartTracking("a\nc\n")
	require.Len(t, changes, 1)

	ok, err := tr.AcceptChange(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.True(t, tr.RejectChange(changes[0].ID))
	ok, err = tr.AcceptChange(context.Background(), changes[0].ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, tr.RejectChange(changes[0].ID))

	assert.Equal(t, "a\nb\n", buf.String())
	assert.Empty(t, sink.calls)
}

func TestRejectLeavesBufferUntouched(t *testing.T) {
	tr, buf, _ := newTestTracker("one\ntwo\n")
	changes := tr.StartTracking("one\n2\nthree\n")
	require.NotEmpty(t, changes)

	assert.True(t, tr.RejectChange(changes[0].ID))
	assert.Equal(t, "one\ntwo\n", buf.String())
	assert.Len(t, tr.Decorations(), len(changes)-1)
}

func TestApplyChangesCommitsOnce(t *testing.T) {
	tr, buf, sink := newTestTracker("a\nb\nc\n")
	tr.StartTracking("x\nb\nz\n")
	tr.Remember(&types.CursorPosition{Line: 2, Column: 1}, nil)

	out, err := tr.ApplyChanges(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "x\nb\nz\n", out)
	assert.Equal(t, out, buf.String())
	assert.Equal(t, []string{"cleanup", "persist", "history"}, sink.calls)
	assert.Equal(t, []string{out}, sink.history)
	assert.Equal(t, &types.CursorPosition{Line: 2, Column: 1}, sink.cursor)
	assert.False(t, tr.Active())
}

func TestApplyChangesKeepsLiveSelection(t *testing.T) {
	tr, buf, sink := newTestTracker("alpha\nbeta\ngamma\ndelta\n")
	buf.SetSelection(2, 2)
	changes := tr.StartTracking("alpha\nBETA\ngamma\nDELTA\n")
	require.Len(t, changes, 2)

	out, err := tr.ApplyChanges(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alpha\nBETA\ngamma\nDELTA\n", out)
	assert.Equal(t, types.Selection{From: 2, To: 2}, buf.Selection())
	assert.Equal(t, &types.CursorPosition{Line: 1, Column: 2}, sink.cursor)
}

func TestApplyChangesSkipsRejected(t *testing.T) {
	tr, buf, _ := newTestTracker("a\nb\nc\n")
	changes := tr.StartTracking("x\nb\nz\n")
	require.Len(t, changes, 2)
	tr.RejectChange(changes[1].ID)

	out, err := tr.ApplyChanges(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "x\nb\nc\n", out)
	assert.Equal(t, out, buf.String())
}

func TestApplyChangesPersistError(t *testing.T) {
	tr, _, sink := newTestTracker("a\n")
	sink.persistErr = errors.New("disk full")
	tr.StartTracking("b\n")

	_, err := tr.ApplyChanges(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, sink.persistErr)
	assert.Equal(t, []string{"cleanup", "persist"}, sink.calls, "history is not pushed after a failed persist")
}

func TestCancelTracking(t *testing.T) {
	tr, buf, sink := newTestTracker("a\n")
	tr.StartTracking("b\n")
	tr.CancelTracking()
	assert.False(t, tr.Active())
	assert.Equal(t, "a\n", buf.String())
	assert.Empty(t, sink.calls)
}

func TestMapThroughShiftsPendingChanges(t *testing.T) {
	tr, buf, _ := newTestTracker("a\nb\nc\n")
	changes := tr.StartTracking("a\nb\nC\n")
	require.Len(t, changes, 1)
	require.Equal(t, 4, changes[0].StartPosition)

	edit, err := buf.Replace(0, 0, "zz")
	require.NoError(t, err)
	tr.MapThrough(edit)

	pending := tr.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, changes[0].ID, pending[0].ID)
	assert.Equal(t, 6, pending[0].StartPosition)
	assert.Equal(t, 8, pending[0].EndPosition)

	decos := tr.Decorations()
	require.Len(t, decos, 1)
	assert.Equal(t, "C\n", decos[0].Inserted)
}

func TestDecorationsSkipOutOfRange(t *testing.T) {
	tr, buf, _ := newTestTracker("a\nb\nc\n")
	tr.StartTracking("a\nb\nC\n")
	buf.SetText("a\n")
	assert.Empty(t, tr.Decorations())
}

func TestEventsDispatched(t *testing.T) {
	buf := buffer.NewSliceBufferFromString("a\n")
	events := event.NewManager()
	var got []event.Type
	record := func(e event.Event) bool {
		got = append(got, e.Type)
		return false
	}
	events.Subscribe(event.TypeChangesTracked, record)
	events.Subscribe(event.TypeChangesResolved, record)

	tr := NewTracker(buf, nil, events)
	changes := tr.StartTracking("b\n")
	require.Len(t, changes, 1)
	_, err := tr.AcceptChange(context.Background(), changes[0].ID)
	require.NoError(t, err)

	assert.Equal(t, []event.Type{event.TypeChangesTracked, event.TypeChangesResolved}, got)
}
