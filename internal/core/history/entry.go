// Package history keeps the bounded undo/redo stacks of the two editing
// surfaces. Each stack stores full-content snapshots with the cursor and
// selection that were live when the snapshot was taken.
package history

import (
	"errors"
	"fmt"

	"github.com/bethropolis/scribe/internal/types"
)

// DefaultMaxHistory bounds each stack.
const DefaultMaxHistory = 50

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Surface names one of the two textual representations of the document.
type Surface string

const (
	Markdown Surface = "markdown"
	Latex    Surface = "latex"
)

// ParseSurface accepts "markdown"/"md"/"xmd" and "latex"/"tex".
func ParseSurface(s string) (Surface, error) {
	switch s {
	case "markdown", "md", "xmd":
		return Markdown, nil
	case "latex", "tex":
		return Latex, nil
	}
	return "", fmt.Errorf("unknown surface %q", s)
}

// Entry is one snapshot. CursorPosition and Selection are nil when unknown.
type Entry struct {
	Content        string                `json:"content"`
	CursorPosition *types.CursorPosition `json:"cursorPosition"`
	Selection      *types.Selection      `json:"selection"`
	Timestamp      int64                 `json:"timestamp"` // unix milliseconds
}

// Origin tells Sync where a content value came from.
type Origin int

const (
	// OriginExternal is content supplied from outside, e.g. a freshly loaded document.
	OriginExternal Origin = iota
	// OriginUser is content produced by the user's own input.
	OriginUser
	// OriginProgrammatic is content written by the engine itself, e.g. an undo restore.
	OriginProgrammatic
)

// State is the commit state of a stack.
type State int

const (
	StateIdle State = iota
	StateDebouncePending
	StateCommitted
)

func (s State) String() string {
	switch s {
	case StateDebouncePending:
		return "debounce-pending"
	case StateCommitted:
		return "committed"
	default:
		return "idle"
	}
}
