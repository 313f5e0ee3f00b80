// internal/event/event.go
package event

import (
	"github.com/bethropolis/scribe/internal/types"
)

// Type identifies the kind of event.
type Type int

const (
	TypeUnknown Type = iota

	TypeContentChanged  // The live buffer was written
	TypeHistoryChanged  // A history stack was pushed, moved or reset
	TypeChangesTracked  // A new set of pending change blocks was staged
	TypeChangesResolved // Pending changes were accepted, rejected or cancelled
	TypeSurfaceSwitched // The active surface changed (Markdown <-> LaTeX)
	TypeComponentEdited // A component replacement landed in the document
)

func (t Type) String() string {
	switch t {
	case TypeContentChanged:
		return "content-changed"
	case TypeHistoryChanged:
		return "history-changed"
	case TypeChangesTracked:
		return "changes-tracked"
	case TypeChangesResolved:
		return "changes-resolved"
	case TypeSurfaceSwitched:
		return "surface-switched"
	case TypeComponentEdited:
		return "component-edited"
	default:
		return "unknown"
	}
}

// Event is the structure passed through the event bus.
type Event struct {
	Type Type
	Data interface{}
}

// ContentChangedData describes a buffer write.
type ContentChangedData struct {
	Edit         types.EditInfo
	Programmatic bool // true for undo/redo and other restoring writes
}

// HistoryChangedData reports the state of one history stack.
type HistoryChangedData struct {
	Surface string
	Index   int
	Count   int
}

// ChangesTrackedData lists the ids of newly staged change blocks.
type ChangesTrackedData struct {
	IDs []string
}

// ChangesResolvedData reports how pending changes were resolved.
type ChangesResolvedData struct {
	IDs      []string
	Accepted bool
}

// SurfaceSwitchedData names the surfaces involved in a switch.
type SurfaceSwitchedData struct {
	From string
	To   string
}

// ComponentEditedData names the component kind and the span that was replaced.
type ComponentEditedData struct {
	Kind string
	Span types.Span
}
