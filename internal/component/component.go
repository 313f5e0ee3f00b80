// Package component edits one embedded figure, grid or table snippet at a
// time. Edits come from a deterministic intent matcher or from an AI planner
// and must pass a structural validation gate before they replace any text.
package component

import (
	"errors"
	"strings"

	"github.com/bethropolis/scribe/internal/types"
)

// Kind is the type of an embedded component.
type Kind string

const (
	KindFigure Kind = "figure"
	KindGrid   Kind = "grid"
	KindTable  Kind = "table"
)

var (
	// ErrValidation marks a replacement rejected by the validation gate.
	ErrValidation = errors.New("component validation failed")
	// ErrOutOfScope marks an instruction aimed at the document rather than the component.
	ErrOutOfScope = errors.New("instruction is outside the component")
	// ErrNotComponent is returned by Detect when no component covers the offset.
	ErrNotComponent = errors.New("no component at offset")
)

// GridHeader is the span of a grid's opening fence line.
type GridHeader struct {
	HeaderFrom int `json:"headerFrom"`
	HeaderTo   int `json:"headerTo"`
}

// Detail identifies exactly one component's source span in a document.
type Detail struct {
	Kind  Kind        `json:"kind"`
	Range types.Span  `json:"range"`
	Text  string      `json:"text"`
	Grid  *GridHeader `json:"grid,omitempty"`
}

// ValidationError is a user-facing rejection with follow-up suggestions.
type ValidationError struct {
	Message     string
	Suggestions []string
	Err         error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	if e.Err == nil {
		return ErrValidation
	}
	return e.Err
}

func invalid(msg string, suggestions ...string) *ValidationError {
	return &ValidationError{Message: msg, Suggestions: suggestions}
}

// Replace splices replacement into doc over the detail's range only.
func Replace(doc string, d Detail, replacement string) (string, error) {
	if d.Range.From < 0 || d.Range.From > d.Range.To || d.Range.To > len(doc) {
		return doc, invalid("The component moved; select it again.")
	}
	if doc[d.Range.From:d.Range.To] != d.Text {
		return doc, invalid("The component changed since it was selected; select it again.")
	}
	var b strings.Builder
	b.Grow(len(doc) - d.Range.Len() + len(replacement))
	b.WriteString(doc[:d.Range.From])
	b.WriteString(replacement)
	b.WriteString(doc[d.Range.To:])
	return b.String(), nil
}
