// internal/types/position.go
package types

// Position represents a cursor or text position within the buffer.
// Line is the 0-based line index.
// Col is the 0-based column (rune) index within the line.
type Position struct {
	Line int
	Col  int // Rune index
}

// CursorPosition is the cursor as stored in history snapshots.
// Line is 1-based (the way editor widgets report it), Column is a 0-based rune index.
type CursorPosition struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Selection is a snapshot of the selected text. From/To are byte offsets.
type Selection struct {
	From int    `json:"from"`
	To   int    `json:"to"`
	Text string `json:"text"`
}

// Empty reports whether the selection covers no text.
func (s Selection) Empty() bool {
	return s.From == s.To
}

// Span is a half-open byte range [From, To).
type Span struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.To - s.From
}
