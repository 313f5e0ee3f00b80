// internal/buffer/buffer.go
package buffer

import "github.com/bethropolis/scribe/internal/types"

// Line is one line of the document. Number is 1-based; From/To are byte
// offsets of the line start and end (excluding the newline).
type Line struct {
	Number int
	From   int
	To     int
	Text   string
}

// Mutation is a single replacement of [From, To) with Insert. A non-nil
// Selection is applied after the text change.
type Mutation struct {
	From      int
	To        int
	Insert    string
	Selection *types.Selection
}

// Buffer defines the text buffer operations the engine relies on.
type Buffer interface {
	Load(filePath string) error
	Save(filePath string) error
	FilePath() string
	IsModified() bool

	String() string
	Len() int
	Lines() []string
	Line(index int) (string, error)
	LineCount() int
	LineAt(offset int) Line

	Insert(pos types.Position, text string) (types.EditInfo, error)
	Delete(start, end types.Position) (types.EditInfo, error)
	Replace(from, to int, text string) (types.EditInfo, error)
	SetText(text string) types.EditInfo

	Selection() types.Selection
	SetSelection(from, to int)
	Dispatch(m Mutation) (types.EditInfo, error)
}

// View is the small capability set the engine needs from a live editor
// widget. Each concrete widget gets an adapter; SliceBuffer is the in-memory one.
type View interface {
	String() string
	LineAt(offset int) Line
	Selection() types.Selection
	Dispatch(m Mutation) (types.EditInfo, error)
}

var _ View = (*SliceBuffer)(nil)
