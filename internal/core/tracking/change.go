// Package tracking stages AI-proposed edits as pending change blocks that
// can be previewed, accepted or rejected one by one or all at once.
package tracking

import (
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/bethropolis/scribe/internal/types"
)

// ChangeType classifies a change block.
type ChangeType string

const (
	ChangeAdd    ChangeType = "add"
	ChangeDelete ChangeType = "delete"
	ChangeModify ChangeType = "modify"
)

// ChangeBlock is one proposed mutation. Positions are byte offsets into the
// current buffer. Accepted is nil while pending; true and false are final.
type ChangeBlock struct {
	ID            string     `json:"id"`
	Type          ChangeType `json:"type"`
	StartPosition int        `json:"startPosition"`
	EndPosition   int        `json:"endPosition"`
	OriginalText  string     `json:"originalText,omitempty"`
	NewText       string     `json:"newText,omitempty"`
	Accepted      *bool      `json:"accepted,omitempty"`
}

// Pending reports whether the change still awaits a decision.
func (c ChangeBlock) Pending() bool {
	return c.Accepted == nil
}

// Span returns the buffer range the change replaces.
func (c ChangeBlock) Span() types.Span {
	return types.Span{From: c.StartPosition, To: c.EndPosition}
}

// Decoration is what a view renders for a pending change: the replaced range
// plus the text that would be inserted there.
type Decoration struct {
	ID       string
	Type     ChangeType
	From     int
	To       int
	Inserted string
}

// Diff computes the change blocks that turn current into proposed, line by
// line. A deletion directly followed by an insertion becomes a modify.
func Diff(current, proposed string, newID func() string) []ChangeBlock {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(current, proposed)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out []ChangeBlock
	pos := 0
	for i := 0; i < len(diffs); i++ {
		d := diffs[i]
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			pos += len(d.Text)
		case diffmatchpatch.DiffDelete:
			c := ChangeBlock{
				ID:            newID(),
				Type:          ChangeDelete,
				StartPosition: pos,
				EndPosition:   pos + len(d.Text),
				OriginalText:  d.Text,
			}
			if i+1 < len(diffs) && diffs[i+1].Type == diffmatchpatch.DiffInsert {
				c.Type = ChangeModify
				c.NewText = diffs[i+1].Text
				i++
			}
			pos = c.EndPosition
			out = append(out, c)
		case diffmatchpatch.DiffInsert:
			c := ChangeBlock{ID: newID(), Type: ChangeAdd, StartPosition: pos, EndPosition: pos, NewText: d.Text}
			if i+1 < len(diffs) && diffs[i+1].Type == diffmatchpatch.DiffDelete {
				del := diffs[i+1].Text
				c.Type = ChangeModify
				c.OriginalText = del
				c.EndPosition = pos + len(del)
				pos = c.EndPosition
				i++
			}
			out = append(out, c)
		}
	}
	return out
}
