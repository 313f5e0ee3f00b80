// Package block splits a Markdown buffer into typed, addressable blocks and
// applies block-anchored edit operations back onto the text.
package block

import "fmt"

// Kind classifies a block.
type Kind string

const (
	KindCode      Kind = "code"
	KindHeading   Kind = "heading"
	KindBlank     Kind = "blank"
	KindList      Kind = "list"
	KindParagraph Kind = "paragraph"
)

// Block is a contiguous span of the document. Start and End are absolute byte
// offsets into the full buffer, End exclusive. Blocks are a transient index:
// any edit invalidates them.
type Block struct {
	ID    string `json:"id"`
	Kind  Kind   `json:"kind"`
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Contains reports whether offset lies inside the block.
func (b Block) Contains(offset int) bool {
	return b.Start <= offset && offset < b.End
}

// Segmentation is the result of segmenting a window of the document.
type Segmentation struct {
	Blocks        []Block `json:"blocks"`
	CursorBlockID string  `json:"cursorBlockId"`
	WindowStart   int     `json:"windowStart"`
	WindowEnd     int     `json:"windowEnd"`
}

// Lookup returns the block with the given id.
func (s Segmentation) Lookup(id string) (Block, bool) {
	for _, b := range s.Blocks {
		if b.ID == id {
			return b, true
		}
	}
	return Block{}, false
}

// CursorBlock returns the block holding the cursor.
func (s Segmentation) CursorBlock() (Block, bool) {
	return s.Lookup(s.CursorBlockID)
}

func blockID(n int) string {
	return fmt.Sprintf("b%d", n)
}
