package types

import sitter "github.com/smacker/go-tree-sitter"

// EditInfo describes one buffer mutation in the same shape tree-sitter uses for
// incremental edits. Listeners map their own offsets through it.
type EditInfo struct {
	StartIndex     uint32       // Start byte of the edit
	OldEndIndex    uint32       // End byte of the old text
	NewEndIndex    uint32       // End byte of the new text
	StartPosition  sitter.Point // Start position (row, column in bytes)
	OldEndPosition sitter.Point // Old end position
	NewEndPosition sitter.Point // New end position
}

// Delta is the length change the edit applied to the document.
func (e EditInfo) Delta() int {
	return int(e.NewEndIndex) - int(e.OldEndIndex)
}

// InputEdit converts the info into the tree-sitter form.
func (e EditInfo) InputEdit() sitter.EditInput {
	return sitter.EditInput{
		StartIndex:  e.StartIndex,
		OldEndIndex: e.OldEndIndex,
		NewEndIndex: e.NewEndIndex,
		StartPoint:  e.StartPosition,
		OldEndPoint: e.OldEndPosition,
		NewEndPoint: e.NewEndPosition,
	}
}

// MapOffset maps an offset in the pre-edit document to the post-edit document.
// assoc < 0 keeps offsets at an insertion point before the inserted text,
// assoc > 0 moves them after it.
func (e EditInfo) MapOffset(pos int, assoc int) int {
	start, oldEnd, newEnd := int(e.StartIndex), int(e.OldEndIndex), int(e.NewEndIndex)
	switch {
	case pos < start:
		return pos
	case pos > oldEnd:
		return pos + newEnd - oldEnd
	case start == oldEnd:
		// pure insertion at pos
		if assoc < 0 {
			return pos
		}
		return newEnd
	case pos == start:
		return start
	case pos == oldEnd:
		return newEnd
	case assoc < 0:
		return start
	default:
		return newEnd
	}
}
