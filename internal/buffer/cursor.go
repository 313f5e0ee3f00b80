package buffer

import (
	"github.com/bethropolis/scribe/internal/types"
	"github.com/bethropolis/scribe/internal/utils"
)

// CursorAt converts an offset into a history cursor position.
func CursorAt(v View, offset int) types.CursorPosition {
	l := v.LineAt(offset)
	col := utils.ByteOffsetToRuneIndex(l.Text, offset-l.From)
	return types.CursorPosition{Line: l.Number, Column: col}
}

// OffsetOf translates a stored cursor position into a live offset, clamped
// to the current document: the line to [1, total lines], the column to the
// line length and to a grapheme boundary.
func OffsetOf(text string, pos types.CursorPosition) int {
	starts := utils.LineStarts(text)
	line := pos.Line
	if line < 1 {
		line = 1
	}
	if line > len(starts) {
		line = len(starts)
	}
	from := starts[line-1]
	to := len(text)
	if line < len(starts) {
		to = starts[line] - 1
	}
	return from + utils.ClampColumn(text[from:to], pos.Column)
}
