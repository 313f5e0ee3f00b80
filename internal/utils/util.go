package utils

import (
	"strings"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// RuneIndexToByteOffset converts a rune index to a byte offset in a line.
// Returns -1 if runeIndex is out of bounds.
func RuneIndexToByteOffset(line string, runeIndex int) int {
	if runeIndex <= 0 {
		return 0
	}
	currentRune := 0
	for byteOffset := range line {
		if currentRune == runeIndex {
			return byteOffset
		}
		currentRune++
	}
	if currentRune == runeIndex {
		return len(line) // index at the very end
	}
	return -1
}

// ByteOffsetToRuneIndex converts a byte offset to a rune index in a line.
// Offsets inside a multi-byte rune count the rune as not yet reached.
func ByteOffsetToRuneIndex(line string, byteOffset int) int {
	if byteOffset <= 0 {
		return 0
	}
	if byteOffset > len(line) {
		byteOffset = len(line)
	}
	runeIndex := 0
	for i, r := range line {
		if i+utf8.RuneLen(r) > byteOffset {
			break
		}
		runeIndex++
	}
	return runeIndex
}

// ClampColumn converts a rune column to a byte offset within line, clamping
// to the line length and snapping back to the start of the grapheme cluster
// the column falls in, so a restored cursor never splits a cluster.
func ClampColumn(line string, col int) int {
	if col <= 0 {
		return 0
	}
	if n := utf8.RuneCountInString(line); col > n {
		col = n
	}
	target := RuneIndexToByteOffset(line, col)
	offset := 0
	state := -1
	rest := line
	for len(rest) > 0 {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if offset+len(cluster) > target {
			return offset
		}
		offset += len(cluster)
	}
	return offset
}

// GraphemeCount returns the number of user-perceived characters in s.
func GraphemeCount(s string) int {
	return uniseg.GraphemeClusterCount(s)
}

// LineStarts returns the byte offset at which each line of text begins.
// A text always has at least one line.
func LineStarts(text string) []int {
	starts := make([]int, 1, strings.Count(text, "\n")+1)
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// ClampOffset bounds pos to [0, n].
func ClampOffset(pos, n int) int {
	if pos < 0 {
		return 0
	}
	if pos > n {
		return n
	}
	return pos
}
