package block

import (
	"regexp"
	"strings"

	"github.com/bethropolis/scribe/internal/logger"
	"github.com/bethropolis/scribe/internal/utils"
)

// DefaultWindow is the number of lines scanned on each side of the cursor.
const DefaultWindow = 40

var (
	headingRe  = regexp.MustCompile(`^#{1,6}(\s|$)`)
	listItemRe = regexp.MustCompile(`^\s*([-*+]|\d+[.)])\s+`)
)

func isFence(line string) bool {
	t := strings.TrimLeft(line, " ")
	return strings.HasPrefix(t, "```") || strings.HasPrefix(t, "~~~")
}

func isHeading(line string) bool { return headingRe.MatchString(line) }

func isBlank(line string) bool { return strings.TrimSpace(line) == "" }

func isListItem(line string) bool { return listItemRe.MatchString(line) }

// Segmenter builds a block index around a cursor line.
type Segmenter struct {
	Window int // lines on each side of the cursor; <= 0 means DefaultWindow
}

// Segment segments text around cursorLine (0-based) with the default window.
func Segment(text string, cursorLine int) Segmentation {
	return Segmenter{}.Segment(text, cursorLine)
}

// Segment partitions the lines within Window of cursorLine into blocks. The
// blocks are contiguous and cover [WindowStart, WindowEnd) exactly.
func (s Segmenter) Segment(text string, cursorLine int) Segmentation {
	window := s.Window
	if window <= 0 {
		window = DefaultWindow
	}

	lines := strings.Split(text, "\n")
	starts := utils.LineStarts(text)
	if cursorLine < 0 {
		cursorLine = 0
	}
	if cursorLine >= len(lines) {
		cursorLine = len(lines) - 1
	}

	first := cursorLine - window
	if first < 0 {
		first = 0
	}
	last := cursorLine + window + 1 // exclusive
	if last > len(lines) {
		last = len(lines)
	}

	// offsetOf maps a line index (possibly == last) to its absolute start.
	windowEnd := len(text)
	if last < len(lines) {
		windowEnd = starts[last]
	}
	offsetOf := func(line int) int {
		if line >= last {
			return windowEnd
		}
		return starts[line]
	}

	seg := Segmentation{WindowStart: starts[first], WindowEnd: windowEnd}
	emit := func(kind Kind, from, to int) {
		start, end := offsetOf(from), offsetOf(to)
		seg.Blocks = append(seg.Blocks, Block{
			ID:    blockID(len(seg.Blocks)),
			Kind:  kind,
			Text:  text[start:end],
			Start: start,
			End:   end,
		})
	}

	for i := first; i < last; {
		line := lines[i]
		j := i + 1
		switch {
		case isFence(line):
			for j < last && !isFence(lines[j]) {
				j++
			}
			if j < last {
				j++ // closing fence belongs to the block
			}
			emit(KindCode, i, j)
		case isHeading(line):
			for j < last && isBlank(lines[j]) {
				j++
			}
			emit(KindHeading, i, j)
		case isBlank(line):
			for j < last && isBlank(lines[j]) {
				j++
			}
			emit(KindBlank, i, j)
		case isListItem(line):
			for j < last && isListItem(lines[j]) {
				j++
			}
			if j < last && isBlank(lines[j]) {
				j++
			}
			emit(KindList, i, j)
		default:
			for j < last {
				next := lines[j]
				if isBlank(next) {
					j++
					break
				}
				if isHeading(next) || isFence(next) {
					break
				}
				j++
			}
			emit(KindParagraph, i, j)
		}
		i = j
	}

	// The cursor offset comes from the prefix table, not from the scan above.
	cursorOffset := starts[cursorLine]
	seg.CursorBlockID = findBlock(seg.Blocks, cursorOffset)

	logger.DebugTagf("block", "Segment: %d block(s) in [%d,%d), cursor line %d -> %s",
		len(seg.Blocks), seg.WindowStart, seg.WindowEnd, cursorLine, seg.CursorBlockID)
	return seg
}

// findBlock returns the id of the block containing offset. An empty block
// starting at offset also counts; otherwise the first block is used.
func findBlock(blocks []Block, offset int) string {
	if len(blocks) == 0 {
		return ""
	}
	for _, b := range blocks {
		if b.Contains(offset) {
			return b.ID
		}
	}
	for _, b := range blocks {
		if b.Start == offset {
			return b.ID
		}
	}
	// A cursor on the final line of a document that ends without a newline
	// sits exactly at the last block's end.
	if lastBlock := blocks[len(blocks)-1]; lastBlock.End == offset {
		return lastBlock.ID
	}
	return blocks[0].ID
}
