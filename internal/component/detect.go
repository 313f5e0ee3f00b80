package component

import (
	"sort"
	"strings"

	"github.com/bethropolis/scribe/internal/logger"
	"github.com/bethropolis/scribe/internal/types"
	"github.com/bethropolis/scribe/internal/utils"
)

// Detect finds the component whose source covers offset. A figure line inside
// a grid is reported as the figure.
func Detect(doc string, offset int) (Detail, error) {
	lines := strings.Split(doc, "\n")
	starts := utils.LineStarts(doc)
	offset = utils.ClampOffset(offset, len(doc))
	line := sort.Search(len(starts), func(i int) bool { return starts[i] > offset }) - 1

	span := func(first, last int) types.Span {
		return types.Span{From: starts[first], To: starts[last] + len(lines[last])}
	}
	detail := func(kind Kind, first, last int) Detail {
		s := span(first, last)
		return Detail{Kind: kind, Range: s, Text: doc[s.From:s.To]}
	}

	if _, ok := parseFigure(lines[line]); ok {
		return detail(KindFigure, line, line), nil
	}

	if open, end, ok := gridAround(lines, line); ok {
		d := detail(KindGrid, open, end)
		h := span(open, open)
		d.Grid = &GridHeader{HeaderFrom: h.From, HeaderTo: h.To}
		return d, nil
	}

	if isTableLine(lines[line]) {
		first, last := line, line
		for first > 0 && isTableLine(lines[first-1]) {
			first--
		}
		for last < len(lines)-1 && isTableLine(lines[last+1]) {
			last++
		}
		if last > first {
			return detail(KindTable, first, last), nil
		}
	}

	logger.DebugTagf("component", "Component: nothing at offset %d (line %d)", offset, line)
	return Detail{}, ErrNotComponent
}

// gridAround returns the fence lines of the grid containing line.
func gridAround(lines []string, line int) (open, end int, ok bool) {
	open = -1
	for i := line; i >= 0; i-- {
		if isGridOpen(lines[i]) {
			open = i
			break
		}
		if i != line && isGridClose(lines[i]) {
			return 0, 0, false
		}
	}
	if open < 0 {
		return 0, 0, false
	}
	for j := open + 1; j < len(lines); j++ {
		if isGridOpen(lines[j]) {
			return 0, 0, false
		}
		if isGridClose(lines[j]) {
			if j < line {
				return 0, 0, false
			}
			return open, j, true
		}
	}
	return 0, 0, false
}
