// Package latex holds the line-anchored insertion routine used when the
// active surface is LaTeX, and the preamble repair it relies on.
package latex

import (
	"fmt"
	"strings"

	"github.com/bethropolis/scribe/internal/logger"
	"github.com/bethropolis/scribe/internal/utils"
)

// Placement selects which side of the cursor line receives the insert.
type Placement string

const (
	Before Placement = "before"
	After  Placement = "after"
)

// ParsePlacement accepts "before" or "after".
func ParsePlacement(s string) (Placement, error) {
	switch Placement(strings.ToLower(strings.TrimSpace(s))) {
	case Before:
		return Before, nil
	case After, "":
		return After, nil
	}
	return "", fmt.Errorf("unknown placement %q", s)
}

// Inserter inserts LaTeX snippets relative to a cursor line.
type Inserter struct {
	Repairer PreambleRepairer // nil means a PackageRepairer with defaults
}

// NewInserter creates an inserter that repairs preambles with r.
func NewInserter(r PreambleRepairer) *Inserter {
	return &Inserter{Repairer: r}
}

// InsertAtCursor inserts content before or after the 1-based cursorLine and
// repairs the preamble. The line number is clamped to the document.
func (in *Inserter) InsertAtCursor(source string, cursorLine int, content string, placement Placement) string {
	starts := utils.LineStarts(source)
	if cursorLine < 1 {
		cursorLine = 1
	}
	if cursorLine > len(starts) {
		cursorLine = len(starts)
	}

	snippet := normalizeInsert(content)
	if snippet == "" {
		return source
	}

	var offset int
	switch placement {
	case Before:
		offset = starts[cursorLine-1]
	default:
		if cursorLine < len(starts) {
			offset = starts[cursorLine] // after the line's newline
		} else {
			offset = len(source)
			if source != "" && !strings.HasSuffix(source, "\n") {
				snippet = "\n" + snippet
			}
		}
	}

	out := source[:offset] + snippet + source[offset:]
	logger.DebugTagf("latex", "InsertAtCursor: %d bytes %s line %d (offset %d)", len(snippet), placement, cursorLine, offset)

	repairer := in.Repairer
	if repairer == nil {
		repairer = NewPackageRepairer(nil)
	}
	return repairer.EnsurePreamble(out)
}

// normalizeInsert drops leading blank lines and makes sure the snippet ends
// with a newline so the following text keeps its own line.
func normalizeInsert(content string) string {
	for {
		nl := strings.IndexByte(content, '\n')
		if nl < 0 || strings.TrimSpace(content[:nl]) != "" {
			break
		}
		content = content[nl+1:]
	}
	if strings.TrimSpace(content) == "" {
		return ""
	}
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content
}
