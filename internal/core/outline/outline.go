// Package outline keeps a Markdown syntax tree of the live document, parsed
// incrementally through the edits the buffer reports.
package outline

import (
	"context"
	"fmt"
	"sort"

	"github.com/smacker/go-tree-sitter/markdown"

	"github.com/bethropolis/scribe/internal/logger"
	"github.com/bethropolis/scribe/internal/types"
)

// codeBlockTypes are the block nodes whose content is literal text.
var codeBlockTypes = map[string]bool{
	"fenced_code_block":   true,
	"indented_code_block": true,
	"html_block":          true,
}

// Tree is the parsed outline of one document. It is not safe for concurrent use.
type Tree struct {
	tree    *markdown.MarkdownTree
	size    int // bytes the tree describes once pending edits are applied
	pending []types.EditInfo
	code    []types.Span
}

// New creates an empty outline; the first Parse is a full parse.
func New() *Tree {
	return &Tree{}
}

// Note queues an edit for the next Parse. Edits noted before the first parse
// are dropped.
func (t *Tree) Note(edit types.EditInfo) {
	if t.tree == nil {
		return
	}
	t.pending = append(t.pending, edit)
	t.size += edit.Delta()
}

// Parse brings the tree up to date with text. Pending edits are applied to
// the previous tree so tree-sitter reuses the unchanged nodes; when they do
// not account for text the tree is rebuilt from scratch.
func (t *Tree) Parse(ctx context.Context, text string) error {
	old := t.tree
	if old != nil {
		if t.size != len(text) {
			logger.DebugTagf("outline", "Outline: %d noted edits do not match %d bytes, full parse", len(t.pending), len(text))
			old = nil
		} else {
			for _, e := range t.pending {
				old.Edit(e.InputEdit())
			}
		}
	}
	t.pending = nil

	tree, err := markdown.ParseCtx(ctx, old, []byte(text))
	if err != nil {
		t.tree, t.size, t.code = nil, 0, nil
		return fmt.Errorf("parse markdown: %w", err)
	}
	t.tree, t.size = tree, len(text)
	t.code = t.collectCode()
	logger.DebugTagf("outline", "Outline: parsed %d bytes (incremental %v), %d code blocks", len(text), old != nil, len(t.code))
	return nil
}

func (t *Tree) collectCode() []types.Span {
	var spans []types.Span
	t.tree.Iter(func(n *markdown.Node) bool {
		if codeBlockTypes[n.Type()] {
			spans = append(spans, types.Span{From: int(n.StartByte()), To: int(n.EndByte())})
		}
		return true
	})
	sort.Slice(spans, func(i, j int) bool { return spans[i].From < spans[j].From })
	return spans
}

// CodeBlocks returns the spans of fenced, indented and HTML blocks as of the
// last Parse.
func (t *Tree) CodeBlocks() []types.Span {
	return t.code
}

// InCode reports whether offset lies inside a code block.
func (t *Tree) InCode(offset int) bool {
	for _, s := range t.code {
		if offset >= s.From && offset < s.To {
			return true
		}
	}
	return false
}
