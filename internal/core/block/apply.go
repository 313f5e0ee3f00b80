package block

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bethropolis/scribe/internal/logger"
)

// OpType names an edit operation.
type OpType string

const (
	OpReplaceRange OpType = "replace_range"
	OpInsertBefore OpType = "insert_before"
	OpInsertAfter  OpType = "insert_after"
)

// ErrUnknownBlock is reported when an operation names a block that is not in
// the snapshot it is resolved against.
var ErrUnknownBlock = errors.New("unknown block")

// Operation is a block-anchored edit. Only the fields relevant to Type are used.
type Operation struct {
	Type          OpType `json:"type"`
	StartBlockID  string `json:"startBlockId,omitempty"`
	EndBlockID    string `json:"endBlockId,omitempty"`
	AnchorBlockID string `json:"anchorBlockId,omitempty"`
	Content       string `json:"content"`
}

// ReplaceRange replaces the union span of the start and end blocks.
func ReplaceRange(startID, endID, content string) Operation {
	return Operation{Type: OpReplaceRange, StartBlockID: startID, EndBlockID: endID, Content: content}
}

// InsertBefore inserts content at the anchor block's start.
func InsertBefore(anchorID, content string) Operation {
	return Operation{Type: OpInsertBefore, AnchorBlockID: anchorID, Content: content}
}

// InsertAfter inserts content at the anchor block's end.
func InsertAfter(anchorID, content string) Operation {
	return Operation{Type: OpInsertAfter, AnchorBlockID: anchorID, Content: content}
}

// ParseOperations decodes a JSON array of operations.
func ParseOperations(data []byte) ([]Operation, error) {
	var ops []Operation
	if err := json.Unmarshal(data, &ops); err != nil {
		return nil, fmt.Errorf("decode operations: %w", err)
	}
	return ops, nil
}

// Splice is an operation resolved to offsets: replace [Start, End) with Insert.
type Splice struct {
	Start  int
	End    int
	Insert string
}

// Resolve maps op onto offsets using blocks.
func Resolve(blocks map[string]Block, op Operation) (Splice, error) {
	lookup := func(id string) (Block, error) {
		b, ok := blocks[id]
		if !ok {
			return Block{}, fmt.Errorf("%s %q: %w", op.Type, id, ErrUnknownBlock)
		}
		return b, nil
	}

	switch op.Type {
	case OpReplaceRange:
		startBlock, err := lookup(op.StartBlockID)
		if err != nil {
			return Splice{}, err
		}
		endBlock, err := lookup(op.EndBlockID)
		if err != nil {
			return Splice{}, err
		}
		return Splice{
			Start:  min(startBlock.Start, endBlock.Start),
			End:    max(startBlock.End, endBlock.End),
			Insert: op.Content,
		}, nil
	case OpInsertBefore:
		anchor, err := lookup(op.AnchorBlockID)
		if err != nil {
			return Splice{}, err
		}
		return Splice{Start: anchor.Start, End: anchor.Start, Insert: op.Content}, nil
	case OpInsertAfter:
		anchor, err := lookup(op.AnchorBlockID)
		if err != nil {
			return Splice{}, err
		}
		return Splice{Start: anchor.End, End: anchor.End, Insert: op.Content}, nil
	default:
		return Splice{}, fmt.Errorf("unsupported operation type %q", op.Type)
	}
}

// Apply resolves ops against blocks and splices them into text right to left.
// Operations that cannot be resolved are dropped; the rest still apply.
// Overlapping spans are not reconciled: the splice sorted last wins.
func Apply(text string, blocks []Block, ops []Operation) string {
	index := make(map[string]Block, len(blocks))
	for _, b := range blocks {
		index[b.ID] = b
	}

	splices := make([]Splice, 0, len(ops))
	for i, op := range ops {
		sp, err := Resolve(index, op)
		if err != nil {
			logger.DebugTagf("block", "Apply: dropping operation %d: %v", i, err)
			continue
		}
		if sp.Start < 0 || sp.End > len(text) || sp.Start > sp.End {
			logger.DebugTagf("block", "Apply: dropping operation %d: span [%d,%d) outside text of %d bytes",
				i, sp.Start, sp.End, len(text))
			continue
		}
		splices = append(splices, sp)
	}
	return SpliceAll(text, splices)
}

// SpliceAll applies splices in descending start order so that earlier offsets
// stay valid. With equal starts the later input is spliced first, which leaves
// earlier-listed content in front.
func SpliceAll(text string, splices []Splice) string {
	if len(splices) == 0 {
		return text
	}
	order := make([]int, len(splices))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		sa, sb := splices[order[a]], splices[order[b]]
		if sa.Start != sb.Start {
			return sa.Start > sb.Start
		}
		return order[a] > order[b]
	})

	out := text
	for _, idx := range order {
		sp := splices[idx]
		end := sp.End
		if end > len(out) {
			end = len(out)
		}
		start := sp.Start
		if start > end {
			start = end
		}
		var b strings.Builder
		b.Grow(len(out) - (end - start) + len(sp.Insert))
		b.WriteString(out[:start])
		b.WriteString(sp.Insert)
		b.WriteString(out[end:])
		out = b.String()
	}
	return out
}
