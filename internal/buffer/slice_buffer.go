// internal/buffer/slice_buffer.go
package buffer

import (
	"errors"
	"fmt"
	"os"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/bethropolis/scribe/internal/types"
	"github.com/bethropolis/scribe/internal/utils"
)

// ErrRange is returned for offsets outside the document.
var ErrRange = errors.New("offset out of range")

// SliceBuffer keeps the document as a slice of lines.
type SliceBuffer struct {
	lines    []string
	filePath string
	modified bool

	selFrom, selTo int

	observers []func(types.EditInfo)
}

// NewSliceBuffer creates an empty SliceBuffer.
func NewSliceBuffer() *SliceBuffer {
	return &SliceBuffer{lines: []string{""}}
}

// NewSliceBufferFromString creates a buffer holding text.
func NewSliceBufferFromString(text string) *SliceBuffer {
	return &SliceBuffer{lines: strings.Split(text, "\n")}
}

// Load reads a file into the buffer. A missing file yields an empty buffer.
func (sb *SliceBuffer) Load(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			sb.lines = []string{""}
			sb.filePath = filePath
			sb.modified = false
			return nil
		}
		return fmt.Errorf("failed to read file '%s': %w", filePath, err)
	}
	sb.lines = strings.Split(string(data), "\n")
	sb.filePath = filePath
	sb.modified = false
	sb.selFrom, sb.selTo = 0, 0
	return nil
}

// Save writes the buffer content to filePath, or to the loaded path if empty.
func (sb *SliceBuffer) Save(filePath string) error {
	path := sb.filePath
	if filePath != "" {
		path = filePath
	}
	if path == "" {
		return errors.New("no file path specified for saving")
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write file '%s': %w", path, err)
	}
	sb.filePath = path
	sb.modified = false
	return nil
}

func (sb *SliceBuffer) FilePath() string { return sb.filePath }

// IsModified returns true if the buffer has unsaved changes.
func (sb *SliceBuffer) IsModified() bool { return sb.modified }

func (sb *SliceBuffer) String() string { return strings.Join(sb.lines, "\n") }

// Len returns the document length in bytes.
func (sb *SliceBuffer) Len() int {
	n := len(sb.lines) - 1 // newlines
	for _, l := range sb.lines {
		n += len(l)
	}
	return n
}

func (sb *SliceBuffer) Lines() []string { return sb.lines }

func (sb *SliceBuffer) LineCount() int { return len(sb.lines) }

// Line returns the 0-based line index.
func (sb *SliceBuffer) Line(index int) (string, error) {
	if index < 0 || index >= len(sb.lines) {
		return "", fmt.Errorf("line index %d out of bounds (0-%d)", index, len(sb.lines)-1)
	}
	return sb.lines[index], nil
}

// LineAt returns the line containing offset, clamped to the document.
func (sb *SliceBuffer) LineAt(offset int) Line {
	offset = utils.ClampOffset(offset, sb.Len())
	from := 0
	for i, l := range sb.lines {
		to := from + len(l)
		if offset <= to || i == len(sb.lines)-1 {
			return Line{Number: i + 1, From: from, To: to, Text: l}
		}
		from = to + 1
	}
	return Line{Number: 1}
}

// offsetOf converts a position to a byte offset, clamping line and column.
func (sb *SliceBuffer) offsetOf(pos types.Position) int {
	if pos.Line < 0 {
		return 0
	}
	if pos.Line >= len(sb.lines) {
		return sb.Len()
	}
	offset := 0
	for i := 0; i < pos.Line; i++ {
		offset += len(sb.lines[i]) + 1
	}
	line := sb.lines[pos.Line]
	col := utils.RuneIndexToByteOffset(line, pos.Col)
	if col < 0 {
		col = len(line)
	}
	return offset + col
}

// pointAt converts a byte offset to a tree-sitter point (row, byte column).
func (sb *SliceBuffer) pointAt(offset int) sitter.Point {
	l := sb.LineAt(offset)
	return sitter.Point{Row: uint32(l.Number - 1), Column: uint32(offset - l.From)}
}

// Insert inserts text at a given position.
func (sb *SliceBuffer) Insert(pos types.Position, text string) (types.EditInfo, error) {
	at := sb.offsetOf(pos)
	return sb.Replace(at, at, text)
}

// Delete removes text within [start, end). Positions are swapped if reversed.
func (sb *SliceBuffer) Delete(start, end types.Position) (types.EditInfo, error) {
	from, to := sb.offsetOf(start), sb.offsetOf(end)
	if from > to {
		from, to = to, from
	}
	return sb.Replace(from, to, "")
}

// Replace swaps [from, to) for text and reports the edit.
func (sb *SliceBuffer) Replace(from, to int, text string) (types.EditInfo, error) {
	n := sb.Len()
	if from < 0 || to > n || from > to {
		return types.EditInfo{}, fmt.Errorf("replace [%d,%d) in document of %d bytes: %w", from, to, n, ErrRange)
	}
	info := types.EditInfo{
		StartIndex:     uint32(from),
		OldEndIndex:    uint32(to),
		StartPosition:  sb.pointAt(from),
		OldEndPosition: sb.pointAt(to),
	}
	full := sb.String()
	sb.lines = strings.Split(full[:from]+text+full[to:], "\n")
	info.NewEndIndex = uint32(from + len(text))
	info.NewEndPosition = sb.pointAt(from + len(text))

	if from != to || text != "" {
		sb.modified = true
	}
	sb.selFrom = info.MapOffset(sb.selFrom, 1)
	sb.selTo = info.MapOffset(sb.selTo, 1)
	for _, fn := range sb.observers {
		fn(info)
	}
	return info, nil
}

// OnEdit registers fn to be called with every edit after it lands.
func (sb *SliceBuffer) OnEdit(fn func(types.EditInfo)) {
	sb.observers = append(sb.observers, fn)
}

// SetText replaces the whole document.
func (sb *SliceBuffer) SetText(text string) types.EditInfo {
	info, _ := sb.Replace(0, sb.Len(), text)
	return info
}

// Selection returns the current selection (a cursor when empty).
func (sb *SliceBuffer) Selection() types.Selection {
	from, to := sb.selFrom, sb.selTo
	if from > to {
		from, to = to, from
	}
	full := sb.String()
	from, to = utils.ClampOffset(from, len(full)), utils.ClampOffset(to, len(full))
	return types.Selection{From: from, To: to, Text: full[from:to]}
}

// SetSelection sets the selection; from == to places a cursor.
func (sb *SliceBuffer) SetSelection(from, to int) {
	n := sb.Len()
	sb.selFrom, sb.selTo = utils.ClampOffset(from, n), utils.ClampOffset(to, n)
}

// Dispatch applies a mutation and then its selection, if any.
func (sb *SliceBuffer) Dispatch(m Mutation) (types.EditInfo, error) {
	info, err := sb.Replace(m.From, m.To, m.Insert)
	if err != nil {
		return info, err
	}
	if m.Selection != nil {
		sb.SetSelection(m.Selection.From, m.Selection.To)
	}
	return info, nil
}

// Ensure SliceBuffer satisfies the Buffer interface
var _ Buffer = (*SliceBuffer)(nil)
