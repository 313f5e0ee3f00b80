package buffer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethropolis/scribe/internal/types"
)

func TestSliceBuffer_LineAt(t *testing.T) {
	sb := NewSliceBufferFromString("Line 1\n\nLine 2")
	assert.Equal(t, 14, sb.Len())
	assert.Equal(t, Line{Number: 1, From: 0, To: 6, Text: "Line 1"}, sb.LineAt(3))
	assert.Equal(t, Line{Number: 2, From: 7, To: 7, Text: ""}, sb.LineAt(7))
	assert.Equal(t, Line{Number: 3, From: 8, To: 14, Text: "Line 2"}, sb.LineAt(99))
}

func TestSliceBuffer_InsertDelete(t *testing.T) {
	sb := NewSliceBufferFromString("ab\ncd")
	info, err := sb.Insert(types.Position{Line: 1, Col: 1}, "X\nY")
	require.NoError(t, err)
	assert.Equal(t, "ab\ncX\nYd", sb.String())
	assert.Equal(t, uint32(4), info.StartIndex)
	assert.Equal(t, uint32(7), info.NewEndIndex)
	assert.Equal(t, uint32(2), info.NewEndPosition.Row)
	assert.True(t, sb.IsModified())

	_, err = sb.Delete(types.Position{Line: 2, Col: 1}, types.Position{Line: 0, Col: 2})
	require.NoError(t, err)
	assert.Equal(t, "abd", sb.String())
}

func TestSliceBuffer_ReplaceOutOfRange(t *testing.T) {
	sb := NewSliceBufferFromString("abc")
	_, err := sb.Replace(2, 9, "x")
	assert.ErrorIs(t, err, ErrRange)
	assert.Equal(t, "abc", sb.String())
}

func TestSliceBuffer_SelectionMapsThroughEdits(t *testing.T) {
	sb := NewSliceBufferFromString("hello world")
	sb.SetSelection(6, 11)
	assert.Equal(t, "world", sb.Selection().Text)

	_, err := sb.Dispatch(Mutation{From: 0, To: 0, Insert: ">> "})
	require.NoError(t, err)
	assert.Equal(t, types.Selection{From: 9, To: 14, Text: "world"}, sb.Selection())

	_, err = sb.Dispatch(Mutation{From: 0, To: 3, Selection: &types.Selection{From: 0, To: 0}})
	require.NoError(t, err)
	assert.True(t, sb.Selection().Empty())
}

func TestSliceBuffer_LoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.md")
	sb := NewSliceBuffer()
	require.NoError(t, sb.Load(path)) // missing file is an empty buffer
	assert.Equal(t, "", sb.String())

	sb.SetText("# Title\n")
	require.NoError(t, sb.Save(""))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Title\n", string(data))
	assert.False(t, sb.IsModified())
}

func TestSliceBuffer_OnEditReportsPoints(t *testing.T) {
	sb := NewSliceBufferFromString("Line 1\n\nLine 2")
	var seen []types.EditInfo
	sb.OnEdit(func(e types.EditInfo) { seen = append(seen, e) })

	_, err := sb.Replace(7, 7, "X\n")
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, uint32(1), seen[0].StartPosition.Row)
	assert.Equal(t, uint32(0), seen[0].StartPosition.Column)
	assert.Equal(t, uint32(2), seen[0].NewEndPosition.Row)
	assert.Equal(t, uint32(0), seen[0].NewEndPosition.Column)

	_, err = sb.Replace(0, 99, "")
	assert.Error(t, err)
	assert.Len(t, seen, 1, "a rejected edit is not reported")
}
