package block

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = "# Title\n\nIntro line one\nintro line two\n\n- a\n- b\n\n```go\nfmt.Println()\n```\nTail"

func kinds(seg Segmentation) []Kind {
	out := make([]Kind, len(seg.Blocks))
	for i, b := range seg.Blocks {
		out[i] = b.Kind
	}
	return out
}

func assertCoversWindow(t *testing.T, text string, seg Segmentation) {
	t.Helper()
	require.NotEmpty(t, seg.Blocks)
	assert.Equal(t, seg.WindowStart, seg.Blocks[0].Start)
	assert.Equal(t, seg.WindowEnd, seg.Blocks[len(seg.Blocks)-1].End)
	for i, b := range seg.Blocks {
		assert.LessOrEqual(t, b.Start, b.End)
		assert.Equal(t, text[b.Start:b.End], b.Text)
		assert.Equal(t, fmt.Sprintf("b%d", i), b.ID)
		if i > 0 {
			assert.Equal(t, seg.Blocks[i-1].End, b.Start, "blocks must be contiguous")
		}
	}
}

func TestSegment_Kinds(t *testing.T) {
	seg := Segment(sampleDoc, 0)
	assertCoversWindow(t, sampleDoc, seg)
	assert.Equal(t, []Kind{KindHeading, KindParagraph, KindList, KindCode, KindParagraph}, kinds(seg))

	assert.Equal(t, "# Title\n\n", seg.Blocks[0].Text)
	assert.Equal(t, "Intro line one\nintro line two\n\n", seg.Blocks[1].Text)
	assert.Equal(t, "- a\n- b\n\n", seg.Blocks[2].Text)
	assert.Equal(t, "```go\nfmt.Println()\n```\n", seg.Blocks[3].Text)
	assert.Equal(t, "Tail", seg.Blocks[4].Text)
	assert.Equal(t, 0, seg.WindowStart)
	assert.Equal(t, len(sampleDoc), seg.WindowEnd)
}

func TestSegment_CursorBlock(t *testing.T) {
	tests := []struct {
		line int
		want string
	}{
		{0, "b0"},
		{1, "b0"}, // blank swallowed by heading
		{3, "b1"},
		{6, "b2"},
		{9, "b3"},
		{11, "b4"},
		{99, "b4"}, // clamped to last line
		{-3, "b0"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("line%d", tt.line), func(t *testing.T) {
			assert.Equal(t, tt.want, Segment(sampleDoc, tt.line).CursorBlockID)
		})
	}
}

func TestSegment_BlankRunAndParagraphStops(t *testing.T) {
	text := "para\n## H\n\n\n\nnext\n```\ncode"
	seg := Segment(text, 0)
	assertCoversWindow(t, text, seg)
	// paragraph stops before the heading, heading swallows the blank run,
	// unterminated fence runs to the window edge.
	assert.Equal(t, []Kind{KindParagraph, KindHeading, KindParagraph, KindCode}, kinds(seg))
	assert.Equal(t, "```\ncode", seg.Blocks[3].Text)

	blank := "a\n\n\n\nb"
	seg = Segment(blank, 0)
	assert.Equal(t, []Kind{KindParagraph, KindBlank, KindParagraph}, kinds(seg))
	assert.Equal(t, "\n\n", seg.Blocks[1].Text)
}

func TestSegment_Window(t *testing.T) {
	var lines []string
	for i := 0; i < 200; i++ {
		lines = append(lines, fmt.Sprintf("line %d", i), "")
	}
	text := strings.Join(lines, "\n")

	seg := Segmenter{Window: 10}.Segment(text, 100)
	assertCoversWindow(t, text, seg)
	assert.True(t, strings.HasPrefix(seg.Blocks[0].Text, "line 45"))
	assert.Greater(t, seg.WindowStart, 0)
	assert.Less(t, seg.WindowEnd, len(text))

	cursor, ok := seg.CursorBlock()
	require.True(t, ok)
	assert.Equal(t, "line 50\n\n", cursor.Text)
}

func TestSegment_EmptyAndTrailingNewline(t *testing.T) {
	seg := Segment("", 0)
	require.Len(t, seg.Blocks, 1)
	assert.Equal(t, KindBlank, seg.Blocks[0].Kind)
	assert.Equal(t, "b0", seg.CursorBlockID)

	seg = Segment("abc\n", 1)
	assertCoversWindow(t, "abc\n", seg)
	assert.Equal(t, "b0", seg.CursorBlockID)
}

func TestSegment_CoversWindowForAnyCursor(t *testing.T) {
	docs := []string{sampleDoc, "\n\n\n", "- x\n  - y\n1. z\n\n\ntext", "```\n```\n```\n"}
	for _, doc := range docs {
		n := strings.Count(doc, "\n") + 1
		for line := 0; line < n; line++ {
			seg := Segmenter{Window: 2}.Segment(doc, line)
			assertCoversWindow(t, doc, seg)
			_, ok := seg.CursorBlock()
			assert.True(t, ok)
		}
	}
}
