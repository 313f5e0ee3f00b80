package outline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethropolis/scribe/internal/buffer"
)

const doc = "Intro\n\n```\n![Cap](asset://x.png)\n```\n\n![Real](asset://y.png)\n"

func TestParseFindsCodeBlocks(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Parse(context.Background(), doc))

	require.Len(t, tr.CodeBlocks(), 1)
	assert.Equal(t, 7, tr.CodeBlocks()[0].From)
	assert.True(t, tr.InCode(strings.Index(doc, "![Cap]")))
	assert.False(t, tr.InCode(strings.Index(doc, "![Real]")))
	assert.False(t, tr.InCode(0))
}

func TestIncrementalParseMatchesFullParse(t *testing.T) {
	ctx := context.Background()
	buf := buffer.NewSliceBufferFromString(doc)
	tr := New()
	buf.OnEdit(tr.Note)
	require.NoError(t, tr.Parse(ctx, buf.String()))

	_, err := buf.Replace(0, 0, "# Title\n\n")
	require.NoError(t, err)
	_, err = buf.Replace(buf.Len(), buf.Len(), "\n    indented code\n")
	require.NoError(t, err)
	require.NoError(t, tr.Parse(ctx, buf.String()))

	full := New()
	require.NoError(t, full.Parse(ctx, buf.String()))
	assert.Equal(t, full.CodeBlocks(), tr.CodeBlocks())
	require.Len(t, tr.CodeBlocks(), 2)
	assert.Equal(t, 16, tr.CodeBlocks()[0].From)
	assert.True(t, tr.InCode(strings.Index(buf.String(), "indented code")))
}

func TestParseRecoversFromMissedEdits(t *testing.T) {
	ctx := context.Background()
	tr := New()
	require.NoError(t, tr.Parse(ctx, doc))

	// nothing noted: the tree is rebuilt instead of reused
	next := "Plain text only\n"
	require.NoError(t, tr.Parse(ctx, next))
	assert.Empty(t, tr.CodeBlocks())
}
