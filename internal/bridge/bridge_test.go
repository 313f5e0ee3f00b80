package bridge

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethropolis/scribe/internal/core/history"
	"github.com/bethropolis/scribe/internal/core/latex"
)

// wrapConverter stores the source text as the tree and wraps it on output.
func wrapConverter() ConverterFuncs {
	return ConverterFuncs{
		ParseXmdFunc: func(s string) (IR, error) { return s, nil },
		ParseLatexFunc: func(s string) (IR, error) {
			return strings.TrimSuffix(strings.TrimPrefix(s, "\\begin{document}\n"), "\\end{document}\n"), nil
		},
		ToXmdFunc: func(t IR) (string, error) { return t.(string), nil },
		ToLatexDocumentFunc: func(t IR) (string, error) {
			return "\\begin{document}\n" + t.(string) + "\\end{document}\n", nil
		},
	}
}

func TestSwitchRoundTrip(t *testing.T) {
	b := New(wrapConverter(), nil)

	res, err := b.Switch(history.Latex, "hello\n", "")
	require.NoError(t, err)
	assert.Equal(t, history.Latex, res.Active)
	assert.Equal(t, "\\begin{document}\nhello\n\\end{document}\n", res.Latex)
	assert.Equal(t, Metadata{LastEditedFormat: history.Latex, Latex: res.Latex}, res.Metadata)

	back, err := b.Switch(history.Markdown, "stale\n", res.Latex)
	require.NoError(t, err)
	assert.Equal(t, history.Markdown, back.Active)
	assert.Equal(t, "hello\n", back.Markdown)
	assert.False(t, back.Fallback)
	assert.Equal(t, history.Markdown, back.Metadata.LastEditedFormat)
}

func TestSwitchToLatexRepairsPreamble(t *testing.T) {
	conv := wrapConverter()
	conv.ToLatexDocumentFunc = func(t IR) (string, error) {
		return "\\documentclass{article}\n\\begin{document}\n\\includegraphics{x}\n\\end{document}\n", nil
	}
	b := New(conv, latex.NewPackageRepairer(nil))

	doc, err := b.ToLatex("![x](asset://x)")
	require.NoError(t, err)
	assert.Contains(t, doc, "\\usepackage{graphicx}")
}

func TestSwitchToMarkdownKeepsPriorOnFailure(t *testing.T) {
	conv := wrapConverter()
	conv.ParseLatexFunc = func(string) (IR, error) { return nil, errors.New("bad input") }
	b := New(conv, nil)

	res, err := b.Switch(history.Markdown, "prior\n", "\\broken")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConversion)
	assert.Equal(t, history.Markdown, res.Active, "switching to markdown is never blocked")
	assert.Equal(t, "prior\n", res.Markdown)
	assert.True(t, res.Fallback)
}

func TestSwitchToLatexAbortsOnFailure(t *testing.T) {
	conv := wrapConverter()
	conv.ToLatexDocumentFunc = func(IR) (string, error) { return "", errors.New("nope") }
	b := New(conv, nil)

	res, err := b.Switch(history.Latex, "md\n", "old draft")
	assert.ErrorIs(t, err, ErrConversion)
	assert.Equal(t, history.Markdown, res.Active)
	assert.Equal(t, "md\n", res.Markdown)
	assert.Equal(t, "old draft", res.Latex)
}

func TestConverterPanicIsRecovered(t *testing.T) {
	conv := wrapConverter()
	conv.ToXmdFunc = func(IR) (string, error) { panic("boom") }
	b := New(conv, nil)

	var res Result
	var err error
	require.NotPanics(t, func() {
		res, err = b.Switch(history.Markdown, "prior", "x")
	})
	assert.ErrorIs(t, err, ErrConversion)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, "prior", res.Markdown)
}

func TestMissingConverterFunc(t *testing.T) {
	b := New(ConverterFuncs{}, nil)
	_, err := b.ToLatex("x")
	assert.ErrorIs(t, err, ErrConversion)
}
