package bridge

import (
	"github.com/bethropolis/scribe/internal/core/history"
	"github.com/bethropolis/scribe/internal/core/latex"
	"github.com/bethropolis/scribe/internal/logger"
)

// Metadata is what a surface switch records on the document so that reloading
// it re-hydrates the same editing state.
type Metadata struct {
	LastEditedFormat history.Surface `json:"lastEditedFormat"`
	Latex            string          `json:"latex,omitempty"`
}

// Result is the state of both surfaces after a switch.
type Result struct {
	Active   history.Surface
	Markdown string
	Latex    string
	Metadata Metadata
	// Fallback is set when conversion failed and the prior content was kept.
	Fallback bool
}

// Bridge converts in one direction at a time. It is a directed regeneration,
// never a two-way merge.
type Bridge struct {
	conv     Converter
	repairer latex.PreambleRepairer
}

// New creates a bridge. A nil repairer leaves generated LaTeX as is.
func New(conv Converter, repairer latex.PreambleRepairer) *Bridge {
	return &Bridge{conv: conv, repairer: repairer}
}

// ToLatex regenerates a full LaTeX document from Markdown.
func (b *Bridge) ToLatex(markdown string) (string, error) {
	tree, err := guard("parse xmd", func() (IR, error) { return b.conv.ParseXmd(markdown) })
	if err != nil {
		return "", err
	}
	doc, err := guard("serialize latex", func() (string, error) { return b.conv.ToLatexDocument(tree) })
	if err != nil {
		return "", err
	}
	if b.repairer != nil {
		doc = b.repairer.EnsurePreamble(doc)
	}
	return doc, nil
}

// ToMarkdown regenerates Markdown from a LaTeX draft.
func (b *Bridge) ToMarkdown(latexDraft string) (string, error) {
	tree, err := guard("parse latex", func() (IR, error) { return b.conv.ParseLatex(latexDraft) })
	if err != nil {
		return "", err
	}
	return guard("serialize xmd", func() (string, error) { return b.conv.ToXmd(tree) })
}

// Switch moves the active surface to target, regenerating it from the other.
//
// Markdown to LaTeX aborts on failure: the result keeps the Markdown surface
// active and the error is returned. LaTeX to Markdown never blocks: on failure
// the prior Markdown is kept, Fallback is set and the error is still returned
// for reporting.
func (b *Bridge) Switch(target history.Surface, markdown, latexDraft string) (Result, error) {
	switch target {
	case history.Latex:
		doc, err := b.ToLatex(markdown)
		if err != nil {
			logger.Warnf("Bridge: markdown -> latex failed, staying on markdown: %v", err)
			return Result{Active: history.Markdown, Markdown: markdown, Latex: latexDraft,
				Metadata: Metadata{LastEditedFormat: history.Markdown, Latex: latexDraft}}, err
		}
		logger.DebugTagf("bridge", "Bridge: markdown -> latex (%d -> %d bytes)", len(markdown), len(doc))
		return Result{Active: history.Latex, Markdown: markdown, Latex: doc,
			Metadata: Metadata{LastEditedFormat: history.Latex, Latex: doc}}, nil
	default:
		md, err := b.ToMarkdown(latexDraft)
		res := Result{Active: history.Markdown, Markdown: md, Latex: latexDraft,
			Metadata: Metadata{LastEditedFormat: history.Markdown, Latex: latexDraft}}
		if err != nil {
			logger.Warnf("Bridge: latex -> markdown failed, keeping prior markdown: %v", err)
			res.Markdown = markdown
			res.Fallback = true
			return res, err
		}
		logger.DebugTagf("bridge", "Bridge: latex -> markdown (%d -> %d bytes)", len(latexDraft), len(md))
		return res, nil
	}
}
