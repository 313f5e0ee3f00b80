package editor

import (
	"context"
	"fmt"

	"github.com/bethropolis/scribe/internal/bridge"
	"github.com/bethropolis/scribe/internal/buffer"
	"github.com/bethropolis/scribe/internal/component"
	"github.com/bethropolis/scribe/internal/core/block"
	"github.com/bethropolis/scribe/internal/core/history"
	"github.com/bethropolis/scribe/internal/core/latex"
	"github.com/bethropolis/scribe/internal/core/tracking"
	"github.com/bethropolis/scribe/internal/event"
	"github.com/bethropolis/scribe/internal/logger"
	"github.com/bethropolis/scribe/internal/types"
)

// InsertAtCursor inserts content after the cursor's block on the Markdown
// surface, or after the cursor's line on the LaTeX surface, and commits the
// result as one history entry.
func (s *Session) InsertAtCursor(ctx context.Context, content string) error {
	return s.InsertAtCursorPlaced(ctx, content, latex.After)
}

// InsertAtCursorPlaced is InsertAtCursor with an explicit side of the cursor
// block or line.
func (s *Session) InsertAtCursorPlaced(ctx context.Context, content string, placement latex.Placement) error {
	surface := s.active
	buf := s.surfaces[surface]
	text := buf.String()
	cursor := buffer.CursorAt(buf, buf.Selection().To)

	if surface == history.Latex {
		next := s.inserter.InsertAtCursor(text, cursor.Line, content, placement)
		if err := s.setContent(ctx, surface, next); err != nil {
			return err
		}
		s.AddToHistory(surface)
		return nil
	}

	seg := s.segmenter.Segment(text, cursor.Line-1)
	anchor, ok := seg.CursorBlock()
	if !ok {
		// empty window: append
		anchor = block.Block{ID: "end", Start: len(text), End: len(text)}
		seg.Blocks = append(seg.Blocks, anchor)
	}
	blocks := make(map[string]block.Block, len(seg.Blocks))
	for _, b := range seg.Blocks {
		blocks[b.ID] = b
	}
	op := block.InsertAfter(anchor.ID, content)
	if placement == latex.Before {
		op = block.InsertBefore(anchor.ID, content)
	}
	sp, err := block.Resolve(blocks, op)
	if err != nil {
		return fmt.Errorf("insert at cursor: %w", err)
	}
	end := sp.Start + len(sp.Insert)
	edit, err := buf.Dispatch(buffer.Mutation{From: sp.Start, To: sp.End, Insert: sp.Insert, Selection: &types.Selection{From: end, To: end}})
	if err != nil {
		return fmt.Errorf("insert at cursor: %w", err)
	}
	s.events.Dispatch(event.TypeContentChanged, event.ContentChangedData{Edit: edit})
	s.tracker.MapThrough(edit)
	if err := s.persist(ctx, surface); err != nil {
		return err
	}
	s.AddToHistory(surface)
	logger.DebugTagf("editor", "Editor: inserted %d bytes %s block %s", len(content), placement, anchor.ID)
	return nil
}

// SwitchSurface makes target the active surface, regenerating it from the
// other one. Switching to LaTeX is aborted when conversion fails; switching to
// Markdown always succeeds and keeps the prior Markdown on failure, reported
// through Result.Fallback. The switch is recorded as document metadata.
func (s *Session) SwitchSurface(ctx context.Context, target history.Surface) (bridge.Result, error) {
	from := s.active
	md, tex := s.Content(history.Markdown), s.Content(history.Latex)
	if target == from {
		return bridge.Result{Active: from, Markdown: md, Latex: tex,
			Metadata: bridge.Metadata{LastEditedFormat: from, Latex: tex}}, nil
	}
	s.history.Stack(from).Flush()

	res, err := s.bridge.Switch(target, md, tex)
	if err != nil && !res.Fallback {
		return res, fmt.Errorf("switch to %s: %w", target, err)
	}

	s.programmatic = true
	s.setContentWithoutSave(history.Markdown, res.Markdown)
	s.setContentWithoutSave(history.Latex, res.Latex)
	s.Sync(history.Markdown, res.Markdown)
	s.Sync(history.Latex, res.Latex)
	s.programmatic = false

	s.active = res.Active
	if !s.readOnly && s.persister != nil {
		if err := s.persister.SaveFormat(ctx, string(res.Metadata.LastEditedFormat), res.Metadata.Latex); err != nil {
			return res, fmt.Errorf("save format metadata: %w", err)
		}
	}
	s.AddToHistory(res.Active)
	if res.Active == history.Latex {
		s.tracker.CancelTracking()
	}
	s.events.Dispatch(event.TypeSurfaceSwitched, event.SurfaceSwitchedData{From: string(from), To: string(res.Active)})
	logger.Infof("Editor: switched %s -> %s (fallback %v)", from, res.Active, res.Fallback)
	return res, nil
}

// EditComponent runs an instruction against the component at offset on the
// Markdown surface. A validated replacement is spliced over the component's
// span only and committed; a clarify outcome leaves the document untouched.
// Image syntax inside a code block is not a component.
func (s *Session) EditComponent(ctx context.Context, offset int, instruction string) (component.Outcome, error) {
	buf := s.surfaces[history.Markdown]
	doc := buf.String()
	if err := s.outline.Parse(ctx, doc); err != nil {
		logger.Warnf("Editor: outline unavailable, detecting without it: %v", err)
	} else if s.outline.InCode(offset) {
		return component.Outcome{}, fmt.Errorf("offset %d is inside a code block: %w", offset, component.ErrNotComponent)
	}
	d, err := component.Detect(doc, offset)
	if err != nil {
		return component.Outcome{}, err
	}
	outcome, err := s.components.Edit(ctx, d, instruction)
	if err != nil || outcome.Clarify != nil {
		return outcome, err
	}
	// the planner may have taken a while; the span must still hold the same text
	if _, err := component.Replace(buf.String(), d, outcome.Replacement); err != nil {
		return component.Outcome{}, err
	}
	edit, err := buf.Dispatch(buffer.Mutation{From: d.Range.From, To: d.Range.To, Insert: outcome.Replacement})
	if err != nil {
		return component.Outcome{}, fmt.Errorf("edit component: %w", err)
	}
	s.events.Dispatch(event.TypeContentChanged, event.ContentChangedData{Edit: edit})
	s.tracker.MapThrough(edit)
	if err := s.persist(ctx, history.Markdown); err != nil {
		return outcome, err
	}
	s.AddToHistory(history.Markdown)
	s.events.Dispatch(event.TypeComponentEdited, event.ComponentEditedData{
		Kind: string(d.Kind),
		Span: types.Span{From: d.Range.From, To: d.Range.From + len(outcome.Replacement)},
	})
	return outcome, nil
}

// ProposeChanges stages proposed Markdown as pending change blocks.
func (s *Session) ProposeChanges(proposed string) []tracking.ChangeBlock {
	return s.tracker.StartTracking(proposed)
}

// PendingChanges returns the decorations of the pending changes.
func (s *Session) PendingChanges() []tracking.Decoration {
	return s.tracker.Decorations()
}

// AcceptChange applies one pending change.
func (s *Session) AcceptChange(ctx context.Context, id string) (bool, error) {
	return s.tracker.AcceptChange(ctx, id)
}

// RejectChange discards one pending change.
func (s *Session) RejectChange(id string) bool {
	return s.tracker.RejectChange(id)
}

// ApplyChanges accepts every pending change.
func (s *Session) ApplyChanges(ctx context.Context) (string, error) {
	return s.tracker.ApplyChanges(ctx)
}

// CancelTracking discards every pending change.
func (s *Session) CancelTracking() {
	s.tracker.CancelTracking()
}

// YankSelection copies the selected text of a surface to the clipboard.
// It reports false when nothing is selected.
func (s *Session) YankSelection(surface history.Surface) (bool, error) {
	buf := s.surfaces[surface]
	sel := buf.Selection()
	if sel.Empty() {
		return false, nil
	}
	text := buf.String()
	from, to := min(sel.From, sel.To), max(sel.From, sel.To)
	if err := s.clipboard.Yank(text[from:to]); err != nil {
		return true, err
	}
	return true, nil
}

// Paste replaces the selection (or inserts at the cursor) with the clipboard
// text and commits the result as one history entry.
func (s *Session) Paste(ctx context.Context, surface history.Surface) (bool, error) {
	text := s.clipboard.Paste()
	if text == "" {
		return false, nil
	}
	sel := s.surfaces[surface].Selection()
	from, to := min(sel.From, sel.To), max(sel.From, sel.To)
	if err := s.HandleUserInput(ctx, surface, from, to, text); err != nil {
		return false, err
	}
	s.AddToHistory(surface)
	logger.DebugTagf("editor", "Editor: pasted %d bytes into %s", len(text), surface)
	return true, nil
}
