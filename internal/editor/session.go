// Package editor wires the edit engine into one editing session: two surface
// buffers, their histories, the pending change field, the format bridge and
// the persistence collaborator.
package editor

import (
	"context"
	"fmt"
	"time"

	"github.com/bethropolis/scribe/internal/bridge"
	"github.com/bethropolis/scribe/internal/buffer"
	"github.com/bethropolis/scribe/internal/component"
	"github.com/bethropolis/scribe/internal/core/block"
	"github.com/bethropolis/scribe/internal/core/clipboard"
	"github.com/bethropolis/scribe/internal/core/history"
	"github.com/bethropolis/scribe/internal/core/latex"
	"github.com/bethropolis/scribe/internal/core/outline"
	"github.com/bethropolis/scribe/internal/core/tracking"
	"github.com/bethropolis/scribe/internal/event"
	"github.com/bethropolis/scribe/internal/logger"
	"github.com/bethropolis/scribe/internal/types"
)

// Persister is the document-state collaborator. store.Handle implements it.
type Persister interface {
	UpdateContent(ctx context.Context, content string) error
	SaveFormat(ctx context.Context, lastEditedFormat, latex string) error
	CleanupInsertedSources(ctx context.Context, oldContent, newContent string) error
}

// Options configures a Session. Zero values take defaults.
type Options struct {
	Converter    bridge.Converter
	Repairer     latex.PreambleRepairer
	Persister    Persister
	Planner      component.Planner
	Component    component.Options
	HistoryLimit int
	Debounce     time.Duration
	Window       int
	Events       *event.Manager
	Clipboard    *clipboard.Manager
}

// Session is one open document. It is driven from a single goroutine.
type Session struct {
	surfaces map[history.Surface]buffer.Buffer
	active   history.Surface
	readOnly bool

	// set while the engine itself writes restored content, so the write is
	// not taken for user input
	programmatic bool

	history    *history.Manager
	tracker    *tracking.Tracker
	bridge     *bridge.Bridge
	inserter   *latex.Inserter
	segmenter  block.Segmenter
	components *component.Engine
	outline    *outline.Tree
	persister  Persister
	events     *event.Manager
	clipboard  *clipboard.Manager
}

// NewSession creates an empty session on the Markdown surface.
func NewSession(opts Options) (*Session, error) {
	if opts.Events == nil {
		opts.Events = event.NewManager()
	}
	if opts.Repairer == nil {
		opts.Repairer = latex.NewPackageRepairer(nil)
	}
	if opts.Converter == nil {
		opts.Converter = bridge.ConverterFuncs{}
	}
	if opts.Window <= 0 {
		opts.Window = block.DefaultWindow
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.NewManager(false)
	}

	components, err := component.NewEngine(opts.Planner, opts.Component)
	if err != nil {
		return nil, fmt.Errorf("create component engine: %w", err)
	}

	md := buffer.NewSliceBuffer()
	tree := outline.New()
	md.OnEdit(tree.Note)

	s := &Session{
		surfaces: map[history.Surface]buffer.Buffer{
			history.Markdown: md,
			history.Latex:    buffer.NewSliceBuffer(),
		},
		active:     history.Markdown,
		bridge:     bridge.New(opts.Converter, opts.Repairer),
		inserter:   latex.NewInserter(opts.Repairer),
		segmenter:  block.Segmenter{Window: opts.Window},
		components: components,
		outline:    tree,
		persister:  opts.Persister,
		events:     opts.Events,
		clipboard:  opts.Clipboard,
	}
	s.history = history.NewManager(history.Options{
		MaxHistory:    opts.HistoryLimit,
		Debounce:      opts.Debounce,
		OnStateChange: s.restore,
		Events:        opts.Events,
	})
	s.tracker = tracking.NewTracker(s.surfaces[history.Markdown], sessionSink{s}, opts.Events)
	return s, nil
}

// Close stops pending history timers.
func (s *Session) Close() {
	s.history.Close()
}

// Events returns the session's event bus.
func (s *Session) Events() *event.Manager { return s.events }

// Active returns the surface being edited.
func (s *Session) Active() history.Surface { return s.active }

// View returns the buffer of a surface.
func (s *Session) View(surface history.Surface) buffer.View { return s.surfaces[surface] }

// Content returns the text of a surface.
func (s *Session) Content(surface history.Surface) string { return s.surfaces[surface].String() }

// History returns the history manager.
func (s *Session) History() *history.Manager { return s.history }

// ReadOnly reports whether the session shows a historical version.
func (s *Session) ReadOnly() bool { return s.readOnly }

// SetReadOnly switches between a live document and a historical version.
// Read-only sessions never write through to the persister.
func (s *Session) SetReadOnly(readOnly bool) {
	s.readOnly = readOnly
	logger.DebugTagf("editor", "Editor: read-only = %v", readOnly)
}

// Load opens a document. Content that differs from what the stacks last saw
// resets their history.
func (s *Session) Load(markdown, latexDraft string, lastEdited history.Surface) {
	s.history.Stack(history.Markdown).Flush()
	s.history.Stack(history.Latex).Flush()
	s.tracker.CancelTracking()

	s.setContentWithoutSave(history.Markdown, markdown)
	s.setContentWithoutSave(history.Latex, latexDraft)
	s.Sync(history.Markdown, markdown)
	s.Sync(history.Latex, latexDraft)
	if lastEdited == history.Latex && latexDraft != "" {
		s.active = history.Latex
	} else {
		s.active = history.Markdown
	}
	logger.Infof("Editor: loaded document (%d bytes markdown, %d bytes latex, active %s)", len(markdown), len(latexDraft), s.active)
}

// Sync feeds externally supplied content of a surface to its history stack.
// During a programmatic restore the content is never taken as a new document.
func (s *Session) Sync(surface history.Surface, content string) bool {
	origin := history.OriginExternal
	if s.programmatic {
		origin = history.OriginProgrammatic
	}
	return s.history.Stack(surface).Sync(content, origin)
}

// setContentWithoutSave writes content into a surface buffer only.
func (s *Session) setContentWithoutSave(surface history.Surface, content string) types.EditInfo {
	buf := s.surfaces[surface]
	if buf.String() == content {
		return types.EditInfo{}
	}
	edit := buf.SetText(content)
	s.events.Dispatch(event.TypeContentChanged, event.ContentChangedData{Edit: edit, Programmatic: s.programmatic})
	return edit
}

// updateContent writes content and saves it.
func (s *Session) updateContent(ctx context.Context, surface history.Surface, content string) error {
	s.setContentWithoutSave(surface, content)
	return s.persist(ctx, surface)
}

// setContent picks the setter: historical versions are never saved.
func (s *Session) setContent(ctx context.Context, surface history.Surface, content string) error {
	if s.readOnly {
		s.setContentWithoutSave(surface, content)
		return nil
	}
	return s.updateContent(ctx, surface, content)
}

// persist saves the current text of a surface, unless read-only.
func (s *Session) persist(ctx context.Context, surface history.Surface) error {
	if s.readOnly || s.persister == nil {
		return nil
	}
	var err error
	if surface == history.Latex {
		err = s.persister.SaveFormat(ctx, string(history.Latex), s.Content(history.Latex))
	} else {
		err = s.persister.UpdateContent(ctx, s.Content(history.Markdown))
	}
	if err != nil {
		return fmt.Errorf("persist %s: %w", surface, err)
	}
	return nil
}

// snapshot returns the cursor and selection of a surface for a history entry.
func (s *Session) snapshot(surface history.Surface) (*types.CursorPosition, *types.Selection) {
	view := s.surfaces[surface]
	sel := view.Selection()
	cursor := buffer.CursorAt(view, sel.To)
	if sel.Empty() {
		return &cursor, nil
	}
	return &cursor, &sel
}

// AddToHistory commits the current content of a surface as a discrete action.
func (s *Session) AddToHistory(surface history.Surface) bool {
	cursor, sel := s.snapshot(surface)
	return s.history.Stack(surface).AddToHistory(s.Content(surface), cursor, sel)
}

// SetSelection moves the cursor or selection on a surface.
func (s *Session) SetSelection(surface history.Surface, from, to int) {
	s.surfaces[surface].SetSelection(from, to)
	if surface == history.Markdown {
		s.tracker.Remember(s.snapshot(history.Markdown))
	}
}

// HandleUserInput applies a keystroke-level edit on a surface. The history
// snapshot is debounced, pending change decorations are re-mapped through
// the edit, and the new text is saved.
func (s *Session) HandleUserInput(ctx context.Context, surface history.Surface, from, to int, insert string) error {
	buf := s.surfaces[surface]
	end := from + len(insert)
	edit, err := buf.Dispatch(buffer.Mutation{From: from, To: to, Insert: insert, Selection: &types.Selection{From: end, To: end}})
	if err != nil {
		return fmt.Errorf("user input: %w", err)
	}
	s.events.Dispatch(event.TypeContentChanged, event.ContentChangedData{Edit: edit, Programmatic: s.programmatic})
	if surface == history.Markdown {
		s.tracker.MapThrough(edit)
		s.tracker.Remember(s.snapshot(history.Markdown))
	}
	if !s.programmatic {
		cursor, sel := s.snapshot(surface)
		s.history.Stack(surface).Record(buf.String(), cursor, sel)
	}
	return s.persist(ctx, surface)
}

// Undo steps back on a surface.
func (s *Session) Undo(surface history.Surface) error {
	_, err := s.history.Undo(surface)
	return err
}

// Redo steps forward on a surface.
func (s *Session) Redo(surface history.Surface) error {
	_, err := s.history.Redo(surface)
	return err
}

// restore is the history state-change callback. It writes the entry through
// the non-saving setter, keeps the Markdown surface consistent with a
// restored LaTeX draft and puts the cursor back, clamped to the document.
func (s *Session) restore(surface history.Surface, entry history.Entry) error {
	s.programmatic = true
	defer func() { s.programmatic = false }()

	s.setContentWithoutSave(surface, entry.Content)

	if surface == history.Latex {
		md, err := s.bridge.ToMarkdown(entry.Content)
		if err != nil {
			logger.Warnf("Editor: keeping markdown after latex restore: %v", err)
		} else {
			s.setContentWithoutSave(history.Markdown, md)
			s.Sync(history.Markdown, md)
		}
	}

	buf := s.surfaces[surface]
	n := len(entry.Content)
	switch {
	case entry.Selection != nil:
		buf.SetSelection(min(entry.Selection.From, n), min(entry.Selection.To, n))
	case entry.CursorPosition != nil:
		off := buffer.OffsetOf(entry.Content, *entry.CursorPosition)
		buf.SetSelection(off, off)
	}
	if surface == history.Markdown {
		s.tracker.CancelTracking()
	}
	logger.DebugTagf("editor", "Editor: restored %s entry from %d", surface, entry.Timestamp)
	return nil
}

// sessionSink commits accepted changes for the tracker.
type sessionSink struct{ s *Session }

func (k sessionSink) CleanupInsertedSources(ctx context.Context, oldContent, newContent string) error {
	if k.s.readOnly || k.s.persister == nil {
		return nil
	}
	return k.s.persister.CleanupInsertedSources(ctx, oldContent, newContent)
}

func (k sessionSink) Persist(ctx context.Context, _ string) error {
	return k.s.persist(ctx, history.Markdown)
}

func (k sessionSink) PushHistory(content string, cursor *types.CursorPosition, sel *types.Selection) {
	k.s.history.Stack(history.Markdown).AddToHistory(content, cursor, sel)
}
