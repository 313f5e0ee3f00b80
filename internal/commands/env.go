package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bethropolis/scribe/internal/config"
	"github.com/bethropolis/scribe/internal/core/clipboard"
	"github.com/bethropolis/scribe/internal/core/history"
	"github.com/bethropolis/scribe/internal/core/latex"
	"github.com/bethropolis/scribe/internal/editor"
	"github.com/bethropolis/scribe/internal/store"
)

// Env is what a command runs against.
type Env struct {
	Config    *config.Config
	Stdin     io.Reader
	Stdout    io.Writer
	Clipboard *clipboard.Manager

	// OpenStore opens the document store; store.Open when nil.
	OpenStore func(path string) (*store.Store, error)

	store *store.Store
}

// NewEnv creates an environment over cfg writing to stdout. Yanks go to the
// system clipboard.
func NewEnv(cfg *config.Config, stdin io.Reader, stdout io.Writer) *Env {
	return &Env{
		Config:    cfg,
		Stdin:     stdin,
		Stdout:    stdout,
		Clipboard: clipboard.NewManager(true),
	}
}

// Store opens the document store on first use.
func (e *Env) Store() (*store.Store, error) {
	if e.store != nil {
		return e.store, nil
	}
	open := e.OpenStore
	if open == nil {
		open = store.Open
	}
	s, err := open(e.Config.Store.Path)
	if err != nil {
		return nil, err
	}
	e.store = s
	return s, nil
}

// Close releases the store if it was opened.
func (e *Env) Close() error {
	if e.store == nil {
		return nil
	}
	err := e.store.Close()
	e.store = nil
	return err
}

// repairer builds the preamble repairer from the [latex] packages table.
func (e *Env) repairer() latex.PreambleRepairer {
	return latex.NewPackageRepairer(e.Config.Latex.Packages)
}

// handle returns the stored document for id, or nil when id is empty.
func (e *Env) handle(id string) (*store.Handle, error) {
	if id == "" {
		return nil, nil
	}
	s, err := e.Store()
	if err != nil {
		return nil, err
	}
	return s.Document(id), nil
}

// newSession creates an editing session persisting to h when h is not nil.
func (e *Env) newSession(h *store.Handle) (*editor.Session, error) {
	opts := editor.Options{
		Repairer:     e.repairer(),
		Component:    e.Config.Component.Options(),
		HistoryLimit: e.Config.Editor.HistoryLimit,
		Debounce:     e.Config.Editor.DebounceDuration(),
		Window:       e.Config.Editor.SegmentWindow,
		Clipboard:    e.Clipboard,
	}
	if h != nil {
		opts.Persister = h
	}
	return editor.NewSession(opts)
}

// readInput returns the text to work on: the file at path ("-" is stdin), or
// the stored document when no path is given.
func (e *Env) readInput(ctx context.Context, path string, h *store.Handle, surface history.Surface) (string, error) {
	switch {
	case path == "-":
		data, err := io.ReadAll(e.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	case path != "":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return string(data), nil
	case h != nil:
		doc, err := h.Load(ctx)
		if errors.Is(err, store.ErrNotFound) {
			return "", nil
		}
		if err != nil {
			return "", err
		}
		if surface == history.Latex {
			return doc.Latex, nil
		}
		return doc.Content, nil
	}
	return "", errors.New("no input: give a file or -doc")
}

// emit writes a result and yanks it when asked to or when system_clipboard
// is configured.
func (e *Env) emit(text string, copyOut bool) error {
	if _, err := io.WriteString(e.Stdout, text); err != nil {
		return err
	}
	if copyOut || e.Config.Editor.SystemClipboard {
		return e.Clipboard.Yank(text)
	}
	return nil
}
