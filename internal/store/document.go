package store

import "context"

// Handle binds the store to one document. It is the persistence collaborator
// an editing session talks to.
type Handle struct {
	store *Store
	id    string
}

// Document returns a handle for id. The row is created on first write.
func (s *Store) Document(id string) *Handle {
	return &Handle{store: s, id: id}
}

// ID returns the document id.
func (h *Handle) ID() string { return h.id }

// Load returns the stored document.
func (h *Handle) Load(ctx context.Context) (*Document, error) {
	return h.store.Get(ctx, h.id)
}

// UpdateContent saves the Markdown content.
func (h *Handle) UpdateContent(ctx context.Context, content string) error {
	return h.store.PutContent(ctx, h.id, content)
}

// SaveFormat records the last edited surface and the LaTeX draft.
func (h *Handle) SaveFormat(ctx context.Context, lastEditedFormat, latex string) error {
	return h.store.PutFormat(ctx, h.id, lastEditedFormat, latex)
}

// CleanupInsertedSources drops sources orphaned by the content change.
func (h *Handle) CleanupInsertedSources(ctx context.Context, oldContent, newContent string) error {
	_, err := h.store.CleanupInsertedSources(ctx, h.id, oldContent, newContent)
	return err
}
