// Package store persists documents, their surface metadata and inserted
// sources in SQLite, and keeps a small key/value table for UI preferences.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS documents (
    id                  TEXT PRIMARY KEY,
    content             TEXT NOT NULL DEFAULT '',
    latex               TEXT NOT NULL DEFAULT '',
    last_edited_format  TEXT NOT NULL DEFAULT 'markdown',
    updated_at          INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sources (
    document_id  TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    key          TEXT NOT NULL,
    entry        TEXT NOT NULL,
    PRIMARY KEY (document_id, key)
);

CREATE TABLE IF NOT EXISTS prefs (
    key    TEXT PRIMARY KEY,
    value  TEXT NOT NULL
);
`

// Document is one stored document.
type Document struct {
	ID               string
	Content          string
	Latex            string
	LastEditedFormat string
	UpdatedAt        int64 // unix milliseconds
}

// Store is the SQLite document store.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get loads a document.
func (s *Store) Get(ctx context.Context, id string) (*Document, error) {
	var d Document
	err := s.db.QueryRowContext(ctx, `
		SELECT id, content, latex, last_edited_format, updated_at
		FROM documents WHERE id = ?`, id,
	).Scan(&d.ID, &d.Content, &d.Latex, &d.LastEditedFormat, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("document %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &d, nil
}

// PutContent creates the document or replaces its Markdown content.
func (s *Store) PutContent(ctx context.Context, id, content string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, content, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`,
		id, content, s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put content: %w", err)
	}
	return nil
}

// PutFormat records which surface was last edited and the LaTeX draft.
func (s *Store) PutFormat(ctx context.Context, id, lastEditedFormat, latex string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, latex, last_edited_format, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET latex = excluded.latex,
			last_edited_format = excluded.last_edited_format, updated_at = excluded.updated_at`,
		id, latex, lastEditedFormat, s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put format: %w", err)
	}
	return nil
}

// Delete removes a document and its sources.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("document %q: %w", id, ErrNotFound)
	}
	return nil
}

// List returns the ids of all documents, most recently updated first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM documents ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan document id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
