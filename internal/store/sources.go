package store

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"github.com/bethropolis/scribe/internal/logger"
)

// citationRe matches Pandoc-style citation keys such as [@smith2020].
var citationRe = regexp.MustCompile(`@([A-Za-z0-9_](?:[\w:.-]*\w)?)`)

// CitationKeys returns the set of citation keys used in text.
func CitationKeys(text string) map[string]bool {
	keys := make(map[string]bool)
	for _, m := range citationRe.FindAllStringSubmatch(text, -1) {
		keys[m[1]] = true
	}
	return keys
}

// AddSource stores a bibliography entry inserted into the document.
func (s *Store) AddSource(ctx context.Context, documentID, key, entry string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sources (document_id, key, entry) VALUES (?, ?, ?)
		ON CONFLICT(document_id, key) DO UPDATE SET entry = excluded.entry`,
		documentID, key, entry,
	)
	if err != nil {
		return fmt.Errorf("add source: %w", err)
	}
	return nil
}

// Sources returns the stored source keys of a document, sorted.
func (s *Store) Sources(ctx context.Context, documentID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM sources WHERE document_id = ? ORDER BY key`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// CleanupInsertedSources deletes the sources whose citations were present in
// oldContent and are gone from newContent. It returns the removed keys.
func (s *Store) CleanupInsertedSources(ctx context.Context, documentID, oldContent, newContent string) ([]string, error) {
	before, after := CitationKeys(oldContent), CitationKeys(newContent)
	var orphaned []string
	for k := range before {
		if !after[k] {
			orphaned = append(orphaned, k)
		}
	}
	if len(orphaned) == 0 {
		return nil, nil
	}
	sort.Strings(orphaned)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `DELETE FROM sources WHERE document_id = ? AND key = ?`)
	if err != nil {
		return nil, fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	var removed []string
	for _, k := range orphaned {
		res, err := stmt.ExecContext(ctx, documentID, k)
		if err != nil {
			return nil, fmt.Errorf("delete source %q: %w", k, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			removed = append(removed, k)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	if len(removed) > 0 {
		logger.DebugTagf("store", "Store: removed orphaned sources %v from %s", removed, documentID)
	}
	return removed, nil
}
