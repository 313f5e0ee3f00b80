package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

// Prefs is the key/value preference port backed by the prefs table.
type Prefs struct {
	db *sql.DB
}

// Prefs returns the preference store sharing this database.
func (s *Store) Prefs() *Prefs {
	return &Prefs{db: s.db}
}

// Get returns the value of key and whether it was set.
func (p *Prefs) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := p.db.QueryRowContext(ctx, `SELECT value FROM prefs WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get pref %q: %w", key, err)
	}
	return v, true, nil
}

// Set stores value under key.
func (p *Prefs) Set(ctx context.Context, key, value string) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO prefs (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("set pref %q: %w", key, err)
	}
	return nil
}

// Int returns key parsed as an integer, or def when unset or malformed.
func (p *Prefs) Int(ctx context.Context, key string, def int) int {
	v, ok, err := p.Get(ctx, key)
	if err != nil || !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Delete removes key.
func (p *Prefs) Delete(ctx context.Context, key string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM prefs WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete pref %q: %w", key, err)
	}
	return nil
}
