// Package store persists the lookup cache and the render manifest in SQLite.
package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
)

// Lookup is a cached external lookup payload.
type Lookup struct {
	Key       string
	Payload   []byte
	FetchedAt time.Time
}

// Render is the manifest entry of a rendered document.
type Render struct {
	Path        string
	Fingerprint string
	Outcome     string
	RenderedAt  time.Time
}

// Store is a SQLite backed lookup cache and render manifest.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates the database at path. Use ":memory:" for an
// in-memory store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.StoreError("open sqlite database").WithCause(err).WithContext("path", path).Build()
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, errors.StoreError("initialize schema").WithCause(err).WithContext("path", path).Build()
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS lookups (
		key TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		fetched_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS renders (
		path TEXT PRIMARY KEY,
		fingerprint TEXT NOT NULL,
		outcome TEXT NOT NULL,
		rendered_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_lookups_fetched_at ON lookups(fetched_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// GetLookup returns the cached payload for key.
func (s *Store) GetLookup(ctx context.Context, key string) (Lookup, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l := Lookup{Key: key}
	var fetched int64
	err := s.db.QueryRowContext(ctx,
		"SELECT payload, fetched_at FROM lookups WHERE key = ?", key,
	).Scan(&l.Payload, &fetched)
	if stderrors.Is(err, sql.ErrNoRows) {
		return Lookup{}, false, nil
	}
	if err != nil {
		return Lookup{}, false, errors.StoreError("query lookup").WithCause(err).WithContext("key", key).Build()
	}
	l.FetchedAt = time.Unix(fetched, 0)
	return l, true, nil
}

// PutLookup stores or refreshes the payload for key.
func (s *Store) PutLookup(ctx context.Context, key string, payload []byte, fetchedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lookups (key, payload, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`,
		key, payload, fetchedAt.Unix(),
	)
	if err != nil {
		return errors.StoreError("insert lookup").WithCause(err).WithContext("key", key).Build()
	}
	return nil
}

// PruneLookups deletes entries fetched before cutoff and returns how many
// were removed.
func (s *Store) PruneLookups(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM lookups WHERE fetched_at < ?", cutoff.Unix())
	if err != nil {
		return 0, errors.StoreError("prune lookups").WithCause(err).Build()
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// GetRender returns the manifest entry for path.
func (s *Store) GetRender(ctx context.Context, path string) (Render, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r := Render{Path: path}
	var at int64
	err := s.db.QueryRowContext(ctx,
		"SELECT fingerprint, outcome, rendered_at FROM renders WHERE path = ?", path,
	).Scan(&r.Fingerprint, &r.Outcome, &at)
	if stderrors.Is(err, sql.ErrNoRows) {
		return Render{}, false, nil
	}
	if err != nil {
		return Render{}, false, errors.StoreError("query render").WithCause(err).WithContext("path", path).Build()
	}
	r.RenderedAt = time.Unix(at, 0)
	return r, true, nil
}

// PutRender records a rendered document.
func (s *Store) PutRender(ctx context.Context, r Render) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO renders (path, fingerprint, outcome, rendered_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET fingerprint = excluded.fingerprint,
			outcome = excluded.outcome, rendered_at = excluded.rendered_at`,
		r.Path, r.Fingerprint, r.Outcome, r.RenderedAt.Unix(),
	)
	if err != nil {
		return errors.StoreError("insert render").WithCause(err).WithContext("path", r.Path).Build()
	}
	return nil
}

// DeleteRender removes the manifest entry for path so the next build
// renders it again.
func (s *Store) DeleteRender(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM renders WHERE path = ?", path); err != nil {
		return errors.StoreError("delete render").WithCause(err).WithContext("path", path).Build()
	}
	return nil
}

// Renders lists the manifest ordered by path.
func (s *Store) Renders(ctx context.Context) ([]Render, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT path, fingerprint, outcome, rendered_at FROM renders ORDER BY path")
	if err != nil {
		return nil, errors.StoreError("query renders").WithCause(err).Build()
	}
	defer rows.Close()

	var out []Render
	for rows.Next() {
		var r Render
		var at int64
		if err := rows.Scan(&r.Path, &r.Fingerprint, &r.Outcome, &at); err != nil {
			return nil, errors.StoreError("scan render").WithCause(err).Build()
		}
		r.RenderedAt = time.Unix(at, 0)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StoreError("iterate renders").WithCause(err).Build()
	}
	return out, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
