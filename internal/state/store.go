// Package state persists build history and per-document fingerprints in
// SQLite, enabling change detection between runs and build inspection.
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// BuildRecord is one completed build.
type BuildRecord struct {
	ID              string
	StartedAt       time.Time
	FinishedAt      time.Time
	Outcome         string // success | warning | failed
	DocumentCount   int
	FindingCount    int
	DocsFingerprint string
}

// Store is a SQLite-backed build state store.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (and initializes) the store.
// Use ":memory:" for an in-memory database, or a file path for persistence.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		document_count INTEGER NOT NULL,
		finding_count INTEGER NOT NULL,
		docs_fingerprint TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_builds_finished ON builds(finished_at);
	CREATE TABLE IF NOT EXISTS document_fingerprints (
		build_id TEXT NOT NULL,
		docname TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		PRIMARY KEY (build_id, docname)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordBuild stores a completed build and its document fingerprints.
func (s *Store) RecordBuild(ctx context.Context, rec BuildRecord, fingerprints map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO builds (id, started_at, finished_at, outcome, document_count, finding_count, docs_fingerprint) VALUES (?, ?, ?, ?, ?, ?, ?)",
		rec.ID, rec.StartedAt.Unix(), rec.FinishedAt.Unix(), rec.Outcome, rec.DocumentCount, rec.FindingCount, rec.DocsFingerprint,
	)
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}

	for docname, fp := range fingerprints {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO document_fingerprints (build_id, docname, fingerprint) VALUES (?, ?, ?)",
			rec.ID, docname, fp,
		); err != nil {
			return fmt.Errorf("insert fingerprint for %s: %w", docname, err)
		}
	}

	return tx.Commit()
}

// LastBuild returns the most recent build, or nil when none exists.
func (s *Store) LastBuild(ctx context.Context) (*BuildRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, started_at, finished_at, outcome, document_count, finding_count, docs_fingerprint FROM builds ORDER BY finished_at DESC, id DESC LIMIT 1")
	rec, err := scanBuild(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// RecentBuilds returns up to limit builds, newest first.
func (s *Store) RecentBuilds(ctx context.Context, limit int) ([]BuildRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, started_at, finished_at, outcome, document_count, finding_count, docs_fingerprint FROM builds ORDER BY finished_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []BuildRecord
	for rows.Next() {
		rec, err := scanBuild(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// ChangedSince compares the current fingerprints against the last recorded
// build and returns the docnames that were added, modified or removed,
// sorted. A nil last build means everything counts as changed.
func (s *Store) ChangedSince(ctx context.Context, current map[string]string) ([]string, error) {
	last, err := s.LastBuild(ctx)
	if err != nil {
		return nil, err
	}
	if last == nil {
		return sortedKeys(current), nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT docname, fingerprint FROM document_fingerprints WHERE build_id = ?", last.ID)
	if err != nil {
		return nil, fmt.Errorf("query fingerprints: %w", err)
	}
	defer func() { _ = rows.Close() }()

	previous := map[string]string{}
	for rows.Next() {
		var docname, fp string
		if err := rows.Scan(&docname, &fp); err != nil {
			return nil, err
		}
		previous[docname] = fp
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	changedSet := map[string]struct{}{}
	for docname, fp := range current {
		if previous[docname] != fp {
			changedSet[docname] = struct{}{}
		}
	}
	for docname := range previous {
		if _, ok := current[docname]; !ok {
			changedSet[docname] = struct{}{}
		}
	}

	changed := make([]string, 0, len(changedSet))
	for docname := range changedSet {
		changed = append(changed, docname)
	}
	sort.Strings(changed)
	return changed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBuild(row rowScanner) (*BuildRecord, error) {
	var rec BuildRecord
	var started, finished int64
	if err := row.Scan(&rec.ID, &started, &finished, &rec.Outcome, &rec.DocumentCount, &rec.FindingCount, &rec.DocsFingerprint); err != nil {
		return nil, err
	}
	rec.StartedAt = time.Unix(started, 0).UTC()
	rec.FinishedAt = time.Unix(finished, 0).UTC()
	return &rec, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
