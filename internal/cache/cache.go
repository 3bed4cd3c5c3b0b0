// Package cache persists external link results between runs in SQLite.
package cache

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is a cached external link result.
type Entry struct {
	URL           string
	Status        string
	Code          int
	Reason        string
	Valid         bool
	CheckedAt     time.Time
	FailureCount  int       // consecutive failed checks
	FirstFailedAt time.Time // start of the current failure streak
}

// Store is a SQLite-backed result cache. Successful results stay fresh for
// ttl and failed ones for failureTTL.
type Store struct {
	db         *sql.DB
	mu         sync.RWMutex
	ttl        time.Duration
	failureTTL time.Duration
	now        func() time.Time
}

// Open opens (creating if needed) the cache database at path. Use ":memory:"
// for a throwaway cache.
func Open(path string, ttl, failureTTL time.Duration) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serialises writers
	db.SetMaxOpenConns(1)

	s := &Store{db: db, ttl: ttl, failureTTL: failureTTL, now: time.Now}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS link_results (
		url TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		code INTEGER NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		valid INTEGER NOT NULL,
		checked_at INTEGER NOT NULL,
		failure_count INTEGER NOT NULL DEFAULT 0,
		first_failed_at INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_checked_at ON link_results(checked_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get returns the entry for url, or nil when none is stored.
func (s *Store) Get(ctx context.Context, url string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		e                  Entry
		valid              int
		checked, firstFail int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT url, status, code, reason, valid, checked_at, failure_count, first_failed_at FROM link_results WHERE url = ?",
		url,
	).Scan(&e.URL, &e.Status, &e.Code, &e.Reason, &valid, &checked, &e.FailureCount, &firstFail)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query link result: %w", err)
	}

	e.Valid = valid != 0
	e.CheckedAt = time.UnixMilli(checked)
	if firstFail != 0 {
		e.FirstFailedAt = time.UnixMilli(firstFail)
	}
	return &e, nil
}

// Put stores e, replacing any previous entry for the same URL.
func (s *Store) Put(ctx context.Context, e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.CheckedAt.IsZero() {
		e.CheckedAt = s.now()
	}
	var firstFail int64
	if !e.FirstFailedAt.IsZero() {
		firstFail = e.FirstFailedAt.UnixMilli()
	}
	valid := 0
	if e.Valid {
		valid = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO link_results (url, status, code, reason, valid, checked_at, failure_count, first_failed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			status = excluded.status,
			code = excluded.code,
			reason = excluded.reason,
			valid = excluded.valid,
			checked_at = excluded.checked_at,
			failure_count = excluded.failure_count,
			first_failed_at = excluded.first_failed_at`,
		e.URL, e.Status, e.Code, e.Reason, valid, e.CheckedAt.UnixMilli(), e.FailureCount, firstFail,
	)
	if err != nil {
		return fmt.Errorf("upsert link result: %w", err)
	}
	return nil
}

// Fresh reports whether e is still within its TTL.
func (s *Store) Fresh(e *Entry) bool {
	if e == nil {
		return false
	}
	ttl := s.ttl
	if !e.Valid {
		ttl = s.failureTTL
	}
	return s.now().Sub(e.CheckedAt) < ttl
}

// Clear removes every entry and returns how many were dropped.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM link_results")
	if err != nil {
		return 0, fmt.Errorf("clear link results: %w", err)
	}
	return res.RowsAffected()
}

// Prune removes entries older than both TTLs.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-max(s.ttl, s.failureTTL)).UnixMilli()
	res, err := s.db.ExecContext(ctx, "DELETE FROM link_results WHERE checked_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune link results: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Track carries the failure streak from prev into next. A valid result
// resets the streak.
func Track(prev *Entry, next Entry, now time.Time) Entry {
	if next.Valid {
		next.FailureCount = 0
		next.FirstFailedAt = time.Time{}
		return next
	}
	if prev != nil && !prev.Valid {
		next.FailureCount = prev.FailureCount + 1
		next.FirstFailedAt = prev.FirstFailedAt
		if next.FirstFailedAt.IsZero() {
			next.FirstFailedAt = now
		}
		return next
	}
	next.FailureCount = 1
	next.FirstFailedAt = now
	return next
}
