// Package history persists an append-only log of decision runs in SQLite,
// one row per completed run, for later inspection via the history command.
// It is reporting infrastructure: the decision engine never reads it.
package history

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	relerrors "git.home.luguber.info/inful/relver/internal/errors"
	"git.home.luguber.info/inful/relver/internal/engine"
)

// Entry is one recorded decision run.
type Entry struct {
	ID              int64
	RunID           string
	Artifact        string
	Decision        string
	Reason          string
	PreviousVersion string
	NextVersion     string
	ContentHash     string
	CreatedAt       time.Time
}

// Store is a SQLite-backed decision log.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if needed) the history database at dbPath.
// Use ":memory:" for tests.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, relerrors.HistoryError("open", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, relerrors.HistoryError("initialize", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS decisions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		artifact TEXT NOT NULL,
		decision TEXT NOT NULL,
		reason TEXT NOT NULL,
		previous_version TEXT,
		next_version TEXT,
		content_hash TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_decisions_artifact ON decisions(artifact);
	CREATE INDEX IF NOT EXISTS idx_decisions_created_at ON decisions(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends the outcome of one decision run.
func (s *Store) Record(ctx context.Context, dec *engine.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO decisions (run_id, artifact, decision, reason, previous_version, next_version, content_hash, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		dec.RunID, dec.Artifact, string(dec.Kind), string(dec.Reason),
		dec.CurrentVersion, dec.NextVersion, dec.ContentHash, time.Now().Unix(),
	)
	if err != nil {
		return relerrors.HistoryError("record", err)
	}
	return nil
}

// ByArtifact returns the most recent entries for one artifact, newest first.
func (s *Store) ByArtifact(ctx context.Context, artifact string, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, run_id, artifact, decision, reason, previous_version, next_version, content_hash, created_at FROM decisions WHERE artifact = ? ORDER BY id DESC LIMIT ?",
		artifact, normalizeLimit(limit),
	)
	if err != nil {
		return nil, relerrors.HistoryError("query", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Recent returns the most recent entries across all artifacts, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, run_id, artifact, decision, reason, previous_version, next_version, content_hash, created_at FROM decisions ORDER BY id DESC LIMIT ?",
		normalizeLimit(limit),
	)
	if err != nil {
		return nil, relerrors.HistoryError("query", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	return limit
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdUnix int64
		if err := rows.Scan(&e.ID, &e.RunID, &e.Artifact, &e.Decision, &e.Reason,
			&e.PreviousVersion, &e.NextVersion, &e.ContentHash, &createdUnix); err != nil {
			return nil, relerrors.HistoryError("scan", err)
		}
		e.CreatedAt = time.Unix(createdUnix, 0).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, relerrors.HistoryError("scan", err)
	}
	return entries, nil
}
