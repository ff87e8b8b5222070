package cache

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a durable Store backed by a single SQLite table.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewSQLiteStore opens (and if needed creates) the cache database at dbPath.
func NewSQLiteStore(dbPath string, ttl time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %v", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS transcriptions (
		identity TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transcriptions_created_at ON transcriptions(created_at);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create transcriptions table: %v", err)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &SQLiteStore{db: db, ttl: ttl, now: time.Now}, nil
}

// Get returns the entry for identity, or nil if absent or older than the TTL.
// Expiry is computed here, not left to the eviction sweep.
func (s *SQLiteStore) Get(identity string) (*Entry, error) {
	row := s.db.QueryRow(
		"SELECT text, created_at FROM transcriptions WHERE identity = ?", identity)

	var (
		text      string
		createdAt int64
	)
	if err := row.Scan(&text, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: get %s: %v", ErrUnavailable, identity, err)
	}

	created := time.Unix(createdAt, 0)
	if s.now().Sub(created) >= s.ttl {
		return nil, nil
	}

	return &Entry{Identity: identity, Text: text, CreatedAt: created}, nil
}

// Put inserts or refreshes the entry for identity. The upsert is a single
// statement, so readers never observe a partially written entry.
func (s *SQLiteStore) Put(identity, text string) error {
	query := `
	INSERT INTO transcriptions (identity, text, created_at) VALUES (?, ?, ?)
	ON CONFLICT(identity) DO UPDATE SET text = excluded.text, created_at = excluded.created_at
	`

	if _, err := s.db.Exec(query, identity, text, s.now().Unix()); err != nil {
		return fmt.Errorf("%w: put %s: %v", ErrUnavailable, identity, err)
	}
	return nil
}

// EvictExpired deletes entries older than the TTL and returns the count removed.
func (s *SQLiteStore) EvictExpired() (int, error) {
	cutoff := s.now().Add(-s.ttl).Unix()
	res, err := s.db.Exec("DELETE FROM transcriptions WHERE created_at <= ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: evict: %v", ErrUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: evict count: %v", ErrUnavailable, err)
	}
	return int(n), nil
}

// List returns up to limit unexpired entries, newest first.
func (s *SQLiteStore) List(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	cutoff := s.now().Add(-s.ttl).Unix()
	rows, err := s.db.Query(`
	SELECT identity, text, created_at FROM transcriptions
	WHERE created_at > ? ORDER BY created_at DESC LIMIT ?`, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			identity, text string
			createdAt      int64
		)
		if err := rows.Scan(&identity, &text, &createdAt); err != nil {
			continue
		}
		entries = append(entries, Entry{
			Identity:  identity,
			Text:      text,
			CreatedAt: time.Unix(createdAt, 0),
		})
	}

	return entries, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
