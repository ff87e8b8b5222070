package cache

import (
	"errors"
	"time"
)

// DefaultTTL is how long a transcription stays valid.
const DefaultTTL = 7 * 24 * time.Hour

// ErrUnavailable wraps storage I/O failures. Callers treat a failed lookup
// as a cache miss rather than blocking a transcription on a broken cache.
var ErrUnavailable = errors.New("cache unavailable")

// Entry is a completed transcription keyed by voice-note identity.
type Entry struct {
	Identity  string    `json:"identity"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists transcriptions with a time-to-live. An entry older than the
// TTL is absent from Get/List regardless of whether EvictExpired has run yet.
type Store interface {
	// Get returns the entry for identity, or nil if absent or expired.
	Get(identity string) (*Entry, error)

	// Put inserts or overwrites the entry for identity, stamping it now.
	Put(identity, text string) error

	// EvictExpired physically removes expired entries and reports how many.
	EvictExpired() (int, error)

	// List returns up to limit unexpired entries, newest first.
	List(limit int) ([]Entry, error)

	Close() error
}
