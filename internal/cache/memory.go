package cache

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps transcriptions in process memory. A restart loses the
// cache, which only costs a re-transcription; the 7-day validity contract
// still holds for whatever the process has seen.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		entries: make(map[string]Entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the entry for identity, or nil if absent or older than the TTL.
func (s *MemoryStore) Get(identity string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[identity]
	if !ok || s.now().Sub(e.CreatedAt) >= s.ttl {
		return nil, nil
	}
	return &e, nil
}

// Put inserts or refreshes the entry for identity.
func (s *MemoryStore) Put(identity, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[identity] = Entry{Identity: identity, Text: text, CreatedAt: s.now()}
	return nil
}

// EvictExpired removes expired entries and returns the count removed.
func (s *MemoryStore) EvictExpired() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int
	for identity, e := range s.entries {
		if s.now().Sub(e.CreatedAt) >= s.ttl {
			delete(s.entries, identity)
			removed++
		}
	}
	return removed, nil
}

// List returns up to limit unexpired entries, newest first.
func (s *MemoryStore) List(limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if s.now().Sub(e.CreatedAt) < s.ttl {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
