package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	storedAt time.Time
}

// MemoryStore implements Store with an in-process map. Entries expire lazily
// on read; there is no eviction sweep. Used when no redis address is
// configured, and in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[[2]int64]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore returns an in-process Store with the given TTL
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[[2]int64]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) IsMember(_ context.Context, userID, channelID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, found := s.entries[[2]int64{userID, channelID}]
	if !found {
		return false, nil
	}

	if s.now().Sub(entry.storedAt) > s.ttl {
		return false, nil
	}

	return true, nil
}

func (s *MemoryStore) MarkMember(_ context.Context, userID, channelID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[[2]int64{userID, channelID}] = memoryEntry{storedAt: s.now()}
	return nil
}
