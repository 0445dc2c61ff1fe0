package store

import (
	"context"
	"sync"
	"time"

	"authplane/internal/session/domain"
)

type memoryEntry struct {
	rec       domain.Record
	expiresAt time.Time // zero means no expiry
}

// MemoryStore is an in-memory Store for tests and single-node development.
// Expiry is evaluated lazily on Get against the injected clock.
type MemoryStore struct {
	mu   sync.RWMutex
	m    map[string]memoryEntry
	nowF func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an in-memory session store using the wall clock.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(func() time.Time { return time.Now().UTC() })
}

// NewMemoryStoreWithClock returns an in-memory session store that reads time
// from now. Tests use this to advance the clock past a record's TTL.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{m: make(map[string]memoryEntry), nowF: now}
}

// Put stores rec under principalID with a fresh TTL, replacing any prior entry.
func (s *MemoryStore) Put(ctx context.Context, principalID string, rec domain.Record, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[principalID] = memoryEntry{rec: rec, expiresAt: s.nowF().Add(ttl)}
	return nil
}

// Get returns the record for principalID, or (nil, nil) if absent or expired.
func (s *MemoryStore) Get(ctx context.Context, principalID string) (*domain.Record, error) {
	s.mu.RLock()
	e, ok := s.m[principalID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !e.expiresAt.IsZero() && !e.expiresAt.After(s.nowF()) {
		s.mu.Lock()
		// The entry may have been replaced (fresh login) since the read lock was
		// dropped; only delete the one we judged expired.
		if cur, ok := s.m[principalID]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(s.m, principalID)
		}
		s.mu.Unlock()
		return nil, nil
	}
	rec := e.rec
	rec.PrincipalID = principalID
	return &rec, nil
}

// UpdateKeepTTL overwrites the record, keeping the existing deadline. When no
// entry exists the record is stored without expiry, mirroring Redis SET KEEPTTL
// on a fresh key.
func (s *MemoryStore) UpdateKeepTTL(ctx context.Context, principalID string, rec domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[principalID]
	if !ok {
		s.m[principalID] = memoryEntry{rec: rec}
		return nil
	}
	e.rec = rec
	s.m[principalID] = e
	return nil
}
