package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	ident   Identity
	expires time.Time
}

// MemoryStore keeps sessions in process. Used when no redis is configured
// and in tests; sessions do not survive a restart.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Save(_ context.Context, ident Identity, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gcLocked()
	s.entries[ident.SessionID] = memoryEntry{ident: ident, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Load(_ context.Context, id string) (*Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !s.now().Before(e.expires) {
		delete(s.entries, id)
		return nil, ErrNotFound
	}
	ident := e.ident
	return &ident, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) gcLocked() {
	now := s.now()
	for id, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, id)
		}
	}
}
