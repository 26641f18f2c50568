package state

import (
	"context"
	"sync"
	"time"
)

const memorySweepInterval = time.Minute

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryStore keeps conversations in process. Entries expire after the
// configured TTL (zero keeps them forever); expired entries are dropped on
// Load and by a sweep that runs on Save at most once per minute.
type MemoryStore struct {
	keyspace
	now func() time.Time

	mu        sync.Mutex
	items     map[string]memoryEntry
	lastSweep time.Time
}

func NewMemoryStore(opts ...StoreOption) (*MemoryStore, error) {
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{
		keyspace: o.keyspace,
		now:      time.Now,
		items:    make(map[string]memoryEntry),
	}, nil
}

func (s *MemoryStore) Load(ctx context.Context, sessionID string) (*Conversation, error) {
	key, err := s.key(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	entry, ok := s.items[key]
	if ok && entry.expired(s.now()) {
		delete(s.items, key)
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		return nil, ErrStateNotFound
	}
	return decodeConversation(entry.payload)
}

func (s *MemoryStore) Save(ctx context.Context, c *Conversation) error {
	now := s.now()
	payload, err := encodeConversation(c, now)
	if err != nil {
		return err
	}
	key, err := s.key(c.SessionID)
	if err != nil {
		return err
	}

	entry := memoryEntry{payload: payload}
	if s.ttl > 0 {
		entry.expiresAt = now.Add(s.ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = entry
	if s.ttl > 0 && now.Sub(s.lastSweep) >= memorySweepInterval {
		s.sweepLocked(now)
	}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	key, err := s.key(sessionID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}

// Len reports the number of entries held, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *MemoryStore) sweepLocked(now time.Time) {
	for key, entry := range s.items {
		if entry.expired(now) {
			delete(s.items, key)
		}
	}
	s.lastSweep = now
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}
