package cache

import (
	"context"
	"path"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used by tests and zero-config local
// mode. Expiry is checked lazily on read.
type MemoryStore struct {
	mu      sync.Mutex
	values  map[string]memoryEntry
	sets    map[string]map[string]struct{}
	setTTLs map[string]time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values:  make(map[string]memoryEntry),
		sets:    make(map[string]map[string]struct{}),
		setTTLs: make(map[string]time.Time),
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.values[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		delete(s.values, key)
		return nil, ErrCacheMiss
	}

	return entry.value, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	s.values[key] = entry
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.values, key)
		delete(s.sets, key)
		delete(s.setTTLs, key)
	}
	return nil
}

func (s *MemoryStore) DeletePattern(ctx context.Context, pattern string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key := range s.values {
		// Keys never contain '/', so path.Match implements the same `*`
		// glob semantics Redis SCAN uses.
		if ok, err := path.Match(pattern, key); err == nil && ok {
			delete(s.values, key)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) SetAdd(ctx context.Context, key, member string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireSetLocked(key)
	set, ok := s.sets[key]
	if !ok {
		set = make(map[string]struct{})
		s.sets[key] = set
	}
	set[member] = struct{}{}
	if ttl > 0 {
		s.setTTLs[key] = time.Now().Add(ttl)
	}
	return nil
}

func (s *MemoryStore) SetMembers(ctx context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireSetLocked(key)
	members := make([]string, 0, len(s.sets[key]))
	for member := range s.sets[key] {
		members = append(members, member)
	}
	return members, nil
}

func (s *MemoryStore) SetRemove(ctx context.Context, key, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireSetLocked(key)
	if set, ok := s.sets[key]; ok {
		delete(set, member)
		if len(set) == 0 {
			delete(s.sets, key)
			delete(s.setTTLs, key)
		}
	}
	return nil
}

func (s *MemoryStore) expireSetLocked(key string) {
	if deadline, ok := s.setTTLs[key]; ok && time.Now().After(deadline) {
		delete(s.sets, key)
		delete(s.setTTLs, key)
	}
}
