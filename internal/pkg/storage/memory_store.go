package storage

import (
	"sync"

	"github.com/patrickmn/go-cache"
)

// MemoryStore is a process-local Store backed by go-cache with no expiry.
// State does not survive a restart.
type MemoryStore struct {
	mu    sync.Mutex
	items *cache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: cache.New(cache.NoExpiration, 0)}
}

func (s *MemoryStore) Load(keys ...string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := s.items.Get(k); ok {
			out[k] = v.(string)
		}
	}
	return out, nil
}

func (s *MemoryStore) Save(entries map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range entries {
		s.items.Set(k, v, cache.NoExpiration)
	}
	return nil
}

func (s *MemoryStore) Delete(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		s.items.Delete(k)
	}
	return nil
}

// Len reports how many keys are stored.
func (s *MemoryStore) Len() int {
	return s.items.ItemCount()
}
