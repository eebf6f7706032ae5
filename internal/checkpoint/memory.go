package checkpoint

import (
	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps checkpoints in process memory. Entries never expire.
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore creates a new memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: gocache.New(gocache.NoExpiration, 0),
	}
}

// Get retrieves a value from the store
func (s *MemoryStore) Get(key string) ([]byte, bool) {
	if val, found := s.cache.Get(key); found {
		return val.([]byte), true
	}
	return nil, false
}

// Set stores a copy of value
func (s *MemoryStore) Set(key string, value []byte) error {
	s.cache.Set(key, append([]byte(nil), value...), gocache.NoExpiration)
	return nil
}

// Delete removes a value from the store
func (s *MemoryStore) Delete(key string) error {
	s.cache.Delete(key)
	return nil
}

// Clear removes all values from the store
func (s *MemoryStore) Clear() error {
	s.cache.Flush()
	return nil
}
