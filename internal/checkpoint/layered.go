package checkpoint

import "github.com/spf13/afero"

// LayeredStore reads through memory to disk and writes to both
type LayeredStore struct {
	memory Store
	disk   Store
}

// NewLayeredStore creates a memory store backed by a disk store at dir
func NewLayeredStore(fs afero.Fs, dir string) *LayeredStore {
	return &LayeredStore{
		memory: NewMemoryStore(),
		disk:   NewDiskStore(fs, dir),
	}
}

// Get checks memory first, then disk
func (s *LayeredStore) Get(key string) ([]byte, bool) {
	if val, found := s.memory.Get(key); found {
		return val, true
	}

	if val, found := s.disk.Get(key); found {
		// Promote to memory
		_ = s.memory.Set(key, val)
		return val, true
	}

	return nil, false
}

// Set stores a value in both layers. Disk is written first so memory never
// holds a checkpoint that was not persisted.
func (s *LayeredStore) Set(key string, value []byte) error {
	if err := s.disk.Set(key, value); err != nil {
		return err
	}
	return s.memory.Set(key, value)
}

// Delete removes a value from both layers
func (s *LayeredStore) Delete(key string) error {
	_ = s.memory.Delete(key)
	return s.disk.Delete(key)
}

// Clear removes all values from both layers
func (s *LayeredStore) Clear() error {
	_ = s.memory.Clear()
	return s.disk.Clear()
}
