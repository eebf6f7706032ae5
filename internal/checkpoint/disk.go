package checkpoint

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/ppiankov/chronoqa/internal/errors"
)

// DiskStore persists checkpoints as one file per key
type DiskStore struct {
	fs  afero.Fs
	dir string
}

// NewDiskStore creates a disk store rooted at dir on fs
func NewDiskStore(fs afero.Fs, dir string) *DiskStore {
	return &DiskStore{
		fs:  fs,
		dir: dir,
	}
}

// Get retrieves a value from disk
func (s *DiskStore) Get(key string) ([]byte, bool) {
	data, err := afero.ReadFile(s.fs, s.path(key))
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set writes value to a temp file and renames it over the previous
// checkpoint so a crash never leaves a truncated document behind.
func (s *DiskStore) Set(key string, value []byte) error {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return errors.Wrap(err, "create checkpoint dir")
	}

	path := s.path(key)
	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, value, 0o644); err != nil {
		return errors.Wrap(err, "write checkpoint file")
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		return errors.Wrap(err, "replace checkpoint file")
	}
	return nil
}

// Delete removes a checkpoint file. A missing file is not an error.
func (s *DiskStore) Delete(key string) error {
	err := s.fs.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove checkpoint file")
	}
	return nil
}

// Clear removes every checkpoint
func (s *DiskStore) Clear() error {
	return s.fs.RemoveAll(s.dir)
}

func (s *DiskStore) path(key string) string {
	return filepath.Join(s.dir, key+".checkpoint.json")
}
