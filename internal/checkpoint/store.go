// Package checkpoint persists generation cursors so an interrupted run can
// resume where it stopped.
package checkpoint

// Store is a key/value store for checkpoint documents
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) error
	Delete(key string) error
	Clear() error
}
