// Package storage persists merkle trees in a key-value store.
package storage

import "fmt"

var (
	ErrOutOfRange     = fmt.Errorf("out of range")
	ErrNotFound       = fmt.Errorf("not found")
	ErrOracleMismatch = fmt.Errorf("oracle mismatch")
	ErrCorrupted      = fmt.Errorf("corrupted tree")
)

type KvStore interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error
	NewBatch() Batch
	Close() error
}

// Batch collects writes that are applied together by Write.
type Batch interface {
	Put(key, value []byte)
	Delete(key []byte)
	Write() error
}
