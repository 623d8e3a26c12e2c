// Package storage provides the durable key-value blob store and the local
// store of saved requests, history and environments built on top of it.
package storage

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// BlobStore is a durable string-keyed store of string values.
type BlobStore interface {
	// Get returns the value for key; ok is false when the key is absent.
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
	Close() error
}

// ErrUnsupportedStore is returned by NewBlobStore for unknown backend types.
var ErrUnsupportedStore = errors.New("unsupported store type")

const (
	// Secure file permissions - owner read/write only
	secureFileMode = 0600 // -rw-------
	secureDirMode  = 0700 // drwx------
)

// NewBlobStore opens the configured backend.
func NewBlobStore(typ, path string) (BlobStore, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))

	switch typ {
	case "", "none", "memory":
		return NewMemoryBlobStore(), nil
	case "sqlite", "bbolt", "file":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("%s storage requires a path", typ)
		}
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedStore, typ)
	}

	switch typ {
	case "sqlite":
		return openSQLite(path)
	case "bbolt":
		return openBolt(path)
	default:
		return openFileStore(path)
	}
}

// MemoryBlobStore keeps blobs in process memory.
type MemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string]string
}

// NewMemoryBlobStore returns an empty in-memory store.
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{blobs: make(map[string]string)}
}

func (m *MemoryBlobStore) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.blobs[key]
	return v, ok, nil
}

func (m *MemoryBlobStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = value
	return nil
}

func (m *MemoryBlobStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

func (m *MemoryBlobStore) Close() error { return nil }
