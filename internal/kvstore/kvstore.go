// Package kvstore provides the persisted named-JSON-blob storage used for
// column customization and filter presets. Backends are swappable behind
// one interface; callers treat absence and corruption as "no persisted
// state".
package kvstore

import (
	"encoding/json"
	"errors"
	"sync"
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("kvstore: key not found")

// Store reads and writes whole-object snapshots by string key. Writes are
// atomic per key; read-modify-write is never partial.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// GetJSON loads and unmarshals the snapshot under key into out.
func GetJSON(s Store, key string, out any) error {
	data, err := s.Get(key)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// SetJSON marshals value and stores it under key.
func SetJSON(s Store, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.Set(key, data)
}

// MemoryStore is an in-process Store used for tests and for pages that opt
// out of persistence.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (m *MemoryStore) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[key] = cp
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
