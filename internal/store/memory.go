package store

import (
	"fmt"
	"sync"
)

// MemoryBackend holds records in a process-local map.
type MemoryBackend struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

// NewMemory returns a Store over a fresh in-memory backend.
func NewMemory() *Store {
	return New(NewMemoryBackend())
}

// Name returns "memory".
func (m *MemoryBackend) Name() string { return "memory" }

// Get returns a copy of the stored value.
func (m *MemoryBackend) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Put stores a copy of value.
func (m *MemoryBackend) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

// Delete removes a key.
func (m *MemoryBackend) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Close is a no-op.
func (m *MemoryBackend) Close() error { return nil }

// CloneToMemory copies the records of s into a fresh in-memory store.
// Changes made through the clone never reach s.
func CloneToMemory(s *Store) (*Store, error) {
	mem := NewMemoryBackend()
	for _, key := range []string{KeySettings, KeyLastActivity} {
		v, found, err := s.backend.Get(key)
		if err != nil {
			return nil, fmt.Errorf("copying %s from %s: %w", key, s.backend.Name(), err)
		}
		if found {
			mem.data[key] = v
		}
	}
	return New(mem), nil
}
