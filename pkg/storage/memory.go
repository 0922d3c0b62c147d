package storage

import (
	"fmt"
	"sync"
)

// MemoryBackend keeps entries in process memory. Useful for tests and for
// running without durable state.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]string
	used    int64
	quota   int64
	closed  bool
}

// NewMemoryBackend creates an empty in-memory backend. quotaBytes <= 0 means
// unlimited.
func NewMemoryBackend(quotaBytes int64) *MemoryBackend {
	return &MemoryBackend{
		entries: make(map[string]string),
		quota:   quotaBytes,
	}
}

func (m *MemoryBackend) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return "", ErrClosed
	}
	value, ok := m.entries[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return value, nil
}

func (m *MemoryBackend) Set(key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	var prev int64
	if old, ok := m.entries[key]; ok {
		prev = entrySize(key, old)
	}
	if err := checkQuota(m.quota, m.used, prev, key, value); err != nil {
		return err
	}

	m.entries[key] = value
	m.used = m.used - prev + entrySize(key, value)
	return nil
}

func (m *MemoryBackend) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if old, ok := m.entries[key]; ok {
		m.used -= entrySize(key, old)
		delete(m.entries, key)
	}
	return nil
}

func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Len returns the number of stored entries.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
