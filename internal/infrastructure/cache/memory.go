package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"PhoneSync/internal/ports"
)

// Memory is an in-process key-value cache with per-entry TTL. Values are
// stored as JSON so Get can populate arbitrary target shapes, matching
// the external key-value store contract.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
}

type entry struct {
	payload   []byte
	expiresAt time.Time
}

var _ ports.Cache = (*Memory)(nil)

// NewMemory builds an empty cache.
func NewMemory() *Memory {
	return &Memory{entries: map[string]entry{}}
}

// Get decodes the stored value into v; expired entries are treated as
// misses and dropped lazily.
func (m *Memory) Get(_ context.Context, key string, v any) (bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return false, nil
	}

	if err := json.Unmarshal(e.payload, v); err != nil {
		return false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return true, nil
}

// Set stores v under key for the given TTL; a non-positive TTL never
// expires.
func (m *Memory) Set(_ context.Context, key string, v any, ttl time.Duration) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = entry{payload: payload, expiresAt: expiresAt}
	m.mu.Unlock()
	return nil
}

// Clear drops all entries.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	m.entries = map[string]entry{}
	m.mu.Unlock()
	return nil
}

// Len reports the current entry count, expired entries included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
