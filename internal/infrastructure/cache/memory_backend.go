package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryBackend is a bounded in-process LRU. Expired entries are dropped on read.
type MemoryBackend struct {
	entries *lru.Cache
	now     func() time.Time
	mu      sync.Mutex
}

func NewMemoryBackend(maxEntries int) (*MemoryBackend, error) {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	entries, err := lru.New(maxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	return &MemoryBackend{entries: entries, now: time.Now}, nil
}

func (m *MemoryBackend) Name() string { return "memory" }

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok := m.entries.Get(key)
	if !ok {
		return nil, ErrMiss
	}
	entry := raw.(memoryEntry)
	if !m.now().Before(entry.expiresAt) {
		m.entries.Remove(key)
		return nil, ErrMiss
	}
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, nil
}

func (m *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	m.entries.Add(key, memoryEntry{value: stored, expiresAt: m.now().Add(ttl)})
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.entries.Remove(key)
	return nil
}

func (m *MemoryBackend) Ping(context.Context) error { return nil }

// Len reports the number of entries, expired ones included.
func (m *MemoryBackend) Len() int {
	return m.entries.Len()
}
