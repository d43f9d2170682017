package ratelimit

import (
	"context"
	"sync"
	"time"
)

type fixedWindow struct {
	count   int64
	resetAt time.Time
}

// MemoryCounter keeps windows in a map. Expired windows are swept at most once per minute.
type MemoryCounter struct {
	mu        sync.Mutex
	windows   map[string]*fixedWindow
	now       func() time.Time
	lastSweep time.Time
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{windows: make(map[string]*fixedWindow), now: time.Now}
}

func (m *MemoryCounter) Increment(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)

	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &fixedWindow{resetAt: now.Add(window)}
		m.windows[key] = w
	}
	w.count++
	return w.count, w.resetAt.Sub(now), nil
}

func (m *MemoryCounter) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < time.Minute {
		return
	}
	m.lastSweep = now
	for key, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, key)
		}
	}
}
