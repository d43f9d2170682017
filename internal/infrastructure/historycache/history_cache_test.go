package historycache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/support-chat/internal/domain/chat"
	"github.com/janhq/support-chat/internal/infrastructure/cache"
)

const convID = "3f1c9b2e-8a4d-4c6e-9f0a-1b2c3d4e5f60"

var sample = []chat.HistoryEntry{
	{Sender: chat.SenderUser, Text: "Do you ship to Canada?"},
	{Sender: chat.SenderAI, Text: "Yes, we ship worldwide."},
}

// flakyBackend wraps a memory backend and fails every call while down is set.
type flakyBackend struct {
	inner *cache.MemoryBackend
	down  atomic.Bool
	calls atomic.Int32
}

func newFlakyBackend(t *testing.T) *flakyBackend {
	t.Helper()
	inner, err := cache.NewMemoryBackend(100)
	require.NoError(t, err)
	return &flakyBackend{inner: inner}
}

var errBackendDown = errors.New("connection refused")

func (f *flakyBackend) Name() string { return "flaky" }

func (f *flakyBackend) Get(ctx context.Context, key string) ([]byte, error) {
	f.calls.Add(1)
	if f.down.Load() {
		return nil, errBackendDown
	}
	return f.inner.Get(ctx, key)
}

func (f *flakyBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	f.calls.Add(1)
	if f.down.Load() {
		return errBackendDown
	}
	return f.inner.Set(ctx, key, value, ttl)
}

func (f *flakyBackend) Delete(ctx context.Context, key string) error {
	f.calls.Add(1)
	if f.down.Load() {
		return errBackendDown
	}
	return f.inner.Delete(ctx, key)
}

func (f *flakyBackend) Ping(context.Context) error {
	if f.down.Load() {
		return errBackendDown
	}
	return nil
}

func newTestCache(t *testing.T, backend cache.Backend) *Cache {
	t.Helper()
	c := New(backend, Options{HealthInterval: 10 * time.Millisecond}, zerolog.Nop())
	c.Init(context.Background())
	t.Cleanup(c.Shutdown)
	return c
}

func TestKey(t *testing.T) {
	assert.Equal(t, "history:v1:"+convID, Key(convID))
}

func TestPutThenGet(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, newFlakyBackend(t))
	require.True(t, c.IsAvailable())

	assert.Equal(t, chat.CacheMiss, c.Get(ctx, convID).Status)

	c.Put(ctx, convID, sample, time.Minute)
	lookup := c.Get(ctx, convID)
	assert.Equal(t, chat.CacheHit, lookup.Status)
	assert.Equal(t, sample, lookup.History)
}

func TestPutEmptyHistoryIsAHit(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, newFlakyBackend(t))

	c.Put(ctx, convID, nil, time.Minute)
	lookup := c.Get(ctx, convID)
	assert.Equal(t, chat.CacheHit, lookup.Status)
	assert.Empty(t, lookup.History)
}

func TestInvalidate(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, newFlakyBackend(t))

	c.Invalidate(ctx, convID)
	assert.True(t, c.IsAvailable(), "invalidating a missing entry is a no-op")

	c.Put(ctx, convID, sample, time.Minute)
	c.Invalidate(ctx, convID)
	assert.Equal(t, chat.CacheMiss, c.Get(ctx, convID).Status)
}

func TestUndecodableEntryIsDroppedAsMiss(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", "{{{"},
		{"not an array", `{"sender":"user"}`},
		{"null", "null"},
		{"unknown sender", `[{"sender":"bot","text":"hi"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			backend := newFlakyBackend(t)
			c := newTestCache(t, backend)

			require.NoError(t, backend.inner.Set(ctx, Key(convID), []byte(tt.payload), time.Minute))

			assert.Equal(t, chat.CacheMiss, c.Get(ctx, convID).Status)
			assert.True(t, c.IsAvailable())
			_, err := backend.inner.Get(ctx, Key(convID))
			assert.ErrorIs(t, err, cache.ErrMiss, "corrupt entry is removed")
		})
	}
}

func TestBackendFailureShortCircuitsUntilRecovered(t *testing.T) {
	ctx := context.Background()
	backend := newFlakyBackend(t)
	c := New(backend, Options{HealthInterval: time.Hour}, zerolog.Nop())
	c.Init(ctx)
	t.Cleanup(c.Shutdown)

	backend.down.Store(true)
	assert.Equal(t, chat.CacheUnavailable, c.Get(ctx, convID).Status)
	assert.False(t, c.IsAvailable())

	before := backend.calls.Load()
	c.Put(ctx, convID, sample, time.Minute)
	assert.Equal(t, chat.CacheUnavailable, c.Get(ctx, convID).Status)
	assert.Equal(t, before, backend.calls.Load(), "reads and writes skip the backend while unavailable")

	backend.down.Store(false)
	c.checkHealth()
	assert.True(t, c.IsAvailable())
	assert.Equal(t, chat.CacheMiss, c.Get(ctx, convID).Status)
}

func TestInvalidateDuringTransientOutageIsNotLost(t *testing.T) {
	ctx := context.Background()
	backend := newFlakyBackend(t)
	c := New(backend, Options{HealthInterval: time.Hour}, zerolog.Nop())
	c.Init(ctx)
	t.Cleanup(c.Shutdown)
	require.True(t, c.IsAvailable())

	c.Put(ctx, convID, sample, time.Minute)

	// one failed read on another conversation marks the whole cache unavailable
	backend.down.Store(true)
	assert.Equal(t, chat.CacheUnavailable, c.Get(ctx, "0b7a3c1e-2d4f-4a6b-8c9d-0e1f2a3b4c5d").Status)
	backend.down.Store(false)
	require.False(t, c.IsAvailable())

	// the write path still reaches the backend
	c.Invalidate(ctx, convID)
	_, err := backend.inner.Get(ctx, Key(convID))
	assert.ErrorIs(t, err, cache.ErrMiss)

	c.checkHealth()
	require.True(t, c.IsAvailable())
	assert.Equal(t, chat.CacheMiss, c.Get(ctx, convID).Status, "pre-write history must not come back")
}

func TestFailedInvalidateIsReplayedBeforeRecovery(t *testing.T) {
	ctx := context.Background()
	backend := newFlakyBackend(t)
	c := New(backend, Options{HealthInterval: time.Hour}, zerolog.Nop())
	c.Init(ctx)
	t.Cleanup(c.Shutdown)

	c.Put(ctx, convID, sample, time.Minute)

	backend.down.Store(true)
	c.Invalidate(ctx, convID)
	assert.False(t, c.IsAvailable())
	assert.Equal(t, 1, c.pendingInvalidations())

	c.checkHealth()
	assert.False(t, c.IsAvailable(), "still down")
	assert.Equal(t, 1, c.pendingInvalidations())

	backend.down.Store(false)
	c.checkHealth()
	assert.True(t, c.IsAvailable())
	assert.Zero(t, c.pendingInvalidations())
	assert.Equal(t, chat.CacheMiss, c.Get(ctx, convID).Status)
}

func TestMonitorRestoresAvailability(t *testing.T) {
	ctx := context.Background()
	backend := newFlakyBackend(t)
	backend.down.Store(true)

	c := newTestCache(t, backend)
	assert.False(t, c.IsAvailable(), "unreachable at startup")

	backend.down.Store(false)
	assert.Eventually(t, c.IsAvailable, time.Second, 5*time.Millisecond)

	c.Put(ctx, convID, sample, time.Minute)
	assert.Equal(t, chat.CacheHit, c.Get(ctx, convID).Status)
}

func TestMonitorDetectsOutage(t *testing.T) {
	backend := newFlakyBackend(t)
	c := newTestCache(t, backend)
	require.True(t, c.IsAvailable())

	backend.down.Store(true)
	assert.Eventually(t, func() bool { return !c.IsAvailable() }, time.Second, 5*time.Millisecond)
}

func TestDisabledCache(t *testing.T) {
	ctx := context.Background()
	c := NewDisabled(zerolog.Nop())
	c.Init(ctx)
	defer c.Shutdown()

	assert.False(t, c.IsAvailable())
	c.Put(ctx, convID, sample, time.Minute)
	c.Invalidate(ctx, convID)
	assert.Equal(t, chat.CacheUnavailable, c.Get(ctx, convID).Status)
}

func TestShutdownWithoutInit(t *testing.T) {
	c := New(newFlakyBackend(t), Options{}, zerolog.Nop())
	c.Shutdown()
	c.Shutdown()
	assert.False(t, c.IsAvailable())
}

func TestRedisBackedCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client, err := cache.NewRedisClient("redis://"+mr.Addr(), 250*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	c := New(cache.NewRedisBackend(client), Options{DefaultTTL: 15 * time.Second, HealthInterval: time.Hour}, zerolog.Nop())
	c.Init(ctx)
	t.Cleanup(c.Shutdown)
	require.True(t, c.IsAvailable())

	c.Put(ctx, convID, sample, 0)
	assert.Equal(t, 15*time.Second, mr.TTL(Key(convID)), "ttl <= 0 uses the default")

	stored, err := mr.Get(Key(convID))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"sender":"user","text":"Do you ship to Canada?"},{"sender":"ai","text":"Yes, we ship worldwide."}]`, stored)

	lookup := c.Get(ctx, convID)
	assert.Equal(t, chat.CacheHit, lookup.Status)
	assert.Equal(t, sample, lookup.History)

	mr.FastForward(16 * time.Second)
	assert.Equal(t, chat.CacheMiss, c.Get(ctx, convID).Status, "entry never outlives its ttl")

	mr.Close()
	assert.Equal(t, chat.CacheUnavailable, c.Get(ctx, convID).Status)
	assert.False(t, c.IsAvailable())
}
