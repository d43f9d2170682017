package historycache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/janhq/support-chat/internal/domain/chat"
	"github.com/janhq/support-chat/internal/infrastructure/cache"
	"github.com/janhq/support-chat/internal/infrastructure/metrics"
)

// SchemaVersion is part of every key; bump it when the entry encoding changes.
const SchemaVersion = "v1"

const (
	DefaultTTL            = 15 * time.Second
	DefaultOpTimeout      = 250 * time.Millisecond
	DefaultHealthInterval = 10 * time.Second
)

// Key derives the cache key for a conversation.
func Key(conversationID string) string {
	return "history:" + SchemaVersion + ":" + conversationID
}

// Options tune a Cache. Zero values fall back to the defaults above.
type Options struct {
	DefaultTTL     time.Duration
	OpTimeout      time.Duration
	HealthInterval time.Duration
}

// Cache implements chat.HistoryCache over a cache.Backend. Backend failures
// flip it to unavailable; a monitor goroutine pings the backend and flips it back.
type Cache struct {
	backend cache.Backend
	opts    Options
	log     zerolog.Logger

	available atomic.Bool
	started   atomic.Bool

	// keys whose invalidate failed; replayed before availability is restored
	pendingMu sync.Mutex
	pending   map[string]struct{}

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

var _ chat.HistoryCache = (*Cache)(nil)

// New returns an unavailable cache; call Init to probe the backend.
// A nil backend yields a permanently disabled cache.
func New(backend cache.Backend, opts Options, log zerolog.Logger) *Cache {
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = DefaultTTL
	}
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = DefaultOpTimeout
	}
	if opts.HealthInterval <= 0 {
		opts.HealthInterval = DefaultHealthInterval
	}

	backendName := "none"
	if backend != nil {
		backendName = backend.Name()
	}

	return &Cache{
		backend: backend,
		opts:    opts,
		log:     log.With().Str("component", "history-cache").Str("backend", backendName).Logger(),
		pending: make(map[string]struct{}),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// NewDisabled returns a cache whose every lookup reports unavailable.
func NewDisabled(log zerolog.Logger) *Cache {
	return New(nil, Options{}, log)
}

// Init pings the backend once and starts the health monitor. An unreachable
// backend is not an error: the cache starts unavailable and the monitor keeps probing.
func (c *Cache) Init(ctx context.Context) {
	if c.backend == nil {
		metrics.SetCacheAvailable(false)
		c.log.Info().Msg("history cache disabled")
		return
	}

	c.startOnce.Do(func() {
		if err := c.ping(ctx); err != nil {
			c.log.Warn().Err(err).Msg("history cache unreachable at startup, continuing without it")
			c.setAvailable(false)
		} else {
			c.log.Info().Msg("history cache connected")
			c.restore()
		}
		c.started.Store(true)
		go c.monitor()
	})
}

// Shutdown stops the monitor. The backend's connection is owned by the caller.
func (c *Cache) Shutdown() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
	// a cache shut down before Init never starts its monitor
	c.startOnce.Do(func() {})
	if c.started.Load() {
		<-c.done
	}
	c.available.Store(false)
}

// IsAvailable reports whether the backend answered at the last check.
func (c *Cache) IsAvailable() bool {
	return c.backend != nil && c.available.Load()
}

// Get never returns an error: failures report CacheUnavailable, and an entry
// that cannot be decoded is dropped and reported as a miss.
func (c *Cache) Get(ctx context.Context, conversationID string) chat.CacheLookup {
	if !c.IsAvailable() {
		metrics.RecordCacheLookup(chat.CacheUnavailable.String())
		return chat.CacheLookup{Status: chat.CacheUnavailable}
	}

	key := Key(conversationID)
	opCtx, cancel := c.opContext(ctx)
	raw, err := c.backend.Get(opCtx, key)
	cancel()
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			metrics.RecordCacheLookup(chat.CacheMiss.String())
			return chat.CacheLookup{Status: chat.CacheMiss}
		}
		c.fail("get", err)
		metrics.RecordCacheLookup(chat.CacheUnavailable.String())
		return chat.CacheLookup{Status: chat.CacheUnavailable}
	}

	history, err := decode(raw)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("dropping undecodable history cache entry")
		c.Invalidate(ctx, conversationID)
		metrics.RecordCacheLookup(chat.CacheMiss.String())
		return chat.CacheLookup{Status: chat.CacheMiss}
	}

	metrics.RecordCacheLookup(chat.CacheHit.String())
	return chat.CacheLookup{Status: chat.CacheHit, History: history}
}

// Put replaces the entry wholesale. ttl <= 0 uses the configured default.
func (c *Cache) Put(ctx context.Context, conversationID string, history []chat.HistoryEntry, ttl time.Duration) {
	if !c.IsAvailable() {
		return
	}
	if ttl <= 0 {
		ttl = c.opts.DefaultTTL
	}

	payload, err := encode(history)
	if err != nil {
		c.log.Warn().Err(err).Str("conversation_id", conversationID).Msg("failed to encode history for cache")
		return
	}

	opCtx, cancel := c.opContext(ctx)
	defer cancel()
	if err := c.backend.Set(opCtx, Key(conversationID), payload, ttl); err != nil {
		c.fail("put", err)
	}
}

// Invalidate deletes the entry. Deleting a missing entry is a no-op.
// The delete is attempted even while the cache is marked unavailable: the
// entry may still be stored and would be served once availability returns.
// A failed delete is remembered and replayed before the cache is used again.
func (c *Cache) Invalidate(ctx context.Context, conversationID string) {
	if c.backend == nil {
		return
	}

	key := Key(conversationID)
	opCtx, cancel := c.opContext(ctx)
	err := c.backend.Delete(opCtx, key)
	cancel()
	if err == nil {
		return
	}

	metrics.RecordCacheError("invalidate")
	c.pendingMu.Lock()
	c.pending[key] = struct{}{}
	wasAvailable := c.available.CompareAndSwap(true, false)
	c.pendingMu.Unlock()

	if wasAvailable {
		metrics.SetCacheAvailable(false)
		c.log.Warn().Err(err).Str("op", "invalidate").Msg("history cache unavailable, serving from store")
		return
	}
	c.log.Debug().Err(err).Str("key", key).Msg("history cache invalidate deferred")
}

// restore replays deferred invalidations and marks the cache available only
// when all of them succeeded. It reports whether the cache is available.
func (c *Cache) restore() bool {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()

	for key := range c.pending {
		opCtx, cancel := context.WithTimeout(context.Background(), c.opts.OpTimeout)
		err := c.backend.Delete(opCtx, key)
		cancel()
		if err != nil {
			c.log.Warn().Err(err).Int("pending", len(c.pending)).Msg("replaying deferred invalidations failed")
			return false
		}
		delete(c.pending, key)
	}

	if c.available.CompareAndSwap(false, true) {
		metrics.SetCacheAvailable(true)
		return true
	}
	return c.available.Load()
}

func (c *Cache) pendingInvalidations() int {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	return len(c.pending)
}

// opContext bounds a backend call. It detaches from request cancellation so a
// client hang-up cannot leave a stale entry behind a completed store write.
func (c *Cache) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), c.opts.OpTimeout)
}

func (c *Cache) ping(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, c.opts.OpTimeout)
	defer cancel()
	return c.backend.Ping(opCtx)
}

func (c *Cache) fail(op string, err error) {
	metrics.RecordCacheError(op)
	if c.available.CompareAndSwap(true, false) {
		metrics.SetCacheAvailable(false)
		c.log.Warn().Err(err).Str("op", op).Msg("history cache unavailable, serving from store")
		return
	}
	c.log.Debug().Err(err).Str("op", op).Msg("history cache operation failed")
}

func (c *Cache) setAvailable(available bool) {
	c.available.Store(available)
	metrics.SetCacheAvailable(available)
}

func (c *Cache) monitor() {
	defer close(c.done)

	ticker := time.NewTicker(c.opts.HealthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.checkHealth()
		}
	}
}

func (c *Cache) checkHealth() {
	err := c.ping(context.Background())
	switch {
	case err == nil && !c.available.Load():
		if c.restore() {
			c.log.Info().Msg("history cache available again")
		}
	case err != nil && c.available.CompareAndSwap(true, false):
		metrics.SetCacheAvailable(false)
		metrics.RecordCacheError("ping")
		c.log.Warn().Err(err).Msg("history cache health check failed")
	}
}

func encode(history []chat.HistoryEntry) ([]byte, error) {
	if history == nil {
		history = []chat.HistoryEntry{}
	}
	return json.Marshal(history)
}

func decode(raw []byte) ([]chat.HistoryEntry, error) {
	var history []chat.HistoryEntry
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, err
	}
	if history == nil {
		return nil, fmt.Errorf("history cache entry is not an array")
	}
	for i, entry := range history {
		if !entry.Sender.Valid() {
			return nil, fmt.Errorf("history cache entry %d has unknown sender %q", i, entry.Sender)
		}
	}
	return history, nil
}
