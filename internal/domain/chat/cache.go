package chat

import (
	"context"
	"time"
)

// CacheStatus is the outcome of a history cache lookup.
type CacheStatus int

const (
	CacheMiss CacheStatus = iota
	CacheHit
	// CacheUnavailable means the backend was not consulted or failed; callers treat it like a miss.
	CacheUnavailable
)

func (s CacheStatus) String() string {
	switch s {
	case CacheHit:
		return "hit"
	case CacheMiss:
		return "miss"
	default:
		return "unavailable"
	}
}

// CacheLookup carries the cached history when Status is CacheHit.
type CacheLookup struct {
	Status  CacheStatus
	History []HistoryEntry
}

// HistoryCache is a best-effort, read-through cache of recent conversation history.
// None of its operations report backend failures to the caller.
type HistoryCache interface {
	Get(ctx context.Context, conversationID string) CacheLookup
	Put(ctx context.Context, conversationID string, history []HistoryEntry, ttl time.Duration)
	Invalidate(ctx context.Context, conversationID string)
	IsAvailable() bool
}
