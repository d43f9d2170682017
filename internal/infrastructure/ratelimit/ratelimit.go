package ratelimit

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Counter counts hits in fixed windows. The first hit in a window starts it.
type Counter interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int64, resetIn time.Duration, err error)
}

// Decision is the result of one Allow call.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAfter time.Duration
}

// Limiter enforces limit hits per window per key. When the primary counter
// fails, the in-process fallback takes over for that call.
type Limiter struct {
	counter  Counter
	fallback Counter
	limit    int
	window   time.Duration
	log      zerolog.Logger
}

func NewLimiter(counter Counter, limit int, window time.Duration, log zerolog.Logger) *Limiter {
	fallback := Counter(NewMemoryCounter())
	if mem, ok := counter.(*MemoryCounter); ok {
		fallback = mem
	}
	if counter == nil {
		counter = fallback
	}
	return &Limiter{
		counter:  counter,
		fallback: fallback,
		limit:    limit,
		window:   window,
		log:      log.With().Str("component", "rate-limiter").Logger(),
	}
}

func (l *Limiter) Allow(ctx context.Context, key string) Decision {
	count, resetIn, err := l.counter.Increment(ctx, key, l.window)
	if err != nil {
		l.log.Warn().Err(err).Msg("rate limit counter failed, using in-process fallback")
		count, resetIn, _ = l.fallback.Increment(ctx, key, l.window)
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:    count <= int64(l.limit),
		Limit:      l.limit,
		Remaining:  remaining,
		ResetAfter: resetIn,
	}
}
