package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// RedisCounter shares windows across replicas with INCR and PEXPIRE.
type RedisCounter struct {
	client    redis.UniversalClient
	opTimeout time.Duration
}

func NewRedisCounter(client redis.UniversalClient, opTimeout time.Duration) *RedisCounter {
	if opTimeout <= 0 {
		opTimeout = 250 * time.Millisecond
	}
	return &RedisCounter{client: client, opTimeout: opTimeout}
}

func (r *RedisCounter) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	redisKey := keyPrefix + key
	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("increment rate limit counter: %w", err)
	}

	ttl, err := r.client.PTTL(ctx, redisKey).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("read rate limit window: %w", err)
	}
	// first hit, or a key left without expiry by an interrupted call
	if count == 1 || ttl < 0 {
		if err := r.client.PExpire(ctx, redisKey, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("start rate limit window: %w", err)
		}
		ttl = window
	}
	return count, ttl, nil
}
