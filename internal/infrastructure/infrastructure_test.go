package infrastructure

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/support-chat/internal/config"
	"github.com/janhq/support-chat/internal/infrastructure/cache"
	"github.com/janhq/support-chat/internal/infrastructure/historycache"
)

func TestNewHistoryBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := cache.NewRedisClient("redis://"+mr.Addr()+"/0", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	backend, err := newHistoryBackend(&config.Config{HistoryCacheType: config.CacheTypeRedis}, client)
	require.NoError(t, err)
	assert.Equal(t, "redis", backend.Name())

	_, err = newHistoryBackend(&config.Config{HistoryCacheType: config.CacheTypeRedis}, nil)
	assert.Error(t, err)

	backend, err = newHistoryBackend(&config.Config{HistoryCacheType: config.CacheTypeMemory, HistoryCacheMaxEntries: 10}, nil)
	require.NoError(t, err)
	assert.Equal(t, "memory", backend.Name())

	backend, err = newHistoryBackend(&config.Config{HistoryCacheType: config.CacheTypeNone}, nil)
	require.NoError(t, err)
	assert.Nil(t, backend)
}

func TestInfrastructure_EmptyIsSafe(t *testing.T) {
	infra := &Infrastructure{Logger: zerolog.Nop()}

	infra.Init(context.Background())
	assert.False(t, infra.IsAvailable())
	assert.Error(t, infra.Ready(context.Background()))
	assert.NoError(t, infra.Shutdown(context.Background()))
}

func TestInfrastructure_CacheLifecycle(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := cache.NewRedisClient("redis://"+mr.Addr()+"/0", 0)
	require.NoError(t, err)

	infra := &Infrastructure{
		Redis:        client,
		HistoryCache: historycache.New(cache.NewRedisBackend(client), historycache.Options{}, zerolog.Nop()),
		Logger:       zerolog.Nop(),
	}

	infra.Init(context.Background())
	assert.True(t, infra.IsAvailable())

	require.NoError(t, infra.Shutdown(context.Background()))
	assert.False(t, infra.IsAvailable())
}

func TestCleanupReleasesConnections(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := cache.NewRedisClient("redis://"+mr.Addr()+"/0", 0)
	require.NoError(t, err)

	infra := &Infrastructure{
		Redis:        client,
		HistoryCache: historycache.New(cache.NewRedisBackend(client), historycache.Options{}, zerolog.Nop()),
		Logger:       zerolog.Nop(),
	}
	infra.Init(context.Background())
	require.True(t, infra.IsAvailable())

	infra.cleanup(time.Second)()

	assert.False(t, infra.IsAvailable())
	assert.ErrorIs(t, client.Ping(context.Background()).Err(), redis.ErrClosed)
}
