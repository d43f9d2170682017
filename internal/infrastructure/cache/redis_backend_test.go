package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredisBackend(t *testing.T) (*RedisBackend, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewRedisClient("redis://"+mr.Addr()+"/0", 250*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisBackend(client), mr
}

func TestBuildUniversalOptions(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantAddrs []string
		wantDB    int
		wantErr   bool
	}{
		{"single url", "redis://:secret@cache:6379/2", []string{"cache:6379"}, 2, false},
		{"bare address", "localhost:6379", []string{"localhost:6379"}, 0, false},
		{"cluster list", "redis://a:6379, redis://b:6379", []string{"a:6379", "b:6379"}, 0, false},
		{"empty", " , ", nil, 0, true},
		{"bad scheme", "http://cache:6379", nil, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := buildUniversalOptions(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAddrs, opts.Addrs)
			assert.Equal(t, tt.wantDB, opts.DB)
		})
	}
}

func TestNewRedisClient_RequiresURL(t *testing.T) {
	_, err := NewRedisClient("", time.Second)
	assert.Error(t, err)
}

func TestRedisBackend_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	backend, mr := newMiniredisBackend(t)

	_, err := backend.Get(ctx, "history:v1:abc")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, backend.Set(ctx, "history:v1:abc", []byte(`[]`), 15*time.Second))
	got, err := backend.Get(ctx, "history:v1:abc")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), got)
	assert.Equal(t, 15*time.Second, mr.TTL("history:v1:abc"))

	require.NoError(t, backend.Delete(ctx, "history:v1:abc"))
	require.NoError(t, backend.Delete(ctx, "history:v1:abc"))
	_, err = backend.Get(ctx, "history:v1:abc")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisBackend_Expiry(t *testing.T) {
	ctx := context.Background()
	backend, mr := newMiniredisBackend(t)

	require.NoError(t, backend.Set(ctx, "k", []byte("v"), time.Second))
	mr.FastForward(2 * time.Second)

	_, err := backend.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisBackend_ServerDown(t *testing.T) {
	ctx := context.Background()
	backend, mr := newMiniredisBackend(t)
	require.NoError(t, backend.Ping(ctx))

	mr.Close()

	assert.Error(t, backend.Ping(ctx))
	_, err := backend.Get(ctx, "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
	assert.Error(t, backend.Set(ctx, "k", []byte("v"), time.Second))
	assert.Error(t, backend.Delete(ctx, "k"))
}
