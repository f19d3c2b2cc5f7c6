package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStoreRevokeAndExpire(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "jti-1", time.Minute))
	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.True(t, mr.Exists(keyPrefix+"jti-1"))

	mr.FastForward(2 * time.Minute)
	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisStoreIgnoresExpiredTokens(t *testing.T) {
	store, mr := setupRedisStore(t)

	require.NoError(t, store.Revoke(context.Background(), "jti-old", 0))
	assert.False(t, mr.Exists(keyPrefix+"jti-old"))
}

func TestRedisStoreReportsConnectionErrors(t *testing.T) {
	store, mr := setupRedisStore(t)
	mr.Close()

	_, err := store.IsRevoked(context.Background(), "jti-1")
	assert.Error(t, err)
}

func TestNewRedisStoreFromURL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	store, err := NewRedisStoreFromURL(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	defer store.Close()

	_, err = NewRedisStoreFromURL(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "jti-1", time.Minute))
	revoked, _ := store.IsRevoked(ctx, "jti-1")
	assert.True(t, revoked)

	now = now.Add(time.Minute)
	revoked, _ = store.IsRevoked(ctx, "jti-1")
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "jti-2", time.Minute))
	assert.NotContains(t, store.revoked, "jti-1")
}
