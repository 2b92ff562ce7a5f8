package redisdriver_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simple-cache/internal/cache"
	"simple-cache/internal/cache/cachetest"
	"simple-cache/internal/cache/redisdriver"
	"simple-cache/internal/clock"
)

func mockRedisServer(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return s, client
}

func TestDriver(t *testing.T) {
	cachetest.Run(t, func(t *testing.T, c clock.Clock) cache.Driver[int] {
		_, client := mockRedisServer(t)
		return redisdriver.New[int](client, redisdriver.Options{Clock: c})
	})
}

func TestDriver_Name(t *testing.T) {
	_, client := mockRedisServer(t)
	d := redisdriver.New[string](client, redisdriver.Options{})
	assert.Equal(t, "RedisDriver", d.Name())
}

func TestDriver_HashLayout(t *testing.T) {
	ctx := context.Background()
	s, client := mockRedisServer(t)
	clk := clock.NewManual(cachetest.Epoch)
	d := redisdriver.New[string](client, redisdriver.Options{Clock: clk})

	_, err := d.Set(ctx, "greeting", "hello", cache.Seconds(30))
	require.NoError(t, err)

	assert.Equal(t, `"hello"`, s.HGet("cache:greeting", "value"))
	assert.Equal(t, strconv.FormatInt(cachetest.Epoch.Unix()+30, 10), s.HGet("cache:greeting", "expiresAt"))
}

func TestDriver_ClearKeepsOtherNamespaces(t *testing.T) {
	ctx := context.Background()
	s, client := mockRedisServer(t)
	require.NoError(t, s.Set("session:abc", "keep"))

	d := redisdriver.New[int](client, redisdriver.Options{Prefix: "alpha:"})
	other := redisdriver.New[int](client, redisdriver.Options{Prefix: "beta:"})

	_, err := d.Set(ctx, "a", 1, cache.TTL{})
	require.NoError(t, err)
	_, err = other.Set(ctx, "b", 2, cache.TTL{})
	require.NoError(t, err)

	keys, err := d.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, keys)

	ok, err := d.Clear(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.True(t, s.Exists("session:abc"))
	keys, err = other.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, keys)
}

func TestDriver_CorruptHash(t *testing.T) {
	ctx := context.Background()
	s, client := mockRedisServer(t)
	d := redisdriver.New[int](client, redisdriver.Options{})

	s.HSet("cache:bad", "value", "1", "expiresAt", "soon")
	_, err := d.Get(ctx, "bad", 0)
	require.ErrorIs(t, err, cache.ErrStorage)
	_, err = d.ExpirationTimestamp(ctx, "bad")
	require.ErrorIs(t, err, cache.ErrStorage)

	s.HSet("cache:garbled", "value", "{", "expiresAt", "99999999999")
	_, err = d.Get(ctx, "garbled", 0)
	require.ErrorIs(t, err, cache.ErrStorage)
}

func TestDriver_ServerDown(t *testing.T) {
	ctx := context.Background()
	s, client := mockRedisServer(t)
	d := redisdriver.New[int](client, redisdriver.Options{})
	s.Close()

	_, err := d.Get(ctx, "k", 0)
	require.ErrorIs(t, err, cache.ErrStorage)
	_, err = d.Set(ctx, "k", 1, cache.TTL{})
	require.ErrorIs(t, err, cache.ErrStorage)
	_, err = d.Delete(ctx, "k")
	require.ErrorIs(t, err, cache.ErrStorage)
	_, err = d.Keys(ctx)
	require.ErrorIs(t, err, cache.ErrStorage)
	_, err = d.Clear(ctx)
	require.ErrorIs(t, err, cache.ErrStorage)

	_, err = d.Has(ctx, "bad{key}")
	require.ErrorIs(t, err, cache.ErrInvalidArgument)
}
