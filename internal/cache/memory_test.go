package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"simple-cache/internal/cache"
	"simple-cache/internal/cache/cachetest"
	"simple-cache/internal/clock"
)

func TestMemoryDriver(t *testing.T) {
	cachetest.Run(t, func(t *testing.T, c clock.Clock) cache.Driver[int] {
		return cache.NewMemoryDriver[int](cache.Options{Clock: c})
	})
}

func TestMemoryDriver_Name(t *testing.T) {
	c := cache.New[string](cache.NewMemoryDriver[string](cache.Options{}))
	require.Equal(t, "MemoryDriver", c.Driver().Name())
}

func TestMemoryDriver_AggregateValues(t *testing.T) {
	type note struct {
		Title string
		Tags  []string
	}
	ctx := context.Background()
	d := cache.NewMemoryDriver[note](cache.Options{})

	in := note{Title: "hello", Tags: []string{"a"}}
	_, err := d.Set(ctx, "note", in, cache.Seconds(60))
	require.NoError(t, err)

	out, err := d.Get(ctx, "note", note{})
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestMemoryDriver_SystemClock(t *testing.T) {
	ctx := context.Background()
	d := cache.NewMemoryDriver[int](cache.Options{})

	before := time.Now().Unix()
	_, err := d.Set(ctx, "k", 1, cache.Seconds(10))
	require.NoError(t, err)

	exp, err := d.ExpirationTimestamp(ctx, "k")
	require.NoError(t, err)
	require.GreaterOrEqual(t, exp, before+10)
}

func TestMemoryDriver_KeysSorted(t *testing.T) {
	ctx := context.Background()
	d := cache.NewMemoryDriver[int](cache.Options{})
	for _, k := range []string{"b", "c", "a"} {
		_, err := d.Set(ctx, k, 1, cache.TTL{})
		require.NoError(t, err)
	}
	keys, err := d.Keys(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, keys)
}
