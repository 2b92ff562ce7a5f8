// Package cachetest holds the behaviour every cache.Driver must share. Driver
// packages call Run from their own tests with a constructor for a fresh, empty
// driver.
package cachetest

import (
	"context"
	"fmt"
	"maps"
	"math"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"simple-cache/internal/cache"
	"simple-cache/internal/clock"
)

// Factory returns an empty driver reading time from c.
type Factory func(t *testing.T, c clock.Clock) cache.Driver[int]

// Epoch is where the manual clock starts in every case.
var Epoch = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

// Run executes the shared cases against drivers built by newDriver.
func Run(t *testing.T, newDriver Factory) {
	cases := []struct {
		name string
		fn   func(t *testing.T, c *cache.Cache[int], clk *clock.Manual)
	}{
		{"StoreAndRecall", storeAndRecall},
		{"DefaultOnMiss", defaultOnMiss},
		{"OverwriteExistingKey", overwriteExistingKey},
		{"NonPositiveTTLDeletes", nonPositiveTTLDeletes},
		{"ExpiryBoundary", expiryBoundary},
		{"HasPurgesExpired", hasPurgesExpired},
		{"KeysListsExpiredUntilTouched", keysListsExpiredUntilTouched},
		{"IntervalTTL", intervalTTL},
		{"DefaultTTL", defaultTTL},
		{"ClearEmpties", clearEmpties},
		{"SetAndGetMultiple", setAndGetMultiple},
		{"DeleteMultiple", deleteMultiple},
		{"DeleteAlwaysTrue", deleteAlwaysTrue},
		{"InvalidKeys", invalidKeys},
		{"NilSequences", nilSequences},
		{"ExpirationTimestamp", expirationTimestamp},
		{"HugeTTLStores", hugeTTLStores},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clk := clock.NewManual(Epoch)
			c := cache.New(newDriver(t, clk))
			tc.fn(t, c, clk)
		})
	}
}

func numbered(n int) *orderedmap.OrderedMap[string, int] {
	values := orderedmap.New[string, int]()
	for i := 0; i < n; i++ {
		values.Set(fmt.Sprintf("test%d", i), i)
	}
	return values
}

func keysOf(m *orderedmap.OrderedMap[string, int]) []string {
	keys := make([]string, 0, m.Len())
	for p := m.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

func requireKeyCount(t *testing.T, c *cache.Cache[int], n int) {
	t.Helper()
	keys, err := c.Driver().Keys(context.Background())
	require.NoError(t, err)
	require.Len(t, keys, n)
}

func storeAndRecall(t *testing.T, c *cache.Cache[int], _ *clock.Manual) {
	ctx := context.Background()
	ok, err := c.Set(ctx, "test", 42, cache.TTL{})
	require.NoError(t, err)
	require.True(t, ok)

	v, err := c.Get(ctx, "test", 0)
	require.NoError(t, err)
	require.Equal(t, 42, v)

	has, err := c.Has(ctx, "test")
	require.NoError(t, err)
	require.True(t, has)
}

func defaultOnMiss(t *testing.T, c *cache.Cache[int], _ *clock.Manual) {
	ctx := context.Background()
	v, err := c.Get(ctx, "test", 0)
	require.NoError(t, err)
	require.Equal(t, 0, v)

	v, err = c.Get(ctx, "test", -7)
	require.NoError(t, err)
	require.Equal(t, -7, v)

	has, err := c.Has(ctx, "test")
	require.NoError(t, err)
	require.False(t, has)
}

func overwriteExistingKey(t *testing.T, c *cache.Cache[int], _ *clock.Manual) {
	ctx := context.Background()
	_, err := c.Set(ctx, "test", 1, cache.Seconds(10))
	require.NoError(t, err)
	ok, err := c.Set(ctx, "test", 2, cache.Seconds(20))
	require.NoError(t, err)
	require.True(t, ok)

	v, err := c.Get(ctx, "test", 0)
	require.NoError(t, err)
	require.Equal(t, 2, v)

	exp, err := c.Driver().ExpirationTimestamp(ctx, "test")
	require.NoError(t, err)
	require.Equal(t, Epoch.Unix()+20, exp)
	requireKeyCount(t, c, 1)
}

func nonPositiveTTLDeletes(t *testing.T, c *cache.Cache[int], _ *clock.Manual) {
	ctx := context.Background()
	requireKeyCount(t, c, 0)

	_, err := c.Set(ctx, "test", 1, cache.TTL{})
	require.NoError(t, err)
	requireKeyCount(t, c, 1)

	ok, err := c.Set(ctx, "test", 1, cache.Seconds(0))
	require.NoError(t, err)
	require.True(t, ok)
	requireKeyCount(t, c, 0)

	ok, err = c.Set(ctx, "other", 1, cache.Seconds(-5))
	require.NoError(t, err)
	require.True(t, ok)
	requireKeyCount(t, c, 0)
}

func expiryBoundary(t *testing.T, c *cache.Cache[int], clk *clock.Manual) {
	ctx := context.Background()
	_, err := c.Set(ctx, "test", 5, cache.Seconds(60))
	require.NoError(t, err)

	clk.Advance(59 * time.Second)
	v, err := c.Get(ctx, "test", 0)
	require.NoError(t, err)
	require.Equal(t, 5, v)

	clk.Advance(2 * time.Second)
	v, err = c.Get(ctx, "test", 0)
	require.NoError(t, err)
	require.Equal(t, 0, v)
	requireKeyCount(t, c, 0)
}

func hasPurgesExpired(t *testing.T, c *cache.Cache[int], clk *clock.Manual) {
	ctx := context.Background()
	_, err := c.Set(ctx, "test", 5, cache.Seconds(60))
	require.NoError(t, err)

	clk.Advance(time.Hour)
	has, err := c.Has(ctx, "test")
	require.NoError(t, err)
	require.False(t, has)
	requireKeyCount(t, c, 0)
}

func keysListsExpiredUntilTouched(t *testing.T, c *cache.Cache[int], clk *clock.Manual) {
	ctx := context.Background()
	_, err := c.Set(ctx, "test", 5, cache.Seconds(60))
	require.NoError(t, err)

	clk.Advance(time.Hour)
	requireKeyCount(t, c, 1)

	exp, err := c.Driver().ExpirationTimestamp(ctx, "test")
	require.NoError(t, err)
	require.Equal(t, Epoch.Unix()+60, exp)

	_, err = c.Get(ctx, "test", 0)
	require.NoError(t, err)
	requireKeyCount(t, c, 0)
}

func intervalTTL(t *testing.T, c *cache.Cache[int], clk *clock.Manual) {
	ctx := context.Background()
	_, err := c.Set(ctx, "test", 1, cache.Seconds(60))
	require.NoError(t, err)
	requireKeyCount(t, c, 1)

	clk.Advance(61 * time.Second)
	_, err = c.Get(ctx, "test", 0)
	require.NoError(t, err)
	requireKeyCount(t, c, 0)

	_, err = c.Set(ctx, "test", 1, cache.Interval(24*time.Hour))
	require.NoError(t, err)
	requireKeyCount(t, c, 1)

	clk.Advance(24 * time.Hour)
	_, err = c.Get(ctx, "test", 0)
	require.NoError(t, err)
	requireKeyCount(t, c, 0)

	ok, err := c.Set(ctx, "test", 1, cache.Interval(-time.Minute))
	require.NoError(t, err)
	require.True(t, ok)
	requireKeyCount(t, c, 0)
}

func defaultTTL(t *testing.T, c *cache.Cache[int], clk *clock.Manual) {
	ctx := context.Background()
	d := c.Driver()
	require.Equal(t, cache.DefaultTTLSeconds, d.DefaultTTL())

	_, err := c.Set(ctx, "fifteen", 1, cache.TTL{})
	require.NoError(t, err)
	exp, err := d.ExpirationTimestamp(ctx, "fifteen")
	require.NoError(t, err)
	require.Equal(t, Epoch.Unix()+cache.DefaultTTLSeconds, exp)

	d.SetDefaultTTL(30)
	require.Equal(t, 30, d.DefaultTTL())
	_, err = c.Set(ctx, "thirty", 1, cache.TTL{})
	require.NoError(t, err)

	clk.Advance(31 * time.Second)
	has, err := c.Has(ctx, "thirty")
	require.NoError(t, err)
	require.False(t, has)
	has, err = c.Has(ctx, "fifteen")
	require.NoError(t, err)
	require.True(t, has)
}

func clearEmpties(t *testing.T, c *cache.Cache[int], _ *clock.Manual) {
	ctx := context.Background()
	requireKeyCount(t, c, 0)
	for i := 0; i < 100; i++ {
		_, err := c.Set(ctx, fmt.Sprintf("test%d", i), i, cache.TTL{})
		require.NoError(t, err)
	}
	requireKeyCount(t, c, 100)

	ok, err := c.Clear(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	requireKeyCount(t, c, 0)
}

func setAndGetMultiple(t *testing.T, c *cache.Cache[int], _ *clock.Manual) {
	ctx := context.Background()
	values := numbered(100)

	ok, err := c.SetMultiple(ctx, cache.Pairs(values), cache.TTL{})
	require.NoError(t, err)
	require.True(t, ok)
	requireKeyCount(t, c, 100)

	v, err := c.Get(ctx, "test0", -1)
	require.NoError(t, err)
	require.Equal(t, 0, v)
	v, err = c.Get(ctx, "test99", -1)
	require.NoError(t, err)
	require.Equal(t, 99, v)

	got, err := c.GetMultiple(ctx, slices.Values(keysOf(values)), -1)
	require.NoError(t, err)
	require.Equal(t, 100, got.Len())
	require.Equal(t, keysOf(values), keysOf(got))
	for p := values.Oldest(); p != nil; p = p.Next() {
		gv, present := got.Get(p.Key)
		require.True(t, present)
		require.Equal(t, p.Value, gv)
	}

	mixed, err := c.GetMultiple(ctx, slices.Values([]string{"missing", "test5"}), -1)
	require.NoError(t, err)
	require.Equal(t, []string{"missing", "test5"}, keysOf(mixed))
	mv, _ := mixed.Get("missing")
	require.Equal(t, -1, mv)
}

func deleteMultiple(t *testing.T, c *cache.Cache[int], _ *clock.Manual) {
	ctx := context.Background()
	values := numbered(100)
	_, err := c.SetMultiple(ctx, maps.All(map[string]int{}), cache.TTL{})
	require.NoError(t, err)
	_, err = c.SetMultiple(ctx, cache.Pairs(values), cache.TTL{})
	require.NoError(t, err)
	requireKeyCount(t, c, 100)

	values.Delete("test10")
	ok, err := c.DeleteMultiple(ctx, slices.Values(keysOf(values)))
	require.NoError(t, err)
	require.True(t, ok)
	requireKeyCount(t, c, 1)

	v, err := c.Get(ctx, "test10", -1)
	require.NoError(t, err)
	require.Equal(t, 10, v)
}

func deleteAlwaysTrue(t *testing.T, c *cache.Cache[int], _ *clock.Manual) {
	ctx := context.Background()
	ok, err := c.Delete(ctx, "test")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = c.Set(ctx, "test", 1, cache.TTL{})
	require.NoError(t, err)
	ok, err = c.Delete(ctx, "test")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = c.Delete(ctx, "test")
	require.NoError(t, err)
	require.True(t, ok)

	values := numbered(100)
	ok, err = c.DeleteMultiple(ctx, slices.Values(keysOf(values)))
	require.NoError(t, err)
	require.True(t, ok)

	_, err = c.SetMultiple(ctx, cache.Pairs(values), cache.TTL{})
	require.NoError(t, err)
	ok, err = c.DeleteMultiple(ctx, slices.Values(keysOf(values)))
	require.NoError(t, err)
	require.True(t, ok)
}

func invalidKeys(t *testing.T, c *cache.Cache[int], _ *clock.Manual) {
	ctx := context.Background()
	_, err := c.Set(ctx, "valid", 1, cache.TTL{})
	require.NoError(t, err)

	for _, key := range []string{"test{1}", "a}", "test(1)", "x)", "a/b", `test\test2`, "test@1"} {
		_, err = c.Set(ctx, key, 1, cache.TTL{})
		require.ErrorIs(t, err, cache.ErrInvalidArgument, key)
		_, err = c.Get(ctx, key, 0)
		require.ErrorIs(t, err, cache.ErrInvalidArgument, key)
		_, err = c.Delete(ctx, key)
		require.ErrorIs(t, err, cache.ErrInvalidArgument, key)
		_, err = c.Has(ctx, key)
		require.ErrorIs(t, err, cache.ErrInvalidArgument, key)
		_, err = c.Driver().ExpirationTimestamp(ctx, key)
		require.ErrorIs(t, err, cache.ErrInvalidArgument, key)
	}
	requireKeyCount(t, c, 1)

	paren := orderedmap.New[string, int]()
	at := orderedmap.New[string, int]()
	slash := orderedmap.New[string, int]()
	for i := 0; i < 100; i++ {
		paren.Set(fmt.Sprintf("test(%d)", i), i)
		at.Set(fmt.Sprintf("test@%d", i), i)
		slash.Set(fmt.Sprintf("test/%d", i), i)
	}

	got, err := c.GetMultiple(ctx, slices.Values(keysOf(paren)), 0)
	require.ErrorIs(t, err, cache.ErrInvalidArgument)
	require.Nil(t, got)

	ok, err := c.SetMultiple(ctx, cache.Pairs(at), cache.TTL{})
	require.ErrorIs(t, err, cache.ErrInvalidArgument)
	require.False(t, ok)

	ok, err = c.DeleteMultiple(ctx, slices.Values(keysOf(slash)))
	require.ErrorIs(t, err, cache.ErrInvalidArgument)
	require.False(t, ok)

	// Valid keys before the first invalid one are applied; nothing after it.
	ok, err = c.DeleteMultiple(ctx, slices.Values([]string{"valid", "bad@", "never"}))
	require.ErrorIs(t, err, cache.ErrInvalidArgument)
	require.False(t, ok)
	requireKeyCount(t, c, 0)
}

func nilSequences(t *testing.T, c *cache.Cache[int], _ *clock.Manual) {
	ctx := context.Background()
	_, err := c.GetMultiple(ctx, nil, 0)
	require.ErrorIs(t, err, cache.ErrInvalidArgument)
	_, err = c.SetMultiple(ctx, nil, cache.TTL{})
	require.ErrorIs(t, err, cache.ErrInvalidArgument)
	_, err = c.SetMultiple(ctx, cache.Pairs[int](nil), cache.TTL{})
	require.ErrorIs(t, err, cache.ErrInvalidArgument)
	_, err = c.DeleteMultiple(ctx, nil)
	require.ErrorIs(t, err, cache.ErrInvalidArgument)
}

func expirationTimestamp(t *testing.T, c *cache.Cache[int], _ *clock.Manual) {
	ctx := context.Background()
	d := c.Driver()
	exp, err := d.ExpirationTimestamp(ctx, "never")
	require.NoError(t, err)
	require.Zero(t, exp)

	_, err = c.Set(ctx, "test", 1, cache.Seconds(10))
	require.NoError(t, err)
	exp, err = d.ExpirationTimestamp(ctx, "test")
	require.NoError(t, err)
	require.GreaterOrEqual(t, exp, Epoch.Unix())
	require.Equal(t, Epoch.Unix()+10, exp)
}

func hugeTTLStores(t *testing.T, c *cache.Cache[int], clk *clock.Manual) {
	ctx := context.Background()
	d := c.Driver()

	huge, err := cache.ParseTTL(uint64(math.MaxUint64))
	require.NoError(t, err)
	for key, ttl := range map[string]cache.TTL{
		"unsigned": huge,
		"seconds":  cache.Seconds(math.MaxInt64),
	} {
		ok, err := c.Set(ctx, key, 1, ttl)
		require.NoError(t, err)
		require.True(t, ok)
		exp, err := d.ExpirationTimestamp(ctx, key)
		require.NoError(t, err)
		require.Equal(t, int64(math.MaxInt64), exp)
	}

	d.SetDefaultTTL(math.MaxInt)
	_, err = c.Set(ctx, "default", 1, cache.TTL{})
	require.NoError(t, err)

	clk.Advance(100 * 365 * 24 * time.Hour)
	for _, key := range []string{"unsigned", "seconds", "default"} {
		v, err := c.Get(ctx, key, 0)
		require.NoError(t, err)
		require.Equal(t, 1, v, key)
	}
}
