package cache

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTTL_ExpiresAt(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 500_000_000, time.UTC)
	base := now.Unix()

	cases := []struct {
		name     string
		ttl      TTL
		fallback int
		want     int64
		store    bool
	}{
		{"default", TTL{}, 900, base + 900, true},
		{"default non-positive", TTL{}, 0, 0, false},
		{"seconds", Seconds(60), 900, base + 60, true},
		{"one second", Seconds(1), 900, base + 1, true},
		{"zero seconds", Seconds(0), 900, 0, false},
		{"negative seconds", Seconds(-10), 900, 0, false},
		{"interval", Interval(24 * time.Hour), 900, base + 86400, true},
		{"sub-second interval rolls over", Interval(600 * time.Millisecond), 900, base + 1, true},
		{"sub-second interval within second", Interval(100 * time.Millisecond), 900, 0, false},
		{"negative interval", Interval(-time.Minute), 900, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, store, err := tc.ttl.expiresAt(now, tc.fallback)
			require.NoError(t, err)
			require.Equal(t, tc.store, store)
			if tc.store {
				require.Equal(t, tc.want, got)
			}
		})
	}
}

func TestTTL_UnknownKind(t *testing.T) {
	_, _, err := TTL{kind: ttlKind(99)}.expiresAt(time.Now(), 900)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestParseTTL(t *testing.T) {
	ttl, err := ParseTTL(nil)
	require.NoError(t, err)
	require.True(t, ttl.IsDefault())

	ttl, err = ParseTTL(60)
	require.NoError(t, err)
	require.Equal(t, Seconds(60), ttl)

	ttl, err = ParseTTL(int64(-1))
	require.NoError(t, err)
	require.Equal(t, Seconds(-1), ttl)

	ttl, err = ParseTTL(uint16(5))
	require.NoError(t, err)
	require.Equal(t, Seconds(5), ttl)

	ttl, err = ParseTTL(time.Hour)
	require.NoError(t, err)
	require.Equal(t, Interval(time.Hour), ttl)

	ttl, err = ParseTTL(Seconds(3))
	require.NoError(t, err)
	require.Equal(t, Seconds(3), ttl)

	for _, bad := range []any{"60", 1.5, []int{1}, struct{}{}} {
		_, err = ParseTTL(bad)
		require.ErrorIs(t, err, ErrInvalidArgument)
	}
}

func TestTTL_String(t *testing.T) {
	require.Equal(t, "default", TTL{}.String())
	require.Equal(t, "60s", Seconds(60).String())
	require.Equal(t, "1h0m0s", Interval(time.Hour).String())
}

func TestTTL_LargeValuesSaturate(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	got, store, err := Seconds(math.MaxInt64).expiresAt(now, 900)
	require.NoError(t, err)
	require.True(t, store)
	require.Equal(t, int64(math.MaxInt64), got)

	got, store, err = TTL{}.expiresAt(now, math.MaxInt)
	require.NoError(t, err)
	require.True(t, store)
	require.Equal(t, int64(math.MaxInt64), got)

	got, store, err = Interval(time.Duration(math.MaxInt64)).expiresAt(now, 900)
	require.NoError(t, err)
	require.True(t, store)
	require.Greater(t, got, now.Unix())
}

func TestParseTTL_CapsUnsigned(t *testing.T) {
	ttl, err := ParseTTL(uint64(math.MaxUint64))
	require.NoError(t, err)
	require.Equal(t, Seconds(math.MaxInt64), ttl)

	ttl, err = ParseTTL(uint(math.MaxUint))
	require.NoError(t, err)
	require.Equal(t, Seconds(math.MaxInt64), ttl)

	ttl, err = ParseTTL(uint64(42))
	require.NoError(t, err)
	require.Equal(t, Seconds(42), ttl)
}
