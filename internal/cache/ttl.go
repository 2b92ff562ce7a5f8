package cache

import (
	"fmt"
	"math"
	"time"
)

type ttlKind int

const (
	ttlDefault ttlKind = iota
	ttlSeconds
	ttlInterval
)

// TTL is the relative lifetime given to Set. The zero value means "use the
// driver's default TTL".
type TTL struct {
	kind     ttlKind
	seconds  int64
	interval time.Duration
}

// Seconds is a TTL of n seconds. n <= 0 makes Set delete the key.
func Seconds(n int64) TTL {
	return TTL{kind: ttlSeconds, seconds: n}
}

// Interval is a TTL added to now as a duration.
func Interval(d time.Duration) TTL {
	return TTL{kind: ttlInterval, interval: d}
}

// IsDefault reports whether t defers to the driver's default TTL.
func (t TTL) IsDefault() bool {
	return t.kind == ttlDefault
}

func (t TTL) String() string {
	switch t.kind {
	case ttlDefault:
		return "default"
	case ttlSeconds:
		return fmt.Sprintf("%ds", t.seconds)
	case ttlInterval:
		return t.interval.String()
	}
	return "invalid"
}

// expiresAt resolves t against now. fallback is the default TTL in seconds.
// The second result is false when the entry must not be stored at all.
func (t TTL) expiresAt(now time.Time, fallback int) (int64, bool, error) {
	var at int64
	switch t.kind {
	case ttlDefault:
		at = addSeconds(now.Unix(), int64(fallback))
	case ttlSeconds:
		if t.seconds < 1 {
			return 0, false, nil
		}
		at = addSeconds(now.Unix(), t.seconds)
	case ttlInterval:
		at = now.Add(t.interval).Unix()
	default:
		return 0, false, fmt.Errorf("%w: unknown ttl kind %d", ErrInvalidArgument, t.kind)
	}
	return at, at > now.Unix(), nil
}

// addSeconds returns unix+n, saturating at the int64 bounds.
func addSeconds(unix, n int64) int64 {
	switch {
	case n > 0 && unix > math.MaxInt64-n:
		return math.MaxInt64
	case n < 0 && unix < math.MinInt64-n:
		return math.MinInt64
	}
	return unix + n
}

// ParseTTL converts a dynamically typed ttl into a TTL. nil is the default,
// time.Duration is an interval and any integer type is a count of seconds.
// Unsigned counts beyond math.MaxInt64 are capped there. Every other type is
// ErrInvalidArgument.
func ParseTTL(v any) (TTL, error) {
	switch x := v.(type) {
	case nil:
		return TTL{}, nil
	case TTL:
		return x, nil
	case time.Duration:
		return Interval(x), nil
	case int:
		return Seconds(int64(x)), nil
	case int8:
		return Seconds(int64(x)), nil
	case int16:
		return Seconds(int64(x)), nil
	case int32:
		return Seconds(int64(x)), nil
	case int64:
		return Seconds(x), nil
	case uint:
		return Seconds(capUnsigned(uint64(x))), nil
	case uint8:
		return Seconds(int64(x)), nil
	case uint16:
		return Seconds(int64(x)), nil
	case uint32:
		return Seconds(int64(x)), nil
	case uint64:
		return Seconds(capUnsigned(x)), nil
	}
	return TTL{}, fmt.Errorf("%w: ttl must be an integer, a time.Duration or nil, got %T", ErrInvalidArgument, v)
}

func capUnsigned(n uint64) int64 {
	if n > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(n)
}
