package cache

import (
	"context"
	"iter"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// SingleKey is the per-key contract the bulk operations are built from.
type SingleKey[V any] interface {
	// Get returns the stored value, or def when the key is absent or expired.
	// An expired entry found on the way is purged.
	Get(ctx context.Context, key string, def V) (V, error)

	// Set stores value under key until ttl elapses. A ttl that resolves to no
	// remaining lifetime deletes the key instead.
	Set(ctx context.Context, key string, value V, ttl TTL) (bool, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) (bool, error)
}

// Driver is a storage backend with TTL expiry.
type Driver[V any] interface {
	SingleKey[V]

	// Clear removes every entry.
	Clear(ctx context.Context) (bool, error)

	// Has reports whether key holds a live entry, purging it if expired.
	Has(ctx context.Context, key string) (bool, error)

	// Keys lists every persisted key, including expired entries nobody has
	// touched since they expired.
	Keys(ctx context.Context) ([]string, error)

	// ExpirationTimestamp returns the entry's expiry in epoch seconds, or 0
	// if there is no entry. Expired entries are reported as-is.
	ExpirationTimestamp(ctx context.Context, key string) (int64, error)

	Name() string
	DefaultTTL() int
	SetDefaultTTL(ttl int)
}

// Cache is the entry point callers use. It forwards every call to the
// configured driver.
type Cache[V any] struct {
	driver Driver[V]
}

// New returns a Cache backed by driver.
func New[V any](driver Driver[V]) *Cache[V] {
	return &Cache[V]{driver: driver}
}

// Get returns the live value for key, or def when it is absent or expired.
func (c *Cache[V]) Get(ctx context.Context, key string, def V) (V, error) {
	return c.driver.Get(ctx, key, def)
}

// Set stores value under key for ttl. A ttl that resolves to now or earlier
// deletes key instead.
func (c *Cache[V]) Set(ctx context.Context, key string, value V, ttl TTL) (bool, error) {
	return c.driver.Set(ctx, key, value, ttl)
}

// Delete removes key. Deleting an absent key still reports true.
func (c *Cache[V]) Delete(ctx context.Context, key string) (bool, error) {
	return c.driver.Delete(ctx, key)
}

// Clear removes every entry.
func (c *Cache[V]) Clear(ctx context.Context) (bool, error) {
	return c.driver.Clear(ctx)
}

// Has reports whether key holds a live value.
func (c *Cache[V]) Has(ctx context.Context, key string) (bool, error) {
	return c.driver.Has(ctx, key)
}

// GetMultiple reads keys in order through the driver. See GetMultiple.
func (c *Cache[V]) GetMultiple(ctx context.Context, keys iter.Seq[string], def V) (*orderedmap.OrderedMap[string, V], error) {
	return GetMultiple(ctx, c.driver, keys, def)
}

// SetMultiple writes values in order through the driver. See SetMultiple.
func (c *Cache[V]) SetMultiple(ctx context.Context, values iter.Seq2[string, V], ttl TTL) (bool, error) {
	return SetMultiple(ctx, c.driver, values, ttl)
}

// DeleteMultiple removes keys in order through the driver. See DeleteMultiple.
func (c *Cache[V]) DeleteMultiple(ctx context.Context, keys iter.Seq[string]) (bool, error) {
	return DeleteMultiple(ctx, c.driver, keys)
}

// Driver returns the configured driver.
func (c *Cache[V]) Driver() Driver[V] {
	return c.driver
}
