package cache

import (
	"context"
	"maps"
	"slices"

	"go.uber.org/zap"

	"simple-cache/internal/clock"
	"simple-cache/internal/logger"
)

// MemoryDriverName is the Name of the in-memory driver.
const MemoryDriverName = "MemoryDriver"

// entry stores a cached value and its absolute expiration in epoch seconds.
type entry[V any] struct {
	value     V
	expiresAt int64
}

// Options controls construction of a MemoryDriver.
type Options struct {
	// Clock is the time source; nil means the system clock.
	Clock clock.Clock
}

// MemoryDriver is a map-backed driver. It is NOT safe for concurrent use;
// callers sharing one across goroutines must synchronize themselves.
// Expired entries are removed lazily, when Get, Has or Set touch them.
type MemoryDriver[V any] struct {
	Base
	items map[string]entry[V]
}

// NewMemoryDriver constructs an empty MemoryDriver.
func NewMemoryDriver[V any](opts Options) *MemoryDriver[V] {
	return &MemoryDriver[V]{
		Base:  NewBase(MemoryDriverName, opts.Clock),
		items: make(map[string]entry[V]),
	}
}

// Get implements Driver.Get.
func (d *MemoryDriver[V]) Get(ctx context.Context, key string, def V) (V, error) {
	if err := ValidateKey(key); err != nil {
		return def, err
	}

	e, ok := d.lookup(ctx, key)
	if !ok {
		return def, nil
	}
	return e.value, nil
}

// Set implements Driver.Set.
func (d *MemoryDriver[V]) Set(_ context.Context, key string, value V, ttl TTL) (bool, error) {
	if err := ValidateKey(key); err != nil {
		return false, err
	}

	expiresAt, store, err := d.Expiry(ttl)
	if err != nil {
		return false, err
	}
	if !store {
		delete(d.items, key)
		return true, nil
	}

	d.items[key] = entry[V]{
		value:     value,
		expiresAt: expiresAt,
	}
	return true, nil
}

// Delete implements Driver.Delete.
func (d *MemoryDriver[V]) Delete(_ context.Context, key string) (bool, error) {
	if err := ValidateKey(key); err != nil {
		return false, err
	}
	delete(d.items, key)
	return true, nil
}

// Clear implements Driver.Clear.
func (d *MemoryDriver[V]) Clear(context.Context) (bool, error) {
	d.items = make(map[string]entry[V])
	return true, nil
}

// Has implements Driver.Has.
func (d *MemoryDriver[V]) Has(ctx context.Context, key string) (bool, error) {
	if err := ValidateKey(key); err != nil {
		return false, err
	}
	_, ok := d.lookup(ctx, key)
	return ok, nil
}

// Keys implements Driver.Keys.
func (d *MemoryDriver[V]) Keys(context.Context) ([]string, error) {
	return slices.Sorted(maps.Keys(d.items)), nil
}

// ExpirationTimestamp implements Driver.ExpirationTimestamp.
func (d *MemoryDriver[V]) ExpirationTimestamp(_ context.Context, key string) (int64, error) {
	if err := ValidateKey(key); err != nil {
		return 0, err
	}
	e, ok := d.items[key]
	if !ok {
		return 0, nil
	}
	return e.expiresAt, nil
}

// lookup returns the live entry for key, dropping it if it has expired.
func (d *MemoryDriver[V]) lookup(ctx context.Context, key string) (entry[V], bool) {
	e, ok := d.items[key]
	if !ok {
		return e, false
	}
	if !d.Live(e.expiresAt) {
		delete(d.items, key)
		logger.Log(ctx).Debug(ctx, "purged expired entry",
			zap.String("driver", d.Name()),
			zap.String("key", key))
		return e, false
	}
	return e, true
}

// Ensure MemoryDriver implements Driver at compile time.
var _ Driver[any] = (*MemoryDriver[any])(nil)
