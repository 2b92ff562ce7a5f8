// Package redisdriver stores cache entries as Redis hashes.
//
// Each entry lives at <prefix><key> as a hash with fields "value" and
// "expiresAt". Expiry is judged against the driver's clock rather than a Redis
// key TTL, so an expired entry stays visible to Keys until something reads it.
package redisdriver

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"simple-cache/internal/cache"
	"simple-cache/internal/clock"
	"simple-cache/internal/codec"
	"simple-cache/internal/logger"
)

// Name is the driver name reported by Driver.Name.
const Name = "RedisDriver"

// DefaultPrefix namespaces cache keys when Options.Prefix is empty.
const DefaultPrefix = "cache:"

const (
	fieldValue     = "value"
	fieldExpiresAt = "expiresAt"

	scanCount = 100
)

// Options controls construction of a Driver.
type Options struct {
	// Prefix is prepended to every key. Clear and Keys only see this namespace.
	Prefix string
	// Clock is the time source; nil means the system clock.
	Clock clock.Clock
}

// Driver is a cache.Driver over a Redis client.
type Driver[V any] struct {
	cache.Base
	client redis.Cmdable
	prefix string
	codec  codec.Codec[V]
}

// New returns a Driver using an already-connected client.
func New[V any](client redis.Cmdable, opts Options) *Driver[V] {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Driver[V]{
		Base:   cache.NewBase(Name, opts.Clock),
		client: client,
		prefix: prefix,
		codec:  codec.JSON[V]{},
	}
}

func (d *Driver[V]) redisKey(key string) string {
	return d.prefix + key
}

func (d *Driver[V]) storageErr(ctx context.Context, op, key string, err error) error {
	logger.Log(ctx).Error(ctx, "redis cache operation failed",
		zap.String("driver", Name),
		zap.String("op", op),
		zap.String("key", key),
		zap.Error(err))
	return fmt.Errorf("%w: redis %s %q: %w", cache.ErrStorage, op, key, err)
}

type record struct {
	value     string
	expiresAt int64
}

func (d *Driver[V]) find(ctx context.Context, key string) (*record, error) {
	fields, err := d.client.HGetAll(ctx, d.redisKey(key)).Result()
	if err != nil {
		return nil, d.storageErr(ctx, "hgetall", key, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	expiresAt, err := strconv.ParseInt(fields[fieldExpiresAt], 10, 64)
	if err != nil {
		return nil, d.storageErr(ctx, "parse", key, err)
	}
	return &record{value: fields[fieldValue], expiresAt: expiresAt}, nil
}

func (d *Driver[V]) remove(ctx context.Context, key string) error {
	if err := d.client.Del(ctx, d.redisKey(key)).Err(); err != nil {
		return d.storageErr(ctx, "del", key, err)
	}
	return nil
}

func (d *Driver[V]) live(ctx context.Context, key string) (*record, error) {
	rec, err := d.find(ctx, key)
	if err != nil || rec == nil {
		return nil, err
	}
	if d.Live(rec.expiresAt) {
		return rec, nil
	}
	if err := d.remove(ctx, key); err != nil {
		return nil, err
	}
	logger.Log(ctx).Debug(ctx, "purged expired entry",
		zap.String("driver", Name),
		zap.String("key", key))
	return nil, nil
}

// Get implements cache.Driver.Get.
func (d *Driver[V]) Get(ctx context.Context, key string, def V) (V, error) {
	if err := cache.ValidateKey(key); err != nil {
		return def, err
	}
	rec, err := d.live(ctx, key)
	if err != nil || rec == nil {
		return def, err
	}
	v, err := d.codec.Decode([]byte(rec.value))
	if err != nil {
		return def, d.storageErr(ctx, "decode", key, err)
	}
	return v, nil
}

// Set implements cache.Driver.Set.
func (d *Driver[V]) Set(ctx context.Context, key string, value V, ttl cache.TTL) (bool, error) {
	if err := cache.ValidateKey(key); err != nil {
		return false, err
	}

	expiresAt, store, err := d.Expiry(ttl)
	if err != nil {
		return false, err
	}
	if !store {
		if err := d.remove(ctx, key); err != nil {
			return false, err
		}
		return true, nil
	}

	data, err := d.codec.Encode(value)
	if err != nil {
		return false, fmt.Errorf("%w: encode value for %q: %w", cache.ErrInvalidArgument, key, err)
	}

	err = d.client.HSet(ctx, d.redisKey(key),
		fieldValue, string(data),
		fieldExpiresAt, expiresAt,
	).Err()
	if err != nil {
		return false, d.storageErr(ctx, "hset", key, err)
	}
	return true, nil
}

// Delete implements cache.Driver.Delete.
func (d *Driver[V]) Delete(ctx context.Context, key string) (bool, error) {
	if err := cache.ValidateKey(key); err != nil {
		return false, err
	}
	if err := d.remove(ctx, key); err != nil {
		return false, err
	}
	return true, nil
}

// Clear implements cache.Driver.Clear. Only keys under the prefix are removed.
func (d *Driver[V]) Clear(ctx context.Context) (bool, error) {
	keys, err := d.scan(ctx)
	if err != nil {
		return false, err
	}
	for batch := range slices.Chunk(keys, scanCount) {
		if err := d.client.Del(ctx, batch...).Err(); err != nil {
			return false, d.storageErr(ctx, "del", "", err)
		}
	}
	return true, nil
}

// Has implements cache.Driver.Has.
func (d *Driver[V]) Has(ctx context.Context, key string) (bool, error) {
	if err := cache.ValidateKey(key); err != nil {
		return false, err
	}
	rec, err := d.live(ctx, key)
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}

// Keys implements cache.Driver.Keys.
func (d *Driver[V]) Keys(ctx context.Context) ([]string, error) {
	raw, err := d.scan(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		keys = append(keys, strings.TrimPrefix(k, d.prefix))
	}
	slices.Sort(keys)
	return keys, nil
}

// ExpirationTimestamp implements cache.Driver.ExpirationTimestamp.
func (d *Driver[V]) ExpirationTimestamp(ctx context.Context, key string) (int64, error) {
	if err := cache.ValidateKey(key); err != nil {
		return 0, err
	}
	raw, err := d.client.HGet(ctx, d.redisKey(key), fieldExpiresAt).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, d.storageErr(ctx, "hget", key, err)
	}
	expiresAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, d.storageErr(ctx, "parse", key, err)
	}
	return expiresAt, nil
}

// scan returns the full Redis keys under the prefix.
func (d *Driver[V]) scan(ctx context.Context) ([]string, error) {
	var keys []string
	it := d.client.Scan(ctx, 0, escapeGlob(d.prefix)+"*", scanCount).Iterator()
	for it.Next(ctx) {
		keys = append(keys, it.Val())
	}
	if err := it.Err(); err != nil {
		return nil, d.storageErr(ctx, "scan", "", err)
	}
	return keys, nil
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Ensure Driver implements cache.Driver at compile time.
var _ cache.Driver[any] = (*Driver[any])(nil)
