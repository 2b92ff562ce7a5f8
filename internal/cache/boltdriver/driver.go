// Package boltdriver stores cache entries in a single bbolt bucket.
package boltdriver

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"simple-cache/internal/cache"
	"simple-cache/internal/clock"
	"simple-cache/internal/codec"
	"simple-cache/internal/logger"
)

// Name is the driver name reported by Driver.Name.
const Name = "BoltDriver"

// DefaultBucket is used when Options.Bucket is empty.
const DefaultBucket = "cache"

// headerSize is the 8-byte big endian expiresAt in front of every record.
const headerSize = 8

var errShortRecord = errors.New("record shorter than header")

// Options controls construction of a Driver.
type Options struct {
	// Bucket is the name of the Bolt bucket to use. Defaults to "cache".
	Bucket string
	// Clock is the time source; nil means the system clock.
	Clock clock.Clock
}

// Driver is a cache.Driver over one Bolt bucket. Records are laid out as
// expiresAt (8 bytes big endian) || encoded value.
type Driver[V any] struct {
	cache.Base
	db     *bolt.DB
	bucket []byte
	codec  codec.Codec[V]
	owned  bool
}

// Open opens or creates the Bolt file at path and returns a Driver owning it.
func Open[V any](path string, opts Options) (*Driver[V], error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", cache.ErrStorage, path, err)
	}
	d, err := New[V](db, opts)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	d.owned = true
	return d, nil
}

// New returns a Driver on an open database, creating the bucket if needed.
func New[V any](db *bolt.DB, opts Options) (*Driver[V], error) {
	bucket := []byte(DefaultBucket)
	if opts.Bucket != "" {
		bucket = []byte(opts.Bucket)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		return nil, fmt.Errorf("%w: create bucket %s: %w", cache.ErrStorage, bucket, err)
	}
	return &Driver[V]{
		Base:   cache.NewBase(Name, opts.Clock),
		db:     db,
		bucket: bucket,
		codec:  codec.JSON[V]{},
	}, nil
}

// Close closes the database if the Driver opened it.
func (d *Driver[V]) Close() error {
	if d == nil || d.db == nil || !d.owned {
		return nil
	}
	return d.db.Close()
}

func (d *Driver[V]) storageErr(ctx context.Context, op, key string, err error) error {
	logger.Log(ctx).Error(ctx, "bolt cache operation failed",
		zap.String("driver", Name),
		zap.String("bucket", string(d.bucket)),
		zap.String("op", op),
		zap.String("key", key),
		zap.Error(err))
	return fmt.Errorf("%w: bolt %s %q: %w", cache.ErrStorage, op, key, err)
}

func splitRecord(raw []byte) (int64, []byte, error) {
	if len(raw) < headerSize {
		return 0, nil, errShortRecord
	}
	return int64(binary.BigEndian.Uint64(raw[:headerSize])), raw[headerSize:], nil
}

// find copies the record for key out of the transaction.
func (d *Driver[V]) find(ctx context.Context, key string) (expiresAt int64, value []byte, exists bool, err error) {
	err = d.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(d.bucket).Get([]byte(key))
		if raw == nil {
			return nil
		}
		exists = true
		var v []byte
		expiresAt, v, err = splitRecord(raw)
		value = append([]byte(nil), v...)
		return err
	})
	if err != nil {
		return 0, nil, false, d.storageErr(ctx, "get", key, err)
	}
	return expiresAt, value, exists, nil
}

func (d *Driver[V]) remove(ctx context.Context, key string) error {
	err := d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(d.bucket).Delete([]byte(key))
	})
	if err != nil {
		return d.storageErr(ctx, "delete", key, err)
	}
	return nil
}

// live returns the encoded value for key if it has not expired. An expired
// record is deleted.
func (d *Driver[V]) live(ctx context.Context, key string) ([]byte, bool, error) {
	expiresAt, value, exists, err := d.find(ctx, key)
	if err != nil || !exists {
		return nil, false, err
	}
	if d.Live(expiresAt) {
		return value, true, nil
	}
	if err := d.remove(ctx, key); err != nil {
		return nil, false, err
	}
	logger.Log(ctx).Debug(ctx, "purged expired entry",
		zap.String("driver", Name),
		zap.String("key", key))
	return nil, false, nil
}

// Get implements cache.Driver.Get.
func (d *Driver[V]) Get(ctx context.Context, key string, def V) (V, error) {
	if err := cache.ValidateKey(key); err != nil {
		return def, err
	}
	data, ok, err := d.live(ctx, key)
	if err != nil || !ok {
		return def, err
	}
	v, err := d.codec.Decode(data)
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

	buf := make([]byte, headerSize+len(data))
	binary.BigEndian.PutUint64(buf[:headerSize], uint64(expiresAt))
	copy(buf[headerSize:], data)

	err = d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(d.bucket).Put([]byte(key), buf)
	})
	if err != nil {
		return false, d.storageErr(ctx, "put", key, err)
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

// Clear implements cache.Driver.Clear by dropping and recreating the bucket.
func (d *Driver[V]) Clear(ctx context.Context) (bool, error) {
	err := d.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(d.bucket); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket(d.bucket)
		return err
	})
	if err != nil {
		return false, d.storageErr(ctx, "clear", "", err)
	}
	return true, nil
}

// Has implements cache.Driver.Has.
func (d *Driver[V]) Has(ctx context.Context, key string) (bool, error) {
	if err := cache.ValidateKey(key); err != nil {
		return false, err
	}
	_, ok, err := d.live(ctx, key)
	return ok, err
}

// Keys implements cache.Driver.Keys. Bolt iterates in byte order.
func (d *Driver[V]) Keys(ctx context.Context) ([]string, error) {
	keys := []string{}
	err := d.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(d.bucket).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, d.storageErr(ctx, "keys", "", err)
	}
	return keys, nil
}

// ExpirationTimestamp implements cache.Driver.ExpirationTimestamp.
func (d *Driver[V]) ExpirationTimestamp(ctx context.Context, key string) (int64, error) {
	if err := cache.ValidateKey(key); err != nil {
		return 0, err
	}
	expiresAt, _, exists, err := d.find(ctx, key)
	if err != nil || !exists {
		return 0, err
	}
	return expiresAt, nil
}

// Ensure Driver implements cache.Driver at compile time.
var _ cache.Driver[any] = (*Driver[any])(nil)
