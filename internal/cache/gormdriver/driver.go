// Package gormdriver stores cache entries in a relational table through gorm.
//
// The table needs three columns: key (string primary key), value (text) and
// expiresAt (unsigned integer, epoch seconds). Creating it is left to the
// caller; see database.EnsureCacheTable.
package gormdriver

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"simple-cache/internal/cache"
	"simple-cache/internal/clock"
	"simple-cache/internal/codec"
	"simple-cache/internal/logger"
	"simple-cache/internal/models"
)

// Name is the driver name reported by Driver.Name.
const Name = "GormDriver"

const (
	opFind   = "find"
	opStore  = "store"
	opDelete = "delete"
	opClear  = "clear"
	opKeys   = "keys"
	opDecode = "decode"

	colKey       = "key"
	colValue     = "value"
	colExpiresAt = "expiresAt"
)

// Options controls construction of a Driver.
type Options struct {
	// Table is the cache table name. Defaults to "cache".
	Table string
	// Clock is the time source; nil means the system clock.
	Clock clock.Clock
}

// Driver is a cache.Driver over one table. Every statement is its own round
// trip; no transaction spans the read and purge of an expired row.
type Driver[V any] struct {
	cache.Base
	db    *gorm.DB
	table string
	codec codec.Codec[V]
}

// New returns a Driver using an already-open connection.
func New[V any](db *gorm.DB, opts Options) *Driver[V] {
	table := opts.Table
	if table == "" {
		table = models.DefaultCacheTable
	}
	return &Driver[V]{
		Base:  cache.NewBase(Name, opts.Clock),
		db:    db,
		table: table,
		codec: codec.JSON[V]{},
	}
}

// Table returns the table this driver reads and writes.
func (d *Driver[V]) Table() string {
	return d.table
}

func (d *Driver[V]) query(ctx context.Context) *gorm.DB {
	return d.db.WithContext(ctx).Table(d.table)
}

func keyIs(key string) clause.Expression {
	return clause.Eq{Column: clause.Column{Name: colKey}, Value: key}
}

func (d *Driver[V]) storageErr(ctx context.Context, op, key string, err error) error {
	logger.Log(ctx).Error(ctx, "cache table operation failed",
		zap.String("driver", Name),
		zap.String("table", d.table),
		zap.String("op", op),
		zap.String("key", key),
		zap.Error(err))
	return fmt.Errorf("%w: %s %q in table %s: %w", cache.ErrStorage, op, key, d.table, err)
}

func (d *Driver[V]) find(ctx context.Context, key string) (*models.CacheEntry, error) {
	var rows []models.CacheEntry
	err := d.query(ctx).
		Where(keyIs(key)).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, d.storageErr(ctx, opFind, key, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (d *Driver[V]) remove(ctx context.Context, key string) error {
	if err := d.query(ctx).Where(keyIs(key)).Delete(&models.CacheEntry{}).Error; err != nil {
		return d.storageErr(ctx, opDelete, key, err)
	}
	return nil
}

// live returns the row for key if it has not expired. An expired row is
// deleted.
func (d *Driver[V]) live(ctx context.Context, key string) (*models.CacheEntry, error) {
	row, err := d.find(ctx, key)
	if err != nil || row == nil {
		return nil, err
	}
	if d.Live(int64(row.ExpiresAt)) {
		return row, nil
	}

	if err := d.remove(ctx, key); err != nil {
		return nil, err
	}
	logger.Log(ctx).Debug(ctx, "purged expired entry",
		zap.String("driver", Name),
		zap.String("table", d.table),
		zap.String("key", key))
	return nil, nil
}

// Get implements cache.Driver.Get.
func (d *Driver[V]) Get(ctx context.Context, key string, def V) (V, error) {
	if err := cache.ValidateKey(key); err != nil {
		return def, err
	}

	row, err := d.live(ctx, key)
	if err != nil || row == nil {
		return def, err
	}

	v, err := d.codec.Decode([]byte(row.Value))
	if err != nil {
		return def, d.storageErr(ctx, opDecode, key, err)
	}
	return v, nil
}

// Set implements cache.Driver.Set. Setting an existing key replaces its row.
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

	row := models.CacheEntry{
		Key:       key,
		Value:     string(data),
		ExpiresAt: uint64(expiresAt),
	}
	// Affected-row counts for an upsert differ between dialects, so success is
	// the absence of an error.
	err = d.query(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: colKey}},
		DoUpdates: clause.AssignmentColumns([]string{colValue, colExpiresAt}),
	}).Create(&row).Error
	if err != nil {
		return false, d.storageErr(ctx, opStore, key, err)
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

// Clear implements cache.Driver.Clear.
func (d *Driver[V]) Clear(ctx context.Context) (bool, error) {
	err := d.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Table(d.table).
		Delete(&models.CacheEntry{}).Error
	if err != nil {
		return false, d.storageErr(ctx, opClear, "", err)
	}
	return true, nil
}

// Has implements cache.Driver.Has.
func (d *Driver[V]) Has(ctx context.Context, key string) (bool, error) {
	if err := cache.ValidateKey(key); err != nil {
		return false, err
	}
	row, err := d.live(ctx, key)
	if err != nil {
		return false, err
	}
	return row != nil, nil
}

// Keys implements cache.Driver.Keys.
func (d *Driver[V]) Keys(ctx context.Context) ([]string, error) {
	keys := []string{}
	err := d.query(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: colKey}}).
		Pluck(colKey, &keys).Error
	if err != nil {
		return nil, d.storageErr(ctx, opKeys, "", err)
	}
	return keys, nil
}

// ExpirationTimestamp implements cache.Driver.ExpirationTimestamp.
func (d *Driver[V]) ExpirationTimestamp(ctx context.Context, key string) (int64, error) {
	if err := cache.ValidateKey(key); err != nil {
		return 0, err
	}
	row, err := d.find(ctx, key)
	if err != nil || row == nil {
		return 0, err
	}
	return int64(row.ExpiresAt), nil
}

// Ensure Driver implements cache.Driver at compile time.
var _ cache.Driver[any] = (*Driver[any])(nil)
