package boltdriver_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"

	"simple-cache/internal/cache"
	"simple-cache/internal/cache/boltdriver"
	"simple-cache/internal/cache/cachetest"
	"simple-cache/internal/clock"
)

func openDriver(t *testing.T, opts boltdriver.Options) *boltdriver.Driver[int] {
	t.Helper()
	d, err := boltdriver.Open[int](filepath.Join(t.TempDir(), "cache.db"), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestDriver(t *testing.T) {
	cachetest.Run(t, func(t *testing.T, c clock.Clock) cache.Driver[int] {
		return openDriver(t, boltdriver.Options{Clock: c})
	})
}

func TestDriver_Name(t *testing.T) {
	require.Equal(t, "BoltDriver", openDriver(t, boltdriver.Options{}).Name())
}

func TestDriver_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	d, err := boltdriver.Open[string](path, boltdriver.Options{Bucket: "notes"})
	require.NoError(t, err)
	_, err = d.Set(ctx, "k", "v", cache.Seconds(3600))
	require.NoError(t, err)
	require.NoError(t, d.Close())

	d, err = boltdriver.Open[string](path, boltdriver.Options{Bucket: "notes"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	v, err := d.Get(ctx, "k", "")
	require.NoError(t, err)
	require.Equal(t, "v", v)
}

func TestDriver_SharedDB(t *testing.T) {
	ctx := context.Background()
	db, err := bolt.Open(filepath.Join(t.TempDir(), "shared.db"), 0o600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	a, err := boltdriver.New[int](db, boltdriver.Options{Bucket: "a"})
	require.NoError(t, err)
	b, err := boltdriver.New[int](db, boltdriver.Options{Bucket: "b"})
	require.NoError(t, err)

	_, err = a.Set(ctx, "k", 1, cache.TTL{})
	require.NoError(t, err)
	_, err = b.Set(ctx, "k", 2, cache.TTL{})
	require.NoError(t, err)

	_, err = a.Clear(ctx)
	require.NoError(t, err)

	v, err := b.Get(ctx, "k", 0)
	require.NoError(t, err)
	require.Equal(t, 2, v)

	// Close leaves a database it did not open alone
	require.NoError(t, a.Close())
	_, err = b.Get(ctx, "k", 0)
	require.NoError(t, err)
}

func TestDriver_ShortRecord(t *testing.T) {
	ctx := context.Background()
	db, err := bolt.Open(filepath.Join(t.TempDir(), "short.db"), 0o600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	d, err := boltdriver.New[int](db, boltdriver.Options{})
	require.NoError(t, err)
	require.NoError(t, db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(boltdriver.DefaultBucket)).Put([]byte("bad"), []byte{1, 2})
	}))

	_, err = d.Get(ctx, "bad", 0)
	require.ErrorIs(t, err, cache.ErrStorage)
}

func TestDriver_ClosedDB(t *testing.T) {
	ctx := context.Background()
	d := openDriver(t, boltdriver.Options{})
	require.NoError(t, d.Close())

	_, err := d.Get(ctx, "k", 0)
	require.ErrorIs(t, err, cache.ErrStorage)
	_, err = d.Set(ctx, "k", 1, cache.TTL{})
	require.ErrorIs(t, err, cache.ErrStorage)
	_, err = d.Keys(ctx)
	require.ErrorIs(t, err, cache.ErrStorage)
}
