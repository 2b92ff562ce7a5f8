package database

import (
	"path/filepath"
	"testing"

	"simple-cache/internal/models"

	"github.com/stretchr/testify/require"
)

func TestOpen_EnsureCacheTable(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "cache.db"), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, EnsureCacheTable(db, ""))
	require.True(t, db.Migrator().HasTable(models.DefaultCacheTable))

	require.NoError(t, EnsureCacheTable(db, "other_cache"))
	require.True(t, db.Migrator().HasTable("other_cache"))

	// Running it again is a no-op
	require.NoError(t, EnsureCacheTable(db, ""))
}
