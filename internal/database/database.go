package database

import (
	"simple-cache/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open opens a SQLite database file (created if it doesn't exist).
// Using glebarez/sqlite which is a pure Go implementation (no CGO required)
func Open(path string, debug bool) (*gorm.DB, error) {
	mode := logger.Silent
	if debug {
		mode = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(mode),
	})
	if err != nil {
		return nil, err
	}

	// A single connection keeps ":memory:" databases from splitting per connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

// EnsureCacheTable creates the cache table if it does not exist yet.
// The cache driver itself never creates tables.
func EnsureCacheTable(db *gorm.DB, table string) error {
	if table == "" {
		table = models.DefaultCacheTable
	}
	return db.Table(table).AutoMigrate(&models.CacheEntry{})
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
