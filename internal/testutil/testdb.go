package testutil

import (
	"simple-cache/internal/database"
	"simple-cache/internal/models"

	"gorm.io/gorm"
)

// NewInMemoryDB creates an in-memory SQLite DB with the cache table in place.
func NewInMemoryDB() (*gorm.DB, error) {
	return NewInMemoryDBWithTable(models.DefaultCacheTable)
}

// NewInMemoryDBWithTable is NewInMemoryDB with a custom cache table name.
func NewInMemoryDBWithTable(table string) (*gorm.DB, error) {
	db, err := database.Open(":memory:", false)
	if err != nil {
		return nil, err
	}
	if err := database.EnsureCacheTable(db, table); err != nil {
		return nil, err
	}
	return db, nil
}
