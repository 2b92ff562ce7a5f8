package models

// DefaultCacheTable is the table the relational cache driver uses unless told
// otherwise.
const DefaultCacheTable = "cache"

// CacheEntry represents one row of the cache table
type CacheEntry struct {
	Key       string `gorm:"column:key;primaryKey;size:1024"`
	Value     string `gorm:"column:value;type:text"`
	ExpiresAt uint64 `gorm:"column:expiresAt;not null"`
}

// TableName specifies the default table name for CacheEntry Model
func (CacheEntry) TableName() string {
	return DefaultCacheTable
}
