package storage

import (
	"github.com/TwiN/gocache/v2"
	"gorm.io/datatypes"
)

// MemoryStorage implements model.KeyValueStore in memory. Entries never
// expire.
type MemoryStorage struct {
	cache *gocache.Cache
}

// NewMemoryStorage creates an empty MemoryStorage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		cache: gocache.NewCache().WithMaxSize(gocache.NoMaxSize),
	}
}

func memoryKey(scope, key string) string {
	return scope + ":" + key
}

// Get returns the JSON value for a (scope, key). If not found, returns nil, nil.
func (m *MemoryStorage) Get(scope, key string) (datatypes.JSON, error) {
	v, ok := m.cache.Get(memoryKey(scope, key))
	if !ok {
		return nil, nil
	}
	raw, _ := v.(datatypes.JSON)
	return copyJSON(raw), nil
}

// Set stores/replaces the value for a (scope, key).
func (m *MemoryStorage) Set(scope, key string, value datatypes.JSON) error {
	m.cache.Set(memoryKey(scope, key), copyJSON(value))
	return nil
}

// Delete removes a (scope, key) pair.
func (m *MemoryStorage) Delete(scope, key string) error {
	m.cache.Delete(memoryKey(scope, key))
	return nil
}
