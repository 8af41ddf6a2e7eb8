package storage

import (
	"time"

	"github.com/TwiN/gocache/v2"
	"gorm.io/datatypes"

	"github.com/mathhub-edu/mathhub/storage/model"
)

// MemorySessions implements model.SessionBackend in process memory
type MemorySessions struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// NewMemorySessions creates a MemorySessions whose values expire after ttl;
// a ttl <= 0 keeps values for the lifetime of the process.
func NewMemorySessions(ttl time.Duration) *MemorySessions {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	c := gocache.NewCache().WithMaxSize(gocache.NoMaxSize)
	_ = c.StartJanitor()
	return &MemorySessions{
		cache: c,
		ttl:   ttl,
	}
}

// Bind implements model.SessionBackend
func (m *MemorySessions) Bind(sid string) model.KeyValueStore {
	return &memorySession{
		sessions: m,
		sid:      sid,
	}
}

// Close stops the expiry janitor
func (m *MemorySessions) Close() error {
	m.cache.StopJanitor()
	return nil
}

type memorySession struct {
	sessions *MemorySessions
	sid      string
}

func (s *memorySession) Get(scope, key string) (datatypes.JSON, error) {
	v, ok := s.sessions.cache.Get(sessionKey(s.sid, scope, key))
	if !ok {
		return nil, nil
	}
	raw, _ := v.(datatypes.JSON)
	return copyJSON(raw), nil
}

func (s *memorySession) Set(scope, key string, value datatypes.JSON) error {
	s.sessions.cache.SetWithTTL(sessionKey(s.sid, scope, key), copyJSON(value), s.sessions.ttl)
	return nil
}

func (s *memorySession) Delete(scope, key string) error {
	s.sessions.cache.Delete(sessionKey(s.sid, scope, key))
	return nil
}
