package storage

import (
	"time"

	"github.com/pkg/errors"

	"github.com/mathhub-edu/mathhub/storage/model"
)

// SessionBackendType selects where per-browser-session values are kept
type SessionBackendType string

const (
	// SessionBackendMemory keeps session values in process memory
	SessionBackendMemory SessionBackendType = "memory"
	// SessionBackendRedis keeps session values in redis
	SessionBackendRedis SessionBackendType = "redis"
)

// SessionConfig configures the session backend
type SessionConfig struct {
	Backend SessionBackendType
	// TTL is the lifetime of a browser session; every write restarts it for
	// the written value
	TTL       time.Duration
	RedisAddr string
	Username  string
	Password  string
	RedisDB   int
}

// LoadSessionBackend creates the session backend for cfg. The returned
// function releases it.
func LoadSessionBackend(cfg SessionConfig) (model.SessionBackend, func() error, error) {
	switch cfg.Backend {
	case SessionBackendMemory, "":
		m := NewMemorySessions(cfg.TTL)
		return m, m.Close, nil
	case SessionBackendRedis:
		r, err := NewRedisSessions(cfg)
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil
	default:
		return nil, nil, errors.Errorf("unsupported session backend '%s'", cfg.Backend)
	}
}

func sessionKey(sid, scope, key string) string {
	return sid + ":" + scope + ":" + key
}
