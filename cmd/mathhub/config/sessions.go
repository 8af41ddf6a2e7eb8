package config

import (
	"time"

	"github.com/pkg/errors"
	"github.com/zachmann/go-utils/duration"

	"github.com/mathhub-edu/mathhub/storage"
)

// sessionsConf configures where per-browser-session values live.
//
// YAML example:
//
//	sessions:
//	  backend: redis
//	  ttl: 12h
//	  redis_addr: localhost:6379
type sessionsConf struct {
	Backend   storage.SessionBackendType `yaml:"backend"`
	TTL       duration.DurationOption    `yaml:"ttl"`
	RedisAddr string                     `yaml:"redis_addr"`
	Username  string                     `yaml:"username"`
	Password  string                     `yaml:"password"`
	RedisDB   int                        `yaml:"redis_db"`
	// CookieName names the cookie carrying the session id
	CookieName string `yaml:"cookie_name"`
	// SecureCookie restricts the session cookie to https
	SecureCookie bool `yaml:"secure_cookie"`
	// VisitorIdle drops the page state of a visitor after this long without
	// requests
	VisitorIdle duration.DurationOption `yaml:"visitor_idle"`
}

var defaultSessionsConf = sessionsConf{
	Backend:     storage.SessionBackendMemory,
	TTL:         duration.DurationOption(12 * time.Hour),
	CookieName:  "mh_sid",
	VisitorIdle: duration.DurationOption(2 * time.Hour),
}

func (c *sessionsConf) validate() error {
	switch c.Backend {
	case storage.SessionBackendMemory:
	case storage.SessionBackendRedis:
		if c.RedisAddr == "" {
			return errors.New("error in sessions conf: redis_addr must be specified for the redis backend")
		}
	default:
		return errors.Errorf("error in sessions conf: unknown backend '%s'", c.Backend)
	}
	if c.CookieName == "" {
		return errors.New("error in sessions conf: cookie_name must not be empty")
	}
	return nil
}

func (c sessionsConf) storageConfig() storage.SessionConfig {
	return storage.SessionConfig{
		Backend:   c.Backend,
		TTL:       c.TTL.Duration(),
		RedisAddr: c.RedisAddr,
		Username:  c.Username,
		Password:  c.Password,
		RedisDB:   c.RedisDB,
	}
}
