package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"

	"github.com/mathhub-edu/mathhub/storage/model"
)

const redisSessionPrefix = "mathhub:session:"

const redisTimeout = 3 * time.Second

// RedisSessions implements model.SessionBackend on redis
type RedisSessions struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessions connects to the redis server configured in cfg
func NewRedisSessions(cfg SessionConfig) (*RedisSessions, error) {
	client := redis.NewClient(
		&redis.Options{
			Addr:     cfg.RedisAddr,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.RedisDB,
		},
	)
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "could not connect to redis")
	}
	return NewRedisSessionsFromClient(client, cfg.TTL), nil
}

// NewRedisSessionsFromClient uses an existing redis client
func NewRedisSessionsFromClient(client *redis.Client, ttl time.Duration) *RedisSessions {
	return &RedisSessions{
		client: client,
		ttl:    ttl,
	}
}

// Bind implements model.SessionBackend
func (r *RedisSessions) Bind(sid string) model.KeyValueStore {
	return &redisSession{
		sessions: r,
		sid:      sid,
	}
}

// Close closes the redis client
func (r *RedisSessions) Close() error {
	return r.client.Close()
}

type redisSession struct {
	sessions *RedisSessions
	sid      string
}

func (s *redisSession) key(scope, key string) string {
	return redisSessionPrefix + sessionKey(s.sid, scope, key)
}

func (s *redisSession) Get(scope, key string) (datatypes.JSON, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	raw, err := s.sessions.client.Get(ctx, s.key(scope, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (s *redisSession) Set(scope, key string, value datatypes.JSON) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	return s.sessions.client.Set(ctx, s.key(scope, key), []byte(value), s.sessions.ttl).Err()
}

func (s *redisSession) Delete(scope, key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	return s.sessions.client.Del(ctx, s.key(scope, key)).Err()
}
