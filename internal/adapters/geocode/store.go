package geocode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "streetpass:place:"

// Store shares resolved places between processes. An empty place is a
// negative entry.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, place string, ttl time.Duration) error
}

// RedisStore implements Store on Redis strings with expiry.
type RedisStore struct {
	c *redis.Client
}

// NewRedisStore wraps an existing client.
func NewRedisStore(c *redis.Client) *RedisStore { return &RedisStore{c: c} }

// DialRedis connects to addr and pings it.
func DialRedis(ctx context.Context, addr string) (*RedisStore, error) {
	c := redis.NewClient(&redis.Options{Addr: addr})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return NewRedisStore(c), nil
}

// Get returns the stored place or ErrCacheMiss.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.c.Get(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", err
	}
	return val, nil
}

// Set stores place for ttl.
func (s *RedisStore) Set(ctx context.Context, key, place string, ttl time.Duration) error {
	return s.c.Set(ctx, redisKeyPrefix+key, place, ttl).Err()
}

// Close closes the underlying client.
func (s *RedisStore) Close() error { return s.c.Close() }
