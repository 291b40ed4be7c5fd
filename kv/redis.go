package kv

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisOptions configures a RedisStore. Namespace prefixes every key so
// the flow engine's idempotency and rate-limit keys can share a Redis
// instance with unrelated tenants without colliding, and DB selects a
// logical database number (0-15) for the same reason at the connection
// level.
type RedisOptions struct {
	URL       string
	DB        int
	Namespace string
}

// RedisStore is a Store backed by Redis, isolated by both DB number and
// key namespace.
type RedisStore struct {
	client    *redis.Client
	namespace string
}

// NewRedisStore parses opts.URL, opens a pooled client against opts.DB
// (a negative DB keeps the database named in the URL), and verifies
// connectivity with a Ping.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	parsed, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("kv: parse redis url: %w", err)
	}
	if opts.DB >= 0 {
		parsed.DB = opts.DB
	}

	client := redis.NewClient(parsed)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("kv: redis ping: %w", err)
	}

	return &RedisStore{client: client, namespace: opts.Namespace}, nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(k string) string {
	if s.namespace == "" {
		return k
	}
	return s.namespace + ":" + k
}

func (s *RedisStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.key(key), value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("kv: setnx: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("kv: set: %w", err)
	}
	return nil
}

func (s *RedisStore) SetKeepTTL(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("kv: set keepttl: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kv: get: %w", err)
	}
	return v, true, nil
}

func (s *RedisStore) Incr(ctx context.Context, key string) (int64, error) {
	n, err := s.client.Incr(ctx, s.key(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("kv: incr: %w", err)
	}
	return n, nil
}

func (s *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.client.Expire(ctx, s.key(key), ttl).Err(); err != nil {
		return fmt.Errorf("kv: expire: %w", err)
	}
	return nil
}
