package persist

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultRedisPrefix is prepended to every Redis key.
const DefaultRedisPrefix = "storefront:"

// Redis is a Blobs backend on a go-redis client.
// It's suitable for multi-instance deployments that keep carts server-side.
type Redis struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// RedisOption configures Redis behavior.
type RedisOption func(*Redis)

// WithRedisPrefix sets the key prefix.
// Default: "storefront:".
func WithRedisPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		r.prefix = prefix
	}
}

// WithRedisTTL expires keys ttl after their last write. Zero keeps them forever.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		r.ttl = ttl
	}
}

// NewRedis creates a Redis backend.
func NewRedis(client redis.Cmdable, opts ...RedisOption) *Redis {
	r := &Redis{
		client: client,
		prefix: DefaultRedisPrefix,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) key(key string) string {
	return r.prefix + key
}

// Get returns the value stored under key.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Put stores data under key, refreshing the TTL.
func (r *Redis) Put(ctx context.Context, key string, data []byte) error {
	return r.client.Set(ctx, r.key(key), data, r.ttl).Err()
}

// Delete removes key.
func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}
