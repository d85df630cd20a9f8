// Package rediscache implements cache.Cache on top of Redis so that several
// processes can share discovery metadata and verification results.
//
// Values are stored as JSON. Expiry is delegated to Redis, so this backend
// does not publish change notifications.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "jwtmanager"

// Cache is a Redis-backed cache.Cache[string, V].
type Cache[V any] struct {
	client     redis.Cmdable
	keyPrefix  string
	defaultTTL time.Duration
	now        func() time.Time
}

// Option configures a Cache.
type Option func(*options) error

type options struct {
	keyPrefix  string
	defaultTTL time.Duration
	now        func() time.Time
}

// WithKeyPrefix namespaces every key as "<prefix>:<key>". An empty prefix
// stores keys as given.
func WithKeyPrefix(prefix string) Option {
	return func(o *options) error {
		o.keyPrefix = prefix
		return nil
	}
}

// WithDefaultTTL sets the lifetime used by Set when expiresAt is zero.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(o *options) error {
		if ttl < 0 {
			return errors.New("default TTL cannot be negative")
		}
		o.defaultTTL = ttl
		return nil
	}
}

// WithClock overrides the time source used to turn expiresAt into a TTL.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		o.now = now
		return nil
	}
}

// New wraps an existing client.
func New[V any](client redis.Cmdable, opts ...Option) (*Cache[V], error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	o := &options{keyPrefix: defaultKeyPrefix, now: time.Now}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	return &Cache[V]{
		client:     client,
		keyPrefix:  o.keyPrefix,
		defaultTTL: o.defaultTTL,
		now:        o.now,
	}, nil
}

// NewFromURL connects using a redis:// URL.
func NewFromURL[V any](url string, opts ...Option) (*Cache[V], error) {
	o, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return New[V](redis.NewClient(o), opts...)
}

func (c *Cache[V]) key(k string) string {
	if c.keyPrefix == "" {
		return k
	}
	return c.keyPrefix + ":" + k
}

// Get returns the value stored under key.
func (c *Cache[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("redis get %q: %w", key, err)
	}

	var v V
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, false, fmt.Errorf("decoding cached value %q: %w", key, err)
	}
	return v, true, nil
}

// Set stores value until expiresAt. A value whose expiry has already passed
// is removed instead of stored.
func (c *Cache[V]) Set(ctx context.Context, key string, value V, expiresAt time.Time) error {
	var ttl time.Duration
	switch {
	case expiresAt.IsZero():
		ttl = c.defaultTTL
	default:
		ttl = expiresAt.Sub(c.now())
		if ttl <= 0 {
			return c.client.Del(ctx, c.key(key)).Err()
		}
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding cached value %q: %w", key, err)
	}
	if err := c.client.Set(ctx, c.key(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

// Delete removes key and reports whether it existed.
func (c *Cache[V]) Delete(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Del(ctx, c.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis del %q: %w", key, err)
	}
	return n > 0, nil
}
