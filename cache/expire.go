package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ExpireCache is an in-memory Cache with lazy expiry on read, an optional
// background sweep and change notifications.
//
// Listeners are invoked while the cache lock is held so that events for the
// same key are delivered in operation order. A listener must not call back
// into the cache.
type ExpireCache[K comparable, V any] struct {
	mu         sync.Mutex
	entries    map[K]entry[V]
	listeners  map[int]Listener[K, V]
	nextID     int
	defaultTTL time.Duration
	now        func() time.Time

	sweepInterval time.Duration
	closeOnce     sync.Once
	closed        chan struct{}
}

type entry[V any] struct {
	value     V
	expiresAt time.Time // zero: never
}

func (e entry[V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Option configures an ExpireCache.
type Option func(*config) error

type config struct {
	defaultTTL    time.Duration
	sweepInterval time.Duration
	now           func() time.Time
}

// WithDefaultTTL sets the lifetime used by Set when expiresAt is zero.
// Without it such entries never expire.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *config) error {
		if ttl < 0 {
			return errors.New("default TTL cannot be negative")
		}
		c.defaultTTL = ttl
		return nil
	}
}

// WithSweepInterval starts a background goroutine that purges expired
// entries at the given interval. Call Close to stop it.
func WithSweepInterval(interval time.Duration) Option {
	return func(c *config) error {
		if interval <= 0 {
			return errors.New("sweep interval must be positive")
		}
		c.sweepInterval = interval
		return nil
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *config) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		c.now = now
		return nil
	}
}

// NewExpireCache builds an ExpireCache.
func NewExpireCache[K comparable, V any](opts ...Option) (*ExpireCache[K, V], error) {
	cfg := &config{now: time.Now}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	c := &ExpireCache[K, V]{
		entries:       make(map[K]entry[V]),
		listeners:     make(map[int]Listener[K, V]),
		defaultTTL:    cfg.defaultTTL,
		now:           cfg.now,
		sweepInterval: cfg.sweepInterval,
		closed:        make(chan struct{}),
	}
	if c.sweepInterval > 0 {
		go c.sweepLoop()
	}
	return c, nil
}

// Get returns the value for key if present and not expired. An expired
// entry is purged and reported to listeners.
func (c *ExpireCache[K, V]) Get(_ context.Context, key K) (V, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false, nil
	}
	if e.expired(c.now()) {
		delete(c.entries, key)
		c.notifyExpire(key, e.value)
		return zero, false, nil
	}
	return e.value, true, nil
}

// Set stores value under key until expiresAt.
func (c *ExpireCache[K, V]) Set(_ context.Context, key K, value V, expiresAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if expiresAt.IsZero() && c.defaultTTL > 0 {
		expiresAt = c.now().Add(c.defaultTTL)
	}
	c.entries[key] = entry[V]{value: value, expiresAt: expiresAt}
	for _, l := range c.listeners {
		l.OnSet(key, value)
	}
	return nil
}

// Delete removes key and reports whether it was present. No event is
// emitted for explicit deletes.
func (c *ExpireCache[K, V]) Delete(_ context.Context, key K) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	delete(c.entries, key)
	return !e.expired(c.now()), nil
}

// Len returns the number of stored entries, including expired entries that
// have not been purged yet.
func (c *ExpireCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Subscribe registers l and returns a function that removes it.
func (c *ExpireCache[K, V]) Subscribe(l Listener[K, V]) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.listeners[id] = l

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// Sweep purges every expired entry and returns how many were removed.
func (c *ExpireCache[K, V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
			c.notifyExpire(k, e.value)
			removed++
		}
	}
	return removed
}

// Close stops the background sweep, if any. It is safe to call more than once.
func (c *ExpireCache[K, V]) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

// notifyExpire must be called with c.mu held.
func (c *ExpireCache[K, V]) notifyExpire(key K, value V) {
	for _, l := range c.listeners {
		l.OnExpire(key, value)
	}
}

func (c *ExpireCache[K, V]) sweepLoop() {
	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.Sweep()
		case <-c.closed:
			return
		}
	}
}
