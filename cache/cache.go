// Package cache provides the expiring key/value cache used for verified
// tokens and OpenID discovery metadata, along with the contracts that let a
// different backend (for example Redis) be plugged in.
package cache

import (
	"context"
	"time"
)

// Cache is a key/value store with per-entry absolute expiry.
//
// An entry is logically absent once now >= expiresAt, whether or not it has
// been purged yet. A zero expiresAt means the implementation default.
type Cache[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, bool, error)
	Set(ctx context.Context, key K, value V, expiresAt time.Time) error
	Delete(ctx context.Context, key K) (bool, error)
}

// Listener receives change notifications from a Notifier.
type Listener[K comparable, V any] interface {
	// OnSet is called after a successful Set.
	OnSet(key K, value V)
	// OnExpire is called when an entry is purged because it expired.
	OnExpire(key K, value V)
}

// Notifier is implemented by caches that publish change notifications.
type Notifier[K comparable, V any] interface {
	Subscribe(l Listener[K, V]) (unsubscribe func())
}

// ListenerFuncs adapts a pair of functions to the Listener interface.
// Either function may be nil.
type ListenerFuncs[K comparable, V any] struct {
	Set    func(key K, value V)
	Expire func(key K, value V)
}

func (f ListenerFuncs[K, V]) OnSet(key K, value V) {
	if f.Set != nil {
		f.Set(key, value)
	}
}

func (f ListenerFuncs[K, V]) OnExpire(key K, value V) {
	if f.Expire != nil {
		f.Expire(key, value)
	}
}
