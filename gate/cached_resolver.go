package gate

import (
	"context"
	"sync"
	"time"
)

// Resolver loads a value (profile, role flags, ...) for a key.
type Resolver[K comparable, V any] interface {
	Resolve(ctx context.Context, key K) (V, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

// Resolve calls f.
func (f ResolverFunc[K, V]) Resolve(ctx context.Context, key K) (V, error) {
	return f(ctx, key)
}

// CachedResolver wraps a Resolver with TTL-based caching.
// This avoids hitting the database on every authorization check.
// Errors are never cached.
type CachedResolver[K comparable, V any] struct {
	inner Resolver[K, V]
	cache map[K]*cacheEntry[V]
	mu    sync.RWMutex
	ttl   time.Duration

	// expired entries of keys never asked for again are dropped on a miss at most once per ttl
	nextSweep time.Time
}

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// NewCachedResolver wraps a resolver with caching.
// ttl is how long values are cached before re-fetching.
func NewCachedResolver[K comparable, V any](inner Resolver[K, V], ttl time.Duration) *CachedResolver[K, V] {
	return &CachedResolver[K, V]{
		inner: inner,
		cache: make(map[K]*cacheEntry[V]),
		ttl:   ttl,
	}
}

// Resolve returns the value for key, using cache if available.
func (r *CachedResolver[K, V]) Resolve(ctx context.Context, key K) (V, error) {
	r.mu.RLock()
	entry, ok := r.cache[key]
	r.mu.RUnlock()

	if ok {
		if time.Now().Before(entry.expiresAt) {
			return entry.value, nil
		}
		r.mu.Lock()
		if cur, still := r.cache[key]; still && !time.Now().Before(cur.expiresAt) {
			delete(r.cache, key)
		}
		r.mu.Unlock()
	}

	value, err := r.inner.Resolve(ctx, key)
	if err != nil {
		var zero V
		return zero, err
	}

	now := time.Now()
	r.mu.Lock()
	if now.After(r.nextSweep) {
		for k, e := range r.cache {
			if !now.Before(e.expiresAt) {
				delete(r.cache, k)
			}
		}
		r.nextSweep = now.Add(r.ttl)
	}
	r.cache[key] = &cacheEntry[V]{
		value:     value,
		expiresAt: now.Add(r.ttl),
	}
	r.mu.Unlock()

	return value, nil
}

// Invalidate removes a key from the cache.
// Call this when the underlying record changes.
func (r *CachedResolver[K, V]) Invalidate(key K) {
	r.mu.Lock()
	delete(r.cache, key)
	r.mu.Unlock()
}
