package gate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize bounds the number of principals a CachedResolver keeps.
const DefaultCacheSize = 4096

// CachedResolver wraps a ProfileResolver with a bounded TTL cache so that
// authorization checks do not hit the database on every request. Concurrent
// misses for the same principal share one lookup.
type CachedResolver[U comparable] struct {
	inner ProfileResolver[U]
	cache *expirable.LRU[U, Profile]
	group singleflight.Group
	// gen is bumped by every invalidation under mu. A load that started
	// under an older generation is returned to its callers but never cached.
	mu  sync.Mutex
	gen uint64
}

// NewCachedResolver caches profiles from inner for ttl.
func NewCachedResolver[U comparable](inner ProfileResolver[U], ttl time.Duration) *CachedResolver[U] {
	return NewCachedResolverSize(inner, ttl, DefaultCacheSize)
}

// NewCachedResolverSize is NewCachedResolver with an explicit capacity.
func NewCachedResolverSize[U comparable](inner ProfileResolver[U], ttl time.Duration, size int) *CachedResolver[U] {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &CachedResolver[U]{
		inner: inner,
		cache: expirable.NewLRU[U, Profile](size, nil, ttl),
	}
}

// Resolve returns the cached profile for user, fetching it on a miss.
// Errors are not cached. The shared lookup is detached from the caller's
// cancellation so one aborted request does not fail the others waiting on
// it; each caller still returns early when its own ctx is done.
func (r *CachedResolver[U]) Resolve(ctx context.Context, user U) (Profile, error) {
	if p, ok := r.cache.Get(user); ok {
		return p, nil
	}
	gen := r.generation()
	key := fmt.Sprintf("%d:%v", gen, user)
	ch := r.group.DoChan(key, func() (any, error) {
		p, err := r.inner.Resolve(context.WithoutCancel(ctx), user)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		if r.gen == gen {
			r.cache.Add(user, p)
		}
		r.mu.Unlock()
		return p, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		p, _ := res.Val.(Profile)
		return p, nil
	}
}

func (r *CachedResolver[U]) generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen
}

// Invalidate drops user from the cache. Call it when the user's profile
// assignment changes.
func (r *CachedResolver[U]) Invalidate(user U) {
	r.mu.Lock()
	r.gen++
	r.cache.Remove(user)
	r.mu.Unlock()
}

// InvalidateAll empties the cache. Call it when profile permissions change.
func (r *CachedResolver[U]) InvalidateAll() {
	r.mu.Lock()
	r.gen++
	r.cache.Purge()
	r.mu.Unlock()
}

// Len returns the number of cached principals.
func (r *CachedResolver[U]) Len() int {
	return r.cache.Len()
}
