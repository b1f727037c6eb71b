package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Service defines cache operations interface.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	// DeleteByPattern removes every key containing pattern as a substring.
	DeleteByPattern(ctx context.Context, pattern string) error
	Exists(ctx context.Context, keys ...string) (bool, error)
	Stats() Stats
	Close() error
}

// Stats is a point-in-time counter snapshot of one cache backend.
type Stats struct {
	Hits    int64
	Misses  int64
	Size    int
	HotKeys int
}

// HitRatio returns hits/(hits+misses), 0 when the cache is untouched.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// GetOrCompute returns the cached value for key, or runs compute exactly once
// and caches its result for ttl. The bool reports whether the value came from
// the cache. A compute error is returned to the caller and nothing is cached.
func GetOrCompute[T any](ctx context.Context, c Service, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, bool, error) {
	var cached T
	if err := c.Get(ctx, key, &cached); err == nil {
		return cached, true, nil
	}

	value, err := compute(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}
	if err := c.Set(ctx, key, value, ttl); err != nil {
		// A store failure degrades to uncached operation, not a query failure.
		return value, false, nil
	}
	return value, false, nil
}
