package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// memoryItem stores a serialized value with its expiration and base TTL.
type memoryItem struct {
	data     []byte
	expireAt time.Time
	baseTTL  time.Duration
}

func (m *memoryItem) isExpired(now time.Time) bool {
	return now.After(m.expireAt)
}

// keyStats tracks per-key access history for hot-key promotion. Stats survive
// expiry so a key that keeps being asked for stays recognized as hot.
type keyStats struct {
	hits  int64
	total int64
}

func (s *keyStats) ratio() float64 {
	if s.total == 0 {
		return 0
	}
	return float64(s.hits) / float64(s.total)
}

// MemoryCache implements Service with an in-memory store, LRU eviction and
// hot-key promotion: once a key's hit ratio passes the threshold after a
// minimum number of accesses, subsequent Sets get double the requested TTL.
type MemoryCache struct {
	mutex         sync.Mutex
	data          map[string]*memoryItem
	access        map[string]time.Time
	stats         map[string]*keyStats
	hits          int64
	misses        int64
	maxSize       int
	hotRatio      float64
	hotMinAccess  int64
	cleanupTicker *time.Ticker
	done          chan struct{}
}

// NewMemoryCache creates an in-memory cache.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxSize:         10000,
		CleanupInterval: time.Minute,
		HotKeyRatio:     0.8,
		HotKeyMinAccess: 10,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	mc := &MemoryCache{
		data:          make(map[string]*memoryItem),
		access:        make(map[string]time.Time),
		stats:         make(map[string]*keyStats),
		maxSize:       cfg.MaxSize,
		hotRatio:      cfg.HotKeyRatio,
		hotMinAccess:  cfg.HotKeyMinAccess,
		cleanupTicker: time.NewTicker(cfg.CleanupInterval),
		done:          make(chan struct{}),
	}

	go mc.cleanupExpired()
	return mc
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := marshalValue(value)
	if err != nil {
		return err
	}

	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	if _, exists := mc.data[key]; !exists && len(mc.data) >= mc.maxSize {
		mc.evictLRU()
	}

	if expiration <= 0 {
		expiration = time.Minute
	}
	if mc.isHotLocked(key) {
		expiration *= 2
	}

	now := time.Now()
	mc.data[key] = &memoryItem{
		data:     data,
		expireAt: now.Add(expiration),
		baseTTL:  expiration,
	}
	mc.access[key] = now
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	now := time.Now()
	st := mc.statsLocked(key)
	st.total++

	item, exists := mc.data[key]
	if !exists || item.isExpired(now) {
		if exists {
			delete(mc.data, key)
			delete(mc.access, key)
		}
		mc.misses++
		return ErrCacheMiss
	}

	st.hits++
	mc.hits++
	mc.access[key] = now
	return unmarshalValue(item.data, dest)
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	for _, key := range keys {
		mc.removeLocked(key)
	}
	return nil
}

// DeleteByPattern removes every key containing pattern as a substring. It is
// the cycle-commit invalidation hook, so it also clears the keys' hot state.
func (mc *MemoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	for key := range mc.data {
		if strings.Contains(key, pattern) {
			mc.removeLocked(key)
		}
	}
	return nil
}

func (mc *MemoryCache) Exists(_ context.Context, keys ...string) (bool, error) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	now := time.Now()
	for _, key := range keys {
		if item, ok := mc.data[key]; ok && !item.isExpired(now) {
			return true, nil
		}
	}
	return false, nil
}

func (mc *MemoryCache) Stats() Stats {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	hot := 0
	for key := range mc.stats {
		if mc.isHotLocked(key) {
			hot++
		}
	}
	return Stats{Hits: mc.hits, Misses: mc.misses, Size: len(mc.data), HotKeys: hot}
}

func (mc *MemoryCache) isHotLocked(key string) bool {
	st, ok := mc.stats[key]
	return ok && st.total >= mc.hotMinAccess && st.ratio() >= mc.hotRatio
}

func (mc *MemoryCache) statsLocked(key string) *keyStats {
	st, ok := mc.stats[key]
	if !ok {
		st = &keyStats{}
		mc.stats[key] = st
	}
	return st
}

func (mc *MemoryCache) removeLocked(key string) {
	delete(mc.data, key)
	delete(mc.access, key)
	delete(mc.stats, key)
}

func (mc *MemoryCache) evictLRU() {
	var oldestKey string
	var oldestTime time.Time
	first := true

	for key, accessTime := range mc.access {
		if first || accessTime.Before(oldestTime) {
			oldestTime = accessTime
			oldestKey = key
			first = false
		}
	}
	if oldestKey != "" {
		mc.removeLocked(oldestKey)
	}
}

func (mc *MemoryCache) cleanupExpired() {
	for {
		select {
		case <-mc.done:
			return
		case <-mc.cleanupTicker.C:
		}

		mc.mutex.Lock()
		now := time.Now()
		for key, item := range mc.data {
			if item.isExpired(now) {
				delete(mc.data, key)
				delete(mc.access, key)
			}
		}
		mc.mutex.Unlock()
	}
}

// Close stops the cleanup goroutine.
func (mc *MemoryCache) Close() error {
	mc.cleanupTicker.Stop()
	close(mc.done)
	return nil
}

func marshalValue(value interface{}) ([]byte, error) {
	if s, ok := value.(string); ok {
		return []byte(s), nil
	}
	return json.Marshal(value)
}

func unmarshalValue(data []byte, dest interface{}) error {
	if strPtr, ok := dest.(*string); ok {
		*strPtr = string(data)
		return nil
	}
	return json.Unmarshal(data, dest)
}
