package cache

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	value    []byte
	expireAt time.Time
	access   time.Time
}

// MemoryCache implements Store in process memory with TTL expiry and LRU eviction.
type MemoryCache struct {
	data    map[string]*memoryItem
	mutex   sync.Mutex
	maxSize int
	now     func() time.Time
	ticker  *time.Ticker
	done    chan struct{}
	once    sync.Once
}

// NewMemoryCache creates an in-memory cache.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxSize:         1000,
		CleanupInterval: time.Minute,
		Now:             time.Now,
	}

	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 1
	}

	mc := &MemoryCache{
		data:    make(map[string]*memoryItem),
		maxSize: cfg.MaxSize,
		now:     cfg.Now,
		ticker:  time.NewTicker(cfg.CleanupInterval),
		done:    make(chan struct{}),
	}

	go mc.cleanupExpired()
	return mc
}

func (mc *MemoryCache) GetBytes(_ context.Context, key string) ([]byte, bool, error) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	item, exists := mc.data[key]
	if !exists {
		return nil, false, nil
	}
	now := mc.now()
	if !now.Before(item.expireAt) {
		delete(mc.data, key)
		return nil, false, nil
	}
	item.access = now
	return item.value, true, nil
}

func (mc *MemoryCache) SetBytes(_ context.Context, key string, value []byte, ttl time.Duration) error {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	if _, exists := mc.data[key]; !exists && len(mc.data) >= mc.maxSize {
		mc.evictLRU()
	}

	now := mc.now()
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	buf := make([]byte, len(value))
	copy(buf, value)

	mc.data[key] = &memoryItem{value: buf, expireAt: now.Add(ttl), access: now}
	return nil
}

// Len reports the number of stored entries, expired or not.
func (mc *MemoryCache) Len() int {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()
	return len(mc.data)
}

// evictLRU must be called with the mutex held.
func (mc *MemoryCache) evictLRU() {
	var (
		oldestKey  string
		oldestTime time.Time
		first      = true
	)
	for key, item := range mc.data {
		if first || item.access.Before(oldestTime) {
			oldestKey, oldestTime, first = key, item.access, false
		}
	}
	if !first {
		delete(mc.data, oldestKey)
	}
}

func (mc *MemoryCache) cleanupExpired() {
	for {
		select {
		case <-mc.done:
			return
		case <-mc.ticker.C:
			mc.mutex.Lock()
			now := mc.now()
			for key, item := range mc.data {
				if !now.Before(item.expireAt) {
					delete(mc.data, key)
				}
			}
			mc.mutex.Unlock()
		}
	}
}

// Close stops the cleanup loop.
func (mc *MemoryCache) Close() error {
	mc.once.Do(func() {
		mc.ticker.Stop()
		close(mc.done)
	})
	return nil
}

var _ Store = (*MemoryCache)(nil)
