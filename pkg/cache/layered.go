package cache

import (
	"context"
	"time"
)

// LayeredCache implements a two-level cache: a process-local L1 in front of a shared L2.
type LayeredCache struct {
	l1    Store
	l2    Store
	l1TTL time.Duration
}

// NewLayeredCache creates a layered cache. l1TTL bounds how long an L2 hit is
// remembered locally; zero means "same TTL as writes".
func NewLayeredCache(l1, l2 Store, l1TTL time.Duration) *LayeredCache {
	return &LayeredCache{l1: l1, l2: l2, l1TTL: l1TTL}
}

func (lc *LayeredCache) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	// Write-through: shared layer first so other instances see it.
	if err := lc.l2.SetBytes(ctx, key, value, ttl); err != nil {
		return err
	}
	_ = lc.l1.SetBytes(ctx, key, value, lc.localTTL(ttl))
	return nil
}

func (lc *LayeredCache) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	if b, ok, err := lc.l1.GetBytes(ctx, key); err == nil && ok {
		return b, true, nil
	}

	b, ok, err := lc.l2.GetBytes(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}

	_ = lc.l1.SetBytes(ctx, key, b, lc.localTTL(0))
	return b, true, nil
}

func (lc *LayeredCache) localTTL(ttl time.Duration) time.Duration {
	if lc.l1TTL > 0 && (ttl <= 0 || lc.l1TTL < ttl) {
		return lc.l1TTL
	}
	return ttl
}

// Close closes both cache layers.
func (lc *LayeredCache) Close() error {
	_ = lc.l1.Close()
	return lc.l2.Close()
}

var _ Store = (*LayeredCache)(nil)
