package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestMemoryCacheExpiresAfterTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	mc := NewMemoryCache(WithMemoryClock(clock.Now), WithMemoryCleanup(time.Hour))
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.SetBytes(ctx, "/api/snapshot", []byte(`{"a":1}`), 3*time.Minute))

	b, ok, err := mc.GetBytes(ctx, "/api/snapshot")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(b))

	clock.Advance(3*time.Minute - time.Second)
	_, ok, _ = mc.GetBytes(ctx, "/api/snapshot")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok, _ = mc.GetBytes(ctx, "/api/snapshot")
	assert.False(t, ok)
	assert.Equal(t, 0, mc.Len())
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	mc := NewMemoryCache(WithMemoryClock(clock.Now), WithMemoryMaxSize(2), WithMemoryCleanup(time.Hour))
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.SetBytes(ctx, "a", []byte("1"), time.Minute))
	clock.Advance(time.Second)
	require.NoError(t, mc.SetBytes(ctx, "b", []byte("2"), time.Minute))
	clock.Advance(time.Second)
	_, _, _ = mc.GetBytes(ctx, "a")
	clock.Advance(time.Second)
	require.NoError(t, mc.SetBytes(ctx, "c", []byte("3"), time.Minute))

	_, okA, _ := mc.GetBytes(ctx, "a")
	_, okB, _ := mc.GetBytes(ctx, "b")
	_, okC, _ := mc.GetBytes(ctx, "c")
	assert.True(t, okA)
	assert.False(t, okB)
	assert.True(t, okC)
}

func TestMemoryCacheCopiesValue(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	buf := []byte("abc")
	require.NoError(t, mc.SetBytes(ctx, "k", buf, time.Minute))
	buf[0] = 'z'

	b, ok, _ := mc.GetBytes(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "abc", string(b))
}

func TestLayeredCacheBackfillsLocal(t *testing.T) {
	ctx := context.Background()
	l1 := NewMemoryCache()
	l2 := NewMemoryCache()
	lc := NewLayeredCache(l1, l2, 30*time.Second)
	defer lc.Close()

	require.NoError(t, l2.SetBytes(ctx, "k", []byte("shared"), time.Minute))

	b, ok, err := lc.GetBytes(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "shared", string(b))

	b, ok, _ = l1.GetBytes(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "shared", string(b))
}

func TestLayeredCacheWritesThrough(t *testing.T) {
	ctx := context.Background()
	l1 := NewMemoryCache()
	l2 := NewMemoryCache()
	lc := NewLayeredCache(l1, l2, 0)
	defer lc.Close()

	require.NoError(t, lc.SetBytes(ctx, "k", []byte("v"), time.Minute))
	_, ok1, _ := l1.GetBytes(ctx, "k")
	_, ok2, _ := l2.GetBytes(ctx, "k")
	assert.True(t, ok1)
	assert.True(t, ok2)
}
