package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestCache(ttl time.Duration) (*Cache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return New(ttl, WithClock(clock.Now)), clock
}

func TestCache_SetAndGet(t *testing.T) {
	c, _ := newTestCache(time.Minute)

	c.Set("x", 42, 0)
	v, ok := c.Get("x")

	assert.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestCache_GetMissing(t *testing.T) {
	c, _ := newTestCache(time.Minute)

	v, ok := c.Get("nope")

	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestCache_ExpiresAfterTTL(t *testing.T) {
	c, clock := newTestCache(time.Minute)

	c.Set("x", 42, 1000*time.Millisecond)

	v, ok := c.Get("x")
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	clock.Advance(1000 * time.Millisecond)
	assert.True(t, c.Has("x"), "entry is still fresh at exactly its ttl")

	clock.Advance(1 * time.Millisecond)
	v, ok = c.Get("x")
	assert.False(t, ok)
	assert.Nil(t, v)
	assert.Equal(t, 0, c.Len(), "expired entry is evicted on access")
}

func TestCache_DefaultTTL(t *testing.T) {
	c, clock := newTestCache(2 * time.Second)

	c.Set("x", "v", 0)
	clock.Advance(2 * time.Second)
	assert.True(t, c.Has("x"))

	clock.Advance(time.Millisecond)
	assert.False(t, c.Has("x"))
}

func TestCache_HasEvictsExpired(t *testing.T) {
	c, clock := newTestCache(time.Second)

	c.Set("x", 1, 0)
	clock.Advance(2 * time.Second)

	assert.Equal(t, 1, c.Len())
	assert.False(t, c.Has("x"))
	assert.Equal(t, 0, c.Len())
}

func TestCache_ClearPattern(t *testing.T) {
	c, _ := newTestCache(time.Minute)

	c.Set("orders:shop-a:page=1", 1, 0)
	c.Set("orders:shop-a:page=2", 2, 0)
	c.Set("orders:shop-b:page=1", 3, 0)
	c.Set("stats:shop-a", 4, 0)

	removed := c.Clear("orders:shop-a")

	assert.Equal(t, 2, removed)
	assert.False(t, c.Has("orders:shop-a:page=1"))
	assert.False(t, c.Has("orders:shop-a:page=2"))
	assert.True(t, c.Has("orders:shop-b:page=1"))
	assert.True(t, c.Has("stats:shop-a"))
}

func TestCache_ClearAll(t *testing.T) {
	c, _ := newTestCache(time.Minute)

	c.Set("a", 1, 0)
	c.Set("b", 2, 0)

	assert.Equal(t, 2, c.Clear(""))
	assert.Equal(t, 0, c.Len())
}

func TestGetAs(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	c.Set("n", 7, 0)

	n, ok := GetAs[int](c, "n")
	assert.True(t, ok)
	assert.Equal(t, 7, n)

	_, ok = GetAs[string](c, "n")
	assert.False(t, ok)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Set("k", i, 0)
			c.Get("k")
			c.Clear("nothing")
		}(i)
	}
	wg.Wait()

	assert.True(t, c.Has("k"))
}
