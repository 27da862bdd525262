package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests move time by hand.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestLimiter(t *testing.T, rate float64, burst int) (*MemoryLimiter, *fakeClock) {
	t.Helper()
	m := NewMemoryLimiter(rate, burst)
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	m.mu.Lock()
	m.now = clock.now
	m.mu.Unlock()
	t.Cleanup(func() { require.NoError(t, m.Close()) })
	return m, clock
}

func allow(t *testing.T, m *MemoryLimiter, key string) bool {
	t.Helper()
	ok, err := m.Allow(context.Background(), key)
	require.NoError(t, err)
	return ok
}

func TestMemoryLimiter_BurstThenDeny(t *testing.T) {
	m, _ := newTestLimiter(t, 10, 3)
	for i := range 3 {
		assert.True(t, allow(t, m, "k1"), "request %d within burst", i)
	}
	assert.False(t, allow(t, m, "k1"))
}

func TestMemoryLimiter_Refill(t *testing.T) {
	m, clock := newTestLimiter(t, 2, 2)
	allow(t, m, "k1")
	allow(t, m, "k1")
	assert.False(t, allow(t, m, "k1"))

	clock.advance(500 * time.Millisecond)
	assert.True(t, allow(t, m, "k1"))
	assert.False(t, allow(t, m, "k1"))

	clock.advance(time.Hour)
	assert.True(t, allow(t, m, "k1"))
	assert.True(t, allow(t, m, "k1"))
	assert.False(t, allow(t, m, "k1"), "refill is capped at burst")
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	m, _ := newTestLimiter(t, 1, 1)
	assert.True(t, allow(t, m, "a"))
	assert.False(t, allow(t, m, "a"))
	assert.True(t, allow(t, m, "b"))
	assert.Equal(t, 2, m.Len())
}

func TestMemoryLimiter_EvictsStale(t *testing.T) {
	m, clock := newTestLimiter(t, 1, 1)
	allow(t, m, "old")
	clock.advance(staleThreshold + time.Second)
	allow(t, m, "fresh")

	m.evictStale()
	assert.Equal(t, 1, m.Len())
}

func TestMemoryLimiter_RetryAfter(t *testing.T) {
	m, _ := newTestLimiter(t, 4, 1)
	assert.Equal(t, 250*time.Millisecond, m.RetryAfter())
}

func TestMemoryLimiter_CloseTwice(t *testing.T) {
	m := NewMemoryLimiter(1, 1)
	assert.NoError(t, m.Close())
	assert.NoError(t, m.Close())
}

func TestNoopLimiter(t *testing.T) {
	var l Limiter = NoopLimiter{}
	ok, err := l.Allow(context.Background(), "any")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, l.Close())
}
