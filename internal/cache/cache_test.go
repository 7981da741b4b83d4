package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_FreshAndExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := New[float64](time.Hour, 10)
	c.SetNowFunc(func() time.Time { return now })

	c.Put("AAPL", 191.23)

	v, ok := c.Get("AAPL")
	require.True(t, ok)
	assert.Equal(t, 191.23, v)

	// Advance past the TTL: Get misses, GetStale still serves
	now = now.Add(2 * time.Hour)

	_, ok = c.Get("AAPL")
	assert.False(t, ok, "expired entry must not be fresh")

	stale, observedAt, ok := c.GetStale("AAPL")
	require.True(t, ok)
	assert.Equal(t, 191.23, stale)
	assert.Equal(t, now.Add(-2*time.Hour), observedAt)
}

func TestGet_Miss(t *testing.T) {
	c := New[float64](time.Hour, 10)

	_, ok := c.Get("MSFT")
	assert.False(t, ok)

	_, _, ok = c.GetStale("MSFT")
	assert.False(t, ok)
}

func TestPut_LastWriteWins(t *testing.T) {
	c := New[float64](time.Hour, 10)

	c.Put("AAPL", 190.00)
	c.Put("AAPL", 191.23)
	c.Put("AAPL", 191.23)

	v, ok := c.Get("AAPL")
	require.True(t, ok)
	assert.Equal(t, 191.23, v)
	assert.Equal(t, 1, c.Len(), "repeated writes must not duplicate entries")
}

func TestEviction_DropsOldestTwentyPercent(t *testing.T) {
	const maxSize = 100
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := New[int](24*time.Hour, maxSize)
	c.SetNowFunc(func() time.Time { return now })

	// Insertion order == age order: SYM0 is the oldest
	for i := 0; i <= maxSize; i++ {
		c.PutAt(fmt.Sprintf("SYM%d", i), i, now.Add(time.Duration(i)*time.Second))
	}

	assert.Equal(t, maxSize*8/10, c.Len(), "cache should shrink to 80 percent of capacity")

	// The survivors are the newest entries
	_, ok := c.Get("SYM0")
	assert.False(t, ok, "oldest entry should have been evicted")
	_, ok = c.Get(fmt.Sprintf("SYM%d", maxSize))
	assert.True(t, ok, "newest entry should survive eviction")
}

func TestSnapshotAndClear(t *testing.T) {
	c := New[float64](time.Hour, 10)
	c.Put("AAPL", 191.23)
	c.Put("MSFT", 415.50)

	snap := c.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, 191.23, snap["AAPL"].Value)

	c.Clear()
	assert.Equal(t, 0, c.Len())

	// Snapshot is a copy, unaffected by Clear
	assert.Len(t, snap, 2)
}

func TestNoCapacityBound(t *testing.T) {
	c := New[int](time.Hour, 0)
	for i := 0; i < 500; i++ {
		c.Put(fmt.Sprintf("SYM%d", i), i)
	}
	assert.Equal(t, 500, c.Len())
}
