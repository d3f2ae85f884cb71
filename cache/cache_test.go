package cache

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Krishna8167/tempusutil/xerrors"
)

func TestLRUEvictionScenario(t *testing.T) {
	// Specification §8 concrete scenario 1.
	c := New[int, string](WithCapacity[int, string](5), WithEviction[int, string](LRU))

	c.Insert(1, "eka")
	c.Insert(2, "toka")
	c.Insert(3, "kolmas")
	c.Insert(4, "neljas")
	c.Insert(5, "viides")

	for _, k := range []int{4, 3, 2, 1} {
		_, ok := c.Find(k)
		require.True(t, ok)
	}

	c.Insert(6, "kuudes")

	_, ok := c.Find(5)
	assert.False(t, ok, "key 5 should have been evicted")

	for _, k := range []int{1, 2, 3, 4, 6} {
		_, ok := c.Find(k)
		assert.True(t, ok, "key %d should still be present", k)
	}
}

func TestLRUDumpOrderMatchesScenario(t *testing.T) {
	c := New[int, string](WithCapacity[int, string](5), WithEviction[int, string](LRU))
	c.Insert(1, "eka")
	c.Insert(2, "toka")
	c.Insert(3, "kolmas")
	c.Insert(4, "neljas")
	c.Insert(5, "viides")
	for _, k := range []int{4, 3, 2, 1} {
		c.Find(k)
	}
	c.Insert(6, "kuudes")

	keys := c.Keys()
	require.Equal(t, []int{4, 3, 2, 1, 6}, keys)
}

func TestInstantExpirationScenario(t *testing.T) {
	// Specification §8 concrete scenario 2, with a short TTL so the test
	// doesn't need to sleep for seconds.
	c := New[int, string](
		WithCapacity[int, string](10),
		WithExpiration[int, string](InstantExpiration, 20*time.Millisecond),
	)

	for i := 1; i <= 5; i++ {
		c.Insert(i, "v"+strconv.Itoa(i))
	}

	time.Sleep(40 * time.Millisecond)

	c.Insert(6, "v6")
	c.Insert(7, "v7")

	for i := 1; i <= 5; i++ {
		_, ok := c.Find(i)
		assert.False(t, ok, "key %d should have expired", i)
	}

	v6, ok := c.Find(6)
	require.True(t, ok)
	assert.Equal(t, "v6", v6)

	v7, ok := c.Find(7)
	require.True(t, ok)
	assert.Equal(t, "v7", v7)
}

func TestFIFOEvictionIgnoresReads(t *testing.T) {
	c := New[int, string](WithCapacity[int, string](3), WithEviction[int, string](FIFO))

	c.Insert(1, "a")
	c.Insert(2, "b")
	c.Insert(3, "c")

	// Reading repeatedly must not change which key is evicted next.
	for i := 0; i < 5; i++ {
		c.Find(1)
	}

	c.Insert(4, "d")

	_, ok := c.Find(1)
	assert.False(t, ok, "FIFO must evict key 1 regardless of reads")
	for _, k := range []int{2, 3, 4} {
		_, ok := c.Find(k)
		assert.True(t, ok)
	}
}

func TestMRUEvictsMostRecentlyUsed(t *testing.T) {
	c := New[int, string](WithCapacity[int, string](3), WithEviction[int, string](MRU))

	c.Insert(1, "a")
	c.Insert(2, "b")
	c.Insert(3, "c")
	c.Find(3) // 3 becomes most recently used

	c.Insert(4, "d")

	_, ok := c.Find(3)
	assert.False(t, ok, "MRU must evict the most recently used key")
	for _, k := range []int{1, 2, 4} {
		_, ok := c.Find(k)
		assert.True(t, ok)
	}
}

func TestCacheFullRejectsOversizedValue(t *testing.T) {
	c := New[int, string](
		WithCapacity[int, string](4),
		WithSizeFunc[int, string](func(v string) int { return len(v) }),
	)

	evicted, err := c.Insert(1, "this value is too big")
	require.Error(t, err)
	assert.ErrorIs(t, err, xerrors.ErrCacheFull)
	assert.False(t, evicted)
	assert.Equal(t, uint64(1), c.Statistics().FailedInserts)
}

func TestTagInvalidationRemovesOnlyMatchingEntries(t *testing.T) {
	c := New[int, string]()

	c.Insert(1, "a", "group1")
	c.Insert(2, "b", "group1")
	c.Insert(3, "c", "group2")

	removed := c.Expire("group1")
	assert.Equal(t, 2, removed)

	_, ok := c.Find(1)
	assert.False(t, ok)
	_, ok = c.Find(2)
	assert.False(t, ok)
	_, ok = c.Find(3)
	assert.True(t, ok)
}

func TestCustomSizeFunction(t *testing.T) {
	sizeOf := func(v string) int { return len(v) }
	c := New[string, string](
		WithCapacity[string, string](8),
		WithSizeFunc[string, string](sizeOf),
	)

	c.Insert("a", "1")
	c.Insert("b", "12")
	c.Insert("c", "123")
	c.Find("a")
	c.Insert("d", "1234")

	// total would be 1+2+3+4=10 > 8, so eviction must happen (oldest/LRU
	// untouched entry "b" should go first since "a" was promoted by read)
	_, ok := c.Find("b")
	assert.False(t, ok)
	assert.LessOrEqual(t, c.Size(), 8)
}

func TestStatisticsTrackHitsAndMisses(t *testing.T) {
	c := New[int, string]()
	c.Insert(1, "a")
	c.Find(1)
	c.Find(2)

	stats := c.Statistics()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, uint64(1), stats.Inserts)
}

func TestConcurrentAccessIsRaceFree(t *testing.T) {
	c := New[int, int](WithCapacity[int, int](100))
	var wg sync.WaitGroup
	for g := 0; g < 20; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := (g*200 + i) % 150
				c.Insert(key, key)
				c.Find(key)
			}
		}(g)
	}
	wg.Wait()
}
