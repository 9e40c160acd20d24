package pipeline

import (
	"fmt"
	"sync"
	"testing"

	"github.com/couchcryptid/landlord-risk-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func match(key string) domain.Match {
	return domain.Match{Key: key, Type: domain.MatchExact, Score: 1}
}

func TestResolveCache_HitAndMiss(t *testing.T) {
	c := newResolveCache(10)

	_, ok := c.get(cacheKey("1 A St", "D1"))
	assert.False(t, ok)

	c.put(cacheKey("1 A St", "D1"), match("k1"))
	got, ok := c.get(cacheKey("1 A St", "D1"))
	require.True(t, ok)
	assert.Equal(t, "k1", got.Key)

	_, ok = c.get(cacheKey("1 A St", "D2"))
	assert.False(t, ok, "district is part of the key")
}

func TestResolveCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := newResolveCache(2)

	c.put("a", match("ka"))
	c.put("b", match("kb"))
	_, _ = c.get("a") // a is now most recent
	c.put("c", match("kc"))

	_, ok := c.get("b")
	assert.False(t, ok, "b should have been evicted")
	_, ok = c.get("a")
	assert.True(t, ok)
	_, ok = c.get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.size())
}

func TestResolveCache_UpdateExisting(t *testing.T) {
	c := newResolveCache(2)

	c.put("a", match("old"))
	c.put("a", match("new"))

	got, ok := c.get("a")
	require.True(t, ok)
	assert.Equal(t, "new", got.Key)
	assert.Equal(t, 1, c.size())
}

func TestResolveCache_Disabled(t *testing.T) {
	c := newResolveCache(0)

	c.put("a", match("ka"))
	_, ok := c.get("a")
	assert.False(t, ok)
	assert.Zero(t, c.size())
}

func TestResolveCache_ConcurrentAccess(t *testing.T) {
	c := newResolveCache(50)

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				key := fmt.Sprintf("%d-%d", w, i%80)
				c.put(key, match(key))
				if m, ok := c.get(key); ok {
					assert.Equal(t, key, m.Key)
				}
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, c.size(), 50)
}
