package cache_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gymkit/pkg/cache"
)

func TestLRUCache(t *testing.T) {
	t.Parallel()

	t.Run("evicts least recently used", func(t *testing.T) {
		t.Parallel()
		c := cache.NewLRUCache[string, int](2)
		var evicted []string
		c.SetEvictCallback(func(k string, _ int) { evicted = append(evicted, k) })

		c.Put("a", 1)
		c.Put("b", 2)
		_, ok := c.Get("a")
		require.True(t, ok)
		c.Put("c", 3)

		assert.Equal(t, []string{"b"}, evicted)
		assert.Equal(t, 2, c.Len())
		_, ok = c.Get("b")
		assert.False(t, ok)
	})

	t.Run("replace does not evict", func(t *testing.T) {
		t.Parallel()
		c := cache.NewLRUCache[string, int](1)
		var calls int
		c.SetEvictCallback(func(string, int) { calls++ })

		c.Put("a", 1)
		old, existed := c.Put("a", 2)
		assert.True(t, existed)
		assert.Equal(t, 1, old)
		assert.Zero(t, calls)
	})

	t.Run("remove and clear notify", func(t *testing.T) {
		t.Parallel()
		c := cache.NewLRUCache[string, int](3)
		var keys []string
		c.SetEvictCallback(func(k string, _ int) { keys = append(keys, k) })

		c.Put("a", 1)
		c.Put("b", 2)
		c.Put("c", 3)
		v, ok := c.Remove("b")
		assert.True(t, ok)
		assert.Equal(t, 2, v)
		c.Clear()

		assert.ElementsMatch(t, []string{"b", "a", "c"}, keys)
		assert.Zero(t, c.Len())
	})

	t.Run("callback may reenter the cache", func(t *testing.T) {
		t.Parallel()
		c := cache.NewLRUCache[string, int](1)
		c.SetEvictCallback(func(string, int) { _ = c.Len() })
		c.Put("a", 1)
		c.Put("b", 2)
		assert.Equal(t, 1, c.Len())
	})

	t.Run("capacity must be positive", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { cache.NewLRUCache[string, int](0) })
	})
}

func TestLRUCache_GetOrCreate(t *testing.T) {
	t.Parallel()

	t.Run("creates once under contention", func(t *testing.T) {
		t.Parallel()
		c := cache.NewLRUCache[string, *int](4)
		var created atomic.Int32

		var wg sync.WaitGroup
		results := make([]*int, 16)
		for i := range results {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, _, err := c.GetOrCreate("visitor", func() (*int, error) {
					created.Add(1)
					n := 7
					return &n, nil
				})
				assert.NoError(t, err)
				results[i] = v
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), created.Load())
		for _, v := range results {
			assert.Same(t, results[0], v)
		}
	})

	t.Run("errors are not stored", func(t *testing.T) {
		t.Parallel()
		c := cache.NewLRUCache[string, int](1)
		boom := errors.New("boom")

		_, created, err := c.GetOrCreate("a", func() (int, error) { return 0, boom })
		assert.ErrorIs(t, err, boom)
		assert.False(t, created)
		assert.Zero(t, c.Len())

		v, created, err := c.GetOrCreate("a", func() (int, error) { return 5, nil })
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, 5, v)
	})

	t.Run("evicts to make room", func(t *testing.T) {
		t.Parallel()
		c := cache.NewLRUCache[string, int](1)
		var evicted []string
		c.SetEvictCallback(func(k string, _ int) { evicted = append(evicted, k) })

		_, _, _ = c.GetOrCreate("a", func() (int, error) { return 1, nil })
		_, _, _ = c.GetOrCreate("b", func() (int, error) { return 2, nil })
		assert.Equal(t, []string{"a"}, evicted)
	})
}
