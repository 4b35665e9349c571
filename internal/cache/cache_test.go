package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constant(value any, deps ...string) ComputeFunc {
	return func(context.Context) (any, []string, error) {
		return value, deps, nil
	}
}

func TestHitAfterMiss(t *testing.T) {
	c := New()
	ctx := context.Background()
	key := Key{WidgetID: "reading-stats"}

	v, hit, err := c.GetOrCompute(ctx, key, false, constant(42, "books/a.md"))
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 42, v)

	v, hit, err = c.GetOrCompute(ctx, key, false, constant(99))
	require.NoError(t, err)
	assert.True(t, hit, "second lookup must be served from the cache")
	assert.Equal(t, 42, v, "cached value wins; compute must not rerun")
	assert.Equal(t, 1, c.Len())
}

func TestHitIsFast(t *testing.T) {
	c := New()
	ctx := context.Background()
	key := Key{WidgetID: "similar", Path: "books/dune.md"}

	slow := func(context.Context) (any, []string, error) {
		time.Sleep(100 * time.Millisecond)
		return "ranked", []string{"books/dune.md"}, nil
	}
	_, _, err := c.GetOrCompute(ctx, key, false, slow)
	require.NoError(t, err)

	start := time.Now()
	_, hit, err := c.GetOrCompute(ctx, key, false, slow)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Less(t, time.Since(start), 50*time.Millisecond, "a cache hit is a pure lookup")
}

func TestForceBypassesAndRefreshes(t *testing.T) {
	c := New()
	ctx := context.Background()
	key := Key{WidgetID: "reading-stats"}

	_, _, err := c.GetOrCompute(ctx, key, false, constant(1))
	require.NoError(t, err)

	v, hit, err := c.GetOrCompute(ctx, key, true, constant(2))
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, v)

	v, hit, _ = c.GetOrCompute(ctx, key, false, constant(3))
	assert.True(t, hit)
	assert.Equal(t, 2, v, "force refreshed the stored entry")
}

func TestConcurrentRequestsCoalesce(t *testing.T) {
	c := New()
	ctx := context.Background()
	key := Key{WidgetID: "reading-stats"}

	var computations atomic.Int32
	release := make(chan struct{})
	fn := func(context.Context) (any, []string, error) {
		computations.Add(1)
		<-release
		return "result", nil, nil
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make([]any, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, _, err := c.GetOrCompute(ctx, key, false, fn)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	// Give every caller a chance to reach the cache before releasing.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), computations.Load(), "overlapping requests must coalesce")
	for _, v := range results {
		assert.Equal(t, "result", v)
	}
}

func TestInvalidationMidComputationIsNotOverwritten(t *testing.T) {
	c := New()
	ctx := context.Background()
	key := Key{WidgetID: "reading-stats"}

	started := make(chan struct{})
	release := make(chan struct{})
	stale := func(context.Context) (any, []string, error) {
		close(started)
		<-release
		return "stale", []string{"books/a.md"}, nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		v, hit, err := c.GetOrCompute(ctx, key, false, stale)
		// The caller still gets its computed value back.
		assert.NoError(t, err)
		assert.False(t, hit)
		assert.Equal(t, "stale", v)
	}()

	<-started
	c.Invalidate([]string{"reading-stats"})
	close(release)
	<-done

	// The stale result must not have been cached: the next lookup misses
	// and stores the fresh value.
	_, hit, err := c.GetOrCompute(ctx, key, false, constant("fresh", "books/a.md"))
	require.NoError(t, err)
	assert.False(t, hit)

	v, hit, err := c.GetOrCompute(ctx, key, false, constant("never"))
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "fresh", v)
}

func TestWidgetsDependingOn(t *testing.T) {
	c := New()
	ctx := context.Background()

	_, _, err := c.GetOrCompute(ctx, Key{WidgetID: "a"}, false, constant(1, "books/x.md", "books/y.md"))
	require.NoError(t, err)
	_, _, err = c.GetOrCompute(ctx, Key{WidgetID: "b"}, false, constant(2, "journal/z.md"))
	require.NoError(t, err)
	_, _, err = c.GetOrCompute(ctx, Key{WidgetID: "sim", Path: "books/x.md"}, false, constant(3, "books/x.md"))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "sim"}, c.WidgetsDependingOn([]string{"books/x.md"}))
	assert.Equal(t, []string{"b"}, c.WidgetsDependingOn([]string{"journal/z.md"}))
	assert.Empty(t, c.WidgetsDependingOn([]string{"books/unknown.md"}))
}

func TestInvalidateCountsEntries(t *testing.T) {
	c := New()
	ctx := context.Background()

	_, _, _ = c.GetOrCompute(ctx, Key{WidgetID: "sim", Path: "a.md"}, false, constant(1))
	_, _, _ = c.GetOrCompute(ctx, Key{WidgetID: "sim", Path: "b.md"}, false, constant(2))
	_, _, _ = c.GetOrCompute(ctx, Key{WidgetID: "other"}, false, constant(3))

	assert.Equal(t, 2, c.Invalidate([]string{"sim"}))
	assert.Equal(t, 1, c.Len())

	c.InvalidateAll()
	assert.Equal(t, 0, c.Len())
}
