// Package cache stores computed widget results with file-driven
// invalidation. Entries record the source paths their computation depended
// on; an entry is valid exactly as long as none of those paths change.
//
// Concurrent requests for the same key coalesce into one computation, and
// every entry carries a generation counter checked at write time: an
// invalidation arriving while a computation is in flight prevents the stale
// result from being stored (it is still returned to its caller).
package cache

import (
	"context"
	"sort"
	"sync"
)

// Key identifies a cached result: the widget plus, for recall and
// similarity results, the target document path. Path is empty for ground
// results.
type Key struct {
	WidgetID string
	Path     string
}

// ComputeFunc produces a value along with the set of source paths the
// computation depended on.
type ComputeFunc func(ctx context.Context) (value any, deps []string, err error)

type entry struct {
	value any
	deps  map[string]struct{}
}

type inflight struct {
	done  chan struct{}
	value any
	err   error
}

// Cache is a lock-guarded result store. The zero value is not usable; use
// New.
type Cache struct {
	mu       sync.Mutex
	entries  map[Key]*entry
	gens     map[Key]uint64
	inflight map[Key]*inflight
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{
		entries:  make(map[Key]*entry),
		gens:     make(map[Key]uint64),
		inflight: make(map[Key]*inflight),
	}
}

// GetOrCompute returns the cached value for key, or runs fn to produce it.
// A hit is a pure map lookup. Overlapping calls for the same key wait for
// the first caller's computation instead of recomputing; they report a
// miss, since no stored entry served them. force bypasses the cache and
// refreshes the stored entry.
//
// The result of fn is only stored if the key's generation is unchanged
// since the computation started; otherwise the value is returned to the
// caller but the cache stays empty for that key.
func (c *Cache) GetOrCompute(ctx context.Context, key Key, force bool, fn ComputeFunc) (any, bool, error) {
	c.mu.Lock()

	if !force {
		if e, ok := c.entries[key]; ok {
			c.mu.Unlock()
			return e.value, true, nil
		}
		if fl, ok := c.inflight[key]; ok {
			c.mu.Unlock()
			select {
			case <-fl.done:
				return fl.value, false, fl.err
			case <-ctx.Done():
				return nil, false, ctx.Err()
			}
		}
	}

	fl := &inflight{done: make(chan struct{})}
	if _, racing := c.inflight[key]; !racing {
		c.inflight[key] = fl
	}
	startGen := c.gens[key]
	c.mu.Unlock()

	value, deps, err := fn(ctx)

	c.mu.Lock()
	if c.inflight[key] == fl {
		delete(c.inflight, key)
	}
	if err == nil && c.gens[key] == startGen {
		depSet := make(map[string]struct{}, len(deps))
		for _, d := range deps {
			depSet[d] = struct{}{}
		}
		c.entries[key] = &entry{value: value, deps: depSet}
	}
	c.mu.Unlock()

	fl.value = value
	fl.err = err
	close(fl.done)

	return value, false, err
}

// WidgetsDependingOn returns the sorted ids of widgets with at least one
// cached entry whose dependency set intersects paths.
func (c *Cache) WidgetsDependingOn(paths []string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	hit := make(map[string]struct{})
	for key, e := range c.entries {
		for _, p := range paths {
			if _, ok := e.deps[p]; ok {
				hit[key.WidgetID] = struct{}{}
				break
			}
		}
	}

	out := make([]string, 0, len(hit))
	for id := range hit {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Invalidate removes every entry belonging to the given widgets and bumps
// their generations so in-flight computations cannot store stale results.
// It returns the number of entries removed.
func (c *Cache) Invalidate(widgetIDs []string) int {
	ids := make(map[string]struct{}, len(widgetIDs))
	for _, id := range widgetIDs {
		ids[id] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if _, ok := ids[key.WidgetID]; ok {
			delete(c.entries, key)
			c.gens[key]++
			removed++
		}
	}
	for key := range c.inflight {
		if _, ok := ids[key.WidgetID]; ok {
			c.gens[key]++
		}
	}
	return removed
}

// InvalidateAll clears every entry.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		delete(c.entries, key)
		c.gens[key]++
	}
	for key := range c.inflight {
		c.gens[key]++
	}
}

// Len returns the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
