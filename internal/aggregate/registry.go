// Package aggregate provides the named registry of statistics used by
// aggregate widgets. Every aggregator is a pure reducer over a sequence of
// optional numeric samples: a nil entry means the attribute was missing on
// that document, and a nil result means the statistic is undefined for the
// given input.
package aggregate

import (
	"sort"
	"sync"
)

// Func reduces a sequence of optional numeric samples to a single statistic.
type Func func(values []*float64) *float64

// Registry is an explicit, shareable table of aggregators. Built-ins are
// pre-registered by NewRegistry; callers may register additional reducers
// (or overwrite built-ins) at any time. Mutation is guarded so a registry
// instance can be shared across concurrent engine calls.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

// NewRegistry returns a registry with all built-in aggregators registered.
func NewRegistry() *Registry {
	r := &Registry{funcs: make(map[string]Func)}
	for name, fn := range builtins() {
		r.funcs[name] = fn
	}
	return r
}

// Register adds an aggregator under the given name, overwriting any
// previous registration.
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Get looks up an aggregator by name.
func (r *Registry) Get(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}

// Has reports whether an aggregator with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Names returns all registered aggregator names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
