// Package engine orchestrates widget computation over a vault: it loads
// widget definitions, resolves their include graph, and computes aggregate,
// recall and similarity results through a dependency-tracking cache.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/vk/vaultboard/internal/aggregate"
	"github.com/vk/vaultboard/internal/cache"
	"github.com/vk/vaultboard/internal/config"
	"github.com/vk/vaultboard/internal/ctxlog"
	"github.com/vk/vaultboard/internal/graph"
	"github.com/vk/vaultboard/internal/similarity"
	"github.com/vk/vaultboard/internal/vault"
)

// Engine is the widget computation engine for a single vault. It is safe
// for concurrent use once New returns.
type Engine struct {
	vaultPath string
	reader    vault.Reader
	aggs      *aggregate.Registry
	sim       *similarity.Computer
	cache     *cache.Cache
	graph     *graph.Graph

	byName map[string]config.LoadedWidget
	byID   map[string]config.LoadedWidget

	diags       Diagnostics
	initialized atomic.Bool
}

// Option customizes engine construction.
type Option func(*Engine)

// WithReader substitutes the vault reader, e.g. an in-memory vault in
// tests. The default reads from the vault directory on disk.
func WithReader(r vault.Reader) Option {
	return func(e *Engine) { e.reader = r }
}

// WithAggregators substitutes the aggregator registry, allowing callers to
// register custom aggregation functions alongside the builtins.
func WithAggregators(r *aggregate.Registry) Option {
	return func(e *Engine) { e.aggs = r }
}

// New loads every widget definition under vaultPath and resolves the
// include graph. Per-widget load failures, include cycles and dangling
// includes are collected into Diagnostics rather than failing construction;
// only an unreadable vault is an error.
func New(ctx context.Context, vaultPath string, opts ...Option) (*Engine, error) {
	logger := ctxlog.FromContext(ctx)

	e := &Engine{
		vaultPath: vaultPath,
		cache:     cache.New(),
		byName:    make(map[string]config.LoadedWidget),
		byID:      make(map[string]config.LoadedWidget),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.reader == nil {
		e.reader = vault.NewFS(vaultPath)
	}
	if e.aggs == nil {
		e.aggs = aggregate.NewRegistry()
	}
	e.sim = similarity.New(e.reader)

	loaded, err := config.LoadWidgetConfigs(ctx, vaultPath)
	if err != nil {
		return nil, fmt.Errorf("load widget configs: %w", err)
	}
	e.diags.LoadErrors = loaded.Errors

	specs := make([]graph.Spec, 0, len(loaded.Widgets))
	for _, w := range loaded.Widgets {
		e.byName[w.Config.Name] = w
		e.byID[w.ID] = w
		specs = append(specs, graph.Spec{Name: w.Config.Name, Includes: w.Config.Includes})
	}

	e.graph = graph.Build(specs)
	e.diags.CycleWidgets = e.graph.Cycles()
	e.diags.Cycles = e.graph.CyclePaths()
	e.diags.InvalidIncludes = e.graph.InvalidIncludes()

	for _, path := range e.diags.Cycles {
		logger.Warn("Include cycle detected; participants excluded from computation.", "cycle", path)
	}
	for name, targets := range e.diags.InvalidIncludes {
		logger.Warn("Widget includes unknown widgets.", "widget", name, "unknown", targets)
	}

	e.initialized.Store(true)
	logger.Debug("Widget engine ready.",
		"vault", vaultPath,
		"widgets", len(loaded.Widgets),
		"loadErrors", len(loaded.Errors),
		"cycleWidgets", len(e.diags.CycleWidgets),
	)
	return e, nil
}

// VaultPath returns the vault this engine computes over.
func (e *Engine) VaultPath() string { return e.vaultPath }

// IsInitialized reports whether the engine is ready to serve computations.
// It is false after Shutdown.
func (e *Engine) IsInitialized() bool { return e.initialized.Load() }

// Shutdown releases the engine: the cache is cleared and further compute
// calls fail. Safe to call more than once.
func (e *Engine) Shutdown() {
	e.initialized.Store(false)
	e.cache.InvalidateAll()
}

// Diagnostics returns the non-fatal conditions recorded at construction.
func (e *Engine) Diagnostics() Diagnostics {
	d := Diagnostics{
		LoadErrors:      append([]config.LoadError(nil), e.diags.LoadErrors...),
		CycleWidgets:    append([]string(nil), e.diags.CycleWidgets...),
		Cycles:          append([]string(nil), e.diags.Cycles...),
		InvalidIncludes: make(map[string][]string, len(e.diags.InvalidIncludes)),
	}
	for name, targets := range e.diags.InvalidIncludes {
		d.InvalidIncludes[name] = append([]string(nil), targets...)
	}
	return d
}

// CacheStats returns the current cache entry count.
func (e *Engine) CacheStats() CacheStats {
	return CacheStats{WidgetEntries: e.cache.Len()}
}

// InvalidateAll drops every cached result.
func (e *Engine) InvalidateAll() {
	e.cache.InvalidateAll()
}

func (e *Engine) ready() error {
	if !e.initialized.Load() {
		return errors.New("widget engine is not ready")
	}
	return nil
}

func (e *Engine) resultFor(w config.LoadedWidget, data any) WidgetResult {
	return WidgetResult{
		WidgetID: w.ID,
		Name:     w.Config.Name,
		Type:     w.Config.Type,
		Location: w.Config.Location,
		Display:  w.Config.Display,
		Data:     data,
		Editable: w.Config.Editable,
	}
}
