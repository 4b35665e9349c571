package engine

import (
	"context"
	"fmt"

	"github.com/vk/vaultboard/internal/cache"
	"github.com/vk/vaultboard/internal/config"
	"github.com/vk/vaultboard/internal/similarity"
)

// ComputeSimilarity computes a single similarity widget for a target
// document. The second return value reports whether the result came from
// the cache; a hit is a pure lookup.
func (e *Engine) ComputeSimilarity(ctx context.Context, widgetID, path string, opts ...ComputeOption) (WidgetResult, bool, error) {
	if err := e.ready(); err != nil {
		return WidgetResult{}, false, err
	}
	var o computeOptions
	for _, opt := range opts {
		opt(&o)
	}

	w, ok := e.byID[widgetID]
	if !ok {
		return WidgetResult{}, false, fmt.Errorf("%w: %q", ErrUnknownWidget, widgetID)
	}
	if w.Config.Type != config.TypeSimilarity {
		return WidgetResult{}, false, fmt.Errorf("widget %q is not a similarity widget", widgetID)
	}
	if e.graph.InCycle(w.Config.Name) {
		return WidgetResult{}, false, fmt.Errorf("widget %q is part of an include cycle", widgetID)
	}

	return e.similarityResult(ctx, w, path, o.force)
}

// similarityResult serves a similarity computation through the cache,
// keyed by widget and target document.
func (e *Engine) similarityResult(ctx context.Context, w config.LoadedWidget, path string, force bool) (WidgetResult, bool, error) {
	key := cache.Key{WidgetID: w.ID, Path: path}
	v, hit, err := e.cache.GetOrCompute(ctx, key, force, func(ctx context.Context) (any, []string, error) {
		matches, deps, err := e.sim.Compute(ctx, w.Config, path)
		if err != nil {
			return nil, nil, err
		}
		return matches, deps, nil
	})
	if err != nil {
		return WidgetResult{}, false, fmt.Errorf("similarity for %q: %w", path, err)
	}
	return e.resultFor(w, v.([]similarity.Match)), hit, nil
}
