package engine

import (
	"context"
	"fmt"

	"github.com/vk/vaultboard/internal/config"
	"github.com/vk/vaultboard/internal/ctxlog"
	"github.com/vk/vaultboard/internal/vault"
)

// ComputeRecallWidgets evaluates every recall widget whose source pattern
// matches the given document, in computation order. Aggregate widgets bind
// the expression root "this" to the target document; similarity widgets
// rank the document's neighbors. A document matching no widget yields an
// empty list.
func (e *Engine) ComputeRecallWidgets(ctx context.Context, path string, opts ...ComputeOption) ([]WidgetResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	var o computeOptions
	for _, opt := range opts {
		opt(&o)
	}
	logger := ctxlog.FromContext(ctx)

	results := []WidgetResult{}
	for _, name := range e.graph.Order() {
		w := e.byName[name]
		if w.Config.Location != config.LocationRecall {
			continue
		}
		if !vault.Match(w.Config.Source.Pattern, path) {
			continue
		}

		switch w.Config.Type {
		case config.TypeSimilarity:
			res, _, err := e.similarityResult(ctx, w, path, o.force)
			if err != nil {
				logger.Warn("Widget computation failed; widget skipped.", "widget", w.ID, "error", err)
				continue
			}
			results = append(results, res)
		default:
			outcome, _, err := e.cachedAggregate(ctx, w, path, o.force)
			if err != nil {
				if isSecurityError(err) {
					return nil, fmt.Errorf("widget %q: %w", name, err)
				}
				logger.Warn("Widget computation failed; widget skipped.", "widget", w.ID, "error", err)
				continue
			}
			results = append(results, e.resultFor(w, outcome.Data))
		}
	}

	logger.Debug("Recall widgets computed.", "path", path, "count", len(results))
	return results, nil
}
