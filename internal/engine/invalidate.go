package engine

import (
	"context"
	"sort"

	"github.com/vk/vaultboard/internal/ctxlog"
)

// HandleFilesChanged invalidates every cached result that depended on one
// of the changed paths, then expands the invalidation through the include
// graph: a widget including a stale widget is stale too. Paths no cached
// entry depends on are a no-op.
func (e *Engine) HandleFilesChanged(ctx context.Context, paths []string) Invalidation {
	logger := ctxlog.FromContext(ctx)

	direct := e.cache.WidgetsDependingOn(paths)
	if len(direct) == 0 {
		return Invalidation{InvalidatedWidgets: []string{}}
	}

	names := make([]string, 0, len(direct))
	for _, id := range direct {
		if w, ok := e.byID[id]; ok {
			names = append(names, w.Config.Name)
		}
	}

	stale := make(map[string]struct{}, len(direct))
	for _, id := range direct {
		stale[id] = struct{}{}
	}
	for _, name := range e.graph.TransitiveDependents(names) {
		if w, ok := e.byName[name]; ok {
			stale[w.ID] = struct{}{}
		}
	}

	ids := make([]string, 0, len(stale))
	for id := range stale {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	removed := e.cache.Invalidate(ids)
	logger.Debug("Cache invalidated for changed files.",
		"paths", len(paths),
		"widgets", len(ids),
		"entries", removed,
	)
	return Invalidation{InvalidatedWidgets: ids, TotalEntriesInvalidated: removed}
}
