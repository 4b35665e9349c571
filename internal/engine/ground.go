package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/vaultboard/internal/cache"
	"github.com/vk/vaultboard/internal/config"
	"github.com/vk/vaultboard/internal/ctxlog"
	"github.com/vk/vaultboard/internal/expr"
)

type computeOptions struct {
	force bool
}

// ComputeOption tunes a widget computation call.
type ComputeOption func(*computeOptions)

// WithForce bypasses the cache for the call and refreshes the stored
// entries.
func WithForce() ComputeOption {
	return func(o *computeOptions) { o.force = true }
}

// ComputeGroundWidgets evaluates every aggregate widget in computation
// order, so a widget can read the stats of the widgets it includes, and
// returns the results of those located on the ground dashboard. Cycle
// widgets never appear in the order and produce no results. Ground
// similarity widgets are skipped: similarity has no meaning without a
// target document.
func (e *Engine) ComputeGroundWidgets(ctx context.Context, opts ...ComputeOption) ([]WidgetResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	var o computeOptions
	for _, opt := range opts {
		opt(&o)
	}
	logger := ctxlog.FromContext(ctx)

	// The walk covers ground widgets plus everything they include, in
	// dependency order, so a forced refresh recomputes each widget exactly
	// once before its dependents read it.
	needed := make(map[string]struct{})
	for _, name := range e.graph.Order() {
		w := e.byName[name]
		if w.Config.Type != config.TypeAggregate || w.Config.Location != config.LocationGround {
			continue
		}
		needed[name] = struct{}{}
		for _, dep := range e.graph.IncludeChain(name) {
			needed[dep] = struct{}{}
		}
	}

	results := []WidgetResult{}
	for _, name := range e.graph.Order() {
		if _, ok := needed[name]; !ok {
			continue
		}
		w := e.byName[name]
		if w.Config.Type != config.TypeAggregate {
			continue
		}

		outcome, _, err := e.cachedAggregate(ctx, w, "", o.force)
		if err != nil {
			// One widget's misconfiguration (bad glob, unreadable source)
			// never blocks the others; only security violations abort.
			if isSecurityError(err) {
				return nil, fmt.Errorf("widget %q: %w", name, err)
			}
			logger.Warn("Widget computation failed; widget skipped.", "widget", w.ID, "error", err)
			continue
		}
		if w.Config.Location == config.LocationGround {
			results = append(results, e.resultFor(w, outcome.Data))
		}
	}

	logger.Debug("Ground widgets computed.", "count", len(results), "forced", o.force)
	return results, nil
}

// aggregateOutcome is the cached unit for an aggregate widget: the full
// field output plus the scalar subset exposed to including widgets.
type aggregateOutcome struct {
	Data  map[string]any
	Stats map[string]any
}

// cachedAggregate computes an aggregate widget through the cache.
// targetPath is empty for ground evaluation and set to the current
// document for recall evaluation.
func (e *Engine) cachedAggregate(ctx context.Context, w config.LoadedWidget, targetPath string, force bool) (*aggregateOutcome, bool, error) {
	key := cache.Key{WidgetID: w.ID, Path: targetPath}
	v, hit, err := e.cache.GetOrCompute(ctx, key, force, func(ctx context.Context) (any, []string, error) {
		included, err := e.includedStats(ctx, w.Config.Name)
		if err != nil {
			return nil, nil, err
		}
		return e.evalAggregate(ctx, w, targetPath, included)
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*aggregateOutcome), hit, nil
}

// includedStats resolves the stats of every widget in the include chain,
// keyed by widget id. Forced refreshes happen at most once per widget per
// call: the chain itself is always served through the cache, which a
// forced walk has already refreshed in dependency order.
func (e *Engine) includedStats(ctx context.Context, name string) (map[string]map[string]any, error) {
	chain := e.graph.IncludeChain(name)
	if len(chain) == 0 {
		return nil, nil
	}

	out := make(map[string]map[string]any, len(chain))
	for _, dep := range chain {
		dw, ok := e.byName[dep]
		if !ok {
			continue
		}
		// Similarity widgets expose no stats.
		if dw.Config.Type != config.TypeAggregate {
			continue
		}
		oc, _, err := e.cachedAggregate(ctx, dw, "", false)
		if err != nil {
			return nil, fmt.Errorf("included widget %q: %w", dep, err)
		}
		out[dw.ID] = oc.Stats
	}
	return out, nil
}

type document struct {
	path  string
	attrs map[string]any
}

// evalAggregate resolves the widget's source documents and evaluates its
// fields in declaration order. Aggregator fields fold an attribute across
// all documents; expression fields evaluate against stats, and against
// this when they reference the per-document root. A field that fails at
// runtime is omitted with a warning; security violations abort the
// computation.
func (e *Engine) evalAggregate(ctx context.Context, w config.LoadedWidget, targetPath string, included map[string]map[string]any) (*aggregateOutcome, []string, error) {
	logger := ctxlog.FromContext(ctx)

	paths, err := e.reader.Resolve(ctx, w.Config.Source.Pattern)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve source pattern %q: %w", w.Config.Source.Pattern, err)
	}

	docs := make([]document, 0, len(paths))
	for _, p := range paths {
		attrs, err := e.reader.Attributes(ctx, p)
		if err != nil {
			logger.Warn("Document front matter unreadable; treating as empty.", "widget", w.ID, "path", p, "error", err)
			attrs = map[string]any{}
		}
		docs = append(docs, document{path: p, attrs: attrs})
	}

	var target *document
	if targetPath != "" {
		attrs, err := e.reader.Attributes(ctx, targetPath)
		if err != nil {
			return nil, nil, fmt.Errorf("read target document %q: %w", targetPath, err)
		}
		target = &document{path: targetPath, attrs: attrs}
	}

	data := make(map[string]any, len(w.Config.Fields))
	stats := make(map[string]any, len(w.Config.Fields))

	for _, field := range w.Config.Fields {
		if field.Aggregator != "" {
			fn, ok := e.aggs.Get(field.Aggregator)
			if !ok {
				logger.Warn("Unknown aggregator; field omitted.", "widget", w.ID, "field", field.Name, "aggregator", field.Aggregator)
				continue
			}
			values := make([]*float64, len(docs))
			for i, d := range docs {
				values[i] = numericAttr(d.attrs, field.Attribute)
			}
			var v any
			if res := fn(values); res != nil {
				v = *res
			}
			data[field.Name] = v
			stats[field.Name] = v
			continue
		}

		compiled, err := expr.Compile(field.Expr)
		if err != nil {
			var secErr *expr.SecurityError
			if errors.As(err, &secErr) {
				return nil, nil, fmt.Errorf("field %q: %w", field.Name, err)
			}
			logger.Warn("Field expression invalid; field omitted.", "widget", w.ID, "field", field.Name, "error", err)
			continue
		}

		statsVal := buildStats(stats, included)

		switch {
		case compiled.UsesThis() && target != nil:
			v, err := compiled.Evaluate(objToCty(target.attrs), statsVal)
			if err != nil {
				logger.Warn("Field evaluation failed; field omitted.", "widget", w.ID, "field", field.Name, "error", err)
				continue
			}
			res := fromCty(v)
			data[field.Name] = res
			stats[field.Name] = res

		case compiled.UsesThis():
			// Per-document fields produce a path-keyed map. They are output
			// only and never enter the stats context.
			perDoc := make(map[string]any, len(docs))
			for _, d := range docs {
				v, err := compiled.Evaluate(objToCty(d.attrs), statsVal)
				if err != nil {
					logger.Warn("Field evaluation failed for document; entry omitted.",
						"widget", w.ID, "field", field.Name, "path", d.path, "error", err)
					continue
				}
				perDoc[d.path] = fromCty(v)
			}
			data[field.Name] = perDoc

		default:
			v, err := compiled.Evaluate(cty.EmptyObjectVal, statsVal)
			if err != nil {
				logger.Warn("Field evaluation failed; field omitted.", "widget", w.ID, "field", field.Name, "error", err)
				continue
			}
			res := fromCty(v)
			data[field.Name] = res
			stats[field.Name] = res
		}
	}

	deps := paths
	if target != nil && !contains(paths, targetPath) {
		deps = append(append([]string(nil), paths...), targetPath)
	}

	outcome := &aggregateOutcome{Data: data, Stats: stats}
	return outcome, deps, nil
}

// buildStats assembles the stats root: the widget's own scalar fields plus
// the stats of included widgets namespaced under their ids. Own fields win
// on a name collision.
func buildStats(own map[string]any, included map[string]map[string]any) cty.Value {
	attrs := make(map[string]cty.Value, len(own)+len(included))
	for id, stats := range included {
		attrs[id] = objToCty(stats)
	}
	for k, v := range own {
		attrs[k] = toCty(v)
	}
	if len(attrs) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(attrs)
}

// numericAttr extracts a numeric attribute as an aggregation sample; any
// missing or non-numeric value is a null sample.
func numericAttr(attrs map[string]any, name string) *float64 {
	if name == "" {
		return nil
	}
	switch v := attrs[name].(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	case int64:
		f := float64(v)
		return &f
	default:
		return nil
	}
}

// isSecurityError reports whether a blocked-keyword violation is anywhere
// in the chain. Those always propagate; everything else is isolated to the
// widget that failed.
func isSecurityError(err error) bool {
	var secErr *expr.SecurityError
	return errors.As(err, &secErr)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
