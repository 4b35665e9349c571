// Package graph resolves the include relationships between widgets. It
// builds the directed include graph, produces a deterministic, cycle-safe
// computation order, and reports cycles and dangling includes as
// diagnostics instead of materializing them as edges.
package graph

import (
	"sort"
)

// Spec is the minimal view of a widget the resolver needs: its unique name
// and the names of the widgets it includes.
type Spec struct {
	Name     string
	Includes []string
}

// Graph is the resolved include graph. Edge A -> B means "A includes B",
// i.e. A depends on B's computed stats. Immutable after Build.
type Graph struct {
	nodes           map[string]struct{}
	includes        map[string][]string // valid outgoing includes, sorted
	dependents      map[string][]string // reverse adjacency, sorted
	invalidIncludes map[string][]string
	order           []string
	cycles          map[string]struct{}
	cyclePaths      []string
}

// Build constructs the graph in two passes: first every widget name becomes
// a node, then each include becomes an edge only when the target name is a
// known node. Unknown names are recorded per widget for diagnostics and
// never inserted as edges. A self-include is a valid edge and forms a
// cycle of size one.
func Build(specs []Spec) *Graph {
	g := &Graph{
		nodes:           make(map[string]struct{}, len(specs)),
		includes:        make(map[string][]string),
		dependents:      make(map[string][]string),
		invalidIncludes: make(map[string][]string),
	}

	for _, s := range specs {
		g.nodes[s.Name] = struct{}{}
	}

	for _, s := range specs {
		for _, target := range s.Includes {
			if _, known := g.nodes[target]; !known {
				g.invalidIncludes[s.Name] = append(g.invalidIncludes[s.Name], target)
				continue
			}
			g.includes[s.Name] = append(g.includes[s.Name], target)
			g.dependents[target] = append(g.dependents[target], s.Name)
		}
	}
	for name := range g.includes {
		sort.Strings(g.includes[name])
	}
	for name := range g.dependents {
		sort.Strings(g.dependents[name])
	}
	for name := range g.invalidIncludes {
		sort.Strings(g.invalidIncludes[name])
	}

	g.sortTopologically()
	g.traceCycles()
	return g
}

// Has reports whether a widget name is a node in the graph.
func (g *Graph) Has(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// Order returns the computation order: a permutation of the non-cycle nodes
// in which every widget appears after all widgets it includes.
func (g *Graph) Order() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Cycles returns the sorted set of cycle participants. These widgets are
// excluded from the computation order and from all computed output.
func (g *Graph) Cycles() []string {
	out := make([]string, 0, len(g.cycles))
	for name := range g.cycles {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// InCycle reports whether a widget participates in an include cycle.
func (g *Graph) InCycle(name string) bool {
	_, ok := g.cycles[name]
	return ok
}

// CyclePaths returns human-readable descriptions of the detected cycles,
// rendered as "a -> b -> c -> a".
func (g *Graph) CyclePaths() []string {
	out := make([]string, len(g.cyclePaths))
	copy(out, g.cyclePaths)
	return out
}

// InvalidIncludes returns, per widget, the include targets that did not
// resolve to any known widget.
func (g *Graph) InvalidIncludes() map[string][]string {
	out := make(map[string][]string, len(g.invalidIncludes))
	for name, targets := range g.invalidIncludes {
		cp := make([]string, len(targets))
		copy(cp, targets)
		out[name] = cp
	}
	return out
}

// IncludeChain returns the transitive closure of a widget's includes in
// dependency-first order, excluding the widget itself and any cycle member.
// This is exactly the set of widgets whose computed stats must be exposed
// to the widget's expression context.
func (g *Graph) IncludeChain(name string) []string {
	var chain []string
	seen := map[string]struct{}{name: {}}

	var visit func(n string)
	visit = func(n string) {
		for _, dep := range g.includes[n] {
			if _, done := seen[dep]; done {
				continue
			}
			if g.InCycle(dep) {
				continue
			}
			seen[dep] = struct{}{}
			visit(dep)
			chain = append(chain, dep)
		}
	}
	visit(name)
	return chain
}

// TransitiveDependents expands a set of widget names to every widget that
// reaches one of them through includes. Used for cache invalidation: when a
// widget's inputs change, everything that includes it is stale too.
func (g *Graph) TransitiveDependents(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	queue := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := g.nodes[name]; !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		queue = append(queue, name)
	}

	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		for _, dep := range g.dependents[next] {
			if _, dup := seen[dep]; dup {
				continue
			}
			seen[dep] = struct{}{}
			queue = append(queue, dep)
		}
	}

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
