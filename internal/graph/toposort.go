package graph

import "sort"

// sortTopologically computes the Kahn-style computation order. Each node
// starts with a pending count equal to its number of valid includes; nodes
// with no pending dependencies enter the ready queue, and dequeuing a node
// releases every node that includes it. The ready queue is kept in name
// order so the resulting order is stable across runs with identical input.
// Nodes never dequeued are cycle participants.
func (g *Graph) sortTopologically() {
	pending := make(map[string]int, len(g.nodes))
	for name := range g.nodes {
		pending[name] = len(g.includes[name])
	}

	var ready []string
	for name, count := range pending {
		if count == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		for _, dependent := range g.dependents[next] {
			pending[dependent]--
			if pending[dependent] == 0 {
				ready = insertSorted(ready, dependent)
			}
		}
	}
	g.order = order

	g.cycles = make(map[string]struct{})
	if len(order) < len(g.nodes) {
		ordered := make(map[string]struct{}, len(order))
		for _, name := range order {
			ordered[name] = struct{}{}
		}
		for name := range g.nodes {
			if _, ok := ordered[name]; !ok {
				g.cycles[name] = struct{}{}
			}
		}
	}
}

// insertSorted inserts name into a sorted slice, keeping it sorted.
func insertSorted(names []string, name string) []string {
	i := sort.SearchStrings(names, name)
	names = append(names, "")
	copy(names[i+1:], names[i:])
	names[i] = name
	return names
}
