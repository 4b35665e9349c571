package graph

import (
	"sort"
	"strings"
)

// traceCycles renders a description for each cycle. Starting from every
// cycle participant not yet assigned to a reported cycle, the walk follows
// include edges restricted to other cycle participants, avoiding nodes
// already visited in the current walk, until it returns to the start node
// (a closed cycle) or runs out of unvisited neighbors (a partial walk,
// still reported). A self-include renders as "a -> a".
func (g *Graph) traceCycles() {
	if len(g.cycles) == 0 {
		return
	}

	participants := make([]string, 0, len(g.cycles))
	for name := range g.cycles {
		participants = append(participants, name)
	}
	sort.Strings(participants)

	reported := make(map[string]struct{}, len(participants))
	for _, start := range participants {
		if _, done := reported[start]; done {
			continue
		}

		path := []string{start}
		inPath := map[string]struct{}{start: {}}
		closed := false

		current := start
	walk:
		for {
			for _, next := range g.includes[current] {
				if !g.InCycle(next) {
					continue
				}
				if next == start {
					closed = true
					break walk
				}
				if _, visited := inPath[next]; visited {
					continue
				}
				path = append(path, next)
				inPath[next] = struct{}{}
				current = next
				continue walk
			}
			break
		}

		rendered := strings.Join(path, " -> ")
		if closed {
			rendered += " -> " + start
		}
		g.cyclePaths = append(g.cyclePaths, rendered)

		for _, name := range path {
			reported[name] = struct{}{}
		}
	}
}
