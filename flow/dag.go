package flow

import (
	"fmt"
	"sort"
	"strings"
)

// CycleError reports one representative cycle found while ordering a
// flow's nodes.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

func sortedNodeIDs(nodes map[string]Node) []string {
	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// incomingEdges indexes edges by their destination node.
func incomingEdges(edges []Edge) map[string][]Edge {
	m := map[string][]Edge{}
	for _, e := range edges {
		m[e.To] = append(m[e.To], e)
	}
	return m
}

// topologicalOrder returns a deterministic topological order of nodeIDs
// given edges, using Kahn's algorithm with lexical node-id ordering as
// the tie-break so a given flow always walks its nodes in the same
// sequence. If the graph is cyclic it returns a *CycleError describing
// one representative cycle.
func topologicalOrder(nodeIDs []string, edges []Edge) ([]string, error) {
	indegree := make(map[string]int, len(nodeIDs))
	adjacency := map[string][]string{}
	for _, id := range nodeIDs {
		indegree[id] = 0
	}
	for _, e := range edges {
		adjacency[e.From] = append(adjacency[e.From], e.To)
		indegree[e.To]++
	}
	for _, targets := range adjacency {
		sort.Strings(targets)
	}

	var ready []string
	for _, id := range nodeIDs {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(nodeIDs))
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)

		for _, m := range adjacency[n] {
			indegree[m]--
			if indegree[m] == 0 {
				ready = insertSorted(ready, m)
			}
		}
	}

	if len(order) != len(nodeIDs) {
		return nil, &CycleError{Cycle: findCycle(nodeIDs, adjacency)}
	}
	return order, nil
}

func insertSorted(s []string, v string) []string {
	i := sort.SearchStrings(s, v)
	s = append(s, "")
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

// findCycle locates one cycle via DFS, classifying nodes white/gray/black.
func findCycle(nodeIDs []string, adjacency map[string][]string) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[string]int{}
	var path []string
	var cycle []string

	var visit func(n string) bool
	visit = func(n string) bool {
		color[n] = gray
		path = append(path, n)
		for _, m := range adjacency[n] {
			switch color[m] {
			case gray:
				idx := indexOf(path, m)
				cycle = append([]string{}, path[idx:]...)
				cycle = append(cycle, m)
				return true
			case white:
				if visit(m) {
					return true
				}
			}
		}
		path = path[:len(path)-1]
		color[n] = black
		return false
	}

	for _, id := range nodeIDs {
		if color[id] == white {
			if visit(id) {
				return cycle
			}
		}
	}
	return nil
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}
