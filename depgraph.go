package cnext

import "sort"

// DependencyGraph tracks a dependent -> [dependency] multimap built
// from resolved #include edges, and produces the dependencies-first
// ordering the orchestrator needs before it can generate code for a
// file (§4.1, §5's "barrier").
type DependencyGraph struct {
	edges map[string][]string // dependent -> dependencies
	nodes map[string]bool
}

func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{edges: map[string][]string{}, nodes: map[string]bool{}}
}

// AddEdge records that `dependent` depends on `dependency` (dependent
// includes dependency).
func (g *DependencyGraph) AddEdge(dependent, dependency string) {
	g.nodes[dependent] = true
	g.nodes[dependency] = true
	for _, d := range g.edges[dependent] {
		if d == dependency {
			return
		}
	}
	g.edges[dependent] = append(g.edges[dependent], dependency)
}

// AddNode ensures a file with no includes still appears in the order.
func (g *DependencyGraph) AddNode(file string) {
	g.nodes[file] = true
}

// Order performs a reverse topological sort and returns files in
// dependency order (dependencies first), satisfying: for every edge
// A->B (A depends on B), B precedes A in the result (§8 "Include
// order"). It runs as a sequence of batches (see OrderBatches) and
// flattens them for callers that just need a linear order.
//
// On cycle detection it falls back to an arbitrary (but
// deterministic) order over the remaining nodes and returns a warning
// describing the cycle, per §4.1's "cycle-tolerant" contract.
func (g *DependencyGraph) Order() ([]string, []string) {
	batches, warnings := g.OrderBatches()
	var flat []string
	for _, b := range batches {
		flat = append(flat, b...)
	}
	return flat, warnings
}

// OrderBatches returns the dependency order as a sequence of
// same-depth batches: every file in batch i has all of its
// dependencies in batches 0..i-1. Batching lets the orchestrator
// parallelize generation of independent files within a batch while
// still respecting the cross-file barrier.
func (g *DependencyGraph) OrderBatches() ([][]string, []string) {
	// remaining dependency count per node, and reverse edges
	// (dependency -> dependents) to know who to unlock.
	remaining := map[string]int{}
	dependents := map[string][]string{}
	for n := range g.nodes {
		remaining[n] = len(g.edges[n])
	}
	for dependent, deps := range g.edges {
		for _, dep := range deps {
			dependents[dep] = append(dependents[dep], dependent)
		}
	}

	var batches [][]string
	done := map[string]bool{}
	for len(done) < len(g.nodes) {
		var ready []string
		for n := range g.nodes {
			if !done[n] && remaining[n] == 0 {
				ready = append(ready, n)
			}
		}
		if len(ready) == 0 {
			// Cycle: take whatever remains in deterministic order and
			// stop, per §4.1's "fall back to arbitrary order" policy.
			var rest []string
			for n := range g.nodes {
				if !done[n] {
					rest = append(rest, n)
				}
			}
			sort.Strings(rest)
			batches = append(batches, rest)
			return batches, []string{"circular include graph detected; falling back to arbitrary order for: " + joinSorted(rest)}
		}
		sort.Strings(ready)
		batches = append(batches, ready)
		for _, n := range ready {
			done[n] = true
		}
		for _, n := range ready {
			for _, dependent := range dependents[n] {
				remaining[dependent]--
			}
		}
	}
	return batches, nil
}

func joinSorted(items []string) string {
	sort.Strings(items)
	out := ""
	for i, it := range items {
		if i > 0 {
			out += ", "
		}
		out += it
	}
	return out
}
