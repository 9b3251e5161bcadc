package dag

import (
	"fmt"
	"slices"

	"github.com/matzehuels/cellar/pkg/errors"
)

func cycleError(cycle []string) error {
	return &errors.CycleError{Cycle: cycle}
}

// DetectCycle returns the first cycle found, or nil when the graph is acyclic.
//
// Every node is visited, so cycles in components unreachable from the
// requested roots are found too. The returned path starts at the node where
// the cycle closes and ends with that same node repeated, e.g. [a b c a].
// Traversal follows insertion order, which makes the result deterministic.
func (d *DAG) DetectCycle() []string {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(d.nodes))
	var stack []string
	var cycle []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		color[id] = gray
		stack = append(stack, id)
		for _, child := range d.outgoing[id] {
			switch color[child] {
			case white:
				if dfs(child) {
					return true
				}
			case gray:
				start := slices.Index(stack, child)
				cycle = append(slices.Clone(stack[start:]), child)
				return true
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return false
	}

	for _, id := range d.order {
		if color[id] == white && dfs(id) {
			return cycle
		}
	}
	return nil
}

// TopologicalSort returns every node ordered so that each formula appears
// after all of its dependencies. This is the install order.
//
// A cycle yields a CIRCULAR_DEPENDENCY error carrying the cycle path. The
// order is produced with Kahn's algorithm over dependents → dependencies and
// then reversed; the initial queue is seeded in insertion order so equal
// inputs always produce the same order.
//
// TopologicalSort panics if Kahn's algorithm does not emit every node after
// cycle detection passed. That can only happen through a bug in this package.
func (d *DAG) TopologicalSort() ([]string, error) {
	if cycle := d.DetectCycle(); cycle != nil {
		return nil, cycleError(cycle)
	}

	indegree := make(map[string]int, len(d.nodes))
	for _, id := range d.order {
		indegree[id] = len(d.incoming[id])
	}

	queue := make([]string, 0, len(d.order))
	for _, id := range d.order {
		if indegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	sorted := make([]string, 0, len(d.order))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		sorted = append(sorted, id)
		for _, dep := range d.outgoing[id] {
			indegree[dep]--
			if indegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(sorted) != len(d.order) {
		panic(fmt.Sprintf("dag: topological sort emitted %d of %d nodes without a detected cycle", len(sorted), len(d.order)))
	}

	slices.Reverse(sorted)
	return sorted, nil
}

// AllDependencies returns the transitive dependency closure of name,
// excluding name itself, sorted lexicographically.
// Returns nil for unknown nodes and nodes without dependencies.
func (d *DAG) AllDependencies(name string) []string {
	return d.closure(name, d.outgoing)
}

// Dependents returns every node that depends on name directly or
// transitively, sorted lexicographically.
func (d *DAG) Dependents(name string) []string {
	return d.closure(name, d.incoming)
}

func (d *DAG) closure(name string, adj map[string][]string) []string {
	seen := map[string]bool{name: true}
	queue := slices.Clone(adj[name])
	var result []string
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if seen[id] {
			continue
		}
		seen[id] = true
		result = append(result, id)
		queue = append(queue, adj[id]...)
	}
	slices.Sort(result)
	return result
}
