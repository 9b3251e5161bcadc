// Package dag provides the dependency graph used to plan installs.
//
// # Overview
//
// A [DAG] holds one node per formula and one edge per "depends on" relation,
// pointing from a formula to its dependency. Outgoing edges keep declaration
// order and nodes keep insertion order, so every traversal in this package is
// deterministic for a given input.
//
// # Basic Usage
//
// Create a new graph with [New], add nodes with [DAG.AddNode], and edges with
// [DAG.AddEdge]:
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "wget"})
//	g.AddNode(dag.Node{ID: "openssl@3"})
//	g.AddEdge(dag.Edge{From: "wget", To: "openssl@3"})
//
// # Ordering
//
// [DAG.TopologicalSort] produces the install order: dependencies precede
// their dependents. It refuses cyclic graphs with a CIRCULAR_DEPENDENCY error
// from [github.com/matzehuels/cellar/pkg/errors] whose Cycle field lists the
// offending path. [DAG.DetectCycle] exposes the same check on its own.
//
// # Closures
//
// [DAG.AllDependencies] and [DAG.Dependents] compute transitive closures in
// either direction and return sorted results, which is what the `deps` and
// `uses` commands print.
package dag
