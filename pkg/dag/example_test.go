package dag_test

import (
	"fmt"

	"github.com/matzehuels/cellar/pkg/dag"
)

func ExampleDAG_TopologicalSort() {
	// wget → openssl@3 → ca-certificates, wget → libidn2 → libunistring
	g := dag.New(nil)
	for _, id := range []string{"wget", "openssl@3", "libidn2", "ca-certificates", "libunistring"} {
		_ = g.AddNode(dag.Node{ID: id})
	}
	_ = g.AddEdge(dag.Edge{From: "wget", To: "openssl@3"})
	_ = g.AddEdge(dag.Edge{From: "wget", To: "libidn2"})
	_ = g.AddEdge(dag.Edge{From: "openssl@3", To: "ca-certificates"})
	_ = g.AddEdge(dag.Edge{From: "libidn2", To: "libunistring"})

	order, err := g.TopologicalSort()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(order)
	// Output:
	// [libunistring ca-certificates libidn2 openssl@3 wget]
}

func ExampleDAG_DetectCycle() {
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "a"})
	_ = g.AddNode(dag.Node{ID: "b"})
	_ = g.AddNode(dag.Node{ID: "c"})
	_ = g.AddEdge(dag.Edge{From: "a", To: "b"})
	_ = g.AddEdge(dag.Edge{From: "b", To: "c"})
	_ = g.AddEdge(dag.Edge{From: "c", To: "a"})

	fmt.Println(g.DetectCycle())
	// Output:
	// [a b c a]
}

func ExampleDAG_AllDependencies() {
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "curl"})
	_ = g.AddNode(dag.Node{ID: "openssl@3"})
	_ = g.AddNode(dag.Node{ID: "ca-certificates"})
	_ = g.AddEdge(dag.Edge{From: "curl", To: "openssl@3"})
	_ = g.AddEdge(dag.Edge{From: "openssl@3", To: "ca-certificates"})

	fmt.Println("deps:", g.AllDependencies("curl"))
	fmt.Println("uses:", g.Dependents("ca-certificates"))
	// Output:
	// deps: [ca-certificates openssl@3]
	// uses: [curl openssl@3]
}
