// Package deps describes formulae and builds their dependency graphs.
//
// # Overview
//
// A [Formula] is the read-only package descriptor served by a [Provider]:
// name, versions, declared dependencies by kind, and the per-platform
// bottle table. The registry client in integrations/formulae and the
// in-memory [StaticProvider] both implement [Provider].
//
// # Resolving Dependencies
//
// [Resolver.Resolve] expands a set of requested names into a [dag.DAG]:
//
//	r := deps.NewResolver(provider)
//	g, err := r.Resolve(ctx, []string{"wget"}, deps.Options{})
//	order, err := g.TopologicalSort()
//
// Runtime dependencies are always followed. [Options].Kinds adds build,
// test, recommended or optional dependencies. Every name is fetched at most
// once per call, and each node carries its descriptor under [MetaFormula]
// so later stages do not ask the provider again.
//
// Resolution does not reject cycles. The returned graph is validated by
// [dag.DAG.TopologicalSort], which reports CIRCULAR_DEPENDENCY with the
// cycle path.
//
// [dag.DAG]: github.com/matzehuels/cellar/pkg/dag.DAG
// [dag.DAG.TopologicalSort]: github.com/matzehuels/cellar/pkg/dag.DAG.TopologicalSort
package deps
