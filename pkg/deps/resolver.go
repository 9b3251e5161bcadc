package deps

import (
	"context"
	"fmt"

	"github.com/matzehuels/cellar/pkg/dag"
	"github.com/matzehuels/cellar/pkg/errors"
	"github.com/matzehuels/cellar/pkg/observability"
)

// MetaFormula is the node metadata key holding the *Formula a node was
// resolved from.
const MetaFormula = "formula"

// Resolver builds dependency graphs from a Provider.
type Resolver struct {
	provider Provider
}

// NewResolver creates a Resolver backed by provider.
func NewResolver(provider Provider) *Resolver {
	return &Resolver{provider: provider}
}

// Resolve fetches every root and its transitive dependencies and returns a
// graph with one node per formula and an edge per declared dependency.
//
// Each name is fetched at most once per call. Recursion is bounded by the
// visited set, not by graph shape, so cyclic registry data terminates and is
// left for [dag.DAG.TopologicalSort] to reject. Any name the provider cannot
// resolve fails the whole build with PACKAGE_NOT_FOUND naming it.
func (r *Resolver) Resolve(ctx context.Context, roots []string, opts Options) (*dag.DAG, error) {
	opts = opts.WithDefaults()
	b := &builder{
		ctx:     ctx,
		opts:    opts,
		fetch:   r.provider.Formula,
		g:       dag.New(nil),
		visited: make(map[string]bool),
	}
	for _, root := range roots {
		if err := b.visit(ShortName(root), ""); err != nil {
			return nil, err
		}
	}
	observability.Install().OnResolve(ctx, roots, b.g.NodeCount())
	return b.g, nil
}

type builder struct {
	ctx     context.Context
	opts    Options
	fetch   func(context.Context, string, bool) (*Formula, error)
	g       *dag.DAG
	visited map[string]bool
}

func (b *builder) visit(name, parent string) error {
	if err := b.ctx.Err(); err != nil {
		return err
	}
	if b.visited[name] {
		return nil
	}
	b.visited[name] = true

	f, err := b.fetch(b.ctx, name, b.opts.Refresh)
	if err != nil {
		if errors.Is(err, errors.ErrCodePackageNotFound) && parent != "" {
			return errors.Wrap(errors.ErrCodePackageNotFound, err, "%s (required by %s)", name, parent)
		}
		return fmt.Errorf("resolve %s: %w", name, err)
	}

	meta := dag.Metadata(f.Metadata())
	meta[MetaFormula] = f
	_ = b.g.AddNode(dag.Node{ID: name, Meta: meta})
	b.opts.Logger("resolved %s %s", name, f.PkgVersion())

	for _, dep := range f.DependencyNames(b.opts.Kinds...) {
		if err := b.visit(dep, name); err != nil {
			return err
		}
		_ = b.g.AddEdge(dag.Edge{From: name, To: dep})
	}
	return nil
}

// FormulaOf returns the descriptor stored on a resolved node, or nil.
func FormulaOf(g *dag.DAG, name string) *Formula {
	n, ok := g.Node(name)
	if !ok {
		return nil
	}
	f, _ := n.Meta[MetaFormula].(*Formula)
	return f
}
