package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cellar/pkg/dag"
	"github.com/matzehuels/cellar/pkg/deps"
	"github.com/matzehuels/cellar/pkg/render"
)

type depsFlags struct {
	includeBuild bool
	tree         bool
	topological  bool
	graph        bool
	svg          string
}

// depsCommand creates the deps command.
func (c *CLI) depsCommand() *cobra.Command {
	var flags depsFlags

	cmd := &cobra.Command{
		Use:   "deps [flags] <formula>",
		Short: "Show the dependencies of a formula",
		Long: `Deps resolves the runtime dependency graph of a formula and prints it.

By default every recursive dependency is listed alphabetically. --tree draws
the graph as a tree, --topological lists it in install order and --graph
writes Graphviz DOT, or SVG with --svg.`,
		Example: `  cellar deps --tree wget
  cellar deps --graph --svg wget.svg wget`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := c.newInstaller()
			if err != nil {
				return err
			}
			name := deps.ShortName(args[0])
			if flags.svg != "" {
				flags.graph = true
			}

			var kinds []deps.Kind
			if flags.includeBuild {
				kinds = append(kinds, deps.KindBuild)
			}
			spin := c.spin(cmd.Context(), "Resolving dependencies...")
			g, err := inst.Resolver.Resolve(cmd.Context(), []string{name}, deps.Options{
				Kinds:  kinds,
				Logger: func(format string, args ...any) { c.Logger.Debugf(format, args...) },
			})
			spin.Stop()
			if err != nil {
				return err
			}
			if err := g.Validate(); err != nil {
				return err
			}
			c.Logger.Debug("resolved", "formula", name, "nodes", g.NodeCount(), "edges", g.EdgeCount())

			w := cmd.OutOrStdout()
			switch {
			case flags.tree:
				return render.Tree(w, g, name)
			case flags.topological:
				order, err := g.TopologicalSort()
				if err != nil {
					return err
				}
				for _, id := range order {
					if id != name {
						fmt.Fprintln(w, id)
					}
				}
				return nil
			case flags.graph:
				installed, err := inst.Layout.InstalledNames()
				if err != nil {
					return err
				}
				return c.writeGraph(cmd, g, installed, flags.svg)
			}
			for _, id := range g.AllDependencies(name) {
				fmt.Fprintln(w, id)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&flags.includeBuild, "include-build", false, "include build dependencies")
	cmd.Flags().BoolVar(&flags.tree, "tree", false, "show dependencies as a tree")
	cmd.Flags().BoolVar(&flags.topological, "topological", false, "list dependencies in install order")
	cmd.Flags().BoolVar(&flags.graph, "graph", false, "write the graph in Graphviz DOT format")
	cmd.Flags().StringVar(&flags.svg, "svg", "", "render the graph as SVG to this file (implies --graph)")
	cmd.MarkFlagsMutuallyExclusive("tree", "topological", "graph")

	return cmd
}

func (c *CLI) writeGraph(cmd *cobra.Command, g *dag.DAG, installed []string, svgPath string) error {
	marks := make(map[string]bool, len(installed))
	for _, name := range installed {
		marks[name] = true
	}
	dot := render.ToDOT(g, render.Options{Detailed: true, Installed: marks})
	if svgPath == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), dot)
		return err
	}

	svg, err := render.RenderSVG(cmd.Context(), dot)
	if err != nil {
		return err
	}
	if err := os.WriteFile(svgPath, svg, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", svgPath, err)
	}
	printSuccess("Rendered %d formulae", g.NodeCount())
	printFile(svgPath)
	return nil
}

// usesCommand creates the uses command.
func (c *CLI) usesCommand() *cobra.Command {
	var installedOnly bool

	cmd := &cobra.Command{
		Use:   "uses [flags] <formula>",
		Short: "Show formulae that depend on a formula",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := c.newInstaller()
			if err != nil {
				return err
			}
			spin := c.spin(cmd.Context(), "Searching dependents...")
			users, err := inst.Uses(cmd.Context(), args[0], installedOnly)
			spin.Stop()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, name := range users {
				fmt.Fprintln(w, name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&installedOnly, "installed", false, "only consider installed formulae")

	return cmd
}
