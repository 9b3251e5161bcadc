package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/cellar/pkg/pipeline"
)

// installCommand creates the install command.
func (c *CLI) installCommand() *cobra.Command {
	var opts pipeline.Options

	cmd := &cobra.Command{
		Use:   "install [flags] <formula>...",
		Short: "Install formulae and their dependencies from bottles",
		Long: `Install pours the bottle of each named formula into the Cellar, after
pouring the bottles of its runtime dependencies, and links it into the prefix.`,
		Example: `  cellar install wget
  cellar install --dry-run jq ripgrep
  cellar install --ignore-dependencies --no-link openssl@3`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := c.newInstaller()
			if err != nil {
				return err
			}
			prog := c.track()
			results, err := inst.Install(cmd.Context(), args, opts)
			printResults(results, "install")
			if err != nil {
				return err
			}
			if !opts.DryRun {
				prog.done("Installed", results, pipeline.StatusInstalled)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.IgnoreDependencies, "ignore-dependencies", false, "install only the named formulae")
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "reinstall formulae that are already installed")
	cmd.Flags().BoolVar(&opts.IncludeBuild, "include-build", false, "also install build dependencies")
	cmd.Flags().BoolVar(&opts.NoLink, "no-link", false, "do not link into the prefix")
	cmd.Flags().BoolVarP(&opts.DryRun, "dry-run", "n", false, "show what would be installed")

	return cmd
}

