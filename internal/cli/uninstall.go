package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/cellar/pkg/pipeline"
)

// uninstallCommand creates the uninstall command.
func (c *CLI) uninstallCommand() *cobra.Command {
	var opts pipeline.UninstallOptions

	cmd := &cobra.Command{
		Use:     "uninstall [flags] <formula>...",
		Aliases: []string{"remove", "rm"},
		Short:   "Uninstall formulae",
		Long: `Uninstall unlinks and removes the active keg of each named formula.
It refuses when another installed formula still depends on it, unless
--ignore-dependencies or --force is given. --force removes every installed
version.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := c.newInstaller()
			if err != nil {
				return err
			}
			results, err := inst.Uninstall(cmd.Context(), args, opts)
			printResults(results, "uninstall")
			return err
		},
	}

	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "remove every installed version and ignore dependents")
	cmd.Flags().BoolVar(&opts.IgnoreDependencies, "ignore-dependencies", false, "do not check for installed dependents")

	return cmd
}

// autoremoveCommand creates the autoremove command.
func (c *CLI) autoremoveCommand() *cobra.Command {
	var opts pipeline.AutoremoveOptions

	cmd := &cobra.Command{
		Use:   "autoremove [flags]",
		Short: "Uninstall formulae that were only needed as dependencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := c.newInstaller()
			if err != nil {
				return err
			}
			results, err := inst.Autoremove(cmd.Context(), opts)
			if len(results) == 0 && err == nil {
				printInfo("Nothing to remove")
				return nil
			}
			printResults(results, "uninstall")
			return err
		},
	}

	cmd.Flags().BoolVarP(&opts.DryRun, "dry-run", "n", false, "list what would be removed")

	return cmd
}
