package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/cellar/pkg/pipeline"
)

// upgradeCommand creates the upgrade command.
func (c *CLI) upgradeCommand() *cobra.Command {
	var opts pipeline.UpgradeOptions

	cmd := &cobra.Command{
		Use:   "upgrade [flags] [formula]...",
		Short: "Upgrade outdated formulae",
		Long: `Upgrade replaces the active keg of each named formula, or of every
outdated installed formula when none is named, with the current bottle.
Pinned formulae are left alone.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := c.newInstaller()
			if err != nil {
				return err
			}
			prog := c.track()
			results, err := inst.Upgrade(cmd.Context(), args, opts)
			printResults(results, "upgrade")
			if err != nil {
				return err
			}
			if opts.DryRun {
				return nil
			}
			if n := prog.done("Upgraded", results, pipeline.StatusUpgraded); n == 0 && len(args) == 0 {
				printInfo("Everything is up to date")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.KeepOld, "keep-old", false, "keep superseded versions in the Cellar")
	cmd.Flags().BoolVarP(&opts.DryRun, "dry-run", "n", false, "show what would be upgraded")

	return cmd
}
