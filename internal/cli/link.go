package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/cellar/pkg/link"
)

// linkCommand creates the link command.
func (c *CLI) linkCommand() *cobra.Command {
	var opts link.Options

	cmd := &cobra.Command{
		Use:     "link [flags] <formula>...",
		Aliases: []string{"ln"},
		Short:   "Symlink the active keg of formulae into the prefix",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := c.newInstaller()
			if err != nil {
				return err
			}
			opts.Verbose = c.Logger.GetLevel() <= LogDebug
			results, err := inst.Link(args, opts)
			printResults(results, "link")
			return err
		},
	}

	cmd.Flags().BoolVarP(&opts.DryRun, "dry-run", "n", false, "list the links that would be created")
	cmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "replace conflicting files in the prefix")

	return cmd
}

// unlinkCommand creates the unlink command.
func (c *CLI) unlinkCommand() *cobra.Command {
	var opts link.Options

	cmd := &cobra.Command{
		Use:   "unlink [flags] <formula>...",
		Short: "Remove the prefix symlinks of formulae",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := c.newInstaller()
			if err != nil {
				return err
			}
			opts.Verbose = c.Logger.GetLevel() <= LogDebug
			results, err := inst.Unlink(args, opts)
			printResults(results, "unlink")
			return err
		},
	}

	cmd.Flags().BoolVarP(&opts.DryRun, "dry-run", "n", false, "list the links that would be removed")

	return cmd
}
