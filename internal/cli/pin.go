package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/cellar/pkg/deps"
)

// pinCommand creates the pin command.
func (c *CLI) pinCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pin <formula>...",
		Short: "Hold formulae at their installed version",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := c.newInstaller()
			if err != nil {
				return err
			}
			for _, name := range args {
				k, err := inst.Layout.Pin(deps.ShortName(name))
				if err != nil {
					return err
				}
				printSuccess("Pinned %s %s", StyleHighlight.Render(k.Name), k.Version)
			}
			return nil
		},
	}
}

// unpinCommand creates the unpin command.
func (c *CLI) unpinCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unpin <formula>...",
		Short: "Allow pinned formulae to be upgraded again",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := c.newInstaller()
			if err != nil {
				return err
			}
			for _, name := range args {
				name = deps.ShortName(name)
				removed, err := inst.Layout.Unpin(name)
				if err != nil {
					return err
				}
				if removed {
					printSuccess("Unpinned %s", StyleHighlight.Render(name))
				} else {
					printInfo("%s is not pinned", name)
				}
			}
			return nil
		},
	}
}
