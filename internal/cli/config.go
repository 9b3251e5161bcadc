package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/cellar/pkg/bottle"
)

// configCommand creates the config command.
func (c *CLI) configCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			for _, kv := range cfg.Entries() {
				printKeyValue(kv[0], kv[1])
			}
			tag, err := bottle.HostTag(cfg.BottleTag)
			if err != nil {
				printWarning("no bottle tag for this platform: %v", err)
				return nil
			}
			printKeyValue("platform_tag", tag)
			return nil
		},
	}
}
