package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/cellar/pkg/buildinfo"
	"github.com/matzehuels/cellar/pkg/observability"
)

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           appName,
		Short:         "Cellar installs prebuilt Homebrew bottles",
		Long:          `Cellar is a bottle-only package manager. It resolves formula dependencies, pours prebuilt bottles into a versioned Cellar and links them into a shared prefix.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				c.SetLogLevel(LogDebug)
				observability.NewLogHooks(c.Logger).Register()
			}
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.installCommand())
	root.AddCommand(c.upgradeCommand())
	root.AddCommand(c.uninstallCommand())
	root.AddCommand(c.autoremoveCommand())
	root.AddCommand(c.linkCommand())
	root.AddCommand(c.unlinkCommand())
	root.AddCommand(c.pinCommand())
	root.AddCommand(c.unpinCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.leavesCommand())
	root.AddCommand(c.outdatedCommand())
	root.AddCommand(c.depsCommand())
	root.AddCommand(c.usesCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}
