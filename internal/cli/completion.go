package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// completionCommand prints a completion script for the requested shell.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion bash|zsh|fish|powershell",
		Short: "Print a shell completion script",
		Long: `Print a completion script for cellar to stdout.

Formula completion scripts poured by cellar itself land in
<prefix>/etc/bash_completion.d and <prefix>/share/zsh/site-functions, so
the simplest setup is to write cellar's own script next to them.`,
		Example: `  source <(cellar completion bash)
  cellar completion zsh > <prefix>/share/zsh/site-functions/_cellar
  cellar completion fish > ~/.config/fish/completions/cellar.fish`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, out := cmd.Root(), cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(out)
			}
			return fmt.Errorf("unsupported shell %q", args[0])
		},
	}
}
