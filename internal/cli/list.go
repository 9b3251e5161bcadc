package cli

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cellar/pkg/keg"
	"github.com/matzehuels/cellar/pkg/pipeline"
	"github.com/matzehuels/cellar/pkg/safety"
)

// listCommand creates the list command.
func (c *CLI) listCommand() *cobra.Command {
	var versions bool

	cmd := &cobra.Command{
		Use:     "list [flags]",
		Aliases: []string{"ls"},
		Short:   "List installed formulae",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := c.newInstaller()
			if err != nil {
				return err
			}
			kegs, tabs, err := inst.Installed()
			if err != nil {
				return err
			}
			if len(kegs) == 0 {
				printInfo("No formulae installed")
				return nil
			}

			w := cmd.OutOrStdout()
			if !versions {
				for _, name := range kegNames(kegs) {
					fmt.Fprintln(w, name)
				}
				return nil
			}

			rows, pinned := listRows(inst, kegs, tabs)
			printTable(w, []string{"Formula", "Versions", "Installed", "Reason"}, rows, pinned)
			return nil
		},
	}

	cmd.Flags().BoolVar(&versions, "versions", false, "show installed versions and receipts")

	return cmd
}

// listRows builds one row per formula. Kegs arrive grouped by name, oldest
// first, so the last keg of each group carries the newest receipt.
func listRows(inst *pipeline.Installer, kegs []keg.Keg, tabs map[keg.Keg]*keg.Tab) ([][]string, map[int]bool) {
	var rows [][]string
	pinned := make(map[int]bool)
	for start := 0; start < len(kegs); {
		end := start
		for end < len(kegs) && kegs[end].Name == kegs[start].Name {
			end++
		}
		group := kegs[start:end]
		latest := group[len(group)-1]
		tab := tabs[latest]

		var vs []string
		for _, k := range group {
			vs = append(vs, k.Version)
		}
		when := "-"
		if tab.Time > 0 {
			when = time.Unix(tab.Time, 0).Format("2006-01-02")
		}
		if inst.Layout.IsPinned(latest.Name) {
			pinned[len(rows)] = true
		}
		rows = append(rows, []string{latest.Name, strings.Join(vs, " "), when, installReason(tab)})
		start = end
	}
	return rows, pinned
}

func installReason(tab *keg.Tab) string {
	switch {
	case tab.InstalledOnRequest:
		return "on request"
	case tab.InstalledAsDependency:
		return "dependency"
	}
	return "-"
}

func kegNames(kegs []keg.Keg) []string {
	var names []string
	for _, k := range kegs {
		if len(names) == 0 || names[len(names)-1] != k.Name {
			names = append(names, k.Name)
		}
	}
	return names
}

// leavesCommand creates the leaves command.
func (c *CLI) leavesCommand() *cobra.Command {
	var filter safety.LeafFilter

	cmd := &cobra.Command{
		Use:   "leaves [flags]",
		Short: "List installed formulae that no other installed formula depends on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := c.newInstaller()
			if err != nil {
				return err
			}
			spin := c.spin(cmd.Context(), "Checking dependents...")
			leaves, err := inst.Leaves(cmd.Context(), filter)
			spin.Stop()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, name := range leaves {
				fmt.Fprintln(w, name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&filter.OnRequest, "installed-on-request", "r", false, "only leaves installed on request")
	cmd.Flags().BoolVarP(&filter.AsDependency, "installed-as-dependency", "p", false, "only leaves installed as dependencies")
	cmd.MarkFlagsMutuallyExclusive("installed-on-request", "installed-as-dependency")

	return cmd
}

// outdatedCommand creates the outdated command.
func (c *CLI) outdatedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "outdated",
		Short: "List installed formulae with newer versions available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := c.newInstaller()
			if err != nil {
				return err
			}
			spin := c.spin(cmd.Context(), "Checking for newer versions...")
			outdated, err := inst.Outdated(cmd.Context())
			spin.Stop()
			if err != nil {
				return err
			}
			if len(outdated) == 0 {
				printInfo("Everything is up to date")
				return nil
			}

			slices.SortFunc(outdated, func(a, b pipeline.Outdated) int { return strings.Compare(a.Name, b.Name) })
			rows := make([][]string, 0, len(outdated))
			pinned := make(map[int]bool)
			for i, o := range outdated {
				note := ""
				if o.Pinned {
					note = "pinned"
					pinned[i] = true
				}
				rows = append(rows, []string{o.Name, o.Installed, o.Current, note})
			}
			printTable(cmd.OutOrStdout(), []string{"Formula", "Installed", "Current", ""}, rows, pinned)
			return nil
		},
	}
}
