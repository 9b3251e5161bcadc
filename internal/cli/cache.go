package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cellar/pkg/httputil"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage downloaded bottles and cached API responses",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove downloaded bottles and cached API responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if _, err := os.Stat(cfg.Cache); os.IsNotExist(err) {
				printInfo("Cache is empty")
				return nil
			}

			api, err := httputil.NewCache(cfg.APICacheDir(), 0)
			if err != nil {
				return err
			}
			entries, err := api.Clear()
			if err != nil {
				return fmt.Errorf("clear %s: %w", api.Dir(), err)
			}
			bottles, err := clearDownloads(cfg.DownloadsDir())
			if err != nil {
				return err
			}

			printSuccess("Removed %d bottles and %d cached responses", bottles, entries)
			printDetail("Directory: %s", cfg.Cache)
			return nil
		},
	}
}

// clearDownloads removes every file in dir, including partial downloads,
// and returns how many were removed.
func clearDownloads(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	count := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cfg.Cache)
			return nil
		},
	}
}
