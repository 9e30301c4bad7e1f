package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.trai.ch/synthcache/internal/core/domain"
)

func (c *CLI) newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the module cache",
	}

	cmd.AddCommand(c.newCacheInitCmd())
	cmd.AddCommand(c.newCacheStatusCmd())
	cmd.AddCommand(c.newCacheListCmd())
	cmd.AddCommand(c.newCacheClearCmd())
	cmd.AddCommand(c.newCacheSaveCmd())
	cmd.AddCommand(c.newCacheInvalidateCmd())
	cmd.AddCommand(c.newCacheConfigureCmd())
	cmd.AddCommand(c.newCacheEvictCmd())
	return cmd
}

func (c *CLI) newCacheInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the cache directory and load its index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.CacheInit()
		},
	}
}

func (c *CLI) newCacheStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print entry count and hit/miss counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), c.app.CacheStatus())
			return err
		},
	}
}

func (c *CLI) newCacheListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every cache entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, entry := range c.app.CacheList() {
				_, err := fmt.Fprintf(out, "%s hits=%d size=%d age=%s\n",
					entry.Key.String(), entry.HitCount, entry.ArtifactSize,
					time.Since(entry.Timestamp).Round(time.Second))
				if err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func (c *CLI) newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every entry from the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.app.CacheClear()
			return nil
		},
	}
}

func (c *CLI) newCacheSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Persist the cache index to disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.CacheSave()
		},
	}
}

func (c *CLI) newCacheInvalidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate <module>",
		Short: "Remove every cache entry for the named module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.app.CacheInvalidate(args[0])
			return nil
		},
	}
}

func (c *CLI) newCacheConfigureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Persist cache limits (entries, size, age)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			maxEntries, _ := cmd.Flags().GetInt("max-entries")
			maxSizeMB, _ := cmd.Flags().GetInt64("max-size-mb")
			maxAgeDays, _ := cmd.Flags().GetInt("max-age-days")

			return c.app.CacheConfigure(domain.Limits{
				MaxEntries:  maxEntries,
				MaxSizeByte: maxSizeMB << 20,
				MaxAge:      time.Duration(maxAgeDays) * 24 * time.Hour,
			})
		},
	}
	cmd.Flags().Int("max-entries", 0, "Maximum number of retained entries (0 uses the built-in default)")
	cmd.Flags().Int64("max-size-mb", 0, "Maximum total artifact size in megabytes")
	cmd.Flags().Int("max-age-days", 0, "Maximum entry age in days")
	return cmd
}

func (c *CLI) newCacheEvictCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evict",
		Short: "Apply the persisted cache limits, removing entries that exceed them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			evicted, err := c.app.CacheEvict()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "evicted=%d\n", evicted)
			return err
		},
	}
}
