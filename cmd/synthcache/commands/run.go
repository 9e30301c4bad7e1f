package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/synthcache/internal/engine/driver"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [sources...]",
		Short: "Elaborate and synthesize a design, reusing cached results where possible",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			top, _ := cmd.Flags().GetString("top")
			full, _ := cmd.Flags().GetBool("full")
			noCache, _ := cmd.Flags().GetBool("no-cache")
			skipElaboration, _ := cmd.Flags().GetBool("skip-elaboration")
			conservative, _ := cmd.Flags().GetBool("conservative")
			stats, _ := cmd.Flags().GetBool("stats")

			result, err := c.app.Run(cmd.Context(), driver.RunOptions{
				Sources:         args,
				Top:             top,
				ForceFull:       full,
				NoCache:         noCache,
				SkipElaboration: skipElaboration,
				Conservative:    conservative,
			}, false)
			if err != nil || !stats {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "modules_total=%d modules_cached=%d modules_built=%d cache_hits=%d cache_misses=%d elapsed=%s\n",
				result.ModulesTotal, result.ModulesCached, result.ModulesBuilt,
				result.CacheHits, result.CacheMisses, result.Elapsed)
			return err
		},
	}

	cmd.Flags().String("top", "", "Top module hint passed to elaboration")
	cmd.Flags().Bool("full", false, "Bypass cache lookup; synthesize every module")
	cmd.Flags().Bool("no-cache", false, "Skip storing synthesized modules in the cache")
	cmd.Flags().Bool("skip-elaboration", false, "Reuse the design from the previous run instead of re-elaborating")
	cmd.Flags().Bool("conservative", false, "Widen the synthesis set to every cached dependent of a changed module")
	cmd.Flags().Bool("stats", false, "Print a run summary line to stdout")
	return cmd
}
