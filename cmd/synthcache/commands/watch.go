package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/synthcache/internal/engine/driver"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [files...]",
		Short: "Poll files for changes and rerun the driver on every change",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			top, _ := cmd.Flags().GetString("top")
			pollMillis, _ := cmd.Flags().GetInt("poll")
			port, _ := cmd.Flags().GetInt("port")
			once, _ := cmd.Flags().GetBool("once")

			opts := driver.WatchOptions{
				Files:              args,
				PollIntervalMillis: pollMillis,
				Once:               once,
				Run:                driver.RunOptions{Sources: args, Top: top},
			}
			// --port is reserved for a future network report endpoint; until
			// then, a nonzero port routes the same notification line to
			// stdout instead of dropping it.
			if port != 0 {
				opts.Report = cmd.OutOrStdout()
			}

			if once {
				_, _ = cmd.OutOrStdout().Write([]byte("Watch Mode: one-shot\n"))
				opts.Report = cmd.OutOrStdout()
			}

			return c.app.Watch(cmd.Context(), opts)
		},
	}

	cmd.Flags().String("top", "", "Top module hint passed to elaboration")
	cmd.Flags().Int("poll", 0, "Poll interval in milliseconds (defaults to 500)")
	cmd.Flags().Int("port", 0, "Report endpoint port (reserved for future use)")
	cmd.Flags().Bool("once", false, "Run once and exit instead of watching continuously")
	return cmd
}
