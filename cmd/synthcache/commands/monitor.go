package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newMonitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Attach, detach or reset the change monitor's baseline",
	}

	cmd.AddCommand(c.newMonitorAttachCmd())
	cmd.AddCommand(c.newMonitorDetachCmd())
	cmd.AddCommand(c.newMonitorResetCmd())
	return cmd
}

func (c *CLI) newMonitorAttachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attach",
		Short: "Capture the current design as the change monitor's baseline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.MonitorAttach()
		},
	}
}

func (c *CLI) newMonitorDetachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detach",
		Short: "Discard the change monitor's baseline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.app.MonitorDetach()
			return nil
		},
	}
}

func (c *CLI) newMonitorResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Re-attach the baseline to the current design",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.MonitorReset()
		},
	}
}
