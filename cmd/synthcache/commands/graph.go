package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (c *CLI) newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Inspect the module dependency graph",
	}

	cmd.AddCommand(c.newGraphBuildCmd())
	cmd.AddCommand(c.newGraphShowCmd())
	cmd.AddCommand(c.newGraphQueryCmd())
	return cmd
}

func (c *CLI) newGraphBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [sources...]",
		Short: "Elaborate sources and (re)build the dependency graph",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			top, _ := cmd.Flags().GetString("top")
			return c.app.GraphBuild(cmd.Context(), args, top)
		},
	}
	cmd.Flags().String("top", "", "Top module hint passed to elaboration")
	return cmd
}

func (c *CLI) newGraphShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the graph's modules in topological order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			order, err := c.app.GraphShow()
			if err != nil {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			}
			_, werr := fmt.Fprintln(cmd.OutOrStdout(), strings.Join(order, " "))
			return werr
		},
	}
}

func (c *CLI) newGraphQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query <module>",
		Short: "Show one module's direct and transitive dependencies/dependents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := c.app.GraphQuery(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, err = fmt.Fprintf(out,
				"module=%s\ndirect_dependencies=%s\ndirect_dependents=%s\ntransitive_dependencies=%s\ntransitive_dependents=%s\n",
				result.Module,
				strings.Join(result.DirectDependencies, ","),
				strings.Join(result.DirectDependents, ","),
				strings.Join(result.TransitiveDependencies, ","),
				strings.Join(result.TransitiveDependents, ","),
			)
			return err
		},
	}
}
