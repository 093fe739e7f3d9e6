package commands

import "github.com/spf13/cobra"

func (c *CLI) newHostCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "host",
		Short: "Print information about the build host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Host(cmd.Context(), cmd.OutOrStdout())
		},
	}
}
