package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/xbuild/internal/app"
)

func (c *CLI) newPrefetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefetch",
		Short: "Download the SDKs and engine artifacts the target needs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dex, _ := cmd.Flags().GetBool("dex")

			return c.app.Prefetch(cmd.Context(), app.PrefetchOptions{
				GlobalOptions: globalOptions(cmd),
				Dex:           dex,
			})
		},
	}
	cmd.Flags().Bool("dex", false, "Also fetch the jars needed to build classes.dex")
	return cmd
}
