package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/xbuild/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Clean the artifact cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, _ := cmd.Flags().GetBool("engine")
			all, _ := cmd.Flags().GetBool("all")
			downloads, _ := cmd.Flags().GetBool("downloads")

			opts := app.CleanOptions{GlobalOptions: globalOptions(cmd)}

			switch {
			case all:
				opts.All = true
			case engine:
				opts.Engine = true
				opts.Downloads = downloads
			default:
				// Default behavior: clean raw downloads
				opts.Downloads = true
			}

			return c.app.Clean(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolP("downloads", "d", false, "Clean raw downloads and unpacked frameworks")
	cmd.Flags().BoolP("engine", "e", false, "Clean extracted engine artifacts")
	cmd.Flags().Bool("all", false, "Clean the whole cache, including SDKs")

	return cmd
}
