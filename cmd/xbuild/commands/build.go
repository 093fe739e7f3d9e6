package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/xbuild/internal/app"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Compile the application for the selected target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			platform, _ := cmd.Flags().GetString("platform")
			archs, _ := cmd.Flags().GetStringSlice("arch")
			opt, _ := cmd.Flags().GetString("opt")
			dex, _ := cmd.Flags().GetBool("dex")
			upgrade, _ := cmd.Flags().GetBool("upgrade")

			return c.app.Build(cmd.Context(), app.BuildOptions{
				GlobalOptions: globalOptions(cmd),
				Platform:      platform,
				Archs:         archs,
				Opt:           opt,
				Dex:           dex,
				Upgrade:       upgrade,
			})
		},
	}
	cmd.Flags().StringP("platform", "p", "", "Target platform: linux, windows, macos, android, or ios")
	cmd.Flags().StringSliceP("arch", "a", nil, "Target architectures: x64, arm64 (repeatable)")
	cmd.Flags().String("opt", "", "Optimization level: debug or release")
	cmd.Flags().Bool("dex", false, "Build classes.dex for Android targets")
	cmd.Flags().Bool("upgrade", false, "Run pub upgrade instead of pub get")
	return cmd
}
