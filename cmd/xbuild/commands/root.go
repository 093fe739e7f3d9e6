// Package commands implements the CLI commands for the xbuild tool.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/xbuild/internal/app"
	"go.trai.ch/xbuild/internal/build"
)

// CLI represents the command line interface for xbuild.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Build(ctx context.Context, opts app.BuildOptions) error
	Prefetch(ctx context.Context, opts app.PrefetchOptions) error
	Clean(ctx context.Context, opts app.CleanOptions) error
	Host(ctx context.Context, w io.Writer) error
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "xbuild",
		Short:         "Cross-platform build orchestrator for Flutter applications",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "Path to xbuild.yaml (default: search upwards from the working directory)")
	flags.String("cache", "", "Override the artifact cache directory")
	flags.Bool("verbose", false, "Enable debug logging")
	flags.StringP("output-mode", "o", "auto", "Output mode: auto, interactive, or linear")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newBuildCmd())
	rootCmd.AddCommand(c.newPrefetchCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newHostCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

func globalOptions(cmd *cobra.Command) app.GlobalOptions {
	config, _ := cmd.Flags().GetString("config")
	cache, _ := cmd.Flags().GetString("cache")
	verbose, _ := cmd.Flags().GetBool("verbose")
	outputMode, _ := cmd.Flags().GetString("output-mode")

	return app.GlobalOptions{
		Config:     config,
		Cache:      cache,
		Verbose:    verbose,
		OutputMode: outputMode,
	}
}
