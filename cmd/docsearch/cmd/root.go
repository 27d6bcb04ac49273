// Package cmd provides the CLI commands for docsearch.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gcbaptista/doc-search-index/internal/logger"
)

// Version is set at build time.
var Version = "dev"

// Global logging flags; empty values defer to the config file.
var (
	logLevel  string
	logFormat string
)

// NewRootCmd creates the root command for the docsearch CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docsearch",
		Short: "Search index for generated API documentation",
		Long: `docsearch builds and serves the index behind a documentation site's
search box: prefix suggestions over entity names, token lookups grouped
by entity category, and the display record for every documented page.

Build a bundle once and ship it with the site, or serve queries over HTTP.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, format := logLevel, logFormat
			if level == "" {
				level = "info"
			}
			if format == "" {
				format = "text"
			}
			logger.SetupWriter(cmd.ErrOrStderr(), level, format)
		},
	}

	cmd.SetVersionTemplate("docsearch version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text, json")

	cmd.AddCommand(newBuildCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newQueryCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx.
func ExecuteContext(ctx context.Context) error {
	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
