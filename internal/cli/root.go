// Package cli implements the supportctl command-line tool.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/capitalize-ai/support-router/internal/app"
	"github.com/capitalize-ai/support-router/internal/config"
	"github.com/capitalize-ai/support-router/pkg/logger"
)

var (
	appVersion = "dev"
	appCommit  = "none"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit string) {
	appVersion = version
	appCommit = commit
}

// NewRootCommand builds the supportctl command tree.
func NewRootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "supportctl",
		Short: "Manage the support router knowledge base and try out messages",
		Long: `supportctl works against the same database and configuration as the API
server. Configuration comes from the environment or a .env file.

Use it to load documents into the knowledge base, watch a directory for
document changes, send a message through the router, and issue API tokens.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	open := func(ctx context.Context) (*app.App, error) {
		cfg := config.Load()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		level := "warn"
		if verbose {
			level = "debug"
		}
		log, err := logger.New(level)
		if err != nil {
			return nil, fmt.Errorf("creating logger: %w", err)
		}
		return app.New(ctx, cfg, log)
	}

	root.AddCommand(
		newIngestCommand(open),
		newSeedCommand(open),
		newDocumentsCommand(open),
		newAskCommand(open),
		newWatchCommand(open),
		newTokenCommand(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "supportctl %s\ncommit: %s\n", appVersion, appCommit)
			},
		},
	)
	return root
}

type openFunc func(ctx context.Context) (*app.App, error)

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}
