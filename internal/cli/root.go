// Package cli provides the command-line interface for reviewapp.
package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrz1836/reviewapp/internal/errors"
)

// BuildInfo contains version information set at build time via ldflags.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// globalLogger is set during PersistentPreRunE and read through GetLogger.
var (
	globalLogger   zerolog.Logger //nolint:gochecknoglobals // CLI logger requires global access
	globalLoggerMu sync.RWMutex   //nolint:gochecknoglobals // protects globalLogger
)

// GetLogger returns the logger initialized by the root command. Called
// before PersistentPreRunE it returns a zero logger that discards output.
func GetLogger() zerolog.Logger {
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	return globalLogger
}

func newRootCmd(flags *GlobalFlags, info BuildInfo) *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "reviewapp",
		Short: "Deploy and tear down per-branch UI review apps",
		Long: `reviewapp runs from a CI job to put the UI build of a merge request behind
its own public URL, and to remove it again when the environment is stopped.

A deploy resolves the target organization, environment and provider on the
platform, creates or updates the review workload, points the GitLab
environment's external_url at the new address and announces it in Slack.
Every run prints an invocation log; a fatal step exits non-zero.`,
		Version: formatVersion(info),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := BindGlobalFlags(v, cmd); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}
			if !IsValidOutputFormat(flags.Output) {
				return fmt.Errorf("%w: %q must be one of %v", errors.ErrInvalidOutputFormat, flags.Output, ValidOutputFormats())
			}

			globalLoggerMu.Lock()
			globalLogger = InitLogger(flags.Verbose, flags.Quiet)
			globalLoggerMu.Unlock()
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	AddGlobalFlags(cmd, flags)

	AddDeployCommand(cmd, flags)
	AddStopCommand(cmd, flags)
	AddServeCommand(cmd, flags)
	AddHistoryCommand(cmd, flags)
	AddConfigCommand(cmd, flags)

	return cmd
}

func formatVersion(info BuildInfo) string {
	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Commit == "" {
		info.Commit = "none"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.Date)
}

// Execute runs the root command with the provided context and build info.
func Execute(ctx context.Context, info BuildInfo) error {
	flags := &GlobalFlags{}
	//nolint:contextcheck // cobra hands ctx to subcommands via cmd.Context()
	cmd := newRootCmd(flags, info)
	return cmd.ExecuteContext(ctx)
}
