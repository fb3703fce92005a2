package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrz1836/reviewapp/internal/config"
	"github.com/mrz1836/reviewapp/internal/errors"
	"github.com/mrz1836/reviewapp/internal/history"
	"github.com/mrz1836/reviewapp/internal/tui"
)

type historyFlags struct {
	Limit int
	ID    string
}

// AddHistoryCommand adds the history command to root.
func AddHistoryCommand(root *cobra.Command, global *GlobalFlags) {
	f := &historyFlags{}
	cmd := &cobra.Command{
		Use:   "history [slug]",
		Short: "Show recorded invocations for a review app",
		Long: `List the recorded deploy and stop invocations of a review app, newest first,
or print one invocation log with --id.

History is only shared between processes with history.backend=redis.

Examples:
  reviewapp history feature-x
  reviewapp history feature-x --limit 5 -o json
  reviewapp history --id 3f1c...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slug := ""
			if len(args) == 1 {
				slug = args[0]
			}
			return runHistory(cmd, global, f, slug)
		},
	}
	cmd.Flags().IntVar(&f.Limit, "limit", 20, "maximum invocations to list (0 lists all retained)")
	cmd.Flags().StringVar(&f.ID, "id", "", "print a single invocation by id")
	root.AddCommand(cmd)
}

func runHistory(cmd *cobra.Command, global *GlobalFlags, f *historyFlags, slug string) error {
	ctx := cmd.Context()
	if slug == "" && f.ID == "" {
		return errors.NewExitCode2Error(errors.Wrap(errors.ErrInvalidArgument, "a slug or --id is required"))
	}
	if f.Limit < 0 {
		return errors.NewExitCode2Error(errors.Wrap(errors.ErrValueOutOfRange, "--limit must not be negative"))
	}

	cfg, err := config.LoadFile(ctx, global.ConfigFile)
	if err != nil {
		return err
	}
	store, err := history.Open(ctx, cfg.History)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	out := tui.NewOutput(cmd.OutOrStdout(), global.Output)

	if f.ID != "" {
		inv, err := store.Get(ctx, f.ID)
		if err != nil {
			return err
		}
		return out.Result(inv)
	}

	list, err := store.List(ctx, slug, f.Limit)
	if err != nil {
		return err
	}
	if global.Output == OutputJSON {
		return out.JSON(list)
	}
	if len(list) == 0 {
		out.Info("no invocations recorded for " + slug)
		return nil
	}
	out.Table(tui.HistoryRows(list))
	return nil
}
