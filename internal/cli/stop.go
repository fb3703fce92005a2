package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrz1836/reviewapp/internal/domain"
)

// AddStopCommand adds the stop command to root.
func AddStopCommand(root *cobra.Command, global *GlobalFlags) {
	f := &invokeFlags{}
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Tear down the review app for a branch",
		Long: `Delete the review workload of a GitLab environment.

Stopping an environment that has no workload succeeds, so the job can be
re-run safely.

Examples:
  reviewapp stop --slug feature-x
  reviewapp stop --payload request.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInvocation(cmd, global, f, domain.OperationStop)
		},
	}
	addInvokeFlags(cmd, f, false)
	root.AddCommand(cmd)
}
