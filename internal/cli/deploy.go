package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrz1836/reviewapp/internal/domain"
)

// AddDeployCommand adds the deploy command to root.
func AddDeployCommand(root *cobra.Command, global *GlobalFlags) {
	f := &invokeFlags{}
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Create or update the review app for a branch",
		Long: `Create or update the review app for a GitLab environment.

The workload is named after the slug and served at
https://<host_prefix><slug>.<domain_suffix>. An existing workload is updated
in place (image, description and labels), never replaced.

Examples:
  reviewapp deploy --slug feature-x --image registry.gitlab.com/group/ui:abc123
  reviewapp deploy --payload request.json
  echo '{"gitlab_env_slug":"feature-x","image":"ui:abc"}' | reviewapp deploy --payload -
  reviewapp deploy --slug feature-x --image ui:abc --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInvocation(cmd, global, f, domain.OperationDeploy)
		},
	}
	addInvokeFlags(cmd, f, true)
	root.AddCommand(cmd)
}
