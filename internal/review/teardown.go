package review

import (
	"context"
	stderrors "errors"

	"github.com/mrz1836/reviewapp/internal/domain"
	"github.com/mrz1836/reviewapp/internal/logging"
	"github.com/mrz1836/reviewapp/internal/platform"
)

// Teardown removes a review workload by slug.
type Teardown struct {
	platform platform.Platform
}

// NewTeardown creates a Teardown over p.
func NewTeardown(p platform.Platform) *Teardown {
	return &Teardown{platform: p}
}

// Run deletes the workload named slug. A missing workload is logged and
// reported as ActionNone; deleting is idempotent.
func (t *Teardown) Run(ctx context.Context, target domain.TargetContext, slug string, log *logging.InvocationLog) (domain.ReconcileAction, string, error) {
	log.Infof("Will delete deployment associated with gitlab environment %s", slug)

	existing, err := t.platform.FindWorkload(ctx, target, slug)
	if stderrors.Is(err, platform.ErrNotFound) {
		log.Info("did not find any deployments matching that name")
		return domain.ActionNone, "", nil
	}
	if err != nil {
		return domain.ActionNone, "", workloadFailure(log, "looking up", err)
	}

	err = t.platform.DeleteWorkload(ctx, target, existing.ID)
	if stderrors.Is(err, platform.ErrNotFound) {
		// Removed between the lookup and the delete.
		log.Info("did not find any deployments matching that name")
		return domain.ActionNone, "", nil
	}
	if err != nil {
		return domain.ActionNone, existing.ID, workloadFailure(log, "deleting", err)
	}
	log.Infof("Deleted container with id %s", existing.ID)
	return domain.ActionDeleted, existing.ID, nil
}
