package review

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/mrz1836/reviewapp/internal/domain"
	"github.com/mrz1836/reviewapp/internal/errors"
	"github.com/mrz1836/reviewapp/internal/logging"
	"github.com/mrz1836/reviewapp/internal/platform"
	"github.com/mrz1836/reviewapp/internal/transport"
)

// Reconciler converges the platform on a WorkloadSpec, keyed by name.
type Reconciler struct {
	platform platform.Platform
}

// NewReconciler creates a Reconciler over p.
func NewReconciler(p platform.Platform) *Reconciler {
	return &Reconciler{platform: p}
}

// Outcome is the result of a successful reconcile.
type Outcome struct {
	Workload *domain.Workload
	Action   domain.ReconcileAction
}

// PatchOps returns the update applied to an existing workload: image,
// description and labels, in that order. Nothing else is touched, so sizing
// an operator changed on the platform survives redeploys.
func PatchOps(spec domain.WorkloadSpec) []domain.PatchOp {
	return []domain.PatchOp{
		domain.Replace(domain.PathImage, spec.Image),
		domain.Replace(domain.PathDescription, spec.Description),
		domain.Replace(domain.PathLabels, domain.CloneLabels(spec.Labels)),
	}
}

// Reconcile creates the workload when none exists by spec.Name and patches
// it otherwise. Any platform failure is logged and returned.
func (r *Reconciler) Reconcile(ctx context.Context, target domain.TargetContext, spec domain.WorkloadSpec, log *logging.InvocationLog) (Outcome, error) {
	existing, err := r.platform.FindWorkload(ctx, target, spec.Name)
	switch {
	case err == nil:
		updated, err := r.platform.PatchWorkload(ctx, target, existing.ID, PatchOps(spec))
		if err != nil {
			return Outcome{}, workloadFailure(log, "creating", err)
		}
		log.Infof("Updated container with id %s", updated.ID)
		return Outcome{Workload: updated, Action: domain.ActionUpdated}, nil

	case stderrors.Is(err, platform.ErrNotFound):
		created, err := r.platform.CreateWorkload(ctx, target, spec)
		if err != nil {
			return Outcome{}, workloadFailure(log, "creating", err)
		}
		log.Infof("Created new container with id %s", created.ID)
		return Outcome{Workload: created, Action: domain.ActionCreated}, nil

	default:
		return Outcome{}, workloadFailure(log, "looking up", err)
	}
}

// workloadFailure logs "ERROR: error <verb> container: <cause>". Platform
// API errors render as "response code <code>: <message>".
func workloadFailure(log *logging.InvocationLog, verb string, err error) error {
	cause := err.Error()
	var apiErr *transport.APIError
	if stderrors.As(err, &apiErr) {
		cause = apiErr.Error()
	}
	log.Errorf("error %s container: %s", verb, cause)
	return fmt.Errorf("%w: %w", errors.ErrPlatformOperation, err)
}
