// Package platform abstracts the infrastructure that runs review workloads.
//
// Three backends implement Platform: Meta (the Gestalt Meta HTTP API),
// Docker (a single Docker engine) and Memory (in-process, for tests and
// dry runs). Find methods return an error matching ErrNotFound when the
// named record does not exist; every other error is a transport or
// platform failure.
package platform

import (
	"context"
	"fmt"

	"github.com/mrz1836/reviewapp/internal/domain"
	"github.com/mrz1836/reviewapp/internal/errors"
)

// ErrNotFound is matched (via errors.Is) by every "no such record" result.
var ErrNotFound = errors.ErrNotFound //nolint:gochecknoglobals // sentinel alias

// Platform is the set of operations the review reconcilers need.
type Platform interface {
	// Describe returns a one-line description of the backend, e.g. its URL.
	Describe() string

	FindOrganization(ctx context.Context, name string) (domain.Handle, error)
	FindEnvironment(ctx context.Context, org domain.Handle, name string) (domain.Handle, error)
	FindProvider(ctx context.Context, org domain.Handle, name string) (domain.Handle, error)

	// FindWorkload looks a workload up by name within the target's
	// organization and environment.
	FindWorkload(ctx context.Context, target domain.TargetContext, name string) (*domain.Workload, error)
	CreateWorkload(ctx context.Context, target domain.TargetContext, spec domain.WorkloadSpec) (*domain.Workload, error)
	PatchWorkload(ctx context.Context, target domain.TargetContext, id string, ops []domain.PatchOp) (*domain.Workload, error)
	DeleteWorkload(ctx context.Context, target domain.TargetContext, id string) error
}

// notFound wraps ErrNotFound with the kind and name that were looked up.
func notFound(kind, name string) error {
	return fmt.Errorf("%s %q: %w", kind, name, ErrNotFound)
}

// patchedFields is the result of applying replace ops to a workload.
type patchedFields struct {
	image       *string
	description *string
	labels      map[string]string
	hasLabels   bool
}

// readPatch interprets ops. Only replace on the image, description and
// labels paths is supported.
func readPatch(ops []domain.PatchOp) (patchedFields, error) {
	var p patchedFields
	for _, op := range ops {
		if op.Op != domain.PatchOpReplace {
			return p, errors.Wrapf(errors.ErrUnsupportedPatch, "op %q", op.Op)
		}
		switch op.Path {
		case domain.PathImage:
			s, ok := op.Value.(string)
			if !ok {
				return p, errors.Wrapf(errors.ErrUnsupportedPatch, "%s expects a string", op.Path)
			}
			p.image = &s
		case domain.PathDescription:
			s, ok := op.Value.(string)
			if !ok {
				return p, errors.Wrapf(errors.ErrUnsupportedPatch, "%s expects a string", op.Path)
			}
			p.description = &s
		case domain.PathLabels:
			labels, ok := op.Value.(map[string]string)
			if !ok {
				return p, errors.Wrapf(errors.ErrUnsupportedPatch, "%s expects a string map", op.Path)
			}
			p.labels = domain.CloneLabels(labels)
			p.hasLabels = true
		default:
			return p, errors.Wrapf(errors.ErrUnsupportedPatch, "path %q", op.Path)
		}
	}
	return p, nil
}

// apply writes the patched fields onto w.
func (p patchedFields) apply(w *domain.Workload) {
	if p.image != nil {
		w.Image = *p.image
	}
	if p.description != nil {
		w.Description = *p.description
	}
	if p.hasLabels {
		w.Labels = domain.CloneLabels(p.labels)
	}
}
