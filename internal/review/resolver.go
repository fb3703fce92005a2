package review

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/mrz1836/reviewapp/internal/domain"
	"github.com/mrz1836/reviewapp/internal/errors"
	"github.com/mrz1836/reviewapp/internal/logging"
	"github.com/mrz1836/reviewapp/internal/platform"
)

// Resolver turns the configured target names into platform handles.
type Resolver struct {
	platform platform.Platform
}

// NewResolver creates a Resolver over p.
func NewResolver(p platform.Platform) *Resolver {
	return &Resolver{platform: p}
}

// Resolve looks up the organization, the environment and, when
// withProvider is set, the provider. The first failure is logged and
// returned; a missing record matches errors.ErrTargetNotFound.
func (r *Resolver) Resolve(ctx context.Context, cfg Config, withProvider bool, log *logging.InvocationLog) (domain.TargetContext, error) {
	var target domain.TargetContext

	org, err := r.platform.FindOrganization(ctx, cfg.Organization)
	if err != nil {
		return target, resolveFailure(log, "org", cfg.Organization, err)
	}
	target.Organization = org

	env, err := r.platform.FindEnvironment(ctx, org, cfg.Environment)
	if err != nil {
		return target, resolveFailure(log, "environment", cfg.Environment, err)
	}
	target.Environment = env

	if !withProvider {
		return target, nil
	}
	provider, err := r.platform.FindProvider(ctx, org, cfg.Provider)
	if err != nil {
		return target, resolveFailure(log, "provider", cfg.Provider, err)
	}
	target.Provider = provider
	return target, nil
}

func resolveFailure(log *logging.InvocationLog, kind, name string, err error) error {
	if stderrors.Is(err, platform.ErrNotFound) {
		log.Errorf("could not find target %s", kind)
		return fmt.Errorf("target %s %q: %w", kind, name, errors.ErrTargetNotFound)
	}
	log.Errorf("could not look up target %s: %v", kind, err)
	return errors.Wrapf(err, "look up target %s %q", kind, name)
}
