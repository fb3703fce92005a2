package review

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/mrz1836/reviewapp/internal/domain"
	"github.com/mrz1836/reviewapp/internal/errors"
	"github.com/mrz1836/reviewapp/internal/logging"
)

// Registry is the CI environment registry. *gitlab.Client implements it.
type Registry interface {
	// FindEnvironmentBySlug returns an error matching
	// errors.ErrRegistryRecordNotFound when no environment has the slug.
	FindEnvironmentBySlug(ctx context.Context, slug string) (*domain.EnvironmentRecord, error)
	UpdateEnvironment(ctx context.Context, envID int64, externalURL string) (*domain.EnvironmentRecord, error)
}

// Synchronizer points the CI environment for a slug at the review app.
// Nothing it does can fail the invocation.
type Synchronizer struct {
	registry Registry
}

// NewSynchronizer creates a Synchronizer. A nil registry makes Sync a
// logged no-op.
func NewSynchronizer(r Registry) *Synchronizer {
	return &Synchronizer{registry: r}
}

// Sync sets external_url on the environment whose slug matches. It returns
// true when the environment was updated, and false after logging a warning
// or a skip line.
func (s *Synchronizer) Sync(ctx context.Context, slug, url string, log *logging.InvocationLog) (bool, error) {
	if s.registry == nil {
		log.Info("GitLab registry not configured; skipping environment url update")
		return false, nil
	}

	log.Infof("search for environment with %s", slug)
	env, err := s.registry.FindEnvironmentBySlug(ctx, slug)
	if stderrors.Is(err, errors.ErrRegistryRecordNotFound) {
		log.Warnf("Could not locate GitLab environment in order to update external_url")
		return false, err
	}
	if err != nil {
		log.Warnf("GitLab environment lookup failed: %v", err)
		return false, fmt.Errorf("%w: %w", errors.ErrRegistryOperation, err)
	}

	log.Infof("Calling back to GitLab to update environment url: %d", env.ID)
	if _, err := s.registry.UpdateEnvironment(ctx, env.ID, url); err != nil {
		log.Warnf("GitLab environment update failed: %v", err)
		return false, fmt.Errorf("%w: %w", errors.ErrRegistryOperation, err)
	}
	return true, nil
}
