// Package history keeps the results of past invocations so operators can see
// what happened to a review app without digging through CI job logs.
//
// Results are kept per slug, newest first, and trimmed to a fixed number of
// entries per slug. Results without a slug (requests rejected before a slug
// was known) are retrievable by id only.
package history

import (
	"context"
	"fmt"

	"github.com/mrz1836/reviewapp/internal/config"
	"github.com/mrz1836/reviewapp/internal/constants"
	"github.com/mrz1836/reviewapp/internal/domain"
	"github.com/mrz1836/reviewapp/internal/errors"
)

// Store defines the interface for invocation history persistence.
type Store interface {
	// Save records an invocation. Saving an id twice replaces the record.
	Save(ctx context.Context, inv domain.Invocation) error

	// Get retrieves an invocation by id.
	// Returns ErrInvocationNotFound if it does not exist.
	Get(ctx context.Context, id string) (domain.Invocation, error)

	// List returns up to limit invocations for slug, newest first.
	// A limit of zero or less returns every retained invocation.
	List(ctx context.Context, slug string, limit int) ([]domain.Invocation, error)

	// Close releases backend resources.
	Close() error
}

// Open creates the store selected by cfg.
func Open(ctx context.Context, cfg config.HistoryConfig) (Store, error) {
	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = constants.DefaultHistoryMaxEntries
	}
	switch cfg.Backend {
	case "", config.HistoryMemory:
		return NewMemory(maxEntries), nil
	case config.HistoryRedis:
		return NewRedis(ctx, cfg.RedisURL, maxEntries)
	default:
		return nil, fmt.Errorf("history backend %q: %w", cfg.Backend, errors.ErrConfigInvalidHistory)
	}
}

func notFound(id string) error {
	return fmt.Errorf("invocation %q: %w", id, errors.ErrInvocationNotFound)
}
