package history

import (
	"context"
	"sync"

	"github.com/mrz1836/reviewapp/internal/domain"
)

// Memory is an in-process Store. It is the default for one-shot CLI runs,
// where history only lives as long as the process.
type Memory struct {
	mu         sync.RWMutex
	maxEntries int
	byID       map[string]domain.Invocation
	bySlug     map[string][]string // newest first
}

// NewMemory creates a Memory store retaining maxEntries results per slug.
func NewMemory(maxEntries int) *Memory {
	return &Memory{
		maxEntries: maxEntries,
		byID:       make(map[string]domain.Invocation),
		bySlug:     make(map[string][]string),
	}
}

// Save implements Store.
func (m *Memory) Save(ctx context.Context, inv domain.Invocation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	_, seen := m.byID[inv.ID]
	m.byID[inv.ID] = inv
	if inv.Slug == "" || seen {
		return nil
	}

	ids := append([]string{inv.ID}, m.bySlug[inv.Slug]...)
	if len(ids) > m.maxEntries {
		for _, old := range ids[m.maxEntries:] {
			delete(m.byID, old)
		}
		ids = ids[:m.maxEntries]
	}
	m.bySlug[inv.Slug] = ids
	return nil
}

// Get implements Store.
func (m *Memory) Get(ctx context.Context, id string) (domain.Invocation, error) {
	if err := ctx.Err(); err != nil {
		return domain.Invocation{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	inv, ok := m.byID[id]
	if !ok {
		return domain.Invocation{}, notFound(id)
	}
	return inv, nil
}

// List implements Store.
func (m *Memory) List(ctx context.Context, slug string, limit int) ([]domain.Invocation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := m.bySlug[slug]
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]domain.Invocation, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.byID[id])
	}
	return out, nil
}

// Close implements Store.
func (m *Memory) Close() error { return nil }

var _ Store = (*Memory)(nil)
