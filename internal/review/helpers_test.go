package review

import (
	"context"
	"sync"
	"time"

	"github.com/mrz1836/reviewapp/internal/clock"
	"github.com/mrz1836/reviewapp/internal/domain"
	"github.com/mrz1836/reviewapp/internal/errors"
	"github.com/mrz1836/reviewapp/internal/platform"
)

const (
	testOrg      = "galacticfog.com"
	testEnv      = "ui-review"
	testProvider = "dcos"
)

func testConfig() Config {
	return Config{Organization: testOrg, Environment: testEnv, Provider: testProvider}
}

func testClock() *clock.FixedClock {
	return clock.NewFixedClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
}

func seededPlatform() *platform.Memory {
	return platform.NewMemory().Seed(testOrg, testEnv, testProvider)
}

func testRequest() domain.ReviewRequest {
	return domain.ReviewRequest{
		Slug:      "feature-x",
		GitRef:    "feature/x",
		GitSHA:    "0a1b2c3",
		GitAuthor: "Dev One",
		Image:     "registry.gitlab.com/galacticfog/ui:0a1b2c3",
	}
}

// fakeRegistry is an in-memory Registry.
type fakeRegistry struct {
	mu        sync.Mutex
	envs      map[string]domain.EnvironmentRecord
	findErr   error
	updateErr error
	lookups   int
	updates   map[int64]string
}

func newFakeRegistry(envs ...domain.EnvironmentRecord) *fakeRegistry {
	r := &fakeRegistry{envs: make(map[string]domain.EnvironmentRecord), updates: make(map[int64]string)}
	for _, e := range envs {
		r.envs[e.Slug] = e
	}
	return r
}

func (r *fakeRegistry) FindEnvironmentBySlug(_ context.Context, slug string) (*domain.EnvironmentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups++
	if r.findErr != nil {
		return nil, r.findErr
	}
	e, ok := r.envs[slug]
	if !ok {
		return nil, errors.Wrapf(errors.ErrRegistryRecordNotFound, "slug %q", slug)
	}
	return &e, nil
}

func (r *fakeRegistry) UpdateEnvironment(_ context.Context, id int64, url string) (*domain.EnvironmentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	r.updates[id] = url
	return &domain.EnvironmentRecord{ID: id, ExternalURL: url}, nil
}

func (r *fakeRegistry) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookups + len(r.updates)
}

// recordingAnnouncer is a synchronous notify.Announcer.
type recordingAnnouncer struct {
	mu   sync.Mutex
	name string
	err  error
	got  []domain.Announcement
}

func (a *recordingAnnouncer) Name() string { return a.name }

func (a *recordingAnnouncer) Announce(_ context.Context, ann domain.Announcement) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.got = append(a.got, ann)
	return a.err
}

func (a *recordingAnnouncer) sent() []domain.Announcement {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.Announcement(nil), a.got...)
}
