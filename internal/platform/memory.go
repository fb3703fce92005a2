package platform

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mrz1836/reviewapp/internal/domain"
	"github.com/mrz1836/reviewapp/internal/errors"
)

// Memory is an in-process Platform. It backs --dry-run and the reconciler
// tests. Failure fields inject errors into the next matching call.
type Memory struct {
	mu sync.Mutex

	orgs      map[string]domain.Handle
	envs      map[string]domain.Handle // key: orgID/name
	providers map[string]domain.Handle // key: orgID/name
	workloads map[string]*domain.Workload
	nextID    int

	// Calls counts invocations per method name.
	calls map[string]int

	// Inject errors for the corresponding operation when non-nil.
	// ResolveErr fails organization lookups; FindErr fails workload lookups.
	ResolveErr error
	FindErr    error
	CreateErr  error
	PatchErr   error
	DeleteErr  error
}

// NewMemory creates an empty Memory platform.
func NewMemory() *Memory {
	return &Memory{
		orgs:      make(map[string]domain.Handle),
		envs:      make(map[string]domain.Handle),
		providers: make(map[string]domain.Handle),
		workloads: make(map[string]*domain.Workload),
		calls:     make(map[string]int),
	}
}

// Seed registers an organization, environment and provider so they resolve.
// Empty names are skipped.
func (m *Memory) Seed(org, env, provider string) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()

	if org == "" {
		return m
	}
	o, ok := m.orgs[org]
	if !ok {
		o = domain.Handle{ID: "org-" + org, Name: org}
		m.orgs[org] = o
	}
	if env != "" {
		m.envs[o.ID+"/"+env] = domain.Handle{ID: "env-" + env, Name: env}
	}
	if provider != "" {
		m.providers[o.ID+"/"+provider] = domain.Handle{ID: "provider-" + provider, Name: provider}
	}
	return m
}

// Describe implements Platform.
func (m *Memory) Describe() string {
	return "memory://"
}

// Calls returns how many times method was invoked.
func (m *Memory) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// MutatingCalls returns the total number of create, patch and delete calls.
func (m *Memory) MutatingCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls["CreateWorkload"] + m.calls["PatchWorkload"] + m.calls["DeleteWorkload"]
}

// Workloads returns a snapshot of every stored workload ordered by name.
func (m *Memory) Workloads() []domain.Workload {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Workload, 0, len(m.workloads))
	for _, w := range m.workloads {
		cp := *w
		cp.Labels = domain.CloneLabels(w.Labels)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// PutWorkload stores w directly, bypassing CreateWorkload. Tests use it to
// model operator changes made on the platform.
func (m *Memory) PutWorkload(target domain.TargetContext, w domain.Workload) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := w
	cp.Labels = domain.CloneLabels(w.Labels)
	m.workloads[workloadKey(target, w.Name)] = &cp
}

func workloadKey(target domain.TargetContext, name string) string {
	return target.Organization.ID + "/" + target.Environment.ID + "/" + name
}

func (m *Memory) record(method string) {
	m.calls[method]++
}

// FindOrganization implements Platform.
func (m *Memory) FindOrganization(_ context.Context, name string) (domain.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("FindOrganization")
	if m.ResolveErr != nil {
		return domain.Handle{}, m.ResolveErr
	}
	if o, ok := m.orgs[name]; ok {
		return o, nil
	}
	return domain.Handle{}, notFound("organization", name)
}

// FindEnvironment implements Platform.
func (m *Memory) FindEnvironment(_ context.Context, org domain.Handle, name string) (domain.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("FindEnvironment")
	if e, ok := m.envs[org.ID+"/"+name]; ok {
		return e, nil
	}
	return domain.Handle{}, notFound("environment", name)
}

// FindProvider implements Platform.
func (m *Memory) FindProvider(_ context.Context, org domain.Handle, name string) (domain.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("FindProvider")
	if p, ok := m.providers[org.ID+"/"+name]; ok {
		return p, nil
	}
	return domain.Handle{}, notFound("provider", name)
}

// FindWorkload implements Platform.
func (m *Memory) FindWorkload(_ context.Context, target domain.TargetContext, name string) (*domain.Workload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("FindWorkload")
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	w, ok := m.workloads[workloadKey(target, name)]
	if !ok {
		return nil, notFound("workload", name)
	}
	cp := *w
	cp.Labels = domain.CloneLabels(w.Labels)
	return &cp, nil
}

// CreateWorkload implements Platform.
func (m *Memory) CreateWorkload(_ context.Context, target domain.TargetContext, spec domain.WorkloadSpec) (*domain.Workload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("CreateWorkload")
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	key := workloadKey(target, spec.Name)
	if _, exists := m.workloads[key]; exists {
		return nil, errors.Wrapf(errors.ErrPlatformOperation, "workload %q already exists", spec.Name)
	}
	m.nextID++
	w := &domain.Workload{
		ID:          fmt.Sprintf("wl-%04d", m.nextID),
		Name:        spec.Name,
		Description: spec.Description,
		Image:       spec.Image,
		Labels:      domain.CloneLabels(spec.Labels),
		Instances:   spec.Instances,
		CPUs:        spec.CPUs,
		MemoryMB:    spec.MemoryMB,
		Provider:    spec.Provider,
	}
	m.workloads[key] = w
	cp := *w
	cp.Labels = domain.CloneLabels(w.Labels)
	return &cp, nil
}

// PatchWorkload implements Platform.
func (m *Memory) PatchWorkload(_ context.Context, target domain.TargetContext, id string, ops []domain.PatchOp) (*domain.Workload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("PatchWorkload")
	if m.PatchErr != nil {
		return nil, m.PatchErr
	}
	w := m.byID(target, id)
	if w == nil {
		return nil, notFound("workload", id)
	}
	fields, err := readPatch(ops)
	if err != nil {
		return nil, err
	}
	fields.apply(w)
	cp := *w
	cp.Labels = domain.CloneLabels(w.Labels)
	return &cp, nil
}

// DeleteWorkload implements Platform.
func (m *Memory) DeleteWorkload(_ context.Context, target domain.TargetContext, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("DeleteWorkload")
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	for key, w := range m.workloads {
		if w.ID == id && key == workloadKey(target, w.Name) {
			delete(m.workloads, key)
			return nil
		}
	}
	return notFound("workload", id)
}

func (m *Memory) byID(target domain.TargetContext, id string) *domain.Workload {
	for key, w := range m.workloads {
		if w.ID == id && key == workloadKey(target, w.Name) {
			return w
		}
	}
	return nil
}

var _ Platform = (*Memory)(nil)
