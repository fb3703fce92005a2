package platform

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/mrz1836/reviewapp/internal/domain"
	"github.com/mrz1836/reviewapp/internal/errors"
	"github.com/mrz1836/reviewapp/internal/transport"
)

// expand asks Meta to return full resources from list endpoints.
//
//nolint:gochecknoglobals // constant query
var expand = url.Values{"expand": []string{"true"}}

// Meta is the Gestalt Meta API backend. Organizations are addressed by their
// fully qualified name (fqon); every other record by id.
type Meta struct {
	baseURL string
	client  *transport.Client
}

// NewMeta creates a Meta backend. The client should carry the configured
// service credentials; callers never forward a CI user's credentials.
func NewMeta(baseURL string, client *transport.Client) *Meta {
	return &Meta{baseURL: strings.TrimSuffix(baseURL, "/"), client: client}
}

// Meta wire types. Only the fields reviewapp reads or writes are modelled.
type (
	metaRef struct {
		ID   string `json:"id"`
		Name string `json:"name,omitempty"`
	}

	metaResource struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
		Properties  struct {
			Fqon string `json:"fqon,omitempty"`
		} `json:"properties"`
	}

	metaPortMapping struct {
		Protocol       string `json:"protocol"`
		Name           string `json:"name"`
		ExposeEndpoint bool   `json:"expose_endpoint"`
		ContainerPort  int    `json:"container_port"`
	}

	metaContainerProps struct {
		Provider      metaRef           `json:"provider"`
		NumInstances  int               `json:"num_instances"`
		CPUs          float64           `json:"cpus"`
		Memory        float64           `json:"memory"`
		Disk          float64           `json:"disk"`
		ContainerType string            `json:"container_type"`
		Image         string            `json:"image"`
		Network       string            `json:"network"`
		PortMappings  []metaPortMapping `json:"port_mappings"`
		Env           map[string]string `json:"env"`
		Labels        map[string]string `json:"labels"`
		ForcePull     bool              `json:"force_pull"`
	}

	metaContainer struct {
		ID          string             `json:"id,omitempty"`
		Name        string             `json:"name"`
		Description string             `json:"description"`
		Properties  metaContainerProps `json:"properties"`
	}
)

func (c metaContainer) workload() *domain.Workload {
	return &domain.Workload{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Image:       c.Properties.Image,
		Labels:      c.Properties.Labels,
		Instances:   c.Properties.NumInstances,
		CPUs:        c.Properties.CPUs,
		MemoryMB:    c.Properties.Memory,
		Provider:    domain.Handle{ID: c.Properties.Provider.ID, Name: c.Properties.Provider.Name},
	}
}

// ContainerPayload renders spec as the Meta container create body.
func ContainerPayload(spec domain.WorkloadSpec) any {
	ports := make([]metaPortMapping, 0, len(spec.PortMappings))
	for _, p := range spec.PortMappings {
		ports = append(ports, metaPortMapping{
			Protocol:       p.Protocol,
			Name:           p.Name,
			ExposeEndpoint: p.ExposeEndpoint,
			ContainerPort:  p.ContainerPort,
		})
	}
	return metaContainer{
		Name:        spec.Name,
		Description: spec.Description,
		Properties: metaContainerProps{
			Provider:      metaRef{ID: spec.Provider.ID},
			NumInstances:  spec.Instances,
			CPUs:          spec.CPUs,
			Memory:        spec.MemoryMB,
			Disk:          spec.DiskMB,
			ContainerType: spec.ContainerType,
			Image:         spec.Image,
			Network:       spec.Network,
			PortMappings:  ports,
			Env:           spec.Env,
			Labels:        spec.Labels,
			ForcePull:     spec.ForcePull,
		},
	}
}

func (m *Meta) url(parts ...string) string {
	var b strings.Builder
	b.WriteString(m.baseURL)
	for _, p := range parts {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(p))
	}
	return b.String()
}

// Describe implements Platform.
func (m *Meta) Describe() string {
	return m.baseURL
}

// FindOrganization implements Platform.
func (m *Meta) FindOrganization(ctx context.Context, name string) (domain.Handle, error) {
	if name == "" {
		return domain.Handle{}, notFound("organization", name)
	}
	var org metaResource
	if _, err := m.client.Do(ctx, transport.Request{Method: http.MethodGet, URL: m.url(name)}, &org); err != nil {
		if transport.IsStatus(err, http.StatusNotFound) {
			return domain.Handle{}, notFound("organization", name)
		}
		return domain.Handle{}, errors.Wrapf(err, "get organization %s", name)
	}
	fqon := org.Properties.Fqon
	if fqon == "" {
		fqon = name
	}
	return domain.Handle{ID: org.ID, Name: fqon}, nil
}

func (m *Meta) findChild(ctx context.Context, org domain.Handle, collection, kind, name string) (domain.Handle, error) {
	if name == "" {
		return domain.Handle{}, notFound(kind, name)
	}
	var list []metaResource
	req := transport.Request{Method: http.MethodGet, URL: m.url(org.Name, collection), Query: expand}
	if _, err := m.client.Do(ctx, req, &list); err != nil {
		return domain.Handle{}, errors.Wrapf(err, "list %s", collection)
	}
	for _, r := range list {
		if r.Name == name {
			return domain.Handle{ID: r.ID, Name: r.Name}, nil
		}
	}
	return domain.Handle{}, notFound(kind, name)
}

// FindEnvironment implements Platform.
func (m *Meta) FindEnvironment(ctx context.Context, org domain.Handle, name string) (domain.Handle, error) {
	return m.findChild(ctx, org, "environments", "environment", name)
}

// FindProvider implements Platform.
func (m *Meta) FindProvider(ctx context.Context, org domain.Handle, name string) (domain.Handle, error) {
	return m.findChild(ctx, org, "providers", "provider", name)
}

// FindWorkload implements Platform.
func (m *Meta) FindWorkload(ctx context.Context, target domain.TargetContext, name string) (*domain.Workload, error) {
	var list []metaContainer
	req := transport.Request{
		Method: http.MethodGet,
		URL:    m.url(target.Organization.Name, "environments", target.Environment.ID, "containers"),
		Query:  expand,
	}
	if _, err := m.client.Do(ctx, req, &list); err != nil {
		return nil, errors.Wrap(err, "list containers")
	}
	for _, c := range list {
		if c.Name == name {
			return c.workload(), nil
		}
	}
	return nil, notFound("workload", name)
}

// CreateWorkload implements Platform.
func (m *Meta) CreateWorkload(ctx context.Context, target domain.TargetContext, spec domain.WorkloadSpec) (*domain.Workload, error) {
	var created metaContainer
	req := transport.Request{
		Method: http.MethodPost,
		URL:    m.url(target.Organization.Name, "environments", target.Environment.ID, "containers"),
		Body:   ContainerPayload(spec),
	}
	if _, err := m.client.Do(ctx, req, &created); err != nil {
		return nil, err
	}
	return created.workload(), nil
}

// PatchWorkload implements Platform. The ops are sent verbatim as the body.
func (m *Meta) PatchWorkload(ctx context.Context, target domain.TargetContext, id string, ops []domain.PatchOp) (*domain.Workload, error) {
	if _, err := readPatch(ops); err != nil {
		return nil, err
	}
	var patched metaContainer
	req := transport.Request{
		Method: http.MethodPatch,
		URL:    m.url(target.Organization.Name, "containers", id),
		Body:   ops,
	}
	if _, err := m.client.Do(ctx, req, &patched); err != nil {
		return nil, err
	}
	return patched.workload(), nil
}

// DeleteWorkload implements Platform.
func (m *Meta) DeleteWorkload(ctx context.Context, target domain.TargetContext, id string) error {
	req := transport.Request{Method: http.MethodDelete, URL: m.url(target.Organization.Name, "containers", id)}
	if _, err := m.client.Do(ctx, req, nil); err != nil {
		if transport.IsStatus(err, http.StatusNotFound) {
			return notFound("workload", id)
		}
		return err
	}
	return nil
}

var _ Platform = (*Meta)(nil)
