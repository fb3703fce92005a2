package platform

import (
	"context"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/system"
	dockerclient "github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/rs/zerolog"

	"github.com/mrz1836/reviewapp/internal/constants"
	"github.com/mrz1836/reviewapp/internal/domain"
	"github.com/mrz1836/reviewapp/internal/errors"
)

// dockerAPI is the subset of the Docker engine client the backend uses.
type dockerAPI interface {
	Info(ctx context.Context) (system.Info, error)
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
	ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig,
		networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerStop(ctx context.Context, containerID string, options container.StopOptions) error
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
	ContainerRename(ctx context.Context, containerID, newContainerName string) error
	ImagePull(ctx context.Context, refStr string, options image.PullOptions) (io.ReadCloser, error)
	Close() error
}

// containerNameUnsafe matches characters Docker rejects in container names.
var containerNameUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_.-]+`) //nolint:gochecknoglobals // compiled once

// Docker runs review workloads on a single Docker engine. Organizations and
// environments are label scopes on the containers; the only provider is the
// engine itself.
type Docker struct {
	api          dockerAPI
	host         string
	providerName string
}

// NewDocker connects to the engine at host (empty uses DOCKER_HOST or the
// default socket).
func NewDocker(host, providerName string) (*Docker, error) {
	opts := []dockerclient.Opt{dockerclient.FromEnv, dockerclient.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, dockerclient.WithHost(host))
	}
	cli, err := dockerclient.NewClientWithOpts(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Docker client")
	}
	return newDockerWithAPI(cli, cli.DaemonHost(), providerName), nil
}

func newDockerWithAPI(api dockerAPI, host, providerName string) *Docker {
	if providerName == "" {
		providerName = constants.DefaultDockerProviderName
	}
	return &Docker{api: api, host: host, providerName: providerName}
}

// Close releases the engine connection.
func (d *Docker) Close() error {
	return d.api.Close()
}

// Describe implements Platform.
func (d *Docker) Describe() string {
	return d.host
}

// FindOrganization implements Platform. Any non-empty name is a valid scope.
func (d *Docker) FindOrganization(_ context.Context, name string) (domain.Handle, error) {
	if name == "" {
		return domain.Handle{}, notFound("organization", name)
	}
	return domain.Handle{ID: name, Name: name}, nil
}

// FindEnvironment implements Platform. Any non-empty name is a valid scope.
func (d *Docker) FindEnvironment(_ context.Context, _ domain.Handle, name string) (domain.Handle, error) {
	if name == "" {
		return domain.Handle{}, notFound("environment", name)
	}
	return domain.Handle{ID: name, Name: name}, nil
}

// FindProvider implements Platform. The provider resolves when name matches
// the configured provider name or the engine's own name.
func (d *Docker) FindProvider(ctx context.Context, _ domain.Handle, name string) (domain.Handle, error) {
	if name == "" {
		return domain.Handle{}, notFound("provider", name)
	}
	if name == d.providerName {
		return domain.Handle{ID: d.providerName, Name: name}, nil
	}
	info, err := d.api.Info(ctx)
	if err != nil {
		return domain.Handle{}, errors.Wrap(err, "docker info")
	}
	if info.Name == name {
		return domain.Handle{ID: info.ID, Name: name}, nil
	}
	return domain.Handle{}, notFound("provider", name)
}

// FindWorkload implements Platform.
func (d *Docker) FindWorkload(ctx context.Context, target domain.TargetContext, name string) (*domain.Workload, error) {
	list, err := d.api.ContainerList(ctx, container.ListOptions{
		All: true,
		Filters: filters.NewArgs(
			filters.Arg("label", constants.DockerLabelOrg+"="+target.Organization.ID),
			filters.Arg("label", constants.DockerLabelEnv+"="+target.Environment.ID),
			filters.Arg("label", constants.DockerLabelName+"="+name),
		),
	})
	if err != nil {
		return nil, errors.Wrap(err, "list containers")
	}
	if len(list) == 0 {
		return nil, notFound("workload", name)
	}
	return d.inspect(ctx, list[0].ID)
}

func (d *Docker) inspect(ctx context.Context, id string) (*domain.Workload, error) {
	resp, err := d.api.ContainerInspect(ctx, id)
	if err != nil {
		if dockerclient.IsErrNotFound(err) {
			return nil, notFound("workload", id)
		}
		return nil, errors.Wrapf(err, "inspect container %s", id)
	}
	return workloadFromInspect(resp), nil
}

func workloadFromInspect(resp container.InspectResponse) *domain.Workload {
	w := &domain.Workload{Instances: 1}
	if resp.ContainerJSONBase != nil {
		w.ID = resp.ID
		if hc := resp.HostConfig; hc != nil {
			w.CPUs = float64(hc.NanoCPUs) / 1e9
			w.MemoryMB = float64(hc.Memory) / (1024 * 1024)
		}
	}
	if resp.Config != nil {
		w.Image = resp.Config.Image
		w.Labels = userLabels(resp.Config.Labels)
		w.Name = resp.Config.Labels[constants.DockerLabelName]
		w.Description = resp.Config.Labels[constants.DockerLabelDescription]
	}
	return w
}

// userLabels strips the backend's own scope labels.
func userLabels(all map[string]string) map[string]string {
	out := make(map[string]string, len(all))
	for k, v := range all {
		if strings.HasPrefix(k, "reviewapp.") {
			continue
		}
		out[k] = v
	}
	return out
}

func scopeLabels(target domain.TargetContext, name, description string, user map[string]string) map[string]string {
	labels := domain.CloneLabels(user)
	if labels == nil {
		labels = make(map[string]string, 4)
	}
	labels[constants.DockerLabelOrg] = target.Organization.ID
	labels[constants.DockerLabelEnv] = target.Environment.ID
	labels[constants.DockerLabelName] = name
	labels[constants.DockerLabelDescription] = description
	return labels
}

func containerName(target domain.TargetContext, name string) string {
	raw := "review-" + target.Environment.Name + "-" + name
	return strings.Trim(containerNameUnsafe.ReplaceAllString(raw, "-"), "-.")
}

func (d *Docker) pull(ctx context.Context, ref string) error {
	rc, err := d.api.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return errors.Wrapf(err, "pull %s", ref)
	}
	defer func() { _ = rc.Close() }()
	// The pull only completes once the progress stream is drained.
	if _, err := io.Copy(io.Discard, rc); err != nil {
		return errors.Wrapf(err, "pull %s", ref)
	}
	return nil
}

// CreateWorkload implements Platform.
func (d *Docker) CreateWorkload(ctx context.Context, target domain.TargetContext, spec domain.WorkloadSpec) (*domain.Workload, error) {
	if spec.ForcePull {
		if err := d.pull(ctx, spec.Image); err != nil {
			return nil, err
		}
	}

	exposed := nat.PortSet{}
	bindings := nat.PortMap{}
	for _, pm := range spec.PortMappings {
		port, err := nat.NewPort(strings.ToLower(pm.Protocol), strconv.Itoa(pm.ContainerPort))
		if err != nil {
			return nil, errors.Wrapf(err, "port mapping %s", pm.Name)
		}
		exposed[port] = struct{}{}
		if pm.ExposeEndpoint {
			bindings[port] = []nat.PortBinding{{}}
		}
	}

	env := make([]string, 0, len(spec.Env))
	for k, v := range spec.Env {
		env = append(env, k+"="+v)
	}

	cfg := &container.Config{
		Image:        spec.Image,
		Env:          env,
		ExposedPorts: exposed,
		Labels:       scopeLabels(target, spec.Name, spec.Description, spec.Labels),
	}
	hostCfg := &container.HostConfig{
		NetworkMode:  container.NetworkMode(strings.ToLower(spec.Network)),
		PortBindings: bindings,
		Resources: container.Resources{
			NanoCPUs: int64(spec.CPUs * 1e9),
			Memory:   int64(spec.MemoryMB * 1024 * 1024),
		},
	}
	return d.run(ctx, target, spec.Name, cfg, hostCfg)
}

func (d *Docker) run(ctx context.Context, target domain.TargetContext, name string,
	cfg *container.Config, hostCfg *container.HostConfig,
) (*domain.Workload, error) {
	id, err := d.start(ctx, target, name, cfg, hostCfg)
	if err != nil {
		return nil, err
	}
	return d.inspect(ctx, id)
}

// start creates and starts a container. On a start failure the created id is
// still returned so the caller can clean it up.
func (d *Docker) start(ctx context.Context, target domain.TargetContext, name string,
	cfg *container.Config, hostCfg *container.HostConfig,
) (string, error) {
	created, err := d.api.ContainerCreate(ctx, cfg, hostCfg, nil, nil, containerName(target, name))
	if err != nil {
		return "", errors.Wrap(err, "create container")
	}
	for _, w := range created.Warnings {
		zerolog.Ctx(ctx).Warn().Str("container_id", created.ID).Msg(w)
	}
	if err := d.api.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return created.ID, errors.Wrapf(err, "start container %s", created.ID)
	}
	return created.ID, nil
}

// PatchWorkload implements Platform. Docker cannot change a container's image
// in place, so the container is recreated with the existing HostConfig; any
// sizing an operator applied on the engine is preserved. The old container is
// renamed aside and only removed once the replacement runs; if the
// replacement cannot be created or started the old one is restored. The
// returned workload carries the new container id.
func (d *Docker) PatchWorkload(ctx context.Context, target domain.TargetContext, id string, ops []domain.PatchOp) (*domain.Workload, error) {
	fields, err := readPatch(ops)
	if err != nil {
		return nil, err
	}

	current, err := d.api.ContainerInspect(ctx, id)
	if err != nil {
		if dockerclient.IsErrNotFound(err) {
			return nil, notFound("workload", id)
		}
		return nil, errors.Wrapf(err, "inspect container %s", id)
	}
	if current.Config == nil || current.ContainerJSONBase == nil {
		return nil, errors.Wrapf(errors.ErrPlatformOperation, "container %s has no config", id)
	}

	w := workloadFromInspect(current)
	fields.apply(w)

	cfg := *current.Config
	cfg.Image = w.Image
	cfg.Labels = scopeLabels(target, w.Name, w.Description, w.Labels)

	if err := d.pull(ctx, cfg.Image); err != nil {
		return nil, err
	}

	name := strings.TrimPrefix(current.Name, "/")
	if err := d.api.ContainerRename(ctx, id, asideName(name, id)); err != nil {
		if dockerclient.IsErrNotFound(err) {
			return nil, notFound("workload", id)
		}
		return nil, errors.Wrapf(err, "rename container %s", id)
	}
	wasRunning := current.State != nil && current.State.Running
	if err := d.api.ContainerStop(ctx, id, container.StopOptions{}); err != nil && !dockerclient.IsErrNotFound(err) {
		d.restore(ctx, id, name, "", false)
		return nil, errors.Wrapf(err, "stop container %s", id)
	}

	newID, err := d.start(ctx, target, w.Name, &cfg, current.HostConfig)
	if err != nil {
		d.restore(ctx, id, name, newID, wasRunning)
		return nil, err
	}

	if err := d.api.ContainerRemove(ctx, id, container.RemoveOptions{Force: true}); err != nil && !dockerclient.IsErrNotFound(err) {
		zerolog.Ctx(ctx).Warn().Err(err).Str("container_id", id).Msg("failed to remove replaced container")
	}
	return d.inspect(ctx, newID)
}

// asideName is the temporary name a container holds while its replacement
// is brought up.
func asideName(name, id string) string {
	short := id
	if len(short) > 12 {
		short = short[:12]
	}
	return name + "-old-" + short
}

// restore undoes a failed replacement: the half-made container is removed and
// the old one gets its name back. Rollback outlives a cancelled ctx.
func (d *Docker) restore(ctx context.Context, oldID, name, newID string, restart bool) {
	ctx = context.WithoutCancel(ctx)
	log := zerolog.Ctx(ctx)
	if newID != "" {
		if err := d.api.ContainerRemove(ctx, newID, container.RemoveOptions{Force: true}); err != nil && !dockerclient.IsErrNotFound(err) {
			log.Warn().Err(err).Str("container_id", newID).Msg("failed to remove replacement container")
		}
	}
	if err := d.api.ContainerRename(ctx, oldID, name); err != nil {
		log.Warn().Err(err).Str("container_id", oldID).Msg("failed to restore container name")
		return
	}
	if restart {
		if err := d.api.ContainerStart(ctx, oldID, container.StartOptions{}); err != nil {
			log.Warn().Err(err).Str("container_id", oldID).Msg("failed to restart container")
		}
	}
}

// DeleteWorkload implements Platform.
func (d *Docker) DeleteWorkload(ctx context.Context, _ domain.TargetContext, id string) error {
	if err := d.api.ContainerRemove(ctx, id, container.RemoveOptions{Force: true}); err != nil {
		if dockerclient.IsErrNotFound(err) {
			return notFound("workload", id)
		}
		return errors.Wrapf(err, "remove container %s", id)
	}
	return nil
}

var _ Platform = (*Docker)(nil)
