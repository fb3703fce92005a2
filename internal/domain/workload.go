package domain

// PortMapping exposes one container port.
type PortMapping struct {
	Name           string `json:"name"`
	Protocol       string `json:"protocol"`
	ContainerPort  int    `json:"container_port"`
	ExposeEndpoint bool   `json:"expose_endpoint"`
}

// WorkloadSpec is the desired state of a review workload. It is built fresh
// for every invocation and never persisted.
type WorkloadSpec struct {
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	Provider      Handle            `json:"provider"`
	Instances     int               `json:"num_instances"`
	CPUs          float64           `json:"cpus"`
	MemoryMB      float64           `json:"memory"`
	DiskMB        float64           `json:"disk"`
	ContainerType string            `json:"container_type"`
	Image         string            `json:"image"`
	Network       string            `json:"network"`
	PortMappings  []PortMapping     `json:"port_mappings"`
	Env           map[string]string `json:"env"`
	Labels        map[string]string `json:"labels"`
	ForcePull     bool              `json:"force_pull"`
}

// Workload is the platform's record of a running review workload.
type Workload struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Image       string            `json:"image"`
	Labels      map[string]string `json:"labels,omitempty"`
	Instances   int               `json:"num_instances"`
	CPUs        float64           `json:"cpus"`
	MemoryMB    float64           `json:"memory"`
	Provider    Handle            `json:"provider"`
}

// Patch paths understood by every platform backend.
const (
	PatchOpReplace = "replace"

	PathImage       = "/properties/image"
	PathDescription = "/description"
	PathLabels      = "/properties/labels"
)

// PatchOp is one JSON-Patch style replace operation.
type PatchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// Replace builds a replace operation.
func Replace(path string, value any) PatchOp {
	return PatchOp{Op: PatchOpReplace, Path: path, Value: value}
}

// CloneLabels returns an independent copy of labels.
func CloneLabels(labels map[string]string) map[string]string {
	if labels == nil {
		return nil
	}
	out := make(map[string]string, len(labels))
	for k, v := range labels {
		out[k] = v
	}
	return out
}
