package domain

import "time"

// Invocation is the outcome of one deploy or stop. It is what the CLI prints,
// what serve mode returns and what the history store keeps.
type Invocation struct {
	ID        string           `json:"invocation_id"`
	Operation Operation        `json:"operation"`
	Status    InvocationStatus `json:"status"`

	// FailedStep names the fatal step when Status is failed.
	FailedStep string `json:"failed_step,omitempty"`
	// InputError is set when the invocation failed on the request itself
	// rather than on an external system.
	InputError bool `json:"input_error,omitempty"`

	Slug       string          `json:"slug,omitempty"`
	Image      string          `json:"image,omitempty"`
	URL        string          `json:"url,omitempty"`
	Action     ReconcileAction `json:"action,omitempty"`
	WorkloadID string          `json:"workload_id,omitempty"`
	Warnings   []string        `json:"warnings,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Lines is the invocation log transcript.
	Lines []string `json:"lines"`
}

// Duration returns how long the invocation ran.
func (i Invocation) Duration() time.Duration {
	if i.FinishedAt.IsZero() {
		return 0
	}
	return i.FinishedAt.Sub(i.StartedAt)
}

// Failed reports whether a fatal step halted the invocation.
func (i Invocation) Failed() bool {
	return i.Status == StatusFailed
}
