package domain

import "time"

// EnvironmentRecord is a GitLab project environment. reviewapp only ever
// updates ExternalURL; environments are created by GitLab when the CI job runs.
type EnvironmentRecord struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	ExternalURL string `json:"external_url"`
	State       string `json:"state,omitempty"`
}

// Announcement is the message sent to humans and event consumers after a
// successful workload reconcile.
type Announcement struct {
	Slug        string          `json:"slug"`
	Image       string          `json:"image"`
	URL         string          `json:"url"`
	Description string          `json:"description"`
	WorkloadID  string          `json:"workload_id"`
	Action      ReconcileAction `json:"action"`
	GitRef      string          `json:"git_ref,omitempty"`
	GitSHA      string          `json:"git_sha,omitempty"`
	GitAuthor   string          `json:"git_author,omitempty"`
	At          time.Time       `json:"at"`
}
