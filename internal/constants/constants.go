// Package constants provides centralized constant values used throughout reviewapp.
// This package is the single source of truth for all shared constants and MUST NOT
// import any other internal packages.
package constants

import "time"

// Directory names and paths used by reviewapp for organizing data.
const (
	// AppHome is the hidden directory name where reviewapp stores its global
	// configuration and logs. It is created in the user's home directory.
	AppHome = ".reviewapp"

	// LogsDir is the directory name where log files are stored.
	LogsDir = "logs"
)

// Rotation settings for the CLI log file.
const (
	LogMaxSizeMB  = 10
	LogMaxBackups = 5
	LogMaxAgeDays = 30
	LogCompress   = true
)

// Workload sizing for every review app. Review apps are deliberately tiny;
// operators resize them on the platform and patches never touch these fields.
const (
	// ReviewInstances is the number of instances a review workload starts with.
	ReviewInstances = 1

	// ReviewCPUs is the CPU share of a review workload.
	ReviewCPUs = 0.1

	// ReviewMemoryMB is the memory of a review workload in megabytes.
	ReviewMemoryMB = 64.0

	// ReviewDiskMB is the disk of a review workload in megabytes.
	ReviewDiskMB = 0.0

	// ContainerTypeDocker is the container runtime requested from the platform.
	ContainerTypeDocker = "DOCKER"

	// NetworkBridge is the network mode of a review workload.
	NetworkBridge = "BRIDGE"

	// WebPortName is the name of the single exposed port mapping.
	WebPortName = "web"

	// WebPortProtocol is the protocol of the exposed port mapping.
	WebPortProtocol = "tcp"

	// WebContainerPort is the container port that serves the review app.
	WebContainerPort = 80
)

// Review address defaults.
const (
	// DefaultHostPrefix is prepended to the slug to form the public host.
	DefaultHostPrefix = "ui-review-"

	// DefaultDomainSuffix is the DNS zone review hosts live under.
	DefaultDomainSuffix = "test.galacticfog.com"

	// DefaultMetaAPIURL is injected into the workload as META_API_URL.
	DefaultMetaAPIURL = "https://meta.test.galacticfog.com"

	// DefaultSecAPIURL is injected into the workload as SEC_API_URL.
	DefaultSecAPIURL = "https://security.test.galacticfog.com"
)

// External service defaults.
const (
	// DefaultGitLabURL is the GitLab API v4 base URL.
	DefaultGitLabURL = "https://gitlab.com/api/v4"

	// DefaultGitLabPerPage is the page size for environment listings.
	// GitLab caps per_page at 100.
	DefaultGitLabPerPage = 100

	// MaxGitLabPerPage is the largest page size GitLab honours.
	MaxGitLabPerPage = 100

	// DefaultGitLabMaxPages bounds how many environment pages are scanned.
	DefaultGitLabMaxPages = 10

	// DefaultSlackBaseURL is the Slack incoming-webhook host.
	DefaultSlackBaseURL = "https://hooks.slack.com"

	// DefaultKafkaTopic is the topic deployment events are published on.
	DefaultKafkaTopic = "reviewapp.deployments"

	// DefaultDockerProviderName is the provider name the docker backend answers to.
	DefaultDockerProviderName = "docker"
)

// Timeout configurations for various operations.
const (
	// DefaultHTTPTimeout is the per-request timeout for every outbound HTTP call.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultShutdownTimeout is how long serve mode waits for in-flight requests.
	DefaultShutdownTimeout = 15 * time.Second

	// DefaultKafkaWriteTimeout bounds a single event publish.
	DefaultKafkaWriteTimeout = 10 * time.Second
)

// Server and history defaults.
const (
	// DefaultServerAddr is the listen address of serve mode.
	DefaultServerAddr = ":8080"

	// DefaultRateLimit is the steady-state request rate allowed per second in serve mode.
	DefaultRateLimit = 5.0

	// DefaultRateBurst is the burst size of the serve mode rate limiter.
	DefaultRateBurst = 10

	// DefaultHistoryMaxEntries is how many results are retained per slug.
	DefaultHistoryMaxEntries = 50
)
