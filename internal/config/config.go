// Package config provides configuration management for reviewapp with layered precedence.
//
// Configuration sources are loaded in the following order (highest precedence first):
//  1. CLI flags (passed via LoadWithOverrides)
//  2. Environment variables (REVIEWAPP_* prefix, plus the unprefixed CI names
//     TARGET_ORG, TARGET_ENV, TARGET_PROVIDER, GITLAB_TOKEN, SLACK_PATH,
//     META_URL, LOCAL_META_URL and LOCAL_SEC_URL)
//  3. A .env file in the working directory (never overrides real environment)
//  4. Project config (.reviewapp/config.yaml)
//  5. Global config (~/.reviewapp/config.yaml)
//  6. Built-in defaults
//
// IMPORTANT: This package may import internal/constants, internal/errors and
// internal/logging, but MUST NOT import internal/domain or other internal packages.
package config

import "time"

// Platform backend names.
const (
	BackendMeta   = "meta"
	BackendDocker = "docker"
	BackendMemory = "memory"
)

// History backend names.
const (
	HistoryMemory = "memory"
	HistoryRedis  = "redis"
)

// Config is the root configuration structure for reviewapp.
type Config struct {
	// Target names the organization, environment and provider review apps deploy into.
	Target TargetConfig `yaml:"target" mapstructure:"target"`

	// Platform selects the infrastructure backend.
	Platform PlatformConfig `yaml:"platform" mapstructure:"platform"`

	// Meta contains settings for the Gestalt Meta API backend.
	Meta MetaConfig `yaml:"meta" mapstructure:"meta"`

	// Docker contains settings for the local Docker engine backend.
	Docker DockerConfig `yaml:"docker" mapstructure:"docker"`

	// Review contains settings that shape the review workload and its address.
	Review ReviewConfig `yaml:"review" mapstructure:"review"`

	// GitLab contains settings for the CI environment registry.
	GitLab GitLabConfig `yaml:"gitlab" mapstructure:"gitlab"`

	// Slack contains settings for the chat announcement.
	Slack SlackConfig `yaml:"slack" mapstructure:"slack"`

	// Kafka contains settings for the optional deployment event stream.
	Kafka KafkaConfig `yaml:"kafka" mapstructure:"kafka"`

	// History contains settings for invocation history storage.
	History HistoryConfig `yaml:"history" mapstructure:"history"`

	// HTTP contains settings shared by every outbound HTTP client.
	HTTP HTTPConfig `yaml:"http" mapstructure:"http"`

	// Server contains settings for serve mode.
	Server ServerConfig `yaml:"server" mapstructure:"server"`
}

// TargetConfig names the platform objects review apps are deployed into.
// Empty names are not rejected here; the resolver reports them as not found
// so the caller still receives an invocation log.
type TargetConfig struct {
	// Organization is the fully qualified organization name (TARGET_ORG).
	Organization string `yaml:"organization" mapstructure:"organization"`

	// Environment is the environment name within the organization (TARGET_ENV).
	Environment string `yaml:"environment" mapstructure:"environment"`

	// Provider is the container provider name (TARGET_PROVIDER).
	Provider string `yaml:"provider" mapstructure:"provider"`
}

// PlatformConfig selects the infrastructure backend.
type PlatformConfig struct {
	// Backend is one of "meta", "docker" or "memory".
	// Default: "meta"
	Backend string `yaml:"backend" mapstructure:"backend"`
}

// MetaConfig contains settings for the Gestalt Meta API.
type MetaConfig struct {
	// URL is the Meta API base URL (META_URL).
	URL string `yaml:"url" mapstructure:"url"`

	// Username and Password are sent as basic auth. They are configured
	// service credentials; the CI caller's credentials are never used.
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
}

// DockerConfig contains settings for the Docker engine backend.
type DockerConfig struct {
	// Host is the engine address. Empty uses DOCKER_HOST or the default socket.
	Host string `yaml:"host" mapstructure:"host"`

	// ProviderName is the provider name this backend resolves.
	// Default: "docker"
	ProviderName string `yaml:"provider_name" mapstructure:"provider_name"`
}

// ReviewConfig shapes the review workload.
type ReviewConfig struct {
	// HostPrefix is prepended to the slug to build the public host.
	// Default: "ui-review-"
	HostPrefix string `yaml:"host_prefix" mapstructure:"host_prefix"`

	// DomainSuffix is the DNS zone the public host lives under.
	// Default: "test.galacticfog.com"
	DomainSuffix string `yaml:"domain_suffix" mapstructure:"domain_suffix"`

	// MetaAPIURL is injected as META_API_URL (LOCAL_META_URL).
	MetaAPIURL string `yaml:"meta_api_url" mapstructure:"meta_api_url"`

	// SecAPIURL is injected as SEC_API_URL (LOCAL_SEC_URL).
	SecAPIURL string `yaml:"sec_api_url" mapstructure:"sec_api_url"`
}

// GitLabConfig contains settings for the GitLab environment registry.
type GitLabConfig struct {
	// URL is the API v4 base URL.
	// Default: "https://gitlab.com/api/v4"
	URL string `yaml:"url" mapstructure:"url"`

	// ProjectID is the numeric or URL-encoded project path.
	ProjectID string `yaml:"project_id" mapstructure:"project_id"`

	// Token is sent as PRIVATE-TOKEN (GITLAB_TOKEN). Empty skips the registry step.
	Token string `yaml:"token" mapstructure:"token"`

	// PerPage is the environment page size. GitLab caps it at 100.
	PerPage int `yaml:"per_page" mapstructure:"per_page"`

	// MaxPages bounds how many pages are scanned for the slug.
	MaxPages int `yaml:"max_pages" mapstructure:"max_pages"`
}

// SlackConfig contains settings for the Slack incoming webhook.
type SlackConfig struct {
	// Enabled turns the announcement on. Default: true
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// BaseURL is the webhook host. Default: "https://hooks.slack.com"
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Path is the secret webhook path (SLACK_PATH). Empty skips the announcement.
	Path string `yaml:"path" mapstructure:"path"`

	// Async dispatches the webhook without holding up the invocation.
	Async bool `yaml:"async" mapstructure:"async"`
}

// KafkaConfig contains settings for the deployment event stream.
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled" mapstructure:"enabled"`
	Brokers []string `yaml:"brokers" mapstructure:"brokers"`
	Topic   string   `yaml:"topic" mapstructure:"topic"`
}

// HistoryConfig contains settings for invocation history storage.
type HistoryConfig struct {
	// Backend is "memory" or "redis". Default: "memory"
	Backend string `yaml:"backend" mapstructure:"backend"`

	// RedisURL is the redis:// URL used by the redis backend.
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`

	// MaxEntries bounds the results retained per slug.
	MaxEntries int `yaml:"max_entries" mapstructure:"max_entries"`
}

// HTTPConfig contains settings for outbound HTTP calls.
type HTTPConfig struct {
	// Timeout bounds each request. Default: 30s
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ServerConfig contains settings for serve mode.
type ServerConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	RateLimit       float64       `yaml:"rate_limit" mapstructure:"rate_limit"`
	Burst           int           `yaml:"burst" mapstructure:"burst"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}
