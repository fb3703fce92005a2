package config

import (
	"github.com/mrz1836/reviewapp/internal/constants"
)

// DefaultGitLabProjectID is the project whose environments review apps register with.
const DefaultGitLabProjectID = "2251734"

// DefaultConfig returns a new Config with the built-in default values.
// These defaults are used as the base layer that can be overridden by
// config files, environment variables, and CLI flags.
func DefaultConfig() *Config {
	return &Config{
		Platform: PlatformConfig{
			Backend: BackendMeta,
		},
		Meta: MetaConfig{
			URL: constants.DefaultMetaAPIURL,
		},
		Docker: DockerConfig{
			ProviderName: constants.DefaultDockerProviderName,
		},
		Review: ReviewConfig{
			HostPrefix:   constants.DefaultHostPrefix,
			DomainSuffix: constants.DefaultDomainSuffix,
			MetaAPIURL:   constants.DefaultMetaAPIURL,
			SecAPIURL:    constants.DefaultSecAPIURL,
		},
		GitLab: GitLabConfig{
			URL:       constants.DefaultGitLabURL,
			ProjectID: DefaultGitLabProjectID,
			PerPage:   constants.DefaultGitLabPerPage,
			MaxPages:  constants.DefaultGitLabMaxPages,
		},
		Slack: SlackConfig{
			Enabled: true,
			BaseURL: constants.DefaultSlackBaseURL,
		},
		Kafka: KafkaConfig{
			Topic: constants.DefaultKafkaTopic,
		},
		History: HistoryConfig{
			Backend:    HistoryMemory,
			MaxEntries: constants.DefaultHistoryMaxEntries,
		},
		HTTP: HTTPConfig{
			Timeout: constants.DefaultHTTPTimeout,
		},
		Server: ServerConfig{
			Addr:            constants.DefaultServerAddr,
			RateLimit:       constants.DefaultRateLimit,
			Burst:           constants.DefaultRateBurst,
			ShutdownTimeout: constants.DefaultShutdownTimeout,
		},
	}
}
