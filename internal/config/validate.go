package config

import (
	"net/url"
	"time"

	"github.com/mrz1836/reviewapp/internal/constants"
	"github.com/mrz1836/reviewapp/internal/errors"
)

// Validate checks the configuration for invalid or inconsistent values.
// It returns an error describing the first validation failure found.
//
// Target names are deliberately not checked: an unset TARGET_ORG surfaces as
// "could not find target org" in the invocation log, not as a config error.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}

	validators := []func(*Config) error{
		validatePlatformConfig,
		validateReviewConfig,
		validateGitLabConfig,
		validateSlackConfig,
		validateKafkaConfig,
		validateHistoryConfig,
		validateHTTPConfig,
		validateServerConfig,
	}
	for _, validate := range validators {
		if err := validate(cfg); err != nil {
			return err
		}
	}
	return nil
}

// validatePlatformConfig checks the backend selection and its section.
func validatePlatformConfig(cfg *Config) error {
	switch cfg.Platform.Backend {
	case BackendMeta:
		if !isHTTPURL(cfg.Meta.URL) {
			return errors.Wrapf(errors.ErrConfigInvalidPlatform,
				"meta.url must be an http(s) URL, got %q", cfg.Meta.URL)
		}
	case BackendDocker:
		if cfg.Docker.ProviderName == "" {
			return errors.Wrap(errors.ErrConfigInvalidPlatform,
				"docker.provider_name must not be empty")
		}
	case BackendMemory:
	default:
		return errors.Wrapf(errors.ErrConfigInvalidPlatform,
			"platform.backend must be one of meta, docker, memory; got %q", cfg.Platform.Backend)
	}
	return nil
}

// validateReviewConfig checks the review address parts.
func validateReviewConfig(cfg *Config) error {
	if cfg.Review.DomainSuffix == "" {
		return errors.Wrap(errors.ErrConfigInvalidReview, "review.domain_suffix must not be empty")
	}
	return nil
}

// validateGitLabConfig checks GitLab settings. The token may be empty.
func validateGitLabConfig(cfg *Config) error {
	g := &cfg.GitLab
	if !isHTTPURL(g.URL) {
		return errors.Wrapf(errors.ErrConfigInvalidGitLab, "gitlab.url must be an http(s) URL, got %q", g.URL)
	}
	if g.PerPage < 1 || g.PerPage > constants.MaxGitLabPerPage {
		return errors.Wrapf(errors.ErrConfigInvalidGitLab,
			"gitlab.per_page must be between 1 and %d, got %d", constants.MaxGitLabPerPage, g.PerPage)
	}
	if g.MaxPages < 1 {
		return errors.Wrapf(errors.ErrConfigInvalidGitLab,
			"gitlab.max_pages must be at least 1, got %d", g.MaxPages)
	}
	return nil
}

// validateSlackConfig checks Slack settings. The path may be empty.
func validateSlackConfig(cfg *Config) error {
	if cfg.Slack.Enabled && !isHTTPURL(cfg.Slack.BaseURL) {
		return errors.Wrapf(errors.ErrConfigInvalidSlack,
			"slack.base_url must be an http(s) URL, got %q", cfg.Slack.BaseURL)
	}
	return nil
}

// validateKafkaConfig checks the event stream settings when enabled.
func validateKafkaConfig(cfg *Config) error {
	if !cfg.Kafka.Enabled {
		return nil
	}
	if len(cfg.Kafka.Brokers) == 0 {
		return errors.Wrap(errors.ErrConfigInvalidKafka, "kafka.brokers must not be empty when kafka is enabled")
	}
	if cfg.Kafka.Topic == "" {
		return errors.Wrap(errors.ErrConfigInvalidKafka, "kafka.topic must not be empty")
	}
	return nil
}

// validateHistoryConfig checks the history backend.
func validateHistoryConfig(cfg *Config) error {
	h := &cfg.History
	switch h.Backend {
	case HistoryMemory:
	case HistoryRedis:
		if h.RedisURL == "" {
			return errors.Wrap(errors.ErrConfigInvalidHistory, "history.redis_url is required for the redis backend")
		}
	default:
		return errors.Wrapf(errors.ErrConfigInvalidHistory,
			"history.backend must be memory or redis, got %q", h.Backend)
	}
	if h.MaxEntries < 1 {
		return errors.Wrapf(errors.ErrConfigInvalidHistory,
			"history.max_entries must be at least 1, got %d", h.MaxEntries)
	}
	return nil
}

// validateHTTPConfig checks the outbound request timeout.
func validateHTTPConfig(cfg *Config) error {
	minTimeout := 1 * time.Second
	maxTimeout := 10 * time.Minute
	if cfg.HTTP.Timeout < minTimeout || cfg.HTTP.Timeout > maxTimeout {
		return errors.Wrapf(errors.ErrValueOutOfRange,
			"http.timeout must be between %s and %s, got %s", minTimeout, maxTimeout, cfg.HTTP.Timeout)
	}
	return nil
}

// validateServerConfig checks serve mode settings.
func validateServerConfig(cfg *Config) error {
	s := &cfg.Server
	if s.Addr == "" {
		return errors.Wrap(errors.ErrConfigInvalidServer, "server.addr must not be empty")
	}
	if s.RateLimit <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidServer, "server.rate_limit must be positive, got %v", s.RateLimit)
	}
	if s.Burst < 1 {
		return errors.Wrapf(errors.ErrConfigInvalidServer, "server.burst must be at least 1, got %d", s.Burst)
	}
	if s.ShutdownTimeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidServer,
			"server.shutdown_timeout must be positive, got %s", s.ShutdownTimeout)
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
