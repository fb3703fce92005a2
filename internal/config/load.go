package config

import (
	"context"
	stderrors "errors"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/mrz1836/reviewapp/internal/constants"
	"github.com/mrz1836/reviewapp/internal/errors"
	"github.com/mrz1836/reviewapp/internal/logging"
)

// envPrefix is the prefix for every configuration environment variable.
const envPrefix = "REVIEWAPP"

// ciEnvNames maps configuration keys to the unprefixed variable names CI jobs
// already export. The prefixed name always wins over the unprefixed one.
//
//nolint:gochecknoglobals // Static binding table
var ciEnvNames = map[string][]string{
	"target.organization": {"TARGET_ORG"},
	"target.environment":  {"TARGET_ENV"},
	"target.provider":     {"TARGET_PROVIDER"},
	"meta.url":            {"META_URL"},
	"review.meta_api_url": {"LOCAL_META_URL"},
	"review.sec_api_url":  {"LOCAL_SEC_URL"},
	"gitlab.token":        {"GITLAB_TOKEN"},
	"slack.path":          {"SLACK_PATH"},
}

// EnvNames returns the environment variables that set key, highest
// precedence first.
func EnvNames(key string) []string {
	prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	return append([]string{prefixed}, ciEnvNames[key]...)
}

// newViperInstance creates a new Viper instance with the reviewapp env prefix,
// key replacer, CI variable bindings, and defaults.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key := range ciEnvNames {
		_ = v.BindEnv(append([]string{key}, EnvNames(key)...)...)
	}
	return v
}

// isConfigNotFoundError returns true if the error is a viper config file not found error.
func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var configNotFoundErr viper.ConfigFileNotFoundError
	return stderrors.As(err, &configNotFoundErr)
}

// unmarshalAndValidate unmarshals viper config into Config struct and validates it.
func unmarshalAndValidate(ctx context.Context, v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	logger := zerolog.Ctx(ctx).With().Str("component", "config").Logger()
	logger.Debug().
		Str("platform.backend", cfg.Platform.Backend).
		Str("target.organization", cfg.Target.Organization).
		Str("target.environment", cfg.Target.Environment).
		Str("gitlab.token", logging.SafeValue("gitlab.token", cfg.GitLab.Token)).
		Str("slack.path", logging.SafeValue("slack.path", cfg.Slack.Path)).
		Dur("http.timeout", cfg.HTTP.Timeout).
		Msg("configuration loaded and unmarshaled")

	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// Load reads configuration from all available sources with proper precedence.
// Missing config files are not an error; most CI jobs configure through the
// environment alone.
func Load(ctx context.Context) (*Config, error) {
	return LoadFile(ctx, "")
}

// LoadFile is Load with an explicit config file (the --config flag). When
// path is non-empty it replaces the global and project files and must exist.
func LoadFile(ctx context.Context, path string) (*Config, error) {
	if err := loadDotEnv(constants.DotEnvFile); err != nil {
		return nil, err
	}

	v := newViperInstance()

	if path != "" {
		if !fileExists(path) {
			return nil, errors.Wrapf(errors.ErrConfigNotFound, "config file %s", path)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file: %s", path)
		}
		return unmarshalAndValidate(ctx, v)
	}

	if err := loadGlobalConfig(v); err != nil {
		return nil, err
	}
	if err := loadProjectConfig(v); err != nil {
		return nil, err
	}
	return unmarshalAndValidate(ctx, v)
}

// loadDotEnv loads variables from a dotenv file into the process environment.
// Variables already present in the environment are never overwritten.
func loadDotEnv(path string) error {
	if !fileExists(path) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "failed to read %s", path)
	}
	return nil
}

// loadGlobalConfig attempts to load the global config file (~/.reviewapp/config.yaml).
// Returns nil if the file doesn't exist or home directory cannot be determined.
func loadGlobalConfig(v *viper.Viper) error {
	globalConfigPath, err := GlobalConfigPath()
	if err != nil || !fileExists(globalConfigPath) {
		return nil
	}

	v.SetConfigFile(globalConfigPath)
	if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read global config file")
	}
	return nil
}

// loadProjectConfig attempts to load the project config file (.reviewapp/config.yaml).
func loadProjectConfig(v *viper.Viper) error {
	projectConfigPath := ProjectConfigPath()
	if !fileExists(projectConfigPath) {
		return nil
	}

	v.SetConfigFile(projectConfigPath)
	if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read project config file")
	}
	return nil
}

// fileExists returns true if the file at path exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadFromPaths loads configuration from specific file paths for testing.
// Either path can be empty to skip that level. The .env file is not read.
func LoadFromPaths(ctx context.Context, projectConfigPath, globalConfigPath string) (*Config, error) {
	v := newViperInstance()

	if globalConfigPath != "" {
		v.SetConfigFile(globalConfigPath)
		if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read global config: %s", globalConfigPath)
		}
	}

	if projectConfigPath != "" {
		v.SetConfigFile(projectConfigPath)
		if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read project config: %s", projectConfigPath)
		}
	}

	return unmarshalAndValidate(ctx, v)
}

// LoadWithOverrides loads configuration and applies CLI flag overrides.
// Only non-zero values in overrides are applied.
func LoadWithOverrides(ctx context.Context, path string, overrides *Config) (*Config, error) {
	cfg, err := LoadFile(ctx, path)
	if err != nil {
		return nil, err
	}

	if overrides != nil {
		applyOverrides(cfg, overrides)
	}

	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration after overrides")
	}
	return cfg, nil
}

// setDefaults configures all default values on the Viper instance.
// Every key must be registered here for AutomaticEnv to see it on Unmarshal.
// IMPORTANT: Keys must match the mapstructure tag names exactly.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("target.organization", "")
	v.SetDefault("target.environment", "")
	v.SetDefault("target.provider", "")

	v.SetDefault("platform.backend", d.Platform.Backend)

	v.SetDefault("meta.url", d.Meta.URL)
	v.SetDefault("meta.username", "")
	v.SetDefault("meta.password", "")

	v.SetDefault("docker.host", "")
	v.SetDefault("docker.provider_name", d.Docker.ProviderName)

	v.SetDefault("review.host_prefix", d.Review.HostPrefix)
	v.SetDefault("review.domain_suffix", d.Review.DomainSuffix)
	v.SetDefault("review.meta_api_url", d.Review.MetaAPIURL)
	v.SetDefault("review.sec_api_url", d.Review.SecAPIURL)

	v.SetDefault("gitlab.url", d.GitLab.URL)
	v.SetDefault("gitlab.project_id", d.GitLab.ProjectID)
	v.SetDefault("gitlab.token", "")
	v.SetDefault("gitlab.per_page", d.GitLab.PerPage)
	v.SetDefault("gitlab.max_pages", d.GitLab.MaxPages)

	v.SetDefault("slack.enabled", d.Slack.Enabled)
	v.SetDefault("slack.base_url", d.Slack.BaseURL)
	v.SetDefault("slack.path", "")
	v.SetDefault("slack.async", false)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", d.Kafka.Topic)

	v.SetDefault("history.backend", d.History.Backend)
	v.SetDefault("history.redis_url", "")
	v.SetDefault("history.max_entries", d.History.MaxEntries)

	v.SetDefault("http.timeout", "30s")

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.rate_limit", d.Server.RateLimit)
	v.SetDefault("server.burst", d.Server.Burst)
	v.SetDefault("server.shutdown_timeout", "15s")
}

// applyOverrides merges non-zero override values into the config.
//
// Boolean fields cannot be overridden to false here because Go's zero value
// for bool is false. CLI commands handle boolean flags with Flags().Changed.
func applyOverrides(cfg, overrides *Config) {
	if overrides.Target.Organization != "" {
		cfg.Target.Organization = overrides.Target.Organization
	}
	if overrides.Target.Environment != "" {
		cfg.Target.Environment = overrides.Target.Environment
	}
	if overrides.Target.Provider != "" {
		cfg.Target.Provider = overrides.Target.Provider
	}
	if overrides.Platform.Backend != "" {
		cfg.Platform.Backend = overrides.Platform.Backend
	}
	if overrides.Server.Addr != "" {
		cfg.Server.Addr = overrides.Server.Addr
	}
	if overrides.History.Backend != "" {
		cfg.History.Backend = overrides.History.Backend
	}
	if overrides.HTTP.Timeout != 0 {
		cfg.HTTP.Timeout = overrides.HTTP.Timeout
	}
}

// viperDecoderOption returns the decoder options for Viper unmarshal.
// Durations decode from strings like "30s"; broker lists decode from
// comma-separated environment values.
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	)
}
