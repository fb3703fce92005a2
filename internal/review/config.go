package review

import (
	"github.com/mrz1836/reviewapp/internal/config"
	"github.com/mrz1836/reviewapp/internal/constants"
)

// Config is the subset of configuration an Engine needs.
type Config struct {
	// Organization, Environment and Provider are the target names.
	Organization string
	Environment  string
	Provider     string

	// HostPrefix and DomainSuffix shape the public host.
	HostPrefix   string
	DomainSuffix string

	// MetaAPIURL and SecAPIURL are injected into the workload environment.
	MetaAPIURL string
	SecAPIURL  string

	// Verbose keeps debug lines, such as the workload payload, in Result.Lines.
	Verbose bool
}

// ConfigFrom extracts the engine settings from the loaded configuration.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Organization: cfg.Target.Organization,
		Environment:  cfg.Target.Environment,
		Provider:     cfg.Target.Provider,
		HostPrefix:   cfg.Review.HostPrefix,
		DomainSuffix: cfg.Review.DomainSuffix,
		MetaAPIURL:   cfg.Review.MetaAPIURL,
		SecAPIURL:    cfg.Review.SecAPIURL,
	}
}

func (c Config) withDefaults() Config {
	if c.HostPrefix == "" {
		c.HostPrefix = constants.DefaultHostPrefix
	}
	if c.DomainSuffix == "" {
		c.DomainSuffix = constants.DefaultDomainSuffix
	}
	if c.MetaAPIURL == "" {
		c.MetaAPIURL = constants.DefaultMetaAPIURL
	}
	if c.SecAPIURL == "" {
		c.SecAPIURL = constants.DefaultSecAPIURL
	}
	return c
}
