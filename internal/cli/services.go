package cli

import (
	"context"
	stderrors "errors"
	"io"

	"github.com/rs/zerolog"

	"github.com/mrz1836/reviewapp/internal/config"
	"github.com/mrz1836/reviewapp/internal/constants"
	"github.com/mrz1836/reviewapp/internal/errors"
	"github.com/mrz1836/reviewapp/internal/gitlab"
	"github.com/mrz1836/reviewapp/internal/history"
	"github.com/mrz1836/reviewapp/internal/metrics"
	"github.com/mrz1836/reviewapp/internal/notify"
	"github.com/mrz1836/reviewapp/internal/platform"
	"github.com/mrz1836/reviewapp/internal/review"
	"github.com/mrz1836/reviewapp/internal/transport"
)

// serviceOptions selects how the services are assembled.
type serviceOptions struct {
	// DryRun replaces the platform with an in-memory one seeded from the
	// configured target and disables the registry and announcements.
	DryRun  bool
	Verbose bool
}

// Services holds the clients an invocation needs.
type Services struct {
	Config   *config.Config
	Platform platform.Platform
	History  history.Store
	Metrics  *metrics.Metrics
	Engine   *review.Engine

	closers []io.Closer
}

// NewServices builds the platform backend, registry, announcers and history
// store selected by cfg.
func NewServices(ctx context.Context, cfg *config.Config, opts serviceOptions, logger zerolog.Logger) (*Services, error) {
	s := &Services{Config: cfg, Metrics: metrics.New()}

	p, err := s.newPlatform(cfg, opts.DryRun)
	if err != nil {
		return nil, err
	}
	s.Platform = p

	store, err := history.Open(ctx, cfg.History)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.History = store
	s.closers = append(s.closers, store)

	engineOpts := []review.EngineOption{
		review.WithRecorder(store),
		review.WithMetrics(s.Metrics),
	}
	if opts.DryRun {
		logger.Info().Msg("dry run: using in-memory platform; GitLab and announcements are skipped")
	} else {
		if reg := newRegistry(cfg); reg != nil {
			engineOpts = append(engineOpts, review.WithRegistry(reg))
		}
		announcers, skipped := s.newAnnouncers(cfg)
		engineOpts = append(engineOpts,
			review.WithAnnouncers(cfg.Slack.Async, announcers...),
			review.WithSkippedAnnouncements(skipped...))
	}

	rcfg := review.ConfigFrom(cfg)
	rcfg.Verbose = opts.Verbose
	s.Engine = review.NewEngine(p, rcfg, engineOpts...)

	logger.Debug().
		Str("platform", p.Describe()).
		Str("history", cfg.History.Backend).
		Bool("dry_run", opts.DryRun).
		Msg("services ready")
	return s, nil
}

func httpClient(cfg *config.Config, opts ...transport.Option) *transport.Client {
	return transport.New(append([]transport.Option{transport.WithTimeout(cfg.HTTP.Timeout)}, opts...)...)
}

func (s *Services) newPlatform(cfg *config.Config, dryRun bool) (platform.Platform, error) {
	backend := cfg.Platform.Backend
	if dryRun {
		backend = config.BackendMemory
	}
	switch backend {
	case config.BackendMemory:
		return platform.NewMemory().Seed(cfg.Target.Organization, cfg.Target.Environment, cfg.Target.Provider), nil
	case config.BackendDocker:
		d, err := platform.NewDocker(cfg.Docker.Host, cfg.Docker.ProviderName)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, d)
		return d, nil
	case "", config.BackendMeta:
		client := httpClient(cfg, transport.WithBasicAuth(cfg.Meta.Username, cfg.Meta.Password))
		return platform.NewMeta(cfg.Meta.URL, client), nil
	default:
		return nil, errors.Wrapf(errors.ErrConfigInvalidPlatform, "unknown backend %q", backend)
	}
}

// newRegistry returns nil when no GitLab token is configured.
func newRegistry(cfg *config.Config) review.Registry {
	if cfg.GitLab.Token == "" {
		return nil
	}
	return gitlab.New(gitlab.Options{
		BaseURL:   cfg.GitLab.URL,
		ProjectID: cfg.GitLab.ProjectID,
		Token:     cfg.GitLab.Token,
		PerPage:   cfg.GitLab.PerPage,
		MaxPages:  cfg.GitLab.MaxPages,
	}, transport.WithTimeout(cfg.HTTP.Timeout))
}

// newAnnouncers builds the enabled announcement channels. Channels that are
// enabled but missing required settings come back as invocation log lines.
func (s *Services) newAnnouncers(cfg *config.Config) ([]notify.Announcer, []string) {
	var out []notify.Announcer
	var skipped []string
	switch {
	case cfg.Slack.Enabled && cfg.Slack.Path != "":
		out = append(out, notify.NewSlack(cfg.Slack.BaseURL, cfg.Slack.Path, httpClient(cfg)))
	case cfg.Slack.Enabled:
		skipped = append(skipped, constants.SlackSkippedLine)
	}
	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) > 0 {
		k := notify.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		s.closers = append(s.closers, k)
		out = append(out, k)
	}
	return out, skipped
}

// Close releases every client in reverse order of creation.
func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return stderrors.Join(errs...)
}
