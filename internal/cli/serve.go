package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrz1836/reviewapp/internal/config"
	"github.com/mrz1836/reviewapp/internal/server"
	"github.com/mrz1836/reviewapp/internal/signal"
)

type serveFlags struct {
	Addr    string
	Backend string
}

// AddServeCommand adds the serve command to root.
func AddServeCommand(root *cobra.Command, global *GlobalFlags) {
	f := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve deploy and stop over HTTP",
		Long: `Run reviewapp as an HTTP service so CI jobs can post the request payload
instead of running the binary.

Routes:
  POST /v1/deploy                        deploy; body is the request payload
  POST /v1/stop                          stop; body is the request payload
  GET  /v1/invocations/{id}              one recorded invocation
  GET  /v1/reviews/{slug}/invocations    recent invocations for a slug
  GET  /healthz                          liveness
  GET  /metrics                          Prometheus metrics

Deploy and stop answer 200 on success, 422 when the request was at fault and
502 when a downstream system failed; the body is always the invocation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, global, f)
		},
	}
	cmd.Flags().StringVar(&f.Addr, "addr", "", "listen address (default :8080)")
	cmd.Flags().StringVar(&f.Backend, "backend", "", "platform backend (meta|docker|memory)")
	root.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, global *GlobalFlags, f *serveFlags) error {
	sig := signal.NewHandler(cmd.Context())
	defer sig.Stop()
	ctx := sig.Context()
	logger := GetLogger()

	overrides := &config.Config{}
	overrides.Server.Addr = f.Addr
	overrides.Platform.Backend = f.Backend
	cfg, err := config.LoadWithOverrides(ctx, global.ConfigFile, overrides)
	if err != nil {
		return err
	}

	svc, err := NewServices(ctx, cfg, serviceOptions{Verbose: global.Verbose}, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := svc.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("failed to close services")
		}
	}()

	srv := server.New(server.Options{
		Addr:            cfg.Server.Addr,
		RateLimit:       cfg.Server.RateLimit,
		Burst:           cfg.Server.Burst,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Describe:        svc.Platform.Describe(),
	}, svc.Engine, svc.History, svc.Metrics, logger)

	err = srv.Run(ctx)
	if s := sig.Received(); s != nil {
		logger.Info().Str("signal", s.String()).Msg("server stopped")
	}
	return err
}
