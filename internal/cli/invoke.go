package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrz1836/reviewapp/internal/config"
	"github.com/mrz1836/reviewapp/internal/domain"
	"github.com/mrz1836/reviewapp/internal/errors"
	"github.com/mrz1836/reviewapp/internal/signal"
	"github.com/mrz1836/reviewapp/internal/tui"
)

// invokeFlags are shared by deploy and stop.
type invokeFlags struct {
	Payload   string
	Slug      string
	Image     string
	GitRef    string
	GitSHA    string
	GitAuthor string

	Organization string
	Environment  string
	Provider     string
	Backend      string
	DryRun       bool
}

func addInvokeFlags(cmd *cobra.Command, f *invokeFlags, withImage bool) {
	fs := cmd.Flags()
	fs.StringVar(&f.Payload, "payload", "", `request payload file, JSON or YAML ("-" reads stdin)`)
	fs.StringVar(&f.Slug, "slug", "", "GitLab environment slug")
	if withImage {
		fs.StringVar(&f.Image, "image", "", "container image to deploy")
		fs.StringVar(&f.GitRef, "git-ref", "", "git ref being deployed")
		fs.StringVar(&f.GitSHA, "git-sha", "", "git commit being deployed")
		fs.StringVar(&f.GitAuthor, "git-author", "", "author of the commit")
	}
	fs.StringVar(&f.Organization, "org", "", "target organization (overrides TARGET_ORG)")
	fs.StringVar(&f.Environment, "env", "", "target environment (overrides TARGET_ENV)")
	fs.StringVar(&f.Provider, "provider", "", "target provider (overrides TARGET_PROVIDER)")
	fs.StringVar(&f.Backend, "backend", "", "platform backend (meta|docker|memory)")
	fs.BoolVar(&f.DryRun, "dry-run", false, "run against an in-memory platform; nothing external is touched")
}

// request reads the payload, if any, and lays the flags over it.
func (f *invokeFlags) request(stdin io.Reader) (domain.ReviewRequest, error) {
	var req domain.ReviewRequest
	if f.Payload != "" {
		data, err := readPayload(f.Payload, stdin)
		if err != nil {
			return req, errors.NewExitCode2Error(err)
		}
		req, err = domain.ParseRequest(data)
		if err != nil {
			return req, errors.NewExitCode2Error(err)
		}
	}
	overlay(&req.Slug, f.Slug)
	overlay(&req.Image, f.Image)
	overlay(&req.GitRef, f.GitRef)
	overlay(&req.GitSHA, f.GitSHA)
	overlay(&req.GitAuthor, f.GitAuthor)
	return req, nil
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func readPayload(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, errors.Wrap(err, "read payload from stdin")
		}
		return data, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied payload path
	if err != nil {
		return nil, errors.Wrapf(err, "read payload %s", path)
	}
	return data, nil
}

func (f *invokeFlags) overrides() *config.Config {
	o := &config.Config{}
	o.Target.Organization = f.Organization
	o.Target.Environment = f.Environment
	o.Target.Provider = f.Provider
	o.Platform.Backend = f.Backend
	return o
}

// runInvocation loads configuration, runs op and prints the result. A
// failed invocation returns ErrInvocationFailed after the log is printed.
func runInvocation(cmd *cobra.Command, global *GlobalFlags, f *invokeFlags, op domain.Operation) error {
	sig := signal.NewHandler(cmd.Context())
	defer sig.Stop()
	ctx := sig.Context()
	logger := GetLogger()

	req, err := f.request(cmd.InOrStdin())
	if err != nil {
		return err
	}

	cfg, err := config.LoadWithOverrides(ctx, global.ConfigFile, f.overrides())
	if err != nil {
		return err
	}

	svc, err := NewServices(ctx, cfg, serviceOptions{DryRun: f.DryRun, Verbose: global.Verbose}, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := svc.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("failed to close services")
		}
	}()

	ctx = logger.WithContext(ctx)
	res := invoke(ctx, svc, op, req)

	out := tui.NewOutput(cmd.OutOrStdout(), global.Output)
	if err := out.Result(res); err != nil {
		return errors.Wrap(err, "write result")
	}
	if s := sig.Received(); s != nil {
		logger.Warn().Str("signal", s.String()).Msg("invocation interrupted")
	}
	if res.Failed() {
		return fmt.Errorf("%s %s at %s: %w", op, res.Slug, res.FailedStep, errors.ErrInvocationFailed)
	}
	return nil
}

func invoke(ctx context.Context, svc *Services, op domain.Operation, req domain.ReviewRequest) domain.Invocation {
	if op == domain.OperationStop {
		return svc.Engine.Stop(ctx, req)
	}
	return svc.Engine.Deploy(ctx, req)
}
