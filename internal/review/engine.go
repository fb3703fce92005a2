package review

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mrz1836/reviewapp/internal/clock"
	"github.com/mrz1836/reviewapp/internal/constants"
	"github.com/mrz1836/reviewapp/internal/ctxutil"
	"github.com/mrz1836/reviewapp/internal/domain"
	"github.com/mrz1836/reviewapp/internal/errors"
	"github.com/mrz1836/reviewapp/internal/logging"
	"github.com/mrz1836/reviewapp/internal/metrics"
	"github.com/mrz1836/reviewapp/internal/notify"
	"github.com/mrz1836/reviewapp/internal/platform"
)

// Result is the outcome of one invocation.
type Result = domain.Invocation

// Recorder keeps finished results. history.Store implements it.
type Recorder interface {
	Save(ctx context.Context, inv domain.Invocation) error
}

// Engine runs deploy and stop invocations. It holds only immutable
// configuration and clients, so one Engine serves concurrent invocations.
type Engine struct {
	cfg      Config
	platform platform.Platform

	resolver   *Resolver
	reconciler *Reconciler
	sync       *Synchronizer
	notifier   *Notifier
	skipped    []string
	teardown   *Teardown

	recorder Recorder
	metrics  *metrics.Metrics
	clock    clock.Clock
	newID    func() string
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRegistry sets the CI environment registry. Without one the registry
// step logs a skip line.
func WithRegistry(r Registry) EngineOption {
	return func(e *Engine) {
		e.sync = NewSynchronizer(r)
	}
}

// WithAnnouncers sets the announcement channels. With async set, channels
// that support it are dispatched without blocking the invocation.
func WithAnnouncers(async bool, announcers ...notify.Announcer) EngineOption {
	return func(e *Engine) {
		e.notifier = NewNotifier(async, announcers...)
	}
}

// WithSkippedAnnouncements records channels that are enabled but not usable.
// Each line is written to the invocation log in place of the announcement.
func WithSkippedAnnouncements(lines ...string) EngineOption {
	return func(e *Engine) {
		e.skipped = append(e.skipped, lines...)
	}
}

// WithRecorder stores every finished Result.
func WithRecorder(r Recorder) EngineOption {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithMetrics records invocation metrics.
func WithMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithClock replaces the wall clock used for timestamps.
func WithClock(c clock.Clock) EngineOption {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithIDGenerator replaces the invocation id generator.
func WithIDGenerator(f func() string) EngineOption {
	return func(e *Engine) {
		e.newID = f
	}
}

// NewEngine creates an Engine deploying to p.
func NewEngine(p platform.Platform, cfg Config, opts ...EngineOption) *Engine {
	e := &Engine{
		cfg:        cfg.withDefaults(),
		platform:   p,
		resolver:   NewResolver(p),
		reconciler: NewReconciler(p),
		sync:       NewSynchronizer(nil),
		notifier:   NewNotifier(false),
		teardown:   NewTeardown(p),
		clock:      clock.RealClock{},
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// invocation carries the state of one run through the steps.
type invocation struct {
	ctx    context.Context //nolint:containedctx // scoped to a single Deploy or Stop call
	log    *logging.InvocationLog
	result Result
}

func (e *Engine) begin(ctx context.Context, op domain.Operation, req domain.ReviewRequest, banner string) *invocation {
	id := ctxutil.InvocationID(ctx)
	if id == "" {
		id = e.newID()
		ctx = ctxutil.WithInvocationID(ctx, id)
	}
	logger := zerolog.Ctx(ctx).With().
		Str("operation", op.String()).
		Str("slug", req.Slug).
		Logger()
	ctx = logger.WithContext(ctx)

	inv := &invocation{
		ctx: ctx,
		log: logging.NewInvocationLog(ctx, id, e.cfg.Verbose),
		result: Result{
			ID:        id,
			Operation: op,
			Slug:      req.Slug,
			Image:     req.Image,
			StartedAt: e.clock.Now().UTC(),
		},
	}
	inv.log.Info(banner)
	inv.log.Infof("[init] found meta: %s", e.platform.Describe())
	return inv
}

// fail marks the invocation failed at step. The log already holds the
// ERROR line.
func (e *Engine) fail(inv *invocation, step string, err error) Result {
	inv.result.Status = domain.StatusFailed
	inv.result.FailedStep = step
	inv.result.InputError = stderrors.Is(err, errors.ErrInvalidRequest)
	e.metrics.StepFailed(step)
	return e.finish(inv)
}

// canceled reports a cancelled context as a fatal step failure.
func (e *Engine) canceled(inv *invocation, step string) (Result, bool) {
	err := ctxutil.Canceled(inv.ctx)
	if err == nil {
		return Result{}, false
	}
	inv.log.Errorf("invocation canceled before %s: %v", step, err)
	return e.fail(inv, step, err), true
}

func (e *Engine) finish(inv *invocation) Result {
	res := inv.result
	if res.Status == "" {
		res.Status = domain.StatusSucceeded
		if len(res.Warnings) > 0 {
			res.Status = domain.StatusDegraded
		}
	}
	res.FinishedAt = e.clock.Now().UTC()
	res.Lines = inv.log.Lines()

	e.metrics.ObserveInvocation(res.Operation.String(), res.Status.String(), res.Duration())
	zerolog.Ctx(inv.ctx).Info().
		Str("invocation_id", res.ID).
		Str("status", res.Status.String()).
		Str("action", res.Action.String()).
		Msg("invocation finished")

	if e.recorder != nil {
		// Recording must outlive a cancelled request.
		saveCtx := context.WithoutCancel(inv.ctx)
		if err := e.recorder.Save(saveCtx, res); err != nil {
			zerolog.Ctx(inv.ctx).Warn().Err(err).Msg("failed to record invocation")
		}
	}
	return res
}

// Deploy provisions or updates the review workload for req.
func (e *Engine) Deploy(ctx context.Context, req domain.ReviewRequest) Result {
	inv := e.begin(ctx, domain.OperationDeploy, req, constants.DeployBeginBanner)
	ctx = inv.ctx

	target, err := e.resolver.Resolve(ctx, e.cfg, true, inv.log)
	if err != nil {
		return e.fail(inv, constants.StepResolve, err)
	}

	plan, err := buildPlan(e.cfg, req, target, e.clock.Now(), inv.log)
	if err != nil {
		return e.fail(inv, constants.StepSpec, err)
	}
	inv.result.URL = plan.URL

	if res, stop := e.canceled(inv, constants.StepWorkload); stop {
		return res
	}
	outcome, err := e.reconciler.Reconcile(ctx, target, plan.Spec, inv.log)
	if err != nil {
		return e.fail(inv, constants.StepWorkload, err)
	}
	inv.result.Action = outcome.Action
	inv.result.WorkloadID = outcome.Workload.ID

	if updated, err := e.sync.Sync(ctx, req.Slug, plan.URL, inv.log); !updated && err != nil {
		inv.result.Warnings = append(inv.result.Warnings, err.Error())
		e.metrics.StepFailed(constants.StepRegistry)
	}

	for _, line := range e.skipped {
		inv.log.Info(line)
	}
	wait := e.notifier.Announce(ctx, domain.Announcement{
		Slug:        req.Slug,
		Image:       req.Image,
		URL:         plan.URL,
		Description: plan.Spec.Description,
		WorkloadID:  outcome.Workload.ID,
		Action:      outcome.Action,
		GitRef:      req.GitRef,
		GitSHA:      req.GitSHA,
		GitAuthor:   req.GitAuthor,
		At:          e.clock.Now().UTC(),
	}, inv.log)
	if failed := wait(); failed > 0 {
		e.metrics.StepFailed(constants.StepNotify)
	}

	inv.log.Info(constants.DeployDoneBanner)
	return e.finish(inv)
}

// Stop removes the review workload for req.Slug. Only the organization and
// environment are resolved; the image is not required.
func (e *Engine) Stop(ctx context.Context, req domain.ReviewRequest) Result {
	inv := e.begin(ctx, domain.OperationStop, req, constants.StopBeginBanner)
	ctx = inv.ctx

	target, err := e.resolver.Resolve(ctx, e.cfg, false, inv.log)
	if err != nil {
		return e.fail(inv, constants.StepResolve, err)
	}

	if err := checkRequest(req, false, inv.log); err != nil {
		return e.fail(inv, constants.StepSpec, err)
	}

	if res, stop := e.canceled(inv, constants.StepTeardown); stop {
		return res
	}
	action, id, err := e.teardown.Run(ctx, target, req.Slug, inv.log)
	inv.result.WorkloadID = id
	if err != nil {
		return e.fail(inv, constants.StepTeardown, err)
	}
	inv.result.Action = action

	inv.log.Info(constants.StopDoneBanner)
	return e.finish(inv)
}
