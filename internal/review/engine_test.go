package review

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/reviewapp/internal/constants"
	"github.com/mrz1836/reviewapp/internal/domain"
	"github.com/mrz1836/reviewapp/internal/errors"
	"github.com/mrz1836/reviewapp/internal/history"
	"github.com/mrz1836/reviewapp/internal/metrics"
	"github.com/mrz1836/reviewapp/internal/notify"
	"github.com/mrz1836/reviewapp/internal/platform"
	"github.com/mrz1836/reviewapp/internal/transport"
)

const featureURL = "https://ui-review-feature-x.test.galacticfog.com"

type fixture struct {
	platform *platform.Memory
	registry *fakeRegistry
	slack    *recordingAnnouncer
	store    *history.Memory
	engine   *Engine
}

func newFixture(opts ...EngineOption) *fixture {
	f := &fixture{
		platform: seededPlatform(),
		registry: newFakeRegistry(domain.EnvironmentRecord{ID: 17, Name: "review/feature-x", Slug: "feature-x"}),
		slack:    &recordingAnnouncer{name: "slack"},
		store:    history.NewMemory(10),
	}
	base := []EngineOption{
		WithRegistry(f.registry),
		WithAnnouncers(false, f.slack),
		WithRecorder(f.store),
		WithMetrics(metrics.New()),
		WithClock(testClock()),
		WithIDGenerator(func() string { return "inv-1" }),
	}
	f.engine = NewEngine(f.platform, testConfig(), append(base, opts...)...)
	return f
}

func hasErrorLine(lines []string) bool {
	for _, l := range lines {
		if strings.HasPrefix(l, constants.ErrorPrefix) {
			return true
		}
	}
	return false
}

func TestEngine_Deploy_HappyPath(t *testing.T) {
	t.Parallel()

	f := newFixture()
	res := f.engine.Deploy(context.Background(), testRequest())

	assert.Equal(t, []string{
		constants.DeployBeginBanner,
		"[init] found meta: memory://",
		"Will deploy image registry.gitlab.com/galacticfog/ui:0a1b2c3 to provider dcos at url: " + featureURL,
		"Created new container with id wl-0001",
		"search for environment with feature-x",
		"Calling back to GitLab to update environment url: 17",
		"posted message to slack",
		constants.DeployDoneBanner,
	}, res.Lines)
	assert.Equal(t, "inv-1", res.ID)
	assert.Equal(t, domain.OperationDeploy, res.Operation)
	assert.Equal(t, domain.StatusSucceeded, res.Status)
	assert.Equal(t, domain.ActionCreated, res.Action)
	assert.Equal(t, "wl-0001", res.WorkloadID)
	assert.Equal(t, featureURL, res.URL)
	assert.Empty(t, res.Warnings)

	stored, err := f.store.Get(context.Background(), "inv-1")
	require.NoError(t, err)
	assert.Equal(t, res.Lines, stored.Lines)
}

// Deploying the same request twice leaves exactly one workload.
func TestEngine_Deploy_IdempotentCreate(t *testing.T) {
	t.Parallel()

	f := newFixture()
	first := f.engine.Deploy(context.Background(), testRequest())
	second := f.engine.Deploy(context.Background(), testRequest())

	assert.Equal(t, domain.ActionCreated, first.Action)
	assert.Equal(t, domain.ActionUpdated, second.Action)
	assert.Equal(t, first.WorkloadID, second.WorkloadID)
	assert.Contains(t, second.Lines, "Updated container with id "+first.WorkloadID)

	workloads := f.platform.Workloads()
	require.Len(t, workloads, 1)
	assert.Equal(t, 1, f.platform.Calls("CreateWorkload"))
	assert.Equal(t, 1, f.platform.Calls("PatchWorkload"))
}

// Redeploying touches only image, description and labels.
func TestEngine_Deploy_UpdateNotReplace(t *testing.T) {
	t.Parallel()

	f := newFixture()
	target := domain.TargetContext{
		Organization: domain.Handle{ID: "org-" + testOrg, Name: testOrg},
		Environment:  domain.Handle{ID: "env-" + testEnv, Name: testEnv},
	}
	f.platform.PutWorkload(target, domain.Workload{
		ID:          "wl-ops",
		Name:        "feature-x",
		Description: "old",
		Image:       "ui:old",
		Labels:      map[string]string{"REVIEW_APP": "feature-x", "OPERATOR_NOTE": "keep"},
		Instances:   3,
		CPUs:        2,
		MemoryMB:    2048,
		Provider:    domain.Handle{ID: "provider-custom", Name: "custom"},
	})

	res := f.engine.Deploy(context.Background(), testRequest())
	require.Equal(t, domain.StatusSucceeded, res.Status, res.Lines)
	assert.Equal(t, domain.ActionUpdated, res.Action)
	assert.Equal(t, 0, f.platform.Calls("CreateWorkload"))

	workloads := f.platform.Workloads()
	require.Len(t, workloads, 1)
	w := workloads[0]
	assert.Equal(t, "wl-ops", w.ID)
	assert.Equal(t, 3, w.Instances)
	assert.InDelta(t, 2, w.CPUs, 0)
	assert.InDelta(t, 2048, w.MemoryMB, 0)
	assert.Equal(t, "custom", w.Provider.Name)

	assert.Equal(t, testRequest().Image, w.Image)
	assert.True(t, strings.HasPrefix(w.Description, "CI review app: \n"))
	assert.Equal(t, "ui-review-feature-x.test.galacticfog.com", w.Labels["HAPROXY_0_VHOST"])
	assert.NotContains(t, w.Labels, "OPERATOR_NOTE")
}

func TestPatchOps(t *testing.T) {
	t.Parallel()

	spec := domain.WorkloadSpec{Image: "ui:2", Description: "d", Labels: map[string]string{"A": "1"}}
	ops := PatchOps(spec)
	require.Len(t, ops, 3)
	assert.Equal(t, domain.Replace(domain.PathImage, "ui:2"), ops[0])
	assert.Equal(t, domain.Replace(domain.PathDescription, "d"), ops[1])
	assert.Equal(t, domain.PathLabels, ops[2].Path)
	assert.Equal(t, map[string]string{"A": "1"}, ops[2].Value)
}

// A request without an image never reaches the platform's mutating calls.
func TestEngine_Deploy_RequiredFieldRejection(t *testing.T) {
	t.Parallel()

	f := newFixture()
	res := f.engine.Deploy(context.Background(), domain.ReviewRequest{Slug: "pr-42"})

	assert.Equal(t, domain.StatusFailed, res.Status)
	assert.Equal(t, constants.StepSpec, res.FailedStep)
	assert.True(t, res.InputError)
	assert.Equal(t, "ERROR: missing image argument 'image'", res.Lines[len(res.Lines)-1])
	assert.Zero(t, f.platform.MutatingCalls())
	assert.Zero(t, f.platform.Calls("FindWorkload"))
	assert.Zero(t, f.registry.calls())
	assert.Empty(t, f.slack.sent())
}

func TestEngine_Deploy_ResolutionShortCircuit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		platform *platform.Memory
		want     string
	}{
		{"missing org", platform.NewMemory(), "ERROR: could not find target org"},
		{"missing environment", platform.NewMemory().Seed(testOrg, "", testProvider), "ERROR: could not find target environment"},
		{"missing provider", platform.NewMemory().Seed(testOrg, testEnv, ""), "ERROR: could not find target provider"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			registry := newFakeRegistry()
			slack := &recordingAnnouncer{name: "slack"}
			e := NewEngine(tc.platform, testConfig(), WithRegistry(registry), WithAnnouncers(false, slack))

			res := e.Deploy(context.Background(), testRequest())
			assert.Equal(t, domain.StatusFailed, res.Status)
			assert.Equal(t, constants.StepResolve, res.FailedStep)
			assert.False(t, res.InputError)
			assert.Equal(t, tc.want, res.Lines[len(res.Lines)-1])
			assert.Zero(t, tc.platform.MutatingCalls())
			assert.Zero(t, tc.platform.Calls("FindWorkload"))
			assert.Zero(t, registry.calls())
			assert.Empty(t, slack.sent())
		})
	}
}

func TestEngine_Deploy_ResolveTransportFailure(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.platform.ResolveErr = &transport.APIError{StatusCode: 503, Message: "meta unavailable"}

	res := f.engine.Deploy(context.Background(), testRequest())
	assert.Equal(t, domain.StatusFailed, res.Status)
	assert.Equal(t, "ERROR: could not look up target org: response code 503: meta unavailable", res.Lines[len(res.Lines)-1])
}

// A registry miss is a warning: the log still ends with the done banner.
func TestEngine_Deploy_SoftFailureNonPropagation(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.registry.envs = map[string]domain.EnvironmentRecord{}

	res := f.engine.Deploy(context.Background(), testRequest())

	assert.Equal(t, constants.DeployDoneBanner, res.Lines[len(res.Lines)-1])
	assert.False(t, hasErrorLine(res.Lines))
	assert.Contains(t, res.Lines, "WARNING: Could not locate GitLab environment in order to update external_url")
	assert.Contains(t, res.Lines, "posted message to slack")
	assert.Equal(t, domain.StatusDegraded, res.Status)
	assert.Len(t, res.Warnings, 1)
	require.Len(t, f.platform.Workloads(), 1)
}

func TestEngine_Deploy_RegistryFailuresAreDistinct(t *testing.T) {
	t.Parallel()

	t.Run("lookup", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		f.registry.findErr = &transport.APIError{StatusCode: 401, Message: "401 Unauthorized"}

		res := f.engine.Deploy(context.Background(), testRequest())
		assert.Contains(t, res.Lines, "WARNING: GitLab environment lookup failed: response code 401: 401 Unauthorized")
		assert.NotContains(t, res.Lines, "WARNING: Could not locate GitLab environment in order to update external_url")
		assert.Equal(t, domain.StatusDegraded, res.Status)
		assert.Equal(t, constants.DeployDoneBanner, res.Lines[len(res.Lines)-1])
	})

	t.Run("update", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		f.registry.updateErr = &transport.APIError{StatusCode: 500, Message: "boom"}

		res := f.engine.Deploy(context.Background(), testRequest())
		assert.Contains(t, res.Lines, "WARNING: GitLab environment update failed: response code 500: boom")
		assert.Equal(t, domain.StatusDegraded, res.Status)
		require.Len(t, res.Warnings, 1)
		assert.Contains(t, res.Warnings[0], errors.ErrRegistryOperation.Error())
	})
}

func TestEngine_Deploy_NoRegistryConfigured(t *testing.T) {
	t.Parallel()

	p := seededPlatform()
	e := NewEngine(p, testConfig())
	res := e.Deploy(context.Background(), testRequest())

	assert.Equal(t, domain.StatusSucceeded, res.Status)
	assert.Contains(t, res.Lines, "GitLab registry not configured; skipping environment url update")
}

func TestEngine_Deploy_SkippedAnnouncementIsLogged(t *testing.T) {
	t.Parallel()

	e := NewEngine(seededPlatform(), testConfig(), WithSkippedAnnouncements(constants.SlackSkippedLine))
	res := e.Deploy(context.Background(), testRequest())

	assert.Equal(t, domain.StatusSucceeded, res.Status)
	assert.Contains(t, res.Lines, constants.SlackSkippedLine)
	assert.Equal(t, constants.DeployDoneBanner, res.Lines[len(res.Lines)-1])
}

func TestEngine_Deploy_NotifierFailureIsIgnored(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.slack.err = errors.ErrNotifyFailed

	res := f.engine.Deploy(context.Background(), testRequest())
	assert.Equal(t, domain.StatusSucceeded, res.Status)
	assert.Contains(t, res.Lines, "Caught error posting message to slack")
	assert.Equal(t, constants.DeployDoneBanner, res.Lines[len(res.Lines)-1])
}

func TestEngine_Deploy_WorkloadFailureIsFatal(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.platform.CreateErr = &transport.APIError{StatusCode: 409, Message: "name already in use"}

	res := f.engine.Deploy(context.Background(), testRequest())
	assert.Equal(t, domain.StatusFailed, res.Status)
	assert.Equal(t, constants.StepWorkload, res.FailedStep)
	assert.Equal(t, "ERROR: error creating container: response code 409: name already in use", res.Lines[len(res.Lines)-1])
	assert.Zero(t, f.registry.calls())
	assert.Empty(t, f.slack.sent())
}

// The public address is the same in the routing label, the registry update
// and the announcement.
func TestEngine_Deploy_AddressRoundTrip(t *testing.T) {
	t.Parallel()

	f := newFixture()
	req := testRequest()
	req.Slug = "pr-42"
	f.registry.envs["pr-42"] = domain.EnvironmentRecord{ID: 42, Slug: "pr-42"}

	res := f.engine.Deploy(context.Background(), req)
	require.Equal(t, domain.StatusSucceeded, res.Status, res.Lines)

	want := PublicURL(constants.DefaultHostPrefix, "pr-42", constants.DefaultDomainSuffix)
	assert.Equal(t, "https://ui-review-pr-42.test.galacticfog.com", want)
	assert.Equal(t, want, res.URL)

	workloads := f.platform.Workloads()
	require.Len(t, workloads, 1)
	assert.Equal(t, "https://"+workloads[0].Labels["HAPROXY_0_VHOST"], want)
	assert.Equal(t, want, f.registry.updates[42])

	sent := f.slack.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, want, sent[0].URL)
	assert.True(t, strings.HasSuffix(notify.SlackText(sent[0]), "\n"+want))
}

func TestEngine_Deploy_AsyncSlack(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	slack := notify.NewSlack(srv.URL, "/services/T0/B0/x", nil)
	f := newFixture(WithAnnouncers(true, slack))

	res := f.engine.Deploy(context.Background(), testRequest())
	n := len(res.Lines)
	require.GreaterOrEqual(t, n, 2)
	assert.Equal(t, "posted message to slack", res.Lines[n-2])
	assert.Equal(t, constants.DeployDoneBanner, res.Lines[n-1])
}

func TestEngine_Deploy_CanceledBeforeWorkload(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := f.engine.Deploy(ctx, testRequest())
	assert.Equal(t, domain.StatusFailed, res.Status)
	assert.Equal(t, constants.StepWorkload, res.FailedStep)
	assert.Zero(t, f.platform.MutatingCalls())

	// The result is still recorded.
	_, err := f.store.Get(context.Background(), res.ID)
	require.NoError(t, err)
}

func TestEngine_Deploy_VerboseIncludesPayload(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Verbose = true
	e := NewEngine(seededPlatform(), cfg)

	res := e.Deploy(context.Background(), testRequest())
	found := false
	for _, l := range res.Lines {
		if strings.HasPrefix(l, "container update/create payload: ") {
			found = true
		}
	}
	assert.True(t, found)
}

// Stopping a slug with no workload is a successful no-op, every time.
func TestEngine_Stop_Idempotent(t *testing.T) {
	t.Parallel()

	f := newFixture()
	req := domain.ReviewRequest{Slug: "feature-x"}

	res := f.engine.Stop(context.Background(), req)
	assert.Equal(t, domain.StatusSucceeded, res.Status)
	assert.Equal(t, domain.ActionNone, res.Action)
	assert.Equal(t, []string{
		constants.StopBeginBanner,
		"[init] found meta: memory://",
		"Will delete deployment associated with gitlab environment feature-x",
		"did not find any deployments matching that name",
		constants.StopDoneBanner,
	}, res.Lines)

	deployed := f.engine.Deploy(context.Background(), testRequest())
	require.Equal(t, domain.StatusSucceeded, deployed.Status)

	res = f.engine.Stop(context.Background(), req)
	assert.Equal(t, domain.ActionDeleted, res.Action)
	assert.Equal(t, deployed.WorkloadID, res.WorkloadID)
	assert.Contains(t, res.Lines, "Deleted container with id "+deployed.WorkloadID)
	assert.Empty(t, f.platform.Workloads())

	res = f.engine.Stop(context.Background(), req)
	assert.Equal(t, domain.StatusSucceeded, res.Status)
	assert.Equal(t, domain.ActionNone, res.Action)
}

func TestEngine_Stop_DoesNotNeedProvider(t *testing.T) {
	t.Parallel()

	p := platform.NewMemory().Seed(testOrg, testEnv, "")
	e := NewEngine(p, testConfig())

	res := e.Stop(context.Background(), domain.ReviewRequest{Slug: "feature-x"})
	assert.Equal(t, domain.StatusSucceeded, res.Status)
	assert.Zero(t, p.Calls("FindProvider"))
}

func TestEngine_Stop_RequiresSlug(t *testing.T) {
	t.Parallel()

	f := newFixture()
	res := f.engine.Stop(context.Background(), domain.ReviewRequest{})
	assert.Equal(t, domain.StatusFailed, res.Status)
	assert.True(t, res.InputError)
	assert.Equal(t, "ERROR: missing gitlab environment slug argument 'gitlab_env_slug'", res.Lines[len(res.Lines)-1])
	assert.Zero(t, f.platform.MutatingCalls())
}

func TestEngine_Stop_DeleteFailureIsFatal(t *testing.T) {
	t.Parallel()

	f := newFixture()
	require.Equal(t, domain.StatusSucceeded, f.engine.Deploy(context.Background(), testRequest()).Status)
	f.platform.DeleteErr = &transport.APIError{StatusCode: 500, Message: "internal"}

	res := f.engine.Stop(context.Background(), domain.ReviewRequest{Slug: "feature-x"})
	assert.Equal(t, domain.StatusFailed, res.Status)
	assert.Equal(t, constants.StepTeardown, res.FailedStep)
	assert.Equal(t, "ERROR: error deleting container: response code 500: internal", res.Lines[len(res.Lines)-1])
}
