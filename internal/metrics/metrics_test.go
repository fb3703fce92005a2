package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveInvocation("deploy", "succeeded", 2*time.Second)
	m.ObserveInvocation("deploy", "succeeded", time.Second)
	m.ObserveInvocation("stop", "failed", time.Second)
	m.StepFailed("registry")
	m.HTTPRequest("/v1/deploy", 200)

	assert.InDelta(t, 2, testutil.ToFloat64(m.invocations.WithLabelValues("deploy", "succeeded")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.invocations.WithLabelValues("stop", "failed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.stepFailures.WithLabelValues("registry")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.httpRequests.WithLabelValues("/v1/deploy", "200")), 0)

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "reviewapp_invocation_duration_seconds")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveInvocation("deploy", "failed", time.Second)
		m.StepFailed("workload")
		m.HTTPRequest("/healthz", 200)
	})
}
