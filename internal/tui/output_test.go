package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/reviewapp/internal/clock"
	"github.com/mrz1836/reviewapp/internal/domain"
	"github.com/mrz1836/reviewapp/internal/errors"
)

func sampleResult() domain.Invocation {
	return domain.Invocation{
		ID:        "inv-1",
		Operation: domain.OperationDeploy,
		Status:    domain.StatusDegraded,
		Action:    domain.ActionCreated,
		Slug:      "feature-x",
		URL:       "https://ui-review-feature-x.test.galacticfog.com",
		Lines: []string{
			"***** begin ui review app deploy ************\n",
			"Created new container with id: w-1",
			"WARNING: Could not locate GitLab environment in order to update external_url",
		},
	}
}

func TestNewOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	assert.IsType(t, &JSONOutput{}, NewOutput(&buf, FormatJSON))
	assert.IsType(t, &TTYOutput{}, NewOutput(&buf, FormatText))
	assert.IsType(t, &TTYOutput{}, NewOutput(&buf, ""))
}

func TestTTYOutput_Result(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, NewTTYOutput(&buf).Result(sampleResult()))

	out := stripANSI(buf.String())
	assert.Contains(t, out, "***** begin ui review app deploy ************")
	assert.Contains(t, out, "Created new container with id: w-1")
	assert.Contains(t, out, "WARNING: Could not locate GitLab environment")
	assert.Contains(t, out, "⚠ deploy degraded (created)")
	assert.Contains(t, out, "https://ui-review-feature-x.test.galacticfog.com")
	assert.Contains(t, out, "invocation inv-1")
}

func TestTTYOutput_ResultFailed(t *testing.T) {
	t.Parallel()

	res := sampleResult()
	res.Status = domain.StatusFailed
	res.FailedStep = "reconcile"
	res.Action = ""

	var buf bytes.Buffer
	require.NoError(t, NewTTYOutput(&buf).Result(res))

	out := stripANSI(buf.String())
	assert.Contains(t, out, "✗ deploy failed at reconcile")
	assert.NotContains(t, out, res.URL+"\n")
}

func TestTTYOutput_ErrorWithAction(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	o := NewTTYOutput(&buf)
	o.Error(fmt.Errorf("deploy: %w", errors.ErrInvocationFailed))
	o.Error(fmt.Errorf("plain failure")) //nolint:err113 // test error

	out := stripANSI(buf.String())
	assert.Contains(t, out, "✗ deploy: invocation failed")
	assert.Contains(t, out, "▸ Try: Fix the reported problem")
	assert.Equal(t, 1, strings.Count(out, "▸ Try:"))
}

func TestTTYOutput_Table(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewTTYOutput(&buf).Table([]string{"ID", "STATUS"}, [][]string{{"a-long-id", "ok"}, {"b"}})

	lines := strings.Split(strings.TrimSpace(stripANSI(buf.String())), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ID         STATUS", lines[0])
	assert.Equal(t, "a-long-id  ok", lines[1])
	assert.Equal(t, "b", lines[2])
}

func TestJSONOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	o := NewJSONOutput(&buf)
	require.NoError(t, o.Result(sampleResult()))
	o.Error(fmt.Errorf("stop: %w", errors.ErrInvocationFailed))
	o.Table([]string{"ID", "STATUS"}, [][]string{{"x"}})

	dec := json.NewDecoder(&buf)

	var res domain.Invocation
	require.NoError(t, dec.Decode(&res))
	assert.Equal(t, "inv-1", res.ID)
	assert.Len(t, res.Lines, 3)

	var jerr map[string]string
	require.NoError(t, dec.Decode(&jerr))
	assert.Equal(t, "error", jerr["type"])
	assert.Equal(t, "stop: invocation failed", jerr["details"])
	assert.NotEmpty(t, jerr["suggestion"])

	var table []map[string]string
	require.NoError(t, dec.Decode(&table))
	assert.Equal(t, []map[string]string{{"ID": "x", "STATUS": ""}}, table)
}

func TestHistoryRows(t *testing.T) {
	t.Parallel()

	now := time.Now()
	headers, rows := HistoryRows([]domain.Invocation{
		{ID: "1", Operation: domain.OperationStop, Status: domain.StatusFailed, FailedStep: "resolve", StartedAt: now},
	})
	assert.Len(t, headers, 6)
	require.Len(t, rows, 1)
	assert.Equal(t, "✗ failed (resolve)", rows[0][2])
	assert.Equal(t, "just now", rows[0][5])
}

func TestRelativeTimeWith(t *testing.T) {
	t.Parallel()

	c := clock.NewFixedClock(time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC))
	now := c.Now()

	tests := []struct {
		in   time.Time
		want string
	}{
		{time.Time{}, "-"},
		{now.Add(-10 * time.Second), "just now"},
		{now.Add(-5 * time.Minute), "5m ago"},
		{now.Add(-3 * time.Hour), "3h ago"},
		{now.Add(-50 * time.Hour), "2d ago"},
		{now.Add(-30 * 24 * time.Hour), "2026-02-18"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, RelativeTimeWith(tc.in, c))
	}
}

func TestStyles(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "✓", StatusIcon(domain.StatusSucceeded))
	assert.Equal(t, "⚠", StatusIcon(domain.StatusDegraded))
	assert.Equal(t, "✗", StatusIcon(domain.StatusFailed))
	assert.Equal(t, "?", StatusIcon(""))

	s := NewOutputStyles()
	assert.Equal(t, "plain line", s.Line("plain line"))
	assert.Equal(t, "\n***** done", stripANSI(s.Line("\n***** done")))
	assert.Equal(t, "ERROR: x", stripANSI(s.Line("ERROR: x")))

	assert.Equal(t, "ab", stripANSI("\x1b[1ma\x1b[0mb"))
	assert.Equal(t, "ab  ", padRight("ab", 4))
	assert.Equal(t, "abc", padRight("abc", 2))
}
