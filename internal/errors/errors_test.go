package errors_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	raerrors "github.com/mrz1836/reviewapp/internal/errors"
)

// testError is a custom error type used to test default branches
// in UserMessage and Actionable without matching any sentinel.
type testError struct {
	msg string
}

func (e testError) Error() string {
	return e.msg
}

func allSentinels() []error {
	return []error{
		raerrors.ErrConfigNil,
		raerrors.ErrConfigNotFound,
		raerrors.ErrConfigInvalidTarget,
		raerrors.ErrConfigInvalidPlatform,
		raerrors.ErrConfigInvalidReview,
		raerrors.ErrConfigInvalidGitLab,
		raerrors.ErrConfigInvalidSlack,
		raerrors.ErrConfigInvalidKafka,
		raerrors.ErrConfigInvalidHistory,
		raerrors.ErrConfigInvalidServer,
		raerrors.ErrInvalidOutputFormat,
		raerrors.ErrInvalidRequest,
		raerrors.ErrTargetNotFound,
		raerrors.ErrNotFound,
		raerrors.ErrPlatformOperation,
		raerrors.ErrUnsupportedPatch,
		raerrors.ErrRegistryOperation,
		raerrors.ErrRegistryRecordNotFound,
		raerrors.ErrNotifyFailed,
		raerrors.ErrInvocationNotFound,
		raerrors.ErrEmptyValue,
		raerrors.ErrValueOutOfRange,
		raerrors.ErrInvalidArgument,
		raerrors.ErrInvocationFailed,
	}
}

func TestSentinelErrors_AreDistinct(t *testing.T) {
	t.Parallel()

	all := allSentinels()
	for i, a := range all {
		require.Error(t, a)
		assert.NotEmpty(t, a.Error())
		for j, b := range all {
			if i == j {
				continue
			}
			assert.NotErrorIs(t, a, b, "%v should not match %v", a, b)
		}
	}
}

func TestSentinelErrors_Messages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err      error
		expected string
	}{
		{raerrors.ErrInvalidRequest, "invalid review request"},
		{raerrors.ErrTargetNotFound, "target not found"},
		{raerrors.ErrPlatformOperation, "platform operation failed"},
		{raerrors.ErrRegistryOperation, "registry operation failed"},
		{raerrors.ErrNotifyFailed, "notification failed"},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, tc.err.Error())
		})
	}
}

func TestWrap(t *testing.T) {
	t.Parallel()

	t.Run("nil error returns nil", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, raerrors.Wrap(nil, "context"))
		require.NoError(t, raerrors.Wrapf(nil, "context %d", 1))
	})

	t.Run("wrapped error keeps the chain", func(t *testing.T) {
		t.Parallel()
		err := raerrors.Wrap(raerrors.ErrPlatformOperation, "failed to create workload")
		require.ErrorIs(t, err, raerrors.ErrPlatformOperation)
		assert.Equal(t, "failed to create workload: platform operation failed", err.Error())
	})

	t.Run("wrapf formats context", func(t *testing.T) {
		t.Parallel()
		err := raerrors.Wrapf(raerrors.ErrTargetNotFound, "organization %q", "galacticfog")
		require.ErrorIs(t, err, raerrors.ErrTargetNotFound)
		assert.Equal(t, `organization "galacticfog": target not found`, err.Error())
	})
}

func TestUserMessage(t *testing.T) {
	t.Parallel()

	assert.Empty(t, raerrors.UserMessage(nil))
	assert.Equal(t, "custom failure", raerrors.UserMessage(testError{msg: "custom failure"}))

	wrapped := fmt.Errorf("deploy: %w", raerrors.ErrRegistryOperation)
	assert.Equal(t, "The GitLab environment registry could not be updated.", raerrors.UserMessage(wrapped))
}

func TestActionable(t *testing.T) {
	t.Parallel()

	msg, action := raerrors.Actionable(nil)
	assert.Empty(t, msg)
	assert.Empty(t, action)

	msg, action = raerrors.Actionable(raerrors.Wrap(raerrors.ErrInvalidRequest, "deploy"))
	assert.Equal(t, "The review request is missing required fields.", msg)
	assert.Contains(t, action, "--slug")

	msg, action = raerrors.Actionable(testError{msg: "boom"})
	assert.Equal(t, "boom", msg)
	assert.Empty(t, action)
}

func TestUserMessage_AllSentinelsHaveEntries(t *testing.T) {
	t.Parallel()

	for _, err := range allSentinels() {
		if err == raerrors.ErrNotFound || err == raerrors.ErrUnsupportedPatch ||
			err == raerrors.ErrRegistryRecordNotFound {
			continue
		}
		msg, action := raerrors.Actionable(err)
		assert.NotEqual(t, err.Error(), msg, "%v should have a user-facing message", err)
		assert.NotEmpty(t, action, "%v should have an action", err)
	}
}

func TestExitCode2Error(t *testing.T) {
	t.Parallel()

	base := raerrors.ErrInvalidArgument
	err := raerrors.NewExitCode2Error(base)
	require.ErrorIs(t, err, base)
	assert.Equal(t, base.Error(), err.Error())
	assert.True(t, raerrors.IsExitCode2Error(fmt.Errorf("outer: %w", err)))
	assert.False(t, raerrors.IsExitCode2Error(base))
}
