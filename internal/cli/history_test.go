package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/reviewapp/internal/errors"
)

func TestHistory_RequiresSlugOrID(t *testing.T) {
	_, err := runCLI(t, "", "history")
	require.ErrorIs(t, err, errors.ErrInvalidArgument)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
}

func TestHistory_NegativeLimit(t *testing.T) {
	_, err := runCLI(t, "", "history", "feature-x", "--limit", "-1")
	require.ErrorIs(t, err, errors.ErrValueOutOfRange)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
}

func TestHistory_EmptyMemoryStore(t *testing.T) {
	cfg := writeConfig(t, testConfig)

	out, err := runCLI(t, "", "history", "feature-x", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "no invocations recorded for feature-x")

	out, err = runCLI(t, "", "history", "feature-x", "--config", cfg, "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestHistory_UnknownID(t *testing.T) {
	cfg := writeConfig(t, testConfig)

	_, err := runCLI(t, "", "history", "--id", "nope", "--config", cfg)
	require.ErrorIs(t, err, errors.ErrInvocationNotFound)
	assert.Equal(t, ExitError, ExitCodeForError(err))
}
