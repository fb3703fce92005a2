package logging

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestInvocationLog_OrderAndPrefixes(t *testing.T) {
	t.Parallel()

	log := NewInvocationLog(context.Background(), "inv-1", false)
	log.Info("***** begin ui review app deploy ************\n")
	log.Debug("payload {}")
	log.Warnf("Could not locate GitLab environment in order to update %s", "external_url")
	log.Errorf("could not find target %s", "org")

	assert.Equal(t, []string{
		"***** begin ui review app deploy ************\n",
		"WARNING: Could not locate GitLab environment in order to update external_url",
		"ERROR: could not find target org",
	}, log.Lines())

	assert.Len(t, log.Entries(), 4)
	assert.Equal(t, 1, log.Count(zerolog.ErrorLevel))
	assert.Equal(t, 1, log.Count(zerolog.WarnLevel))
}

func TestInvocationLog_VerboseIncludesDebug(t *testing.T) {
	t.Parallel()

	log := NewInvocationLog(context.Background(), "inv-2", true)
	log.Debug("payload {}")
	log.Infof("Created new container with id %s", "c-1")

	assert.Equal(t, "payload {}\nCreated new container with id c-1", log.String())
}

func TestInvocationLog_MirrorsToContextLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	ctx := logger.WithContext(context.Background())

	log := NewInvocationLog(ctx, "inv-3", false)
	log.Info("posted message to slack")

	assert.Contains(t, buf.String(), `"invocation_id":"inv-3"`)
	assert.Contains(t, buf.String(), `"message":"posted message to slack"`)
}

func TestInvocationLog_RedactsSecrets(t *testing.T) {
	t.Parallel()

	log := NewInvocationLog(context.Background(), "inv-4", false)
	log.Warnf("GitLab environment update failed: token %s rejected", fakeGitLabPAT())

	assert.NotContains(t, log.String(), fakeGitLabPAT())
}

func TestInvocationLog_ConcurrentAppends(t *testing.T) {
	t.Parallel()

	log := NewInvocationLog(context.Background(), "inv-5", false)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info("line")
		}()
	}
	wg.Wait()

	assert.Len(t, log.Lines(), 20)
}
