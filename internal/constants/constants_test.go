package constants

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReviewSizing(t *testing.T) {
	t.Run("review apps stay tiny", func(t *testing.T) {
		assert.Equal(t, 1, ReviewInstances)
		assert.InDelta(t, 0.1, ReviewCPUs, 0.0001)
		assert.InDelta(t, 64.0, ReviewMemoryMB, 0.0001)
		assert.Equal(t, 80, WebContainerPort)
	})
}

func TestGitLabPaging(t *testing.T) {
	t.Run("default page size does not exceed the GitLab cap", func(t *testing.T) {
		assert.LessOrEqual(t, DefaultGitLabPerPage, MaxGitLabPerPage)
		assert.Positive(t, DefaultGitLabMaxPages)
	})
}

func TestTimeouts(t *testing.T) {
	t.Run("http timeout is bounded", func(t *testing.T) {
		assert.Equal(t, 30*time.Second, DefaultHTTPTimeout)
		assert.Less(t, DefaultShutdownTimeout, time.Minute)
	})
}

func TestStatusStrings(t *testing.T) {
	assert.Equal(t, "deploy", OperationDeploy.String())
	assert.Equal(t, "degraded", StatusDegraded.String())
	assert.Equal(t, "created", ActionCreated.String())
}

func TestBanners(t *testing.T) {
	assert.Contains(t, DeployBeginBanner, "begin ui review app deploy")
	assert.Contains(t, StopDoneBanner, "done with UI review app stop")
}
