package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/reviewapp/internal/constants"
	"github.com/mrz1836/reviewapp/internal/errors"
)

// writeFile writes content to name inside dir and returns the full path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// chdir switches to dir for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldWd) })
}

func TestLoadFromPaths_DefaultsWhenNoFiles(t *testing.T) {
	cfg, err := LoadFromPaths(context.Background(), "", "")
	require.NoError(t, err)

	assert.Equal(t, BackendMeta, cfg.Platform.Backend)
	assert.Equal(t, constants.DefaultHostPrefix, cfg.Review.HostPrefix)
	assert.Equal(t, constants.DefaultDomainSuffix, cfg.Review.DomainSuffix)
	assert.Equal(t, constants.DefaultMetaAPIURL, cfg.Review.MetaAPIURL)
	assert.Equal(t, constants.DefaultSecAPIURL, cfg.Review.SecAPIURL)
	assert.Equal(t, DefaultGitLabProjectID, cfg.GitLab.ProjectID)
	assert.Equal(t, constants.DefaultGitLabPerPage, cfg.GitLab.PerPage)
	assert.True(t, cfg.Slack.Enabled)
	assert.Equal(t, constants.DefaultHTTPTimeout, cfg.HTTP.Timeout)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoadFromPaths_ProjectOverridesGlobal(t *testing.T) {
	dir := t.TempDir()
	global := writeFile(t, dir, "global.yaml", `
target:
  organization: galacticfog
  environment: review
platform:
  backend: docker
http:
  timeout: 45s
`)
	project := writeFile(t, dir, "project.yaml", `
target:
  environment: review-apps
kafka:
  enabled: true
  brokers: ["kafka-1:9092", "kafka-2:9092"]
`)

	cfg, err := LoadFromPaths(context.Background(), project, global)
	require.NoError(t, err)

	assert.Equal(t, "galacticfog", cfg.Target.Organization)
	assert.Equal(t, "review-apps", cfg.Target.Environment)
	assert.Equal(t, BackendDocker, cfg.Platform.Backend)
	assert.Equal(t, 45*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
}

func TestLoadFromPaths_CIEnvironmentNames(t *testing.T) {
	t.Setenv("TARGET_ORG", "galacticfog.com")
	t.Setenv("TARGET_ENV", "ui-review")
	t.Setenv("TARGET_PROVIDER", "dcos")
	t.Setenv("GITLAB_TOKEN", "TESTONLY-token")
	t.Setenv("SLACK_PATH", "/services/TESTONLY")
	t.Setenv("LOCAL_META_URL", "https://meta.example.test")

	cfg, err := LoadFromPaths(context.Background(), "", "")
	require.NoError(t, err)

	assert.Equal(t, "galacticfog.com", cfg.Target.Organization)
	assert.Equal(t, "ui-review", cfg.Target.Environment)
	assert.Equal(t, "dcos", cfg.Target.Provider)
	assert.Equal(t, "TESTONLY-token", cfg.GitLab.Token)
	assert.Equal(t, "/services/TESTONLY", cfg.Slack.Path)
	assert.Equal(t, "https://meta.example.test", cfg.Review.MetaAPIURL)
	assert.Equal(t, constants.DefaultSecAPIURL, cfg.Review.SecAPIURL)
}

func TestLoadFromPaths_PrefixedEnvWins(t *testing.T) {
	t.Setenv("TARGET_ORG", "from-ci")
	t.Setenv("REVIEWAPP_TARGET_ORGANIZATION", "from-prefixed")
	t.Setenv("REVIEWAPP_GITLAB_PER_PAGE", "50")
	t.Setenv("REVIEWAPP_KAFKA_BROKERS", "a:9092,b:9092")

	cfg, err := LoadFromPaths(context.Background(), "", "")
	require.NoError(t, err)

	assert.Equal(t, "from-prefixed", cfg.Target.Organization)
	assert.Equal(t, 50, cfg.GitLab.PerPage)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
}

func TestLoadFromPaths_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	project := writeFile(t, dir, "project.yaml", `
gitlab:
  per_page: 1000
`)

	_, err := LoadFromPaths(context.Background(), project, "")
	require.ErrorIs(t, err, errors.ErrConfigInvalidGitLab)
}

func TestLoadFile_MissingExplicitFile(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := LoadFile(context.Background(), "does-not-exist.yaml")
	require.ErrorIs(t, err, errors.ErrConfigNotFound)
}

func TestLoadFile_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeFile(t, dir, ".env", "TARGET_ENV=from-dotenv\nTARGET_PROVIDER=from-dotenv\n")
	t.Setenv("TARGET_ENV", "from-env")
	// Ensure the dotenv value can be observed, then removed after the test.
	t.Setenv("TARGET_PROVIDER", "")
	require.NoError(t, os.Unsetenv("TARGET_PROVIDER"))

	cfg, err := LoadFile(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Target.Environment)
	assert.Equal(t, "from-dotenv", cfg.Target.Provider)
}

func TestLoadWithOverrides(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := writeFile(t, dir, "cfg.yaml", "target:\n  organization: file-org\n")

	cfg, err := LoadWithOverrides(context.Background(), path, &Config{
		Target:   TargetConfig{Provider: "flag-provider"},
		Platform: PlatformConfig{Backend: BackendMemory},
	})
	require.NoError(t, err)

	assert.Equal(t, "file-org", cfg.Target.Organization)
	assert.Equal(t, "flag-provider", cfg.Target.Provider)
	assert.Equal(t, BackendMemory, cfg.Platform.Backend)
}

func TestLoadWithOverrides_RejectsInvalidOverride(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := LoadWithOverrides(context.Background(), "", &Config{
		Platform: PlatformConfig{Backend: "kubernetes"},
	})
	require.ErrorIs(t, err, errors.ErrConfigInvalidPlatform)
}
