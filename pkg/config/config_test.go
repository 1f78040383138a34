package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()

	assert.Equal(t, "8080", c.Server.Port)
	assert.Equal(t, "X-User-Role", c.Server.RoleHeader)
	assert.Equal(t, "uploads/private/secrets.json", c.Secrets.Path)
	assert.Equal(t, 30*time.Second, c.HTTP.Timeout)
	assert.Equal(t, 3, c.HTTP.Retry.MaxAttempts)
	assert.Equal(t, "https://circleci.com", c.CircleCI.BaseURL)
	assert.Equal(t, "https://app.circleci.com", c.CircleCI.AppURL)
	assert.Equal(t, DefaultRoles, c.Roles)
	assert.Empty(t, c.Refresh.Cron)
	assert.Equal(t, ":8080", c.Addr())
	require.NoError(t, c.Validate())
}

func TestParse(t *testing.T) {
	t.Setenv("BUILD_HOOKS_PORT", "9090")

	c, err := Parse([]byte(`
server:
  port: "${BUILD_HOOKS_PORT}"
  role_header: X-Role
http:
  timeout: 5s
  rate_limit: 2
  retry:
    max_attempts: 5
    initial_interval: 100ms
    max_interval: 1s
circleci:
  base_url: circle.internal/
roles: [administrator, editor]
refresh:
  cron: "*/5 * * * *"
log:
  level: debug
`))
	require.NoError(t, err)

	assert.Equal(t, "9090", c.Server.Port)
	assert.Equal(t, "X-Role", c.Server.RoleHeader)
	assert.Equal(t, 5*time.Second, c.HTTP.Timeout)
	assert.Equal(t, 2, c.HTTP.RateLimit)
	assert.Equal(t, 5, c.HTTP.Retry.Config().MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, c.HTTP.Retry.Config().InitialInterval)
	assert.Equal(t, "https://circle.internal", c.CircleCI.BaseURL)
	assert.Equal(t, []string{"administrator", "editor"}, c.Roles)
	assert.Equal(t, "*/5 * * * *", c.Refresh.Cron)
	assert.Equal(t, "debug", c.Log.Level)
}

func TestParseInvalid(t *testing.T) {
	cases := map[string]string{
		"bad cron":         "refresh:\n  cron: \"not a cron\"\n",
		"negative limit":   "http:\n  rate_limit: -1\n",
		"inverted backoff": "http:\n  retry:\n    initial_interval: 10s\n    max_interval: 1s\n",
		"blank role":       "roles: [administrator, \" \"]\n",
		"not yaml":         "server: [",
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	c, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "8080", c.Server.Port)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"127.0.0.1:7000\"\n"), 0o600))

	c, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", c.Addr())

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, "https://circleci.com", NormalizeURL("circleci.com/"))
	assert.Equal(t, "http://localhost:8080", NormalizeURL("http://localhost:8080"))
}
