package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONNECTOR_URL", "http://connector.internal")
	t.Setenv("ADMINUSERS_URL", "http://adminusers.internal")
	t.Setenv("PRODUCTS_URL", "http://products.internal")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SELFSERVICE_CONFIG", "")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9400", c.Port)
	assert.Equal(t, "selfservice_session", c.CookieName)
	assert.Equal(t, "https://api.stripe.com", c.StripeURL)
	assert.Equal(t, 15*time.Second, c.ClientTimeout)
	assert.Equal(t, 3*time.Hour, c.SessionTTL)
	assert.Equal(t, "localhost", c.RedisHost)
	assert.Equal(t, "selfservice.onboarding.events", c.NatsSubject)
}

func TestLoadMissingConnectorURL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CONNECTOR_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestLoadYamlOverlay(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"8080\"\nredisHost: redis.internal\n"), 0o600))
	t.Setenv("SELFSERVICE_CONFIG", path)

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, "redis.internal", c.RedisHost)
	// untouched values keep their env defaults
	assert.Equal(t, "http://connector.internal", c.ConnectorURL)
}

func TestLoadEnvOverridesDefault(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9999")
	t.Setenv("SESSION_COOKIE_NAME", "portal_session")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9999", c.Port)
	assert.Equal(t, "portal_session", c.CookieName)
}
