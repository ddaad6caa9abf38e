package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DefaultsAndEnv(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("CONSOLE_DB_DRIVER=memory\nCONSOLE_AUTH_OKTA_DOMAIN=https://example.okta.com/\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("CONSOLE_DB_DRIVER")
		os.Unsetenv("CONSOLE_AUTH_OKTA_DOMAIN")
	})

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.DB.Driver)
	assert.Equal(t, "https://example.okta.com", cfg.Auth.OktaDomain)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 100, cfg.Webhook.DatasetLimit)
	assert.Equal(t, 5*time.Second, cfg.Endpoints.Timeout)
	assert.True(t, cfg.IsDev())
}

func TestLoadConfig_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	yaml := "environment: PROD\ndb:\n  driver: postgres\n  host: db.internal\n  port: 6543\n  name: console\nwebhook:\n  dataset_limit: 25\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.False(t, cfg.IsDev())
	assert.Equal(t, 25, cfg.Webhook.DatasetLimit)
	assert.Contains(t, cfg.DSN(), "host=db.internal port=6543")
}

func TestLoadConfig_RejectsUnknownDriver(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("CONSOLE_DB_DRIVER", "sqlite")
	_, err = LoadConfig("")
	assert.Error(t, err)
}

func TestNormalizeOktaIssuer(t *testing.T) {
	assert.Equal(t, "https://a.okta.com/oauth2/default", normalizeOktaIssuer(" https://a.okta.com/oauth2/default/ "))
}
