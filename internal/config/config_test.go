package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithRequiredValues(t *testing.T) {
	t.Setenv("EXPWATCH_DATABASE__URL", "postgres://localhost/expwatch")
	t.Setenv("EXPWATCH_NOTIFY__APIURL", "https://wa.example/send")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 5, cfg.Fetch.Worker.Concurrency)
	assert.Equal(t, 3, cfg.Notify.Worker.Concurrency)
	assert.Equal(t, time.Second, cfg.Fetch.Worker.InitialBackoff)
	assert.Equal(t, 2*time.Second, cfg.Notify.Worker.InitialBackoff)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.False(t, cfg.Notify.SkipEmptyRecipient)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	t.Setenv("EXPWATCH_DATABASE__URL", "postgres://localhost/expwatch")
	t.Setenv("EXPWATCH_NOTIFY__APIURL", "https://wa.example/send")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9999"
scheduler:
  spec: "0 * * * *"
  enabled: false
notify:
  skipemptyrecipient: true
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, "0 * * * *", cfg.Scheduler.Spec)
	assert.False(t, cfg.Scheduler.Enabled)
	assert.True(t, cfg.Notify.SkipEmptyRecipient)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("EXPWATCH_DATABASE__URL", "postgres://localhost/expwatch")
	t.Setenv("EXPWATCH_NOTIFY__APIURL", "https://wa.example/send")
	t.Setenv("EXPWATCH_SERVER__PORT", "7777")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"9999\"\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7777", cfg.Server.Port)
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	t.Setenv("EXPWATCH_DATABASE__URL", "postgres://localhost/expwatch")
	t.Setenv("EXPWATCH_NOTIFY__APIURL", "https://wa.example/send")

	_, err := Load("/does/not/exist.yaml")
	require.NoError(t, err)
}

func TestValidate_RequiredFields(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.url")
	assert.Contains(t, err.Error(), "notify.apiurl")
}

func TestValidate_ProxyUserRequiredWithProxyURL(t *testing.T) {
	cfg := Default()
	cfg.Database.URL = "postgres://localhost/expwatch"
	cfg.Notify.APIURL = "https://wa.example/send"
	cfg.Fetch.ProxyURL = "http://gw.proxy.example:823"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch.proxyuser")

	cfg.Fetch.ProxyUser = "user"
	require.NoError(t, cfg.Validate())
}
