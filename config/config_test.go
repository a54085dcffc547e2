package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 1414, cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, 20, cfg.LoginLimit)
	assert.Equal(t, 10*time.Minute, cfg.LoginWindow)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "Europe/Amsterdam", cfg.Location().String())
	assert.Equal(t, devIdentitySecret, cfg.IdentitySecret)
}

func TestLoadFileThenEnvironment(t *testing.T) {
	file := filepath.Join(t.TempDir(), "schikko.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
port: 8080
timezone: UTC
loginWindow: 5m
corsOrigins:
  - https://example.org
`), 0o600))

	t.Setenv("PORT", "9090")
	t.Setenv("SCHIKKO_OVERRIDE", "plain")
	t.Setenv("METRICS_ALLOW", "10.0.0.1,10.0.0.2")

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.LoginWindow)
	assert.Equal(t, []string{"https://example.org"}, cfg.CORSOrigins)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.MetricsAllow)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.Equal(t, "plain", cfg.Override())

	t.Setenv("SCHIKKO_OVERRIDE_HASH", "$2a$10$hash")
	cfg, err = Load(file)
	require.NoError(t, err)
	assert.Equal(t, "$2a$10$hash", cfg.Override())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]map[string]string{
		"driver":             {"DB_DRIVER": "postgres"},
		"mongo without uri":  {"DB_DRIVER": "mongo"},
		"timezone":           {"TIMEZONE": "Mars/Olympus"},
		"production secret":  {"ENV": "production"},
		"zero login limit":   {"LOGIN_LIMIT": "0"},
		"negative window":    {"ACTION_WINDOW": "-1m"},
		"port out of range":  {"PORT": "70000"},
		"malformed duration": {"SESSION_TTL": "soon"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}
