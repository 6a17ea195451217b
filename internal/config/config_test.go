package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("AMAP_KEY", "amap")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ModePolling, cfg.RunMode)
	assert.Equal(t, BackendSQLite, cfg.StoreBackend)
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval)
	assert.Equal(t, 24*time.Hour, cfg.GeocodeCacheTTL)
	assert.Equal(t, 1.0, cfg.PortalRate)
	assert.NotContains(t, cfg.NonSensitiveString(), "123:abc")
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("AMAP_KEY", "amap")
	_, err := Load()
	assert.ErrorContains(t, err, "BOT_TOKEN")
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"run mode":          {"RUN_MODE": "carrier-pigeon"},
		"webhook no url":    {"RUN_MODE": "webhook"},
		"backend":           {"STORE_BACKEND": "floppy"},
		"rate":              {"PORTAL_RATE": "0"},
		"interval garbage":  {"SWEEP_INTERVAL": "soon"},
		"interval too long": {"SWEEP_INTERVAL": "21m"},
		"interval zero":     {"SWEEP_INTERVAL": "0s"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			setRequired(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_Webhook(t *testing.T) {
	setRequired(t)
	t.Setenv("RUN_MODE", "webhook")
	t.Setenv("WEBHOOK_URL", "https://bot.example.com")
	t.Setenv("STORE_BACKEND", "redis")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://bot.example.com", cfg.WebhookURL)
	assert.Equal(t, BackendRedis, cfg.StoreBackend)
}

func TestLoad_LongestSweepIntervalAccepted(t *testing.T) {
	setRequired(t)
	t.Setenv("SWEEP_INTERVAL", "20m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, MaxSweepInterval, cfg.SweepInterval)
}
