package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Empty(t, cfg.Server.TrustedProxies)
	assert.Equal(t, 5*time.Minute, cfg.Alerts.Interval)
	assert.Equal(t, 5*time.Second, cfg.Alerts.LookupTimeout)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.AccessTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.Auth.RefreshTTL)
	assert.Equal(t, 100, cfg.RateLimit.Requests)
	assert.Equal(t, time.Hour, cfg.RateLimit.Window)
	assert.Equal(t, 30*time.Second, cfg.Pricing.CacheTTL)
	assert.True(t, cfg.Valuation.LivePrices)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	content := `
server:
  port: 9090
  trusted_proxies: ["10.0.0.0/8"]
alerts:
  interval: 1m
  workers: 8
pricing:
  finnhub:
    api_key: from-file
  alpha_vantage:
    api_keys: ["k1", "k2"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(content), 0o600))
	t.Setenv("FINDASH_DATABASE_DSN", "env.db")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.Server.TrustedProxies)
	assert.Equal(t, time.Minute, cfg.Alerts.Interval)
	assert.Equal(t, 8, cfg.Alerts.Workers)
	assert.Equal(t, "from-file", cfg.Pricing.Finnhub.APIKey)
	assert.Equal(t, []string{"k1", "k2"}, cfg.Pricing.AlphaVantage.APIKeys)
	assert.Equal(t, "env.db", cfg.Database.DSN)
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte("server: [::"), 0o600))

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}
