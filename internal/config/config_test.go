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
	cfg := Load()

	assert.Equal(t, 3, cfg.GSMArena.RetryAttempts)
	assert.Equal(t, 20*time.Second, cfg.GSMArena.Timeout)
	assert.Equal(t, 6*time.Hour, cfg.Sync.Interval)
	assert.Equal(t, 5, cfg.Sync.BatchSize)
	assert.Equal(t, 3, cfg.Fallback.MaxRetries)
	assert.Equal(t, 24, cfg.Fallback.CacheExpiryHours)
	assert.InDelta(t, 0.1, cfg.Alerts.ErrorRateThreshold, 0.0001)
	assert.Equal(t, 3, cfg.Alerts.ConsecutiveFailures)
	assert.Contains(t, cfg.Retailers.IndianAllowList, "flipkart")
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(databaseDSNEnv, "postgres://env@db:5432/catalog")
	t.Setenv(gsmarenaAPIKeyEnv, "spec-key")
	t.Setenv(priceBaseURLEnv, "https://prices.test")
	t.Setenv(syncIntervalEnv, "30")
	t.Setenv(logLevelEnv, "debug")

	cfg := Load()

	assert.Equal(t, "postgres://env@db:5432/catalog", cfg.Database.DSN)
	assert.Equal(t, "spec-key", cfg.GSMArena.APIKey)
	assert.Equal(t, "https://prices.test", cfg.PriceAPI.BaseURL)
	assert.Equal(t, 30*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadYAMLFileMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
gsmarena:
  baseUrl: https://spec.test/v1
  retryAttempts: 5
sync:
  batchSize: 10
fallback:
  enableAlternativeApi: true
  alternativeBaseUrl: https://alt.test
alerts:
  consecutiveFailures: 7
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))
	t.Setenv(configPathEnv, path)

	cfg := Load()

	assert.Equal(t, "https://spec.test/v1", cfg.GSMArena.BaseURL)
	assert.Equal(t, 5, cfg.GSMArena.RetryAttempts)
	assert.Equal(t, 10, cfg.Sync.BatchSize)
	assert.True(t, cfg.Fallback.EnableAlternative)
	assert.Equal(t, "https://alt.test", cfg.Fallback.AlternativeBaseURL)
	assert.Equal(t, 7, cfg.Alerts.ConsecutiveFailures)

	// Untouched sections keep their defaults.
	assert.Equal(t, 3, cfg.Fallback.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.Sync.BatchDelay)
}

func TestLoadInvalidSyncIntervalIgnored(t *testing.T) {
	t.Setenv(syncIntervalEnv, "not-a-number")

	cfg := Load()
	assert.Equal(t, 6*time.Hour, cfg.Sync.Interval)
}
