package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Issuer.Mode)
	assert.Equal(t, "cases", cfg.Issuer.Resource)

	assert.Equal(t, "500ms", cfg.Cache.Debounce)
	assert.Equal(t, 20, cfg.Cache.MaxBatchSize)
	assert.Equal(t, 2, cfg.Cache.MaxRetries)
	assert.Equal(t, 0.8, cfg.Cache.RefreshThreshold)
	assert.Equal(t, 180, cfg.Cache.DefaultExpirySeconds)

	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "finch", cfg.Metrics.Namespace)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestDebounceDuration(t *testing.T) {
	assert.Equal(t, 250*time.Millisecond,
		CacheConfig{Debounce: "250ms"}.DebounceDuration(time.Second))
	assert.Equal(t, time.Second,
		CacheConfig{Debounce: ""}.DebounceDuration(time.Second))
	assert.Equal(t, time.Second,
		CacheConfig{Debounce: "junk"}.DebounceDuration(time.Second))
	assert.Equal(t, time.Second,
		CacheConfig{Debounce: "-5ms"}.DebounceDuration(time.Second))
}

func TestTimeoutDuration(t *testing.T) {
	assert.Equal(t, 3*time.Second,
		IssuerConfig{Timeout: "3s"}.TimeoutDuration(10*time.Second))
	assert.Equal(t, 10*time.Second,
		IssuerConfig{Timeout: ""}.TimeoutDuration(10*time.Second))
}
