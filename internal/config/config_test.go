package config_test

import (
	"testing"
	"time"

	"leave-review/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("testdata/does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, 5, cfg.PageSize)
	assert.Equal(t, 10*time.Second, cfg.Source.Timeout)
	assert.NotEmpty(t, cfg.Source.URL)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTimeout)
	assert.Empty(t, cfg.RedisAddr)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("PAGE_SIZE", "10")
	t.Setenv("LEAVE_SOURCE_URL", "http://source.local/leave_requests")
	t.Setenv("SOURCE_CACHE_TTL", "0s")
	t.Setenv("APP_ENV", "production")

	cfg, err := config.Load("testdata/does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, "http://source.local/leave_requests", cfg.Source.URL)
	assert.Equal(t, time.Duration(0), cfg.Source.CacheTTL)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_RejectsInvalidPageSize(t *testing.T) {
	t.Setenv("PAGE_SIZE", "0")

	_, err := config.Load("testdata/does-not-exist.env")
	assert.Error(t, err)
}
