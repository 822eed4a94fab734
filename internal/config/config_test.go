package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("API_PORT", "")
	t.Setenv("SEARCH_QUARTERS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5001, cfg.Server.Port)
	assert.Equal(t, "https://nspd.gov.ru", cfg.NSPD.BaseURL)
	assert.Equal(t, []string{"69:18:0070104", "69:40:0100001", "69:10:0000001"}, cfg.Search.Quarters)
	assert.Equal(t, 10*time.Minute, cfg.Cache.SearchCacheTTL)
	assert.Equal(t, uint32(10), cfg.Breaker.MinRequests)
	assert.False(t, cfg.Cache.Enabled)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("API_HOST", "127.0.0.1")
	t.Setenv("API_PORT", "8080")
	t.Setenv("SEARCH_QUARTERS", " 77:01:0001001 , ,50:21:0000000")
	t.Setenv("CACHE_ENABLED", "true")
	t.Setenv("SEARCH_CACHE_TTL", "30")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.GetServerAddr())
	assert.Equal(t, []string{"77:01:0001001", "50:21:0000000"}, cfg.Search.Quarters)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Cache.SearchCacheTTL)
}

func TestParseList(t *testing.T) {
	assert.Nil(t, parseList(""))
	assert.Equal(t, []string{"a", "b"}, parseList("a, b,"))
}
