package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
}

func TestLoadCrawlerConfigRequiresDatabaseURL(t *testing.T) {
	resetViper(t)

	_, err := LoadCrawlerConfig("")

	assert.ErrorContains(t, err, "DATABASE_URL is required")
}

func TestLoadCrawlerConfigAppliesDefaults(t *testing.T) {
	resetViper(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/distsearch?sslmode=disable")

	cfg, err := LoadCrawlerConfig("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9200", cfg.Store.ElasticsearchURL)
	assert.Equal(t, 5, cfg.Store.MaxOpenConns)
	assert.Equal(t, 8, cfg.ConcurrentRequests)
	assert.Equal(t, 16, cfg.MaxDepth)
	assert.Equal(t, 1000, cfg.MaxPages)
	assert.Equal(t, 40, cfg.MinQualityScore)
	assert.Equal(t, "info", cfg.Server.LogLevel)
}

func TestLoadCrawlerConfigReadsSeedURLsFromEnv(t *testing.T) {
	resetViper(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/distsearch?sslmode=disable")
	t.Setenv("SEED_URLS", "https://a.example.com https://b.example.com")

	cfg, err := LoadCrawlerConfig("")
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.SeedURLs)
}

func TestLoadRankerConfigDefaultsPoolToFifty(t *testing.T) {
	resetViper(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/distsearch?sslmode=disable")

	cfg, err := LoadRankerConfig("")
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Store.MaxOpenConns)
	assert.Equal(t, "5m0s", cfg.CycleInterval.String())
}

func TestLoadIndexerConfigDefaults(t *testing.T) {
	resetViper(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/distsearch?sslmode=disable")

	cfg, err := LoadIndexerConfig("")
	require.NoError(t, err)

	assert.Equal(t, 15, cfg.Store.MaxOpenConns)
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, 2, cfg.MaxConcurrent)
	assert.Equal(t, 3, cfg.WriteRetries)
	assert.Equal(t, 3, cfg.PullRetries)
}

func TestLoadQueryConfigDefaultAPIPort(t *testing.T) {
	resetViper(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/distsearch?sslmode=disable")

	cfg, err := LoadQueryConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.APIPort)
	assert.Equal(t, 5, cfg.Store.MaxOpenConns)
}
