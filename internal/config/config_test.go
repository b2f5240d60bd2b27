package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)

	assert.Equal(t, 8*time.Second, cfg.Research.FetchTimeout())
	assert.Equal(t, 5*time.Minute, cfg.Research.JobTimeout())
	assert.Equal(t, 20000, cfg.Research.PageMaxChars)
	assert.Equal(t, 500, cfg.Research.MinPageChars)
	assert.Equal(t, 25000, cfg.Research.CorpusMaxChars)
	assert.Equal(t, []string{"/about", "/about-us", "/team", "/company"}, cfg.Research.CandidatePaths)
	assert.Equal(t, 2.0, cfg.Research.HostRatePerSec)
	assert.Equal(t, 2, cfg.Research.HostBurst)

	assert.Equal(t, int64(4096), cfg.Anthropic.MaxTokens)
	assert.NotEmpty(t, cfg.Anthropic.Model)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SCOUT_STORE_DRIVER", "sqlite")
	t.Setenv("SCOUT_RESEARCH_FETCH_TIMEOUT_SECS", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 3*time.Second, cfg.Research.FetchTimeout())
}

func TestValidatePipeline(t *testing.T) {
	cfg := &Config{}
	err := cfg.ValidatePipeline()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key")

	cfg.Anthropic.Key = "sk-test"
	err = cfg.ValidatePipeline()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database_url")

	cfg.Store.DatabaseURL = "postgres://localhost/scout"
	assert.NoError(t, cfg.ValidatePipeline())
}

func TestValidatePipeline_SQLiteNeedsNoDSN(t *testing.T) {
	cfg := &Config{}
	cfg.Anthropic.Key = "sk-test"
	cfg.Store.Driver = "sqlite"

	// initStore falls back to a local file for sqlite.
	assert.NoError(t, cfg.ValidatePipeline())
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	require.Error(t, InitLogger(LogConfig{Level: "nonsense"}))
}
