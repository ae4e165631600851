package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_ValidJSON(t *testing.T) {
	// Create temp config file
	content := `{
		"google_api_key": "key-123",
		"google_cx": "cx-456",
		"workers": 8,
		"fetch_timeout": "5s",
		"politeness_delay": 0.75,
		"verbose": true
	}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "key-123", cfg.GoogleAPIKey)
	assert.Equal(t, "cx-456", cfg.GoogleCX)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout.Std())
	assert.Equal(t, 750*time.Millisecond, cfg.PolitenessDelay.Std())
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	content := `{ invalid json }`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(`{"fetch_timeout": "ten seconds"}`), 0644))

	_, err := LoadConfig(tmpFile)
	assert.Error(t, err)
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestValidate_NegativeValues(t *testing.T) {
	assert.Error(t, (&Config{Workers: -1}).Validate())
	assert.Error(t, (&Config{GeminiRPM: -1}).Validate())
	assert.Error(t, (&Config{FetchTimeout: Duration(-time.Second)}).Validate())
	assert.Error(t, (&Config{SearchDeadline: Duration(-time.Second)}).Validate())
}

func TestValidate_PolitenessFloor(t *testing.T) {
	err := (&Config{PolitenessDelay: Duration(100 * time.Millisecond)}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "politeness_delay")

	assert.NoError(t, (&Config{PolitenessDelay: Duration(500 * time.Millisecond)}).Validate())
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := &Config{Workers: 10, GeminiRPM: 15, FetchTimeout: Duration(10 * time.Second)}
	assert.NoError(t, cfg.Validate())
	assert.NoError(t, (&Config{}).Validate())
}

func TestFromEnv(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "env-key")
	t.Setenv("GOOGLE_CX", "env-cx")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/leads")
	t.Setenv("LEAD_WORKERS", "12")
	t.Setenv("SEARCH_DEADLINE", "2m")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.GoogleAPIKey)
	assert.Equal(t, "env-cx", cfg.GoogleCX)
	assert.Empty(t, cfg.GeminiAPIKey)
	assert.Equal(t, "postgres://localhost/leads", cfg.DatabaseURL)
	assert.Equal(t, 12, cfg.Workers)
	assert.Equal(t, 2*time.Minute, cfg.SearchDeadline.Std())
}

func TestFromEnv_InvalidWorkers(t *testing.T) {
	t.Setenv("LEAD_WORKERS", "many")
	t.Setenv("SEARCH_DEADLINE", "")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LEAD_WORKERS")
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := &Config{GoogleAPIKey: "file-key", Workers: 5}
	defaults := Config{
		GoogleAPIKey: "env-key",
		GoogleCX:     "env-cx",
		DatabaseURL:  "postgres://localhost/leads",
		Workers:      20,
		GeminiRPM:    10,
	}

	result := cfg.MergeWithDefaults(defaults)

	assert.Equal(t, "file-key", result.GoogleAPIKey, "file value should win")
	assert.Equal(t, "env-cx", result.GoogleCX, "empty field should use default")
	assert.Equal(t, "postgres://localhost/leads", result.DatabaseURL)
	assert.Equal(t, 5, result.Workers)
	assert.Equal(t, 10, result.GeminiRPM)
}

func TestMergeWithDefaults_EmptyDefaults(t *testing.T) {
	cfg := &Config{GoogleAPIKey: "file-key"}
	result := cfg.MergeWithDefaults(Config{})

	assert.Equal(t, "file-key", result.GoogleAPIKey)
	assert.Equal(t, DefaultFetchTimeout, result.FetchTimeoutOrDefault())
	assert.Equal(t, DefaultPolitenessDelay, result.PolitenessOrDefault())
	assert.Equal(t, DefaultGeminiRPM, result.GeminiRPMOrDefault())
}
