package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, raw string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0644))
	return path
}

func TestLoadConfig_Valid(t *testing.T) {
	ResetConfigForTest()
	defer ResetConfigForTest()
	path := writeConfig(t, `{
		"server": {
			"host": "localhost",
			"port": 8080,
			"subpath": "/api",
			"jwt_secret": "mysecret"
		},
		"search": {
			"provider": "searxng",
			"searxng_url": "http://localhost:8888/search"
		},
		"generation": {
			"temperature": 0.3
		}
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "mysecret", cfg.Server.JWTSecret)
	assert.False(t, cfg.GeneratedJWTSecret)
	assert.Equal(t, "searxng", cfg.Search.Provider)
	assert.InDelta(t, 0.3, cfg.Generation.Temperature, 1e-6)

	again, err := LoadConfig("does-not-exist.json")
	require.NoError(t, err)
	assert.Same(t, cfg, again)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{}`))
	require.NoError(t, err)

	assert.Equal(t, 300, cfg.Grounding.SufficiencyThreshold)
	assert.Equal(t, 1500, cfg.Wikipedia.PrimaryMaxChars)
	assert.Equal(t, 1000, cfg.Wikipedia.SecondaryMaxChars)
	assert.Equal(t, 100, cfg.Wikipedia.MinSummaryLength)
	assert.Equal(t, "ta", cfg.Wikipedia.PrimaryLanguage)
	assert.Equal(t, "en", cfg.Wikipedia.SecondaryLanguage)
	assert.True(t, cfg.Wikipedia.FallbackEnabled)
	assert.Equal(t, []string{"தமிழ்", "இலக்கியம்", "வரலாறு", "பண்பாடு", "கவிதை", "சங்க இலக்கியம்"}, cfg.Wikipedia.DomainKeywords)
	assert.Equal(t, 3, cfg.Search.MaxResults)
	assert.Equal(t, 10*time.Second, cfg.Search.Timeout)
	assert.Equal(t, "google", cfg.Search.Provider)
	assert.InDelta(t, 0.1, cfg.Generation.Temperature, 1e-6)
	assert.Equal(t, int32(5600), cfg.Generation.MaxOutputTokens)
	assert.Equal(t, "BLOCK_NONE", cfg.Generation.SafetyThreshold)
	assert.Len(t, cfg.QuickStarts, 4)
	assert.Equal(t, 30*time.Minute, cfg.Server.SessionTTL)
}

func TestLoadConfig_GeneratesJWTSecret(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{}`))
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Server.JWTSecret)
	assert.True(t, cfg.GeneratedJWTSecret)
}

func TestLoadConfig_EnvOverridesSecrets(t *testing.T) {
	t.Setenv("TAMILBOT_GENERATION_API_KEY", "gemini-key")
	t.Setenv("TAMILBOT_SEARCH_GOOGLE_API_KEY", "google-key")
	t.Setenv("TAMILBOT_SEARCH_GOOGLE_CX", "cx-id")

	cfg, err := Load(writeConfig(t, `{"generation": {"api_key": "from-file"}}`))
	require.NoError(t, err)
	assert.Equal(t, "gemini-key", cfg.Generation.APIKey)
	assert.Equal(t, "google-key", cfg.Search.GoogleAPIKey)
	assert.Equal(t, "cx-id", cfg.Search.GoogleCX)
	assert.Empty(t, cfg.MissingCredentials())
}

func TestLoadConfig_MissingFile(t *testing.T) {
	ResetConfigForTest()
	defer ResetConfigForTest()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "no_such_config.json"))
	assert.Error(t, err)
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("TAMILBOT_GENERATION_API_KEY", "gemini-key")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "gemini-key", cfg.Generation.APIKey)
	assert.Equal(t, 300, cfg.Grounding.SufficiencyThreshold)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	_, err := Load(writeConfig(t, `{this is not json}`))
	assert.Error(t, err)
}

func TestLoadConfig_UnsupportedProvider(t *testing.T) {
	_, err := Load(writeConfig(t, `{"search": {"provider": "bing"}}`))
	assert.ErrorContains(t, err, "unsupported search provider")
}

func TestMissingCredentials(t *testing.T) {
	cfg := &Config{}
	cfg.Search.Provider = "google"
	assert.Equal(t, []string{CredentialGeminiAPIKey, CredentialGoogleAPIKey, CredentialGoogleCX}, cfg.MissingCredentials())

	cfg.Generation.APIKey = "k"
	cfg.Search.Provider = "searxng"
	assert.Equal(t, []string{CredentialSearxNGURL}, cfg.MissingCredentials())

	cfg.Search.SearxNGURL = "http://searx"
	assert.Empty(t, cfg.MissingCredentials())
}
