package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samvad-hq/samvad-news-topics/internal/domain"
	"github.com/samvad-hq/samvad-news-topics/pkg/providers"
)

var settingKeys = []string{
	"HTTP_ADDR", "LOG_LEVEL", "LOG_FORMAT", "NEWS_PROVIDER", "NEWS_API_KEY", "NEWS_API_URL",
	"NEWS_USER_AGENT", "NEWS_SITEMAP_URL", "HTTP_CLIENT_TIMEOUT", "RULES_FILE", "PUBLISHERS_FILE",
	"DB_PATH", "AUTH_JWT_SECRET", "AUTH_JWT_ISSUER", "AUTH_JWT_AUDIENCE", "ENRICH_DELAY", "MCP_STDIO_TOKEN",
}

// clearEnv unsets every setting for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range settingKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("NEWS_API_KEY", "key-123")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, providers.ProviderTypeNewsAPI, cfg.NewsProvider)
	assert.Equal(t, providers.DefaultNewsAPIURL, cfg.NewsAPIURL)
	assert.Zero(t, cfg.HTTPClientTimeout)
	assert.Equal(t, "data/news-topics.db", cfg.DBPath)

	p := cfg.Provider()
	assert.Equal(t, providers.DefaultNewsAPIURL, p.SourceURL)
	assert.Equal(t, "key-123", p.APIKey)
	assert.Equal(t, providers.DefaultUserAgent, p.UserAgent)
}

func TestLoad_MissingAPIKeyIsConfigurationError(t *testing.T) {
	clearEnv(t)

	_, err := Load("")
	require.Error(t, err)

	var ce *domain.ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "NEWS_API_KEY", ce.Setting)
}

func TestLoad_SitemapProviderNeedsNoKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("NEWS_PROVIDER", "Sitemap")
	t.Setenv("NEWS_SITEMAP_URL", "https://news.example.com/sitemap.xml")
	t.Setenv("HTTP_CLIENT_TIMEOUT", "15s")
	t.Setenv("ENRICH_DELAY", "250ms")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, providers.ProviderTypeSitemap, cfg.Provider().Type)
	assert.Equal(t, "https://news.example.com/sitemap.xml", cfg.Provider().SourceURL)
	assert.Equal(t, 15*time.Second, cfg.HTTPClientTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Enricher().Delay)
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("NEWS_API_KEY=from-file\nLOG_FORMAT=console\nAUTH_JWT_SECRET=shh\nAUTH_JWT_ISSUER=topics\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.NewsAPIKey)
	assert.Equal(t, "console", cfg.Logger().Format)
	assert.Equal(t, "shh", cfg.JWT().Secret)
	assert.Equal(t, "topics", cfg.JWT().Issuer)
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("NEWS_API_KEY", "k")

	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
}

func TestValidate_Errors(t *testing.T) {
	base := func() Config {
		return Config{
			HTTPAddr:     ":8080",
			LogFormat:    "json",
			DBPath:       "runs.db",
			NewsProvider: providers.ProviderTypeNewsAPI,
			NewsAPIKey:   "k",
			NewsAPIURL:   providers.DefaultNewsAPIURL,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		setting string
	}{
		{name: "no addr", mutate: func(c *Config) { c.HTTPAddr = "" }, setting: "HTTP_ADDR"},
		{name: "bad format", mutate: func(c *Config) { c.LogFormat = "xml" }, setting: "LOG_FORMAT"},
		{name: "no db", mutate: func(c *Config) { c.DBPath = "" }, setting: "DB_PATH"},
		{name: "negative timeout", mutate: func(c *Config) { c.HTTPClientTimeout = -time.Second }, setting: "HTTP_CLIENT_TIMEOUT"},
		{name: "unknown provider", mutate: func(c *Config) { c.NewsProvider = "rss" }, setting: "NEWS_PROVIDER"},
		{name: "sitemap without url", mutate: func(c *Config) { c.NewsProvider = providers.ProviderTypeSitemap }, setting: "NEWS_SITEMAP_URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()

			var ce *domain.ConfigurationError
			require.True(t, errors.As(err, &ce), "got %v", err)
			assert.Equal(t, tt.setting, ce.Setting)
		})
	}

	cfg := base()
	assert.NoError(t, cfg.Validate())
}
