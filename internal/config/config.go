// Package config loads service settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/samvad-hq/samvad-news-topics/internal/auth"
	"github.com/samvad-hq/samvad-news-topics/internal/crawler"
	"github.com/samvad-hq/samvad-news-topics/internal/domain"
	"github.com/samvad-hq/samvad-news-topics/internal/logger"
	"github.com/samvad-hq/samvad-news-topics/pkg/providers"
)

// Config holds every setting the service reads at startup.
type Config struct {
	HTTPAddr  string `mapstructure:"http_addr"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	NewsProvider      string        `mapstructure:"news_provider"`
	NewsAPIKey        string        `mapstructure:"news_api_key"`
	NewsAPIURL        string        `mapstructure:"news_api_url"`
	NewsUserAgent     string        `mapstructure:"news_user_agent"`
	NewsSitemapURL    string        `mapstructure:"news_sitemap_url"`
	HTTPClientTimeout time.Duration `mapstructure:"http_client_timeout"`

	RulesFile      string `mapstructure:"rules_file"`
	PublishersFile string `mapstructure:"publishers_file"`
	DBPath         string `mapstructure:"db_path"`

	AuthJWTSecret   string `mapstructure:"auth_jwt_secret"`
	AuthJWTIssuer   string `mapstructure:"auth_jwt_issuer"`
	AuthJWTAudience string `mapstructure:"auth_jwt_audience"`

	EnrichDelay time.Duration `mapstructure:"enrich_delay"`

	// MCPStdioToken is the bearer token attached to tool calls served over stdio.
	MCPStdioToken string `mapstructure:"mcp_stdio_token"`
}

// Load reads the optional env file into the process environment, then
// resolves every setting from the environment with defaults applied.
// A missing env file is not an error.
func Load(envFile string) (*Config, error) {
	if envFile = strings.TrimSpace(envFile); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	v.SetDefault("news_provider", providers.ProviderTypeNewsAPI)
	v.SetDefault("news_api_key", "")
	v.SetDefault("news_api_url", providers.DefaultNewsAPIURL)
	v.SetDefault("news_user_agent", providers.DefaultUserAgent)
	v.SetDefault("news_sitemap_url", "")
	v.SetDefault("http_client_timeout", "0s")

	v.SetDefault("rules_file", "")
	v.SetDefault("publishers_file", "")
	v.SetDefault("db_path", "data/news-topics.db")

	v.SetDefault("auth_jwt_secret", "")
	v.SetDefault("auth_jwt_issuer", "")
	v.SetDefault("auth_jwt_audience", "")

	v.SetDefault("enrich_delay", "0s")
	v.SetDefault("mcp_stdio_token", "")
}

func (c *Config) normalize() {
	c.HTTPAddr = strings.TrimSpace(c.HTTPAddr)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.NewsProvider = strings.ToLower(strings.TrimSpace(c.NewsProvider))
	c.NewsAPIKey = strings.TrimSpace(c.NewsAPIKey)
	c.NewsAPIURL = strings.TrimSpace(c.NewsAPIURL)
	c.NewsUserAgent = strings.TrimSpace(c.NewsUserAgent)
	c.NewsSitemapURL = strings.TrimSpace(c.NewsSitemapURL)
	c.RulesFile = strings.TrimSpace(c.RulesFile)
	c.PublishersFile = strings.TrimSpace(c.PublishersFile)
	c.DBPath = strings.TrimSpace(c.DBPath)
}

// Validate reports the first missing or invalid required setting as a ConfigurationError.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return &domain.ConfigurationError{Setting: "HTTP_ADDR"}
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return &domain.ConfigurationError{Setting: "LOG_FORMAT", Reason: "must be json or console"}
	}
	if c.DBPath == "" {
		return &domain.ConfigurationError{Setting: "DB_PATH"}
	}
	if c.HTTPClientTimeout < 0 {
		return &domain.ConfigurationError{Setting: "HTTP_CLIENT_TIMEOUT", Reason: "must not be negative"}
	}
	return c.Provider().Validate()
}

// Provider builds the news source settings.
func (c *Config) Provider() providers.Provider {
	p := providers.Provider{
		ID:        c.NewsProvider,
		Type:      c.NewsProvider,
		APIKey:    c.NewsAPIKey,
		UserAgent: c.NewsUserAgent,
	}
	switch c.NewsProvider {
	case providers.ProviderTypeNewsAPI:
		p.SourceURL = c.NewsAPIURL
	case providers.ProviderTypeSitemap:
		p.SourceURL = c.NewsSitemapURL
	}
	return p
}

// Logger returns the logger options.
func (c *Config) Logger() logger.Options {
	return logger.Options{Level: c.LogLevel, Format: c.LogFormat}
}

// JWT returns the token validation settings.
func (c *Config) JWT() auth.JWTConfig {
	return auth.JWTConfig{
		Secret:   c.AuthJWTSecret,
		Issuer:   c.AuthJWTIssuer,
		Audience: c.AuthJWTAudience,
	}
}

// Enricher returns the page scraping settings.
func (c *Config) Enricher() crawler.Options {
	return crawler.Options{UserAgent: c.NewsUserAgent, Delay: c.EnrichDelay}
}
