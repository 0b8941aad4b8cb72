package providers

import (
	"strings"
	"time"

	"github.com/samvad-hq/samvad-news-topics/internal/domain"
)

const (
	// Supported provider types.
	ProviderTypeNewsAPI = "newsapi"
	ProviderTypeSitemap = "sitemap"

	DefaultNewsAPIURL = "https://newsapi.org/v2/everything"
	DefaultUserAgent  = "samvad-news-topics/1.0"
)

// Provider describes one configured news search source.
type Provider struct {
	ID             string            `json:"id" yaml:"id" mapstructure:"id"`
	Type           string            `json:"type" yaml:"type" mapstructure:"type"`
	SourceURL      string            `json:"source_url" yaml:"source_url" mapstructure:"source_url"`
	APIKey         string            `json:"-" yaml:"api_key" mapstructure:"api_key"`
	UserAgent      string            `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
	Headers        map[string]string `json:"headers" yaml:"headers" mapstructure:"headers"`
	RequestDelayMS int               `json:"request_delay_ms" yaml:"request_delay_ms" mapstructure:"request_delay_ms"`
}

// RequestDelay returns the pause between consecutive requests to the same source.
func (p Provider) RequestDelay() time.Duration {
	if p.RequestDelayMS <= 0 {
		return 0
	}
	return time.Duration(p.RequestDelayMS) * time.Millisecond
}

// Validate checks the settings each provider type needs before it can fetch.
func (p Provider) Validate() error {
	switch strings.ToLower(strings.TrimSpace(p.Type)) {
	case ProviderTypeNewsAPI:
		if strings.TrimSpace(p.APIKey) == "" {
			return &domain.ConfigurationError{Setting: "NEWS_API_KEY"}
		}
		if strings.TrimSpace(p.SourceURL) == "" {
			return &domain.ConfigurationError{Setting: "NEWS_API_URL"}
		}
	case ProviderTypeSitemap:
		if strings.TrimSpace(p.SourceURL) == "" {
			return &domain.ConfigurationError{Setting: "NEWS_SITEMAP_URL"}
		}
	case "":
		return &domain.ConfigurationError{Setting: "NEWS_PROVIDER"}
	default:
		return &domain.ConfigurationError{Setting: "NEWS_PROVIDER", Reason: "has unsupported value " + p.Type}
	}
	return nil
}

// Headers returns the request headers for the provider, always including a User-Agent.
func Headers(p Provider) map[string]string {
	out := make(map[string]string, len(p.Headers)+1)
	for k, v := range p.Headers {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	ua := strings.TrimSpace(p.UserAgent)
	if ua == "" {
		ua = DefaultUserAgent
	}
	out["User-Agent"] = ua
	return out
}
