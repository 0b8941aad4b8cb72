package providers

import (
	"context"
	"fmt"

	"github.com/samvad-hq/samvad-news-topics/internal/domain"
)

// Source is a fetcher bound to one provider configuration.
type Source struct {
	cfg     Provider
	fetcher Fetcher
}

// NewSource validates the provider and resolves its fetcher from the registry.
func NewSource(reg FetcherRegistry, cfg Provider) (*Source, error) {
	if reg == nil {
		reg = DefaultFetcherRegistry(nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	f, err := reg.FetcherFor(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve fetcher: %w", err)
	}
	return &Source{cfg: cfg, fetcher: f}, nil
}

// ProviderID returns the configured provider id.
func (s *Source) ProviderID() string { return s.cfg.ID }

// Fetch runs one search against the bound provider.
func (s *Source) Fetch(ctx context.Context, params domain.QueryParams) ([]domain.Article, error) {
	return s.fetcher.Fetch(ctx, s.cfg, params)
}
