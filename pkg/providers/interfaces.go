package providers

import (
	"context"

	"github.com/samvad-hq/samvad-news-topics/internal/domain"
	"github.com/samvad-hq/samvad-news-topics/pkg/httpclient"
)

// Fetcher defines the interface for news search fetchers.
// Implementations handle one provider type and return articles verbatim.
type Fetcher interface {
	ID() string
	Fetch(ctx context.Context, cfg Provider, params domain.QueryParams) ([]domain.Article, error)
}

// FetcherRegistry resolves the fetcher implementation for a given provider config.
type FetcherRegistry interface {
	FetcherFor(cfg Provider) (Fetcher, error)
}

// HTTPClient aliases the shared httpclient.Client interface for clarity within providers.
type HTTPClient = httpclient.Client
