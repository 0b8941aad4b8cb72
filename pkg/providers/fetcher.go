package providers

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/samvad-hq/samvad-news-topics/pkg/httpclient"
)

type fetcherRegistry struct {
	fetchers map[string]Fetcher
	mu       sync.RWMutex
}

// NewFetcherRegistry builds a registry for the provided fetcher implementations.
func NewFetcherRegistry(fetchers ...Fetcher) FetcherRegistry {
	reg := &fetcherRegistry{
		fetchers: make(map[string]Fetcher, len(fetchers)),
	}

	for _, f := range fetchers {
		if f == nil {
			continue
		}
		reg.fetchers[strings.ToLower(strings.TrimSpace(f.ID()))] = f
	}

	return reg
}

// FetcherFor selects the fetcher for the given provider based on its type.
func (r *fetcherRegistry) FetcherFor(cfg Provider) (Fetcher, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("provider %q has no type", cfg.ID)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	key := strings.ToLower(strings.TrimSpace(cfg.Type))
	if f, ok := r.fetchers[key]; ok {
		return f, nil
	}

	return nil, fmt.Errorf("no fetcher registered for provider type %q", cfg.Type)
}

// DefaultHTTPClient returns the client used when none is injected. It sets no
// timeout of its own; callers bound requests through their context.
func DefaultHTTPClient() HTTPClient { return httpclient.NewRestyClient(0) }

// NewHTTPClient returns a client with the given timeout, zero meaning none.
func NewHTTPClient(timeout time.Duration) HTTPClient { return httpclient.NewRestyClient(timeout) }

// DefaultFetcherRegistry wires up the known provider fetchers.
func DefaultFetcherRegistry(client HTTPClient) FetcherRegistry {
	if client == nil {
		client = DefaultHTTPClient()
	}

	return NewFetcherRegistry(
		NewNewsAPIFetcher(client),
		NewSitemapFetcher(client),
	)
}
