package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/samvad-hq/samvad-news-topics/internal/domain"
)

// apiKeyHeader carries the credential so it never appears in a request URL.
const apiKeyHeader = "X-Api-Key"

// newsAPIFetcher queries a NewsAPI compatible "everything" endpoint.
type newsAPIFetcher struct {
	client HTTPClient
}

type newsAPIResponse struct {
	Status   string           `json:"status"`
	Articles []domain.Article `json:"articles"`
	Message  string           `json:"message"`
}

type newsAPIError struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewNewsAPIFetcher builds a Fetcher for NewsAPI style search endpoints.
func NewNewsAPIFetcher(client HTTPClient) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &newsAPIFetcher{client: client}
}

// ID returns the provider type served by this fetcher.
func (f *newsAPIFetcher) ID() string {
	return ProviderTypeNewsAPI
}

// Fetch issues one search request and returns the articles it lists.
func (f *newsAPIFetcher) Fetch(ctx context.Context, cfg Provider, params domain.QueryParams) ([]domain.Article, error) {
	if !strings.EqualFold(cfg.Type, ProviderTypeNewsAPI) {
		return nil, fmt.Errorf("newsapi fetcher received incompatible provider type %q", cfg.Type)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	params = params.WithDefaults()
	query := map[string]string{
		"q":        params.Q,
		"language": params.Language,
		"sortBy":   params.SortBy,
		"pageSize": strconv.Itoa(params.PageSize),
	}
	headers := Headers(cfg)
	if cfg.APIKey != "" {
		headers[apiKeyHeader] = cfg.APIKey
	}

	resp, err := f.client.GetWithQuery(ctx, cfg.SourceURL, query, headers)
	if err != nil {
		return nil, transportError(cfg.ID, err)
	}

	body := resp.Body()
	if !resp.IsSuccess() {
		return nil, &domain.UpstreamError{
			Provider:   cfg.ID,
			StatusCode: resp.StatusCode(),
			Message:    upstreamMessage(resp.StatusCode(), resp.Status(), body),
		}
	}

	var decoded newsAPIResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &domain.UpstreamError{
			Provider:   cfg.ID,
			StatusCode: resp.StatusCode(),
			Message:    fmt.Sprintf("decode response: %v (body: %s)", err, responseSnippet(body)),
			Err:        err,
		}
	}

	if decoded.Articles == nil {
		return []domain.Article{}, nil
	}
	return decoded.Articles, nil
}

// transportError reports a failed round trip by its cause only, never the request URL.
func transportError(provider string, err error) *domain.UpstreamError {
	cause := err
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Err != nil {
		cause = uerr.Err
	}
	return &domain.UpstreamError{
		Provider: provider,
		Message:  "request failed: " + cause.Error(),
		Err:      cause,
	}
}

// upstreamMessage prefers the message carried in an error body and falls back to the status text.
func upstreamMessage(code int, status string, body []byte) string {
	var apiErr newsAPIError
	if err := json.Unmarshal(body, &apiErr); err == nil {
		if msg := strings.TrimSpace(apiErr.Message); msg != "" {
			return msg
		}
	}
	if text := http.StatusText(code); text != "" {
		return text
	}
	if status = strings.TrimSpace(status); status != "" {
		return status
	}
	return "status " + strconv.Itoa(code)
}
