package providers

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-news-topics/internal/domain"
)

// responseSnippet returns a truncated snippet of the response body for error messages.
func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}

type googleNewsSitemap struct {
	URLs []googleNewsURL `xml:"url"`
}

type googleNewsURL struct {
	Loc  string           `xml:"loc"`
	News googleNewsDetail `xml:"news"`
}

type sitemapIndex struct {
	Sitemaps []sitemapIndexEntry `xml:"sitemap"`
}

type sitemapIndexEntry struct {
	Loc string `xml:"loc"`
}

type googleNewsDetail struct {
	Publication     googleNewsPublication `xml:"publication"`
	PublicationDate string                `xml:"publication_date"`
	Title           string                `xml:"title"`
}

type googleNewsPublication struct {
	Name     string `xml:"name"`
	Language string `xml:"language"`
}

// sitemapFetcher implements Fetcher over a Google News sitemap, filtering entries locally.
type sitemapFetcher struct {
	client HTTPClient
}

// NewSitemapFetcher builds a Fetcher for Google News sitemap sources.
func NewSitemapFetcher(client HTTPClient) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &sitemapFetcher{client: client}
}

// ID returns the provider type for the sitemap fetcher.
func (f *sitemapFetcher) ID() string {
	return ProviderTypeSitemap
}

// Fetch reads the sitemap and returns the newest entries whose title matches the query.
func (f *sitemapFetcher) Fetch(ctx context.Context, cfg Provider, params domain.QueryParams) ([]domain.Article, error) {
	if !strings.EqualFold(cfg.Type, ProviderTypeSitemap) {
		return nil, fmt.Errorf("sitemap fetcher received incompatible provider type %q", cfg.Type)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	params = params.WithDefaults()
	urls, err := f.fetchGoogleNewsURLs(ctx, cfg, cfg.SourceURL, Headers(cfg), nil)
	if err != nil {
		return nil, err
	}

	return selectArticles(buildArticlesFromSitemap(cfg, urls), params), nil
}

// fetchGoogleNewsURLs resolves the given sitemap URL into article entries, following sitemap indexes if necessary.
func (f *sitemapFetcher) fetchGoogleNewsURLs(ctx context.Context, cfg Provider, url string, headers map[string]string, visited map[string]struct{}) ([]googleNewsURL, error) {
	if visited == nil {
		visited = make(map[string]struct{})
	}
	if _, seen := visited[url]; seen {
		return nil, nil
	}
	visited[url] = struct{}{}

	if len(visited) > 1 {
		if delay := cfg.RequestDelay(); delay > 0 {
			select {
			case <-ctx.Done():
				return nil, &domain.UpstreamError{Provider: cfg.ID, Err: ctx.Err()}
			case <-time.After(delay):
			}
		}
	}

	raw, err := f.fetchSitemap(ctx, cfg, url, headers)
	if err != nil {
		return nil, err
	}

	urls, err := parseGoogleNewsSitemap(raw)
	if err != nil {
		return nil, &domain.UpstreamError{Provider: cfg.ID, Message: fmt.Sprintf("decode google news sitemap: %v", err), Err: err}
	}
	if len(urls) > 0 {
		return urls, nil
	}

	indexURLs, err := parseSitemapIndex(raw)
	if err != nil {
		return nil, &domain.UpstreamError{Provider: cfg.ID, Message: fmt.Sprintf("decode sitemap index: %v", err), Err: err}
	}

	var all []googleNewsURL
	for _, indexURL := range indexURLs {
		nested, err := f.fetchGoogleNewsURLs(ctx, cfg, indexURL, headers, visited)
		if err != nil {
			return nil, err
		}
		all = append(all, nested...)
	}
	return all, nil
}

// fetchSitemap retrieves the sitemap XML data from the given URL.
func (f *sitemapFetcher) fetchSitemap(ctx context.Context, cfg Provider, url string, headers map[string]string) ([]byte, error) {
	resp, err := f.client.Get(ctx, url, headers)
	if err != nil {
		return nil, &domain.UpstreamError{Provider: cfg.ID, Err: err}
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return nil, &domain.UpstreamError{
			Provider:   cfg.ID,
			StatusCode: resp.StatusCode(),
			Message:    fmt.Sprintf("sitemap returned status %d body: %s", resp.StatusCode(), responseSnippet(body)),
		}
	}

	return body, nil
}

// parseGoogleNewsSitemap parses the XML data into a slice of googleNewsURL structs.
func parseGoogleNewsSitemap(data []byte) ([]googleNewsURL, error) {
	var sitemap googleNewsSitemap
	if err := xml.Unmarshal(data, &sitemap); err != nil {
		return nil, err
	}
	return sitemap.URLs, nil
}

// parseSitemapIndex parses an XML sitemap index file and returns the nested sitemap URLs.
func parseSitemapIndex(data []byte) ([]string, error) {
	var index sitemapIndex
	if err := xml.Unmarshal(data, &index); err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(index.Sitemaps))
	for _, entry := range index.Sitemaps {
		if loc := strings.TrimSpace(entry.Loc); loc != "" {
			urls = append(urls, loc)
		}
	}
	return urls, nil
}

type sitemapArticle struct {
	article   domain.Article
	language  string
	published time.Time
}

// buildArticlesFromSitemap constructs articles from parsed sitemap entries, skipping entries without a location.
func buildArticlesFromSitemap(cfg Provider, urls []googleNewsURL) []sitemapArticle {
	out := make([]sitemapArticle, 0, len(urls))
	for _, entry := range urls {
		loc := strings.TrimSpace(entry.Loc)
		if loc == "" {
			continue
		}

		source := strings.TrimSpace(entry.News.Publication.Name)
		if source == "" {
			source = cfg.ID
		}
		rawDate := strings.TrimSpace(entry.News.PublicationDate)

		out = append(out, sitemapArticle{
			article: domain.Article{
				Title:       strings.TrimSpace(entry.News.Title),
				URL:         loc,
				PublishedAt: rawDate,
				Source:      domain.Source{Name: source},
			},
			language:  strings.ToLower(strings.TrimSpace(entry.News.Publication.Language)),
			published: parsePublicationDate(rawDate),
		})
	}
	return out
}

// selectArticles applies the query, language, sort order and page size locally.
func selectArticles(entries []sitemapArticle, params domain.QueryParams) []domain.Article {
	q := strings.ToLower(strings.TrimSpace(params.Q))
	lang := strings.ToLower(strings.TrimSpace(params.Language))

	kept := make([]sitemapArticle, 0, len(entries))
	for _, e := range entries {
		if q != "" && !strings.Contains(strings.ToLower(e.article.Title), q) {
			continue
		}
		if lang != "" && e.language != "" && !strings.HasPrefix(e.language, lang) {
			continue
		}
		kept = append(kept, e)
	}

	if params.SortBy == domain.DefaultSortBy {
		sort.SliceStable(kept, func(i, j int) bool {
			return kept[i].published.After(kept[j].published)
		})
	}

	if limit := max(params.PageSize, 0); len(kept) > limit {
		kept = kept[:limit]
	}

	articles := make([]domain.Article, len(kept))
	for i, e := range kept {
		articles[i] = e.article
	}
	return articles
}

// parsePublicationDate attempts to parse the publication date from a string.
func parsePublicationDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04Z07:00", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}

	return time.Time{}
}
