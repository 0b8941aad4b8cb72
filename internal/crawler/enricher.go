package crawler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/samvad-hq/samvad-news-topics/internal/domain"
	"github.com/samvad-hq/samvad-news-topics/internal/logger"
	"github.com/samvad-hq/samvad-news-topics/pkg/httpclient"
	"github.com/samvad-hq/samvad-news-topics/pkg/providers"
)

const (
	maxHTMLBodyBytes  = 1 << 20 // 1 MiB
	maxArticleWorkers = 10
)

// Options tune how article pages are requested.
type Options struct {
	UserAgent string
	Delay     time.Duration
}

// Enricher fills missing article descriptions from the article page metadata.
type Enricher struct {
	client  httpclient.Client
	log     logger.Logger
	headers map[string]string
	delay   time.Duration
}

// NewEnricher creates an Enricher. A nil client falls back to the default provider client.
func NewEnricher(client httpclient.Client, log logger.Logger, opts Options) *Enricher {
	if client == nil {
		client = providers.DefaultHTTPClient()
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = providers.DefaultUserAgent
	}
	return &Enricher{
		client:  client,
		log:     log,
		headers: map[string]string{"User-Agent": ua, "Accept": "text/html"},
		delay:   opts.Delay,
	}
}

// Enrich returns a copy of articles where every nil or blank description has
// been replaced by the page's og:description or meta description. Articles
// that already carry a description, or whose page cannot be read, are
// returned unchanged.
func (e *Enricher) Enrich(ctx context.Context, articles []domain.Article) []domain.Article {
	out := make([]domain.Article, len(articles))
	copy(out, articles) // default to originals so partial results are returned on cancel

	var pending []int
	for i, art := range articles {
		if needsDescription(art) && strings.TrimSpace(art.URL) != "" {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return out
	}

	workerCount := min(len(pending), maxArticleWorkers)

	var limiter <-chan time.Time
	if e.delay > 0 {
		ticker := time.NewTicker(e.delay)
		limiter = ticker.C
		defer ticker.Stop()
	}

	jobCh := make(chan int)
	var wg sync.WaitGroup

	for workerID := range workerCount {
		wg.Add(1)
		go e.articleWorker(ctx, articles, limiter, jobCh, out, &wg, workerID)
	}

	for _, idx := range pending {
		if ctx.Err() != nil {
			break
		}
		jobCh <- idx
	}
	close(jobCh)

	wg.Wait()

	e.log.DebugObj("article enrichment finished", "enrich_summary", map[string]any{
		"articles": len(articles),
		"pending":  len(pending),
		"workers":  workerCount,
	})
	return out
}

func needsDescription(a domain.Article) bool {
	return strings.TrimSpace(a.DescriptionText()) == ""
}

// articleWorker drains the job channel, waiting on the limiter between requests.
func (e *Enricher) articleWorker(
	ctx context.Context,
	articles []domain.Article,
	limiter <-chan time.Time,
	jobCh <-chan int,
	out []domain.Article,
	wg *sync.WaitGroup,
	workerID int,
) {
	defer wg.Done()

	for idx := range jobCh {
		if ctx.Err() != nil {
			continue
		}

		if limiter != nil {
			select {
			case <-ctx.Done():
				continue
			case <-limiter:
			}
		}

		art := articles[idx]
		enriched, err := e.fetchAndParse(ctx, art, workerID)
		if err != nil {
			e.log.WarnObj("article metadata scrape failed", "metadata_error", map[string]any{
				"worker_id": workerID,
				"url":       art.URL,
				"error":     err.Error(),
			})
			continue
		}
		out[idx] = enriched
	}
}

// fetchAndParse fetches the article HTML and copies its description into the article.
func (e *Enricher) fetchAndParse(ctx context.Context, art domain.Article, workerID int) (domain.Article, error) {
	e.log.DebugObj("scraping article metadata", "scrape_start", map[string]any{
		"worker_id": workerID,
		"url":       art.URL,
	})

	resp, err := e.client.GetLimited(ctx, art.URL, e.headers, maxHTMLBodyBytes)
	if err != nil {
		return art, fmt.Errorf("http fetch: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		snippet := strings.TrimSpace(string(resp.Body))
		if len(snippet) > 1024 {
			snippet = snippet[:1024]
		}
		return art, fmt.Errorf("status %d body: %s", resp.StatusCode, snippet)
	}

	body := resp.Body
	if resp.Truncated {
		e.log.InfoObj("html body truncated", "truncation", map[string]any{
			"worker_id": workerID,
			"url":       art.URL,
			"kept":      maxHTMLBodyBytes,
		})
	}

	meta, err := parseMeta(body)
	if err != nil {
		return art, err
	}
	if meta.Description == "" {
		return art, fmt.Errorf("no description metadata")
	}

	updated := art
	desc := meta.Description
	updated.Description = &desc
	if strings.TrimSpace(updated.Title) == "" {
		updated.Title = meta.Title
	}
	return updated, nil
}

// pageMeta holds metadata extracted from an HTML page.
type pageMeta struct {
	Title       string
	Description string
}

// parseMeta extracts page metadata from the HTML body.
func parseMeta(body []byte) (pageMeta, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return pageMeta{}, fmt.Errorf("parse html: %w", err)
	}

	extract := func(sel string) string {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if val, ok := node.Attr("content"); ok {
				return strings.TrimSpace(val)
			}
		}
		return ""
	}

	return pageMeta{
		Title: firstNonEmpty(
			extract(`meta[property="og:title"]`),
			doc.Find("title").First().Text(),
		),
		Description: firstNonEmpty(
			extract(`meta[property="og:description"]`),
			extract(`meta[name="description"]`),
		),
	}, nil
}

// firstNonEmpty returns the first non-blank value, trimmed.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
