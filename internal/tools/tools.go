// Package tools exposes the operations served by the REST and MCP transports.
package tools

import (
	"context"

	"github.com/samvad-hq/samvad-news-topics/internal/auth"
	"github.com/samvad-hq/samvad-news-topics/internal/domain"
	"github.com/samvad-hq/samvad-news-topics/internal/store"
)

// Tool names shared by every transport.
const (
	FetchNews      = "FETCH_NEWS"
	ProcessNews    = "PROCESS_NEWS"
	RunPipeline    = "RUN_PIPELINE"
	EnrichArticles = "ENRICH_ARTICLES"
	GetUser        = "GET_USER"
)

// Service is the operation surface the transports depend on.
type Service interface {
	FetchNews(ctx context.Context, params domain.QueryParams) ([]domain.Article, error)
	ProcessNews(articles []domain.Article) domain.TopicResult
	RunPipeline(ctx context.Context, params domain.QueryParams) (domain.TopicResult, error)
	EnrichArticles(ctx context.Context, articles []domain.Article) []domain.Article
	GetUser(ctx context.Context) (domain.User, error)
	ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error)
}

// Pipeline is the fetch and classify workflow.
type Pipeline interface {
	FetchNews(ctx context.Context, params domain.QueryParams) ([]domain.Article, error)
	ProcessNews(articles []domain.Article) domain.TopicResult
	Run(ctx context.Context, params domain.QueryParams) (domain.TopicResult, error)
}

// Enricher fills missing article descriptions.
type Enricher interface {
	Enrich(ctx context.Context, articles []domain.Article) []domain.Article
}

// Toolbox implements Service from its collaborators.
type Toolbox struct {
	Pipeline Pipeline
	Enricher Enricher
	Auth     auth.Authenticator
	Runs     store.RunStore
}

var _ Service = (*Toolbox)(nil)

func (t *Toolbox) FetchNews(ctx context.Context, params domain.QueryParams) ([]domain.Article, error) {
	articles, err := t.Pipeline.FetchNews(ctx, params)
	if err != nil {
		return nil, err
	}
	if articles == nil {
		articles = []domain.Article{}
	}
	return articles, nil
}

func (t *Toolbox) ProcessNews(articles []domain.Article) domain.TopicResult {
	return t.Pipeline.ProcessNews(articles)
}

func (t *Toolbox) RunPipeline(ctx context.Context, params domain.QueryParams) (domain.TopicResult, error) {
	return t.Pipeline.Run(ctx, params)
}

// EnrichArticles returns the articles unchanged when no enricher is configured.
func (t *Toolbox) EnrichArticles(ctx context.Context, articles []domain.Article) []domain.Article {
	if articles == nil {
		articles = []domain.Article{}
	}
	if t.Enricher == nil {
		return articles
	}
	return t.Enricher.Enrich(ctx, articles)
}

func (t *Toolbox) GetUser(ctx context.Context) (domain.User, error) {
	if t.Auth == nil {
		return domain.User{}, domain.ErrUnauthenticated
	}
	return t.Auth.CurrentUser(ctx)
}

// ListRuns returns an empty list when no run store is configured.
func (t *Toolbox) ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if t.Runs == nil {
		return []domain.RunRecord{}, nil
	}
	runs, err := t.Runs.RecentRuns(ctx, limit)
	if err != nil {
		return nil, err
	}
	if runs == nil {
		runs = []domain.RunRecord{}
	}
	return runs, nil
}
