package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samvad-hq/samvad-news-topics/internal/domain"
	"github.com/samvad-hq/samvad-news-topics/internal/logger"
)

// NewsFetcher returns the articles matching a query.
type NewsFetcher interface {
	Fetch(ctx context.Context, params domain.QueryParams) ([]domain.Article, error)
}

// ArticleClassifier filters articles and labels the retained ones.
type ArticleClassifier interface {
	Classify(articles []domain.Article) domain.TopicResult
}

// RunObserver is notified after every run. Observers cannot change the outcome.
type RunObserver interface {
	Name() string
	ObserveRun(ctx context.Context, rec domain.RunRecord, result domain.TopicResult) error
}

// Pipeline runs fetch then classify as one operation.
type Pipeline struct {
	fetcher    NewsFetcher
	classifier ArticleClassifier
	observers  []RunObserver
	log        logger.Logger
	now        func() time.Time
	newID      func() string
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithObservers registers observers notified after each run, in order.
func WithObservers(obs ...RunObserver) Option {
	return func(p *Pipeline) {
		for _, o := range obs {
			if o != nil {
				p.observers = append(p.observers, o)
			}
		}
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(log logger.Logger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// New builds a pipeline from its two steps.
func New(fetcher NewsFetcher, classifier ArticleClassifier, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher:    fetcher,
		classifier: classifier,
		log:        logger.NopLogger{},
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FetchNews runs the fetch step alone.
func (p *Pipeline) FetchNews(ctx context.Context, params domain.QueryParams) ([]domain.Article, error) {
	return p.fetcher.Fetch(ctx, params.WithDefaults())
}

// ProcessNews runs the classify step alone. It never fails.
func (p *Pipeline) ProcessNews(articles []domain.Article) domain.TopicResult {
	return p.classifier.Classify(articles)
}

// Run fetches articles and classifies them. A fetch error is returned unchanged
// and no partial result is produced.
func (p *Pipeline) Run(ctx context.Context, params domain.QueryParams) (domain.TopicResult, error) {
	params = params.WithDefaults()
	rec := domain.RunRecord{
		ID:        p.newID(),
		Query:     params,
		StartedAt: p.now().UTC(),
	}
	fields := map[string]any{
		"run_id":    rec.ID,
		"q":         params.Q,
		"language":  params.Language,
		"page_size": params.PageSize,
	}
	p.log.DebugObj("pipeline run started", "pipeline_run", fields)

	articles, err := p.fetcher.Fetch(ctx, params)
	if err != nil {
		rec.FinishedAt = p.now().UTC()
		rec.Error = err.Error()
		p.log.ErrorObj("pipeline fetch failed", "pipeline_run", map[string]any{
			"run_id": rec.ID,
			"stage":  "fetch",
			"error":  err.Error(),
		})
		p.notify(ctx, rec, domain.TopicResult{})
		return domain.TopicResult{}, err
	}

	result := p.classifier.Classify(articles)
	rec.FinishedAt = p.now().UTC()
	rec.Fetched = len(articles)
	rec.Retained = len(result.Articles)
	rec.Topics = append([]string(nil), result.Topics...)

	p.log.InfoObj("pipeline run finished", "pipeline_run", map[string]any{
		"run_id":      rec.ID,
		"fetched":     rec.Fetched,
		"retained":    rec.Retained,
		"duration_ms": rec.FinishedAt.Sub(rec.StartedAt).Milliseconds(),
	})
	p.notify(ctx, rec, result)
	return result, nil
}

// notify hands the run to each observer. Failures are logged only.
func (p *Pipeline) notify(ctx context.Context, rec domain.RunRecord, result domain.TopicResult) {
	for _, o := range p.observers {
		if err := observe(ctx, o, rec, result); err != nil {
			p.log.WarnObj("run observer failed", "pipeline_observer", map[string]any{
				"run_id":   rec.ID,
				"observer": o.Name(),
				"error":    err.Error(),
			})
		}
	}
}

func observe(ctx context.Context, o RunObserver, rec domain.RunRecord, result domain.TopicResult) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("observer panic: %v", r)
		}
	}()
	return o.ObserveRun(ctx, rec, result)
}
