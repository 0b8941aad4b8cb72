package domain

import "time"

// Domain contains core models shared by the fetcher, classifier and transports.

const (
	DefaultQuery    = "technology"
	DefaultLanguage = "pt"
	DefaultSortBy   = "publishedAt"
	DefaultPageSize = 10
)

// Article is a single news item returned by the news search API.
type Article struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	URL         string  `json:"url"`
	PublishedAt string  `json:"publishedAt"`
	Source      Source  `json:"source"`
}

// Source names the publisher of an article.
type Source struct {
	Name string `json:"name"`
}

// DescriptionText returns the description or an empty string when it is null.
func (a Article) DescriptionText() string {
	if a.Description == nil {
		return ""
	}
	return *a.Description
}

// QueryParams are the caller supplied search parameters. Zero values are defaulted.
type QueryParams struct {
	Q        string `json:"q"`
	Language string `json:"language"`
	SortBy   string `json:"sortBy"`
	PageSize int    `json:"pageSize"`
}

// WithDefaults returns a copy with every unset field replaced by its default.
// A non-zero PageSize is kept as given, negative included.
func (p QueryParams) WithDefaults() QueryParams {
	if p.Q == "" {
		p.Q = DefaultQuery
	}
	if p.Language == "" {
		p.Language = DefaultLanguage
	}
	if p.SortBy == "" {
		p.SortBy = DefaultSortBy
	}
	if p.PageSize == 0 {
		p.PageSize = DefaultPageSize
	}
	return p
}

// TopicResult is the output of the classifier. Topics[i] is the label of Articles[i].
type TopicResult struct {
	Topics   []string  `json:"topics"`
	Articles []Article `json:"articles"`
}

// ClassifiedArticle pairs a retained article with its topic label.
type ClassifiedArticle struct {
	Article Article `json:"article"`
	Topic   string  `json:"topic"`
}

// NewTopicResult returns an empty result whose lists encode as [] rather than null.
func NewTopicResult(capacity int) TopicResult {
	return TopicResult{
		Topics:   make([]string, 0, capacity),
		Articles: make([]Article, 0, capacity),
	}
}

// Add appends an article together with its topic, keeping both lists aligned.
func (r *TopicResult) Add(article Article, topic string) {
	r.Articles = append(r.Articles, article)
	r.Topics = append(r.Topics, topic)
}

// Entries returns the result as explicit article/topic pairs.
func (r TopicResult) Entries() []ClassifiedArticle {
	n := min(len(r.Articles), len(r.Topics))
	out := make([]ClassifiedArticle, n)
	for i := range n {
		out[i] = ClassifiedArticle{Article: r.Articles[i], Topic: r.Topics[i]}
	}
	return out
}

// User is the authenticated caller.
type User struct {
	ID     string  `json:"id"`
	Name   *string `json:"name"`
	Avatar *string `json:"avatar"`
	Email  string  `json:"email"`
}

// RunRecord captures the outcome of one pipeline invocation.
type RunRecord struct {
	ID         string      `json:"id"`
	Query      QueryParams `json:"query"`
	Fetched    int         `json:"fetched"`
	Retained   int         `json:"retained"`
	Topics     []string    `json:"topics"`
	StartedAt  time.Time   `json:"startedAt"`
	FinishedAt time.Time   `json:"finishedAt"`
	Error      string      `json:"error,omitempty"`
}

// Succeeded reports whether the run produced a result.
func (r RunRecord) Succeeded() bool { return r.Error == "" }
