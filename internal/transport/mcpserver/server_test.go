package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samvad-hq/samvad-news-topics/internal/auth"
	"github.com/samvad-hq/samvad-news-topics/internal/domain"
	"github.com/samvad-hq/samvad-news-topics/internal/topics"
	"github.com/samvad-hq/samvad-news-topics/internal/tools"
)

type fakeService struct {
	articles []domain.Article
	fetchErr error
	params   domain.QueryParams
}

func (f *fakeService) FetchNews(_ context.Context, params domain.QueryParams) ([]domain.Article, error) {
	f.params = params
	return f.articles, f.fetchErr
}

func (f *fakeService) ProcessNews(articles []domain.Article) domain.TopicResult {
	return topics.NewDefaultClassifier().Classify(articles)
}

func (f *fakeService) RunPipeline(ctx context.Context, params domain.QueryParams) (domain.TopicResult, error) {
	articles, err := f.FetchNews(ctx, params)
	if err != nil {
		return domain.TopicResult{}, err
	}
	return f.ProcessNews(articles), nil
}

func (f *fakeService) EnrichArticles(_ context.Context, articles []domain.Article) []domain.Article {
	return articles
}

func (f *fakeService) GetUser(ctx context.Context) (domain.User, error) {
	if _, ok := auth.TokenFromContext(ctx); !ok {
		return domain.User{}, domain.ErrUnauthenticated
	}
	return domain.User{ID: "user-9", Email: "bia@example.com"}, nil
}

func (f *fakeService) ListRuns(context.Context, int) ([]domain.RunRecord, error) {
	return []domain.RunRecord{}, nil
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func TestTools_RegistersEveryOperation(t *testing.T) {
	var names []string
	for _, st := range NewHandlers(&fakeService{}, nil).Tools() {
		names = append(names, st.Tool.Name)
		assert.NotNil(t, st.Handler)
	}
	assert.Equal(t, []string{tools.FetchNews, tools.ProcessNews, tools.RunPipeline, tools.EnrichArticles, tools.GetUser}, names)
	assert.NotNil(t, New(&fakeService{}, nil))
}

func TestFetchNews_DefaultsAndJSONResult(t *testing.T) {
	desc := "um avanço"
	svc := &fakeService{articles: []domain.Article{{Title: "Chips", Description: &desc, URL: "u"}}}
	h := NewHandlers(svc, nil)

	res, err := h.FetchNews(context.Background(), callRequest(tools.FetchNews, map[string]any{"q": "chips", "pageSize": float64(5)}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, domain.QueryParams{Q: "chips", Language: "pt", SortBy: "publishedAt", PageSize: 5}, svc.params)

	var body struct {
		Articles []domain.Article `json:"articles"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &body))
	require.Len(t, body.Articles, 1)
	assert.Equal(t, "Chips", body.Articles[0].Title)
}

func TestRunPipeline_UpstreamErrorIsToolError(t *testing.T) {
	svc := &fakeService{fetchErr: &domain.UpstreamError{Provider: "newsapi", StatusCode: 429, Message: "rate limited"}}
	h := NewHandlers(svc, nil)

	res, err := h.RunPipeline(context.Background(), callRequest(tools.RunPipeline, nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "rate limited")
}

func TestProcessNews(t *testing.T) {
	h := NewHandlers(&fakeService{}, nil)
	args := map[string]any{"articles": []any{
		map[string]any{"title": "Sucesso da computação quântica", "description": nil, "url": "u1", "source": map[string]any{"name": "S"}},
		map[string]any{"title": "Clima", "description": "chuva", "url": "u2"},
	}}

	res, err := h.ProcessNews(context.Background(), callRequest(tools.ProcessNews, args))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var result domain.TopicResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &result))
	assert.Equal(t, []string{"Tendências emergentes em computação quântica"}, result.Topics)
	require.Len(t, result.Articles, 1)
	assert.Equal(t, "u1", result.Articles[0].URL)
}

func TestProcessNews_BadArguments(t *testing.T) {
	h := NewHandlers(&fakeService{}, nil)

	res, err := h.ProcessNews(context.Background(), callRequest(tools.ProcessNews, map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "articles argument is required")

	res, err = h.EnrichArticles(context.Background(), callRequest(tools.EnrichArticles, map[string]any{"articles": "nope"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "malformed")
}

func TestGetUser(t *testing.T) {
	h := NewHandlers(&fakeService{}, nil)

	res, err := h.GetUser(context.Background(), callRequest(tools.GetUser, nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), domain.ErrUnauthenticated.Error())

	r := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	r.Header.Set("Authorization", "Bearer tok")
	ctx := ContextFromRequest(context.Background(), r)

	res, err = h.GetUser(ctx, callRequest(tools.GetUser, nil))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.JSONEq(t, `{"id":"user-9","name":null,"avatar":null,"email":"bia@example.com"}`, resultText(t, res))
}
