package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samvad-hq/samvad-news-topics/internal/config"
	"github.com/samvad-hq/samvad-news-topics/internal/domain"
	"github.com/samvad-hq/samvad-news-topics/pkg/providers"
)

func newsUpstream(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, upstreamURL string) *config.Config {
	t.Helper()
	return &config.Config{
		HTTPAddr:     ":0",
		LogFormat:    "json",
		NewsProvider: providers.ProviderTypeNewsAPI,
		NewsAPIKey:   "test-key",
		NewsAPIURL:   upstreamURL,
		RulesFile:    filepath.Join("testdata", "rules_en.yaml"),
		DBPath:       filepath.Join(t.TempDir(), "runs.db"),
	}
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestApp_RunPipelineEndToEnd(t *testing.T) {
	upstream := newsUpstream(t, http.StatusOK, `{"status":"ok","articles":[
		{"title":"Breakthrough in Quantum Computing","description":"New qubits","url":"u1","publishedAt":"2025-01-01T00:00:00Z","source":{"name":"X"}},
		{"title":"Weather today","description":null,"url":"u2","publishedAt":"2025-01-01T00:00:00Z","source":{"name":"Y"}}
	]}`)

	a, err := New(context.Background(), testConfig(t, upstream.URL), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	rec := post(t, a.Handler(), "/tools/RUN_PIPELINE", `{"q":"quantum","language":"en"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result domain.TopicResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, []string{"Emerging trends in quantum computing"}, result.Topics)
	require.Len(t, result.Articles, 1)
	assert.Equal(t, "u1", result.Articles[0].URL)

	req := httptest.NewRequest(http.MethodGet, "/runs?limit=5", nil)
	runsRec := httptest.NewRecorder()
	a.Handler().ServeHTTP(runsRec, req)
	require.Equal(t, http.StatusOK, runsRec.Code)

	var runs struct {
		Runs []domain.RunRecord `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(runsRec.Body.Bytes(), &runs))
	require.Len(t, runs.Runs, 1)
	assert.Equal(t, 2, runs.Runs[0].Fetched)
	assert.Equal(t, 1, runs.Runs[0].Retained)
}

func TestApp_UpstreamFailureIs502AndRecorded(t *testing.T) {
	upstream := newsUpstream(t, http.StatusTooManyRequests, `{"status":"error","message":"rate limited"}`)

	a, err := New(context.Background(), testConfig(t, upstream.URL), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	rec := post(t, a.Handler(), "/tools/RUN_PIPELINE", `{}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "rate limited")

	runs, err := a.tools.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.False(t, runs[0].Succeeded())
}

func TestApp_PublishesRunEvents(t *testing.T) {
	upstream := newsUpstream(t, http.StatusOK, `{"status":"ok","articles":[
		{"title":"Growth of AI chips","description":"","url":"u1","publishedAt":"","source":{"name":"X"}}
	]}`)

	var delivered atomic.Int32
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		delivered.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(hook.Close)

	pubFile := filepath.Join(t.TempDir(), "publishers.yaml")
	require.NoError(t, os.WriteFile(pubFile, []byte("publishers:\n  - id: hook\n    type: http\n    http:\n      url: "+hook.URL+"\n"), 0o600))

	cfg := testConfig(t, upstream.URL)
	cfg.PublishersFile = pubFile
	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	rec := post(t, a.Handler(), "/tools/RUN_PIPELINE", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(1), delivered.Load())
}

func TestApp_StartupErrors(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.NewsAPIKey = ""
	_, err := New(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.True(t, domain.IsConfiguration(err))

	cfg = testConfig(t, "http://127.0.0.1:1")
	cfg.RulesFile = filepath.Join("testdata", "missing.yaml")
	_, err = New(context.Background(), cfg, nil)
	require.Error(t, err)

	cfg = testConfig(t, "http://127.0.0.1:1")
	cfg.PublishersFile = filepath.Join("testdata", "missing.yaml")
	_, err = New(context.Background(), cfg, nil)
	require.Error(t, err)
}

func TestApp_MCPEndpointIsMounted(t *testing.T) {
	a, err := New(context.Background(), testConfig(t, "http://127.0.0.1:1"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1.0"}}}`
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "news-topics")
}
