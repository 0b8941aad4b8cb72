// Package mcpserver serves the tool operations over the Model Context Protocol.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/samvad-hq/samvad-news-topics/internal/auth"
	"github.com/samvad-hq/samvad-news-topics/internal/domain"
	"github.com/samvad-hq/samvad-news-topics/internal/logger"
	"github.com/samvad-hq/samvad-news-topics/internal/tools"
)

const serverName = "news-topics"

// Version is set at build time via ldflags.
var Version = "dev"

// Handlers adapts a tools.Service to MCP tool handlers.
type Handlers struct {
	svc tools.Service
	log logger.Logger
}

// NewHandlers returns the tool handlers for svc.
func NewHandlers(svc tools.Service, log logger.Logger) *Handlers {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Handlers{svc: svc, log: log}
}

// New creates the MCP server with every tool registered.
func New(svc tools.Service, log logger.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)
	s.AddTools(NewHandlers(svc, log).Tools()...)
	return s
}

// NewHTTPHandler serves s over streamable HTTP. The request bearer token is
// carried into each tool call.
func NewHTTPHandler(s *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(s, server.WithHTTPContextFunc(ContextFromRequest))
}

// ServeStdio serves s over stdin and stdout until the input closes.
func ServeStdio(s *server.MCPServer, token string) error {
	return server.ServeStdio(s, server.WithStdioContextFunc(func(ctx context.Context) context.Context {
		if token == "" {
			return ctx
		}
		return auth.WithToken(ctx, token)
	}))
}

// ContextFromRequest copies the Authorization bearer token into ctx.
func ContextFromRequest(ctx context.Context, r *http.Request) context.Context {
	if token := auth.BearerToken(r.Header.Get("Authorization")); token != "" {
		return auth.WithToken(ctx, token)
	}
	return ctx
}

// Tools returns the tool definitions bound to their handlers.
func (h *Handlers) Tools() []server.ServerTool {
	queryOpts := func(desc string) []mcp.ToolOption {
		return []mcp.ToolOption{
			mcp.WithDescription(desc),
			mcp.WithString("q", mcp.Description("Search terms"), mcp.DefaultString(domain.DefaultQuery)),
			mcp.WithString("language", mcp.Description("Two letter language code"), mcp.DefaultString(domain.DefaultLanguage)),
			mcp.WithString("sortBy", mcp.Description("Result ordering"), mcp.DefaultString(domain.DefaultSortBy)),
			mcp.WithNumber("pageSize", mcp.Description("Number of articles to fetch"), mcp.DefaultNumber(domain.DefaultPageSize)),
		}
	}
	articlesArg := mcp.WithArray("articles",
		mcp.Required(),
		mcp.Description("Articles as returned by FETCH_NEWS"),
		mcp.Items(map[string]any{"type": "object"}),
	)

	return []server.ServerTool{
		{
			Tool:    mcp.NewTool(tools.FetchNews, queryOpts("Fetch technology news articles from the configured news source")...),
			Handler: h.FetchNews,
		},
		{
			Tool: mcp.NewTool(tools.ProcessNews,
				mcp.WithDescription("Keep articles with positive keywords and label each with a topic"),
				articlesArg,
			),
			Handler: h.ProcessNews,
		},
		{
			Tool:    mcp.NewTool(tools.RunPipeline, queryOpts("Fetch news and derive topics from the positive articles")...),
			Handler: h.RunPipeline,
		},
		{
			Tool: mcp.NewTool(tools.EnrichArticles,
				mcp.WithDescription("Fill missing article descriptions from the article page metadata"),
				articlesArg,
			),
			Handler: h.EnrichArticles,
		},
		{
			Tool:    mcp.NewTool(tools.GetUser, mcp.WithDescription("Return the authenticated user")),
			Handler: h.GetUser,
		},
	}
}

func (h *Handlers) FetchNews(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	articles, err := h.svc.FetchNews(ctx, queryParams(req))
	if err != nil {
		return h.toolError(tools.FetchNews, err), nil
	}
	return jsonResult(map[string]any{"articles": articles})
}

func (h *Handlers) ProcessNews(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	articles, err := articlesArgument(req)
	if err != nil {
		return h.toolError(tools.ProcessNews, err), nil
	}
	return jsonResult(h.svc.ProcessNews(articles))
}

func (h *Handlers) RunPipeline(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := h.svc.RunPipeline(ctx, queryParams(req))
	if err != nil {
		return h.toolError(tools.RunPipeline, err), nil
	}
	return jsonResult(result)
}

func (h *Handlers) EnrichArticles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	articles, err := articlesArgument(req)
	if err != nil {
		return h.toolError(tools.EnrichArticles, err), nil
	}
	return jsonResult(map[string]any{"articles": h.svc.EnrichArticles(ctx, articles)})
}

func (h *Handlers) GetUser(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, err := h.svc.GetUser(ctx)
	if err != nil {
		return h.toolError(tools.GetUser, err), nil
	}
	return jsonResult(user)
}

func (h *Handlers) toolError(tool string, err error) *mcp.CallToolResult {
	h.log.WarnObj("tool call failed", "tool_error", map[string]any{
		"tool":  tool,
		"error": err.Error(),
	})
	return mcp.NewToolResultError(err.Error())
}

func queryParams(req mcp.CallToolRequest) domain.QueryParams {
	return domain.QueryParams{
		Q:        req.GetString("q", ""),
		Language: req.GetString("language", ""),
		SortBy:   req.GetString("sortBy", ""),
		PageSize: req.GetInt("pageSize", 0),
	}.WithDefaults()
}

// articlesArgument decodes the "articles" argument through its JSON form.
func articlesArgument(req mcp.CallToolRequest) ([]domain.Article, error) {
	raw, ok := req.GetArguments()["articles"]
	if !ok || raw == nil {
		return nil, errors.New("articles argument is required")
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode articles argument: %w", err)
	}
	var articles []domain.Article
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, fmt.Errorf("articles argument is malformed: %w", err)
	}
	return articles, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
