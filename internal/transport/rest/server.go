// Package rest serves the tool operations as JSON over HTTP.
package rest

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/samvad-hq/samvad-news-topics/internal/logger"
	"github.com/samvad-hq/samvad-news-topics/internal/tools"
)

// NewServer builds the echo instance with middleware and routes registered.
// Extra handlers, such as the MCP endpoint, can be mounted with Mount.
func NewServer(svc tools.Service, log logger.Logger) *echo.Echo {
	if log == nil {
		log = logger.NopLogger{}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(requestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization, echo.HeaderXRequestID},
	}))
	e.Use(bearerToken())

	h := &handler{svc: svc, log: log}
	e.GET("/health", h.health)
	e.GET("/runs", h.listRuns)

	g := e.Group("/tools")
	g.POST("/"+tools.FetchNews, h.fetchNews)
	g.POST("/"+tools.ProcessNews, h.processNews)
	g.POST("/"+tools.RunPipeline, h.runPipeline)
	g.POST("/"+tools.EnrichArticles, h.enrichArticles)
	g.POST("/"+tools.GetUser, h.getUser)

	return e
}

// Mount serves an http.Handler for every method under path.
func Mount(e *echo.Echo, path string, h http.Handler) {
	e.Any(path, echo.WrapHandler(h))
	e.Any(path+"/*", echo.WrapHandler(h))
}
