package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/samvad-hq/samvad-news-topics/internal/domain"
	"github.com/samvad-hq/samvad-news-topics/internal/logger"
	"github.com/samvad-hq/samvad-news-topics/internal/tools"
)

type handler struct {
	svc tools.Service
	log logger.Logger
}

type articlesBody struct {
	Articles []domain.Article `json:"articles"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (h *handler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) fetchNews(c echo.Context) error {
	var params domain.QueryParams
	if err := c.Bind(&params); err != nil {
		return badRequest(c, err)
	}
	articles, err := h.svc.FetchNews(c.Request().Context(), params)
	if err != nil {
		return h.fail(c, tools.FetchNews, err)
	}
	return c.JSON(http.StatusOK, articlesBody{Articles: articles})
}

func (h *handler) processNews(c echo.Context) error {
	var body articlesBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, err)
	}
	return c.JSON(http.StatusOK, h.svc.ProcessNews(body.Articles))
}

func (h *handler) runPipeline(c echo.Context) error {
	var params domain.QueryParams
	if err := c.Bind(&params); err != nil {
		return badRequest(c, err)
	}
	result, err := h.svc.RunPipeline(c.Request().Context(), params)
	if err != nil {
		return h.fail(c, tools.RunPipeline, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *handler) enrichArticles(c echo.Context) error {
	var body articlesBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, err)
	}
	return c.JSON(http.StatusOK, articlesBody{Articles: h.svc.EnrichArticles(c.Request().Context(), body.Articles)})
}

func (h *handler) getUser(c echo.Context) error {
	user, err := h.svc.GetUser(c.Request().Context())
	if err != nil {
		return h.fail(c, tools.GetUser, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *handler) listRuns(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, errorBody{Error: "limit must be a non-negative integer"})
		}
		limit = n
	}
	runs, err := h.svc.ListRuns(c.Request().Context(), limit)
	if err != nil {
		return h.fail(c, "LIST_RUNS", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"runs": runs})
}

func badRequest(c echo.Context, err error) error {
	msg := "malformed request body"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		}
	}
	return c.JSON(http.StatusBadRequest, errorBody{Error: msg})
}

// fail maps an operation error to its HTTP status.
func (h *handler) fail(c echo.Context, op string, err error) error {
	status := statusFor(err)
	h.log.WarnObj("tool call failed", "tool_error", map[string]any{
		"tool":   op,
		"status": status,
		"error":  err.Error(),
	})
	return c.JSON(status, errorBody{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case domain.IsUpstream(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
