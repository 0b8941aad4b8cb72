package rest

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/samvad-hq/samvad-news-topics/internal/auth"
	"github.com/samvad-hq/samvad-news-topics/internal/logger"
)

// requestLogger writes one structured line per request.
func requestLogger(log logger.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogError:     true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			fields := map[string]any{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency_ms": v.Latency.Milliseconds(),
				"request_id": v.RequestID,
			}
			if v.Error != nil {
				fields["error"] = v.Error.Error()
				log.ErrorObj("request failed", "http_request", fields)
				return nil
			}
			log.InfoObj("request completed", "http_request", fields)
			return nil
		},
	})
}

// bearerToken copies the Authorization bearer token into the request context.
func bearerToken() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token := auth.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization)); token != "" {
				req := c.Request()
				c.SetRequest(req.WithContext(auth.WithToken(req.Context(), token)))
			}
			return next(c)
		}
	}
}
