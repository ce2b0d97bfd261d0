package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/party-venue-reservation/internal/logger"
)

// RequestLogger logs one line per request and puts the request id on the
// request context for logger.WithContext.  It must run after Echo's
// RequestID middleware.  Errors are handed to the HTTP error handler here
// so the logged status is the one the client received.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = logger.NewRequestID()
				c.Response().Header().Set(echo.HeaderXRequestID, rid)
			}
			c.SetRequest(req.WithContext(logger.ContextWithRequestID(req.Context(), rid)))

			if err := next(c); err != nil {
				c.Error(err)
			}

			res := c.Response()
			attrs := []any{
				"method", req.Method,
				"path", req.URL.Path,
				"route", c.Path(),
				"status", res.Status,
				"bytes", res.Size,
				"latency_ms", time.Since(start).Milliseconds(),
				"ip", c.RealIP(),
				"user", userID(c),
			}
			log := logger.WithContext(c.Request().Context())
			switch {
			case res.Status >= 500:
				log.Error("http request", attrs...)
			case res.Status >= 400:
				log.Warn("http request", attrs...)
			default:
				log.Info("http request", attrs...)
			}
			return nil
		}
	}
}
