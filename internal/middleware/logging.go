package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-ID"

// RequestIDKey is the echo context key of the request id.
const RequestIDKey = "request_id"

// RequestLogger assigns a request id, stores a request-scoped logger in the
// request context and logs each request's start and completion.
func RequestLogger(base zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			// Generate or use existing request ID
			requestID := req.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			c.Response().Header().Set(RequestIDHeader, requestID)
			c.Set(RequestIDKey, requestID)

			l := base.With().Str("request_id", requestID).Logger()
			c.SetRequest(req.WithContext(l.WithContext(req.Context())))

			l.Debug().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("remote_addr", c.RealIP()).
				Str("user_agent", req.UserAgent()).
				Msg("HTTP request started")

			err := next(c)
			if err != nil {
				// let the error handler pick the status before it is logged
				c.Error(err)
			}

			status := c.Response().Status
			ev := l.Info()
			if status >= 500 {
				ev = l.Error().Err(err)
			} else if status >= 400 {
				ev = l.Warn()
			}
			ev.Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("route", c.Path()).
				Int("status_code", status).
				Dur("duration_ms", time.Since(start)).
				Int64("bytes_out", c.Response().Size).
				Msg("HTTP request completed")
			return nil
		}
	}
}

// RequestID returns the id assigned by RequestLogger.
func RequestID(c echo.Context) string {
	s, _ := c.Get(RequestIDKey).(string)
	return s
}
