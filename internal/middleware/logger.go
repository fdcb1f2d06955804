package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/winery-visit-booking/internal/metrics"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

// RequestLogger assigns a request id (reusing the caller's when present),
// stores a request-scoped logger in the request context and writes one log
// line plus one metrics sample per request.
func RequestLogger(log *zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid := req.Header.Get(HeaderRequestID)
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Response().Header().Set(HeaderRequestID, rid)
			c.Set("request_id", rid)

			reqLog := log.With().Str("request_id", rid).Logger()
			c.SetRequest(req.WithContext(reqLog.WithContext(req.Context())))

			if err := next(c); err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			status := c.Response().Status
			metrics.IncHTTP(route, req.Method, status)

			ev := reqLog.Info()
			if status >= 500 {
				ev = reqLog.Error()
			}
			ev.Str("method", req.Method).
				Str("route", route).
				Int("status", status).
				Dur("latency", time.Since(start)).
				Str("ip", c.RealIP()).
				Msg("request")
			return nil
		}
	}
}
