package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql"

	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/winery-visit-booking/internal/handler"
	"github.com/iliyamo/winery-visit-booking/internal/middleware"
)

// RegisterRoutes registers the operational endpoints: liveness, readiness
// and Prometheus metrics.
func RegisterRoutes(e *echo.Echo, db *sql.DB, demo bool) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db, demo))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers the session endpoints under /v1/auth.  Login,
// refresh and logout work without an access token; session and gate
// accept anonymous callers; me and is-admin need a valid token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, gate *handler.GateHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login)
	// rotates the refresh token
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout, middleware.OptionalAuth(jwtSecret))
	g.GET("/session", a.Session, middleware.OptionalAuth(jwtSecret))
	g.GET("/me", a.Me, middleware.JWTAuth(jwtSecret))
	g.POST("/is-admin", a.IsAdmin, middleware.JWTAuth(jwtSecret))

	e.GET("/v1/gate", gate.Decide, middleware.OptionalAuth(jwtSecret))
}
