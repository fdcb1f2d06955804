package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/winery-visit-booking/internal/handler"
	"github.com/iliyamo/winery-visit-booking/internal/middleware"
)

// RegisterPublic registers the guest-facing booking API.  Reads go through
// the response cache; the booking POST is rate limited and refused in demo
// mode.
func RegisterPublic(e *echo.Echo, a *handler.AvailabilityHandler, b *handler.BookingHandler,
	rt *handler.RealtimeHandler, cache, limit, demo echo.MiddlewareFunc, jwtSecret string) {
	g := e.Group("/v1/availability", cache)
	g.GET("", a.Upcoming)
	g.GET("/day", a.Day)
	g.GET("/calendar", a.Calendar)

	e.GET("/v1/reservations/options", b.Options)
	e.POST("/v1/reservations", b.Create, limit, demo)

	// the booking page refetches on changes too; a token, when sent, lets
	// the socket close on sign-out
	e.GET("/v1/realtime", rt.Stream, middleware.OptionalAuth(jwtSecret))
}
