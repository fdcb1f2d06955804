package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/winery-visit-booking/internal/handler"
	"github.com/iliyamo/winery-visit-booking/internal/middleware"
)

// RegisterAdmin registers the admin API under /v1/admin.  Every route
// needs a valid token and a live admin role check; writes are refused in
// demo mode.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, a *handler.AuthHandler, rt *handler.RealtimeHandler,
	admins middleware.AdminChecker, demo echo.MiddlewareFunc, jwtSecret string, log *zerolog.Logger) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireAdmin(admins, log),
		demo,
	)

	// ---- Slots ----
	g.GET("/slots", h.ListSlots)
	g.POST("/slots", h.CreateSlot)
	g.POST("/slots/defaults", h.AddDefaults)
	g.DELETE("/slots/:id", h.DeleteSlot)
	g.PATCH("/slots/:id/capacity", h.UpdateCapacity)
	g.PATCH("/slots/:id/language", h.UpdateLanguage)
	g.PATCH("/slots/:id/enabled", h.SetEnabled)

	// ---- Reservations ----
	g.GET("/reservations", h.SearchReservations)
	g.GET("/reservations/day", h.ReservationsForDate)
	g.DELETE("/reservations/:id", h.DeleteReservation)

	// ---- Views ----
	g.GET("/stats", h.DailyStats)
	g.GET("/analytics", h.Analytics)
	g.GET("/dashboard", h.Dashboard)
	g.GET("/dashboard/live", rt.Dashboard)

	// ---- Users ----
	g.POST("/users", a.CreateUser)
}
