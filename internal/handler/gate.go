package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/winery-visit-booking/internal/access"
	"github.com/iliyamo/winery-visit-booking/internal/middleware"
)

// GateHandler answers navigation decisions for the front end.
type GateHandler struct {
	Admins middleware.AdminChecker
}

// Decide handles GET /v1/gate?path=/admin&query=... for the caller's
// session.  The admin role is only looked up for admin paths; a failing
// lookup sends the caller to the login page like a failed session check.
func (h *GateHandler) Decide(c echo.Context) error {
	path := c.QueryParam("path")
	query := c.QueryParam("query")

	state := access.Unauthenticated
	uid, ok := middleware.UserID(c)
	if ok {
		state = state.Transition(access.SessionFound)
	}
	next, d := state.Navigate(path, query, func() (bool, error) {
		return h.Admins.IsAdmin(c.Request().Context(), uid)
	})
	return c.JSON(http.StatusOK, echo.Map{
		"outcome":  d.Outcome,
		"location": d.Location,
		"state":    next,
	})
}
