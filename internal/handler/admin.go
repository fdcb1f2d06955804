package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/winery-visit-booking/internal/dashboard"
	"github.com/iliyamo/winery-visit-booking/internal/service"
)

// AdminHandler serves the admin API.  Every route sits behind JWTAuth and
// RequireAdmin.
type AdminHandler struct {
	Admin        *service.AdminService
	Stats        *service.StatsService
	Availability *service.AvailabilityService
	Slots        dashboard.SlotSource
}

// ListSlots handles GET /v1/admin/slots?date=: every slot of the day,
// disabled ones included.
func (h *AdminHandler) ListSlots(c echo.Context) error {
	date := c.QueryParam("date")
	if date == "" {
		date = h.Availability.Today()
	}
	items, err := h.Availability.ListForDate(c.Request().Context(), date)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"date": date, "items": items})
}

// CreateSlot handles POST /v1/admin/slots.
func (h *AdminHandler) CreateSlot(c echo.Context) error {
	var in service.SlotInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	slot, err := h.Admin.CreateSlot(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, slot)
}

// AddDefaults handles POST /v1/admin/slots/defaults {"date": ...}.
func (h *AdminHandler) AddDefaults(c echo.Context) error {
	var body struct {
		Date string `json:"date"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	n, err := h.Admin.AddDefaultSlots(c.Request().Context(), body.Date)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"date": body.Date, "added": n})
}

// DeleteSlot handles DELETE /v1/admin/slots/:id.  Reservations of the slot
// are kept.
func (h *AdminHandler) DeleteSlot(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid slot id")
	}
	if err := h.Admin.DeleteSlot(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateCapacity handles PATCH /v1/admin/slots/:id/capacity {"total_seats": n}.
func (h *AdminHandler) UpdateCapacity(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid slot id")
	}
	var body struct {
		TotalSeats *int `json:"total_seats"`
	}
	if err := c.Bind(&body); err != nil || body.TotalSeats == nil {
		return badRequest(c, "total_seats is required")
	}
	slot, err := h.Admin.UpdateCapacity(c.Request().Context(), id, *body.TotalSeats)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, slot)
}

// UpdateLanguage handles PATCH /v1/admin/slots/:id/language {"language": ...}.
func (h *AdminHandler) UpdateLanguage(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid slot id")
	}
	var body struct {
		Language string `json:"language"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.Admin.UpdateLanguage(c.Request().Context(), id, body.Language); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SetEnabled handles PATCH /v1/admin/slots/:id/enabled {"enabled": bool}.
func (h *AdminHandler) SetEnabled(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid slot id")
	}
	var body struct {
		Enabled *bool `json:"enabled"`
	}
	if err := c.Bind(&body); err != nil || body.Enabled == nil {
		return badRequest(c, "enabled is required")
	}
	if err := h.Admin.SetEnabled(c.Request().Context(), id, *body.Enabled); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ReservationsForDate handles GET /v1/admin/reservations/day?date=.
func (h *AdminHandler) ReservationsForDate(c echo.Context) error {
	date := c.QueryParam("date")
	if date == "" {
		date = h.Availability.Today()
	}
	items, err := h.Admin.ReservationsForDate(c.Request().Context(), date)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"date": date, "items": items})
}

// SearchReservations handles GET /v1/admin/reservations?q=&limit=&offset=.
func (h *AdminHandler) SearchReservations(c echo.Context) error {
	page, err := h.Admin.SearchReservations(c.Request().Context(),
		c.QueryParam("q"), queryInt(c, "limit", 0), queryInt(c, "offset", 0))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// DeleteReservation handles DELETE /v1/admin/reservations/:id.
func (h *AdminHandler) DeleteReservation(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	if err := h.Admin.DeleteReservation(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DailyStats handles GET /v1/admin/stats?date=.
func (h *AdminHandler) DailyStats(c echo.Context) error {
	date := c.QueryParam("date")
	if date == "" {
		date = h.Availability.Today()
	}
	st, err := h.Stats.Daily(c.Request().Context(), date)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// Analytics handles GET /v1/admin/analytics?days=.
func (h *AdminHandler) Analytics(c echo.Context) error {
	a, err := h.Stats.Analytics(c.Request().Context(), h.Availability.Today(), queryInt(c, "days", service.AnalyticsDays))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

// Dashboard handles GET /v1/admin/dashboard?view=&date=&q=&offset=: the
// whole dashboard state for one view in a single response.
func (h *AdminHandler) Dashboard(c echo.Context) error {
	d := h.newDashboard(c.QueryParam("view"), c.QueryParam("date"))
	st, err := d.SetSearch(c.Request().Context(), c.QueryParam("q"), queryInt(c, "offset", 0))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *AdminHandler) newDashboard(view, date string) *dashboard.Dashboard {
	src := dashboard.Sources{Slots: h.Slots, Reservations: h.Admin, Analytics: h.Stats}
	return dashboard.New(src, h.Availability.Today, dashboard.ParseView(view), date, nil)
}
