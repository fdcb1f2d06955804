package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/winery-visit-booking/internal/model"
    "github.com/iliyamo/winery-visit-booking/internal/service"
)

// AvailabilityHandler serves the public booking page's reads.  Nothing
// here needs authentication.
type AvailabilityHandler struct {
    Availability *service.AvailabilityService
}

// Upcoming handles GET /v1/availability: every enabled slot from today on,
// sold-out ones flagged.
func (h *AvailabilityHandler) Upcoming(c echo.Context) error {
    items, err := h.Availability.ListUpcoming(c.Request().Context(), "")
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"today": h.Availability.Today(), "items": items})
}

// Day handles GET /v1/availability/day?date=YYYY-MM-DD: the public slots
// of one day in display order.
func (h *AvailabilityHandler) Day(c echo.Context) error {
    date := c.QueryParam("date")
    if !model.ValidDate(date) {
        return badRequest(c, "date must be YYYY-MM-DD")
    }
    items, err := h.Availability.SlotsForDay(c.Request().Context(), date)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"date": date, "items": items})
}

// Calendar handles GET /v1/availability/calendar?month=YYYY-MM.  Without a
// month it shows the current one.
func (h *AvailabilityHandler) Calendar(c echo.Context) error {
    raw := c.QueryParam("month")
    var month time.Time
    if raw == "" {
        today, _ := model.ParseDate(h.Availability.Today())
        month = today
    } else {
        m, err := time.Parse("2006-01", raw)
        if err != nil {
            return badRequest(c, "month must be YYYY-MM")
        }
        month = m
    }
    cal, err := h.Availability.Calendar(c.Request().Context(), month)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, cal)
}
