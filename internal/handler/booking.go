package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/winery-visit-booking/internal/config"
	"github.com/iliyamo/winery-visit-booking/internal/model"
	"github.com/iliyamo/winery-visit-booking/internal/service"
)

// BookingHandler takes guest reservations.
type BookingHandler struct {
	Booking  *service.BookingService
	Schedule config.Schedule
}

// Create handles POST /v1/reservations.  On success the reservation and
// the slot as it stands after the booking are returned with 201.
func (h *BookingHandler) Create(c echo.Context) error {
	var req service.BookingRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.SlotID == 0 {
		return badRequest(c, "slot_id is required")
	}
	res, err := h.Booking.Book(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// Options handles GET /v1/reservations/options: the hotel list and the
// bookable languages the form offers.
func (h *BookingHandler) Options(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"hotels":    append(append([]string{}, h.Schedule.Hotels...), config.HotelExternal),
		"languages": model.Languages,
	})
}
