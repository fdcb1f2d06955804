package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/winery-visit-booking/internal/service"
)

// errorCodes maps business errors to HTTP status and a machine code.
var errorCodes = []struct {
	err    error
	status int
	code   string
}{
	{service.ErrSoldOut, http.StatusConflict, "sold_out"},
	{service.ErrDuplicateReservation, http.StatusConflict, "duplicate_reservation"},
	{service.ErrSlotDisabled, http.StatusConflict, "slot_disabled"},
	{service.ErrCapacityBelowBookings, http.StatusConflict, "capacity_below_bookings"},
	{service.ErrDuplicateSlot, http.StatusConflict, "duplicate_slot"},
	{service.ErrSlotNotFound, http.StatusNotFound, "slot_not_found"},
	{service.ErrNotFound, http.StatusNotFound, "not_found"},
	{service.ErrAvailabilityUnavailable, http.StatusServiceUnavailable, "availability_unavailable"},
}

// writeError renders err as {"error": code, "message": text}.  Validation
// errors also carry the offending fields.  Anything unrecognised is a 500
// with a generic message and is logged.
func writeError(c echo.Context, err error) error {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "validation",
			"message": service.Message(err),
			"fields":  ve.Fields,
		})
	}
	for _, m := range errorCodes {
		if errors.Is(err, m.err) {
			return c.JSON(m.status, echo.Map{"error": m.code, "message": service.Message(err)})
		}
	}
	zerolog.Ctx(c.Request().Context()).Error().Err(err).Str("route", c.Path()).Msg("request failed")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": service.Message(err)})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad_request", "message": msg})
}

// pathID parses the :id parameter.
func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func queryInt(c echo.Context, name string, def int) int {
	v, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return def
	}
	return v
}
