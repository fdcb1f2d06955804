package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/winery-visit-booking/internal/realtime"
	"github.com/iliyamo/winery-visit-booking/internal/service"
)

func TestWriteError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{service.ErrSoldOut, http.StatusConflict, "sold_out"},
		{fmt.Errorf("book: %w", service.ErrDuplicateReservation), http.StatusConflict, "duplicate_reservation"},
		{service.ErrCapacityBelowBookings, http.StatusConflict, "capacity_below_bookings"},
		{service.ErrNotFound, http.StatusNotFound, "not_found"},
		{service.ErrAvailabilityUnavailable, http.StatusServiceUnavailable, "availability_unavailable"},
		{errors.New("connection reset"), http.StatusInternalServerError, "internal"},
	}
	e := echo.New()
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			assert.NoError(t, writeError(c, tc.err))
			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error":"`+tc.code+`"`)
			assert.Contains(t, rec.Body.String(), service.Message(tc.err))
		})
	}
}

func TestWriteErrorValidation(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
	err := &service.ValidationError{Fields: map[string]string{"room": "required"}}

	assert.NoError(t, writeError(c, err))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"validation","message":"Revisa los datos del formulario","fields":{"room":"required"}}`, rec.Body.String())
}

func TestParseTables(t *testing.T) {
	assert.Equal(t, []string{realtime.TableVisits}, ParseTables("visits"))
	assert.Equal(t, []string{realtime.TableVisits, realtime.TableSlots}, ParseTables(""))
	assert.Equal(t, []string{realtime.TableVisits, realtime.TableSlots}, ParseTables("auth,users"))
	assert.Equal(t, []string{realtime.TableSlots, realtime.TableVisits}, ParseTables(" slots , visits "))
}

func TestHealth(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/healthz", nil), rec)
	assert.NoError(t, Health(c))
	assert.Equal(t, "ok", rec.Body.String())
}
