package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func value(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	assert.NotPanics(t, func() {
		IncHTTP("/v1/availability", "GET", 200)
		IncRealtime("visits", true)
	})
}

func TestBookingAndAdminCounters(t *testing.T) {
	before := value(t, bookings.WithLabelValues("sold_out"))
	IncBooking("sold_out")
	assert.Equal(t, before+1, value(t, bookings.WithLabelValues("sold_out")))

	okBefore := value(t, adminMutations.WithLabelValues("delete_slot", "ok"))
	errBefore := value(t, adminMutations.WithLabelValues("delete_slot", "error"))
	IncAdmin("delete_slot", nil)
	IncAdmin("delete_slot", errors.New("gone"))
	assert.Equal(t, okBefore+1, value(t, adminMutations.WithLabelValues("delete_slot", "ok")))
	assert.Equal(t, errBefore+1, value(t, adminMutations.WithLabelValues("delete_slot", "error")))
}
