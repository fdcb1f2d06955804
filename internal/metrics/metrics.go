package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "winery_visits"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		},
		[]string{"route", "method", "status"},
	)

	bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_attempts_total",
			Help:      "Booking attempts by outcome (confirmed, sold_out, duplicate, invalid, error).",
		},
		[]string{"outcome"},
	)

	adminMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admin_mutations_total",
			Help:      "Admin schedule and reservation mutations by action and result.",
		},
		[]string{"action", "result"},
	)

	realtimeEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_events_total",
			Help:      "Change events delivered to subscribers or dropped on full buffers.",
		},
		[]string{"table", "result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookings, adminMutations, realtimeEvents)
	})
}

// IncHTTP counts one served request.
func IncHTTP(route, method string, status int) {
	httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

// IncBooking counts one booking attempt by outcome.
func IncBooking(outcome string) {
	bookings.WithLabelValues(outcome).Inc()
}

// IncAdmin counts one admin mutation.
func IncAdmin(action string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	adminMutations.WithLabelValues(action, result).Inc()
}

// IncRealtime counts a change event per subscriber delivery attempt.
func IncRealtime(table string, delivered bool) {
	result := "delivered"
	if !delivered {
		result = "dropped"
	}
	realtimeEvents.WithLabelValues(table, result).Inc()
}
