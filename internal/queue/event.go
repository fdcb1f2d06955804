// Package queue defines message payloads exchanged over the message broker.
package queue

// Broker names shared by publisher and consumers.
const (
    ReservationQueue = "reservation.confirmed" // durable work queue
    ChangesExchange  = "visits.changes"        // fanout of realtime change events
)

// ReservationConfirmedEvent is published when a reservation is successfully confirmed.
// It contains enough information for downstream consumers to log, notify, or
// trigger analytics without querying the primary database.
type ReservationConfirmedEvent struct {
    ReservationID uint64 `json:"reservation_id"`
    SlotID        uint64 `json:"slot_id"`
    Date          string `json:"date"`
    Time          string `json:"time"`
    Language      string `json:"language"`
    GuestName     string `json:"guest_name"`
    Hotel         string `json:"hotel"`
    Room          string `json:"room"`
    SeatsLeft     int    `json:"seats_left"`
    ConfirmedAt   string `json:"confirmed_at"`
}
