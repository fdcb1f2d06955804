package model

import "time"

// Slot is one bookable tour: a date, a start time and a language with a
// seat inventory.  Rows live in the `slots` table and are unique per
// (date, time, language).
//
// Fields:
//  ID             – primary key identifier.
//  Date           – visit day, "YYYY-MM-DD".
//  Time           – start time, "HH:MM".
//  Language       – canonical tour language (Español or English).
//  TotalSeats     – capacity of the tour.
//  AvailableSeats – seats still free; 0 ≤ AvailableSeats ≤ TotalSeats.
//  Enabled        – whether the public booking flow lists the slot.
type Slot struct {
    ID             uint64    `json:"id"`              // slots.id
    Date           string    `json:"date"`            // slots.visit_date
    Time           string    `json:"time"`            // slots.visit_time
    Language       string    `json:"language"`        // slots.language
    TotalSeats     int       `json:"total_seats"`     // slots.total_seats
    AvailableSeats int       `json:"available_seats"` // slots.available_seats
    Enabled        bool      `json:"enabled"`         // slots.enabled
    CreatedAt      time.Time `json:"created_at"`      // slots.created_at
    UpdatedAt      time.Time `json:"updated_at"`      // slots.updated_at
}

// SoldOut reports whether no seat is left.  Sold-out slots stay visible.
func (s Slot) SoldOut() bool { return s.AvailableSeats <= 0 }

// Booked is the number of seats already taken.
func (s Slot) Booked() int { return s.TotalSeats - s.AvailableSeats }

// SlotView is the public projection of a slot.
type SlotView struct {
    Slot
    SoldOut bool `json:"sold_out"`
}

// NewSlotView wraps a slot with its sold-out flag.
func NewSlotView(s Slot) SlotView { return SlotView{Slot: s, SoldOut: s.SoldOut()} }
