package model

import "time"

// Reservation statuses.  Only StatusConfirmed is ever written by the
// booking flow; the others exist in legacy rows.
const (
    StatusConfirmed = "confirmada"
    StatusPending   = "pendiente"
    StatusCancelled = "cancelada"
)

// Reservation records one guest's seat on a tour.  Rows live in the
// `visits` table.  Date, time and language are copied from the slot at
// booking time; there is no foreign key, so deleting a slot leaves its
// reservations in place.
//
// Fields:
//  ID        – primary key identifier.
//  Date      – visit day, "YYYY-MM-DD".
//  Time      – tour start, "HH:MM".
//  FirstName – guest first name.
//  LastName  – guest last name.
//  Hotel     – one of the partner hotels or "Externo".
//  Room      – room number, or the guest's phone/e-mail for "Externo".
//  Language  – tour language copied from the slot.
//  Comments  – free text from the guest, may be empty.
//  Status    – confirmada, pendiente or cancelada.
//  CreatedAt – creation timestamp.
type Reservation struct {
    ID        uint64    `json:"id"`         // visits.id
    Date      string    `json:"date"`       // visits.visit_date
    Time      string    `json:"time"`       // visits.visit_time
    FirstName string    `json:"first_name"` // visits.first_name
    LastName  string    `json:"last_name"`  // visits.last_name
    Hotel     string    `json:"hotel"`      // visits.hotel
    Room      string    `json:"room"`       // visits.room
    Language  string    `json:"language"`   // visits.language
    Comments  string    `json:"comments"`   // visits.comments (nullable)
    Status    string    `json:"status"`     // visits.status
    CreatedAt time.Time `json:"created_at"` // visits.created_at
}

// Guest is the booking form as submitted by a visitor.  Language is the
// guest's stated preference and is informational only; the stored
// language always comes from the chosen slot.
type Guest struct {
    FirstName string `json:"first_name"`
    LastName  string `json:"last_name"`
    Hotel     string `json:"hotel"`
    Room      string `json:"room"`
    Contact   string `json:"contact"`
    Language  string `json:"language"`
    Comments  string `json:"comments"`
}
