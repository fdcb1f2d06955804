package realtime

import (
	"time"

	"github.com/google/uuid"
)

// Tables whose changes are broadcast, plus the auth pseudo-table.
const (
	TableVisits = "visits"
	TableSlots  = "slots"
	TableAuth   = "auth"
)

// Operations carried by an Event.
const (
	OpInsert    = "INSERT"
	OpUpdate    = "UPDATE"
	OpDelete    = "DELETE"
	OpSignedOut = "SIGNED_OUT"
)

// Event is a change notification.  Subscribers refetch on receipt, so an
// event only says what changed, never the new state.  Delivery is at most
// once and unordered.
type Event struct {
	ID        string    `json:"id"`
	Table     string    `json:"table"`
	Op        string    `json:"op"`
	RecordID  uint64    `json:"record_id,omitempty"`
	At        time.Time `json:"at"`
	Origin    string    `json:"origin,omitempty"`     // instance that published it
	UserID    uint64    `json:"user_id,omitempty"`    // auth events only
	SessionID string    `json:"session_id,omitempty"` // auth events only
}

// NewEvent stamps a change event with an id and the current time.
func NewEvent(table, op string, recordID uint64) Event {
	return Event{ID: uuid.NewString(), Table: table, Op: op, RecordID: recordID, At: time.Now().UTC()}
}

// SignedOut builds the auth event sent when a session ends.
func SignedOut(userID uint64, sessionID string) Event {
	ev := NewEvent(TableAuth, OpSignedOut, 0)
	ev.UserID = userID
	ev.SessionID = sessionID
	return ev
}
