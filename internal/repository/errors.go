// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrNotFound indicates that a keyed write touched no row,
// while ErrDuplicate signals a unique-key collision.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrNotFound is returned when a keyed update or delete affects no row,
// either because the id does not exist or the row was removed in the
// meantime. Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update collides with a
// unique key, e.g. a second slot with the same date, time and language.
// Handlers should translate this into an HTTP 409 response.
var ErrDuplicate = errors.New("duplicate")

// ErrConflict is returned when a conditional update could not be
// applied because the row changed underneath it, such as a capacity
// cut racing with a booking. Handlers should translate this into an
// HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrForbidden is returned when the caller lacks the role required for
// an operation. Handlers should translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// isDuplicate reports whether err is a unique-key violation in either
// supported dialect.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "1062") || strings.Contains(msg, "unique constraint failed")
}
