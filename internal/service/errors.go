package service

import (
	"errors"
	"strings"
)

// Business outcomes of the booking and admin workflows.  Handlers map them
// to HTTP codes with errors.Is and show Message(err) to the user.
var (
	ErrSoldOut                 = errors.New("slot sold out")
	ErrDuplicateReservation    = errors.New("duplicate reservation")
	ErrSlotDisabled            = errors.New("slot disabled")
	ErrSlotNotFound            = errors.New("slot not found")
	ErrAvailabilityUnavailable = errors.New("availability unavailable")
	ErrCapacityBelowBookings   = errors.New("capacity below bookings")
	ErrDuplicateSlot           = errors.New("duplicate slot")
	ErrNotFound                = errors.New("not found")
)

var messages = map[error]string{
	ErrSoldOut:                 "Este horario está agotado",
	ErrDuplicateReservation:    "Ya existe una reserva con estos datos para este horario",
	ErrSlotDisabled:            "Este horario no está disponible",
	ErrSlotNotFound:            "Horario no encontrado",
	ErrAvailabilityUnavailable: "No se pudieron cargar las fechas disponibles.",
	ErrCapacityBelowBookings:   "No se puede reducir la capacidad por debajo de la cantidad de reservas actuales.",
	ErrDuplicateSlot:           "Ya existe una disponibilidad con la misma fecha, hora e idioma.",
	ErrNotFound:                "Registro no encontrado o sin permisos.",
}

// Message returns the user-facing text for a business error, or a generic
// one for anything else.
func Message(err error) string {
	for e, msg := range messages {
		if errors.Is(err, e) {
			return msg
		}
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return "Revisa los datos del formulario"
	}
	return "Error del sistema, intenta nuevamente"
}

// ValidationError lists every field that failed validation.  No write is
// attempted when one is returned.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, msg := range e.Fields {
		parts = append(parts, f+": "+msg)
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	e.Fields[field] = msg
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
