package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/iliyamo/winery-visit-booking/internal/config"
	"github.com/iliyamo/winery-visit-booking/internal/metrics"
	"github.com/iliyamo/winery-visit-booking/internal/model"
	"github.com/iliyamo/winery-visit-booking/internal/queue"
	"github.com/iliyamo/winery-visit-booking/internal/realtime"
	"github.com/iliyamo/winery-visit-booking/internal/repository"
)

// BookingRequest is a guest's submission for one slot.
type BookingRequest struct {
	SlotID uint64      `json:"slot_id"`
	Guest  model.Guest `json:"guest"`
}

// BookingResult is what a confirmed booking returns.
type BookingResult struct {
	Reservation model.Reservation `json:"reservation"`
	Slot        model.Slot        `json:"slot"`
}

// BookingService writes reservations.  Taking the seat and inserting the
// reservation happen in one transaction, so a slot can never be oversold
// and a failed insert never leaks a seat.
type BookingService struct {
	db        *sql.DB
	slots     *repository.SlotRepo
	visits    *repository.ReservationRepo
	schedule  config.Schedule
	notifier  Notifier
	publisher ConfirmationPublisher // optional
	log       *zerolog.Logger
}

// NewBookingService wires the writer.  publisher may be nil.
func NewBookingService(db *sql.DB, slots *repository.SlotRepo, visits *repository.ReservationRepo,
	schedule config.Schedule, notifier Notifier, publisher ConfirmationPublisher, log *zerolog.Logger) *BookingService {
	return &BookingService{
		db: db, slots: slots, visits: visits, schedule: schedule,
		notifier: notifierOrNop(notifier), publisher: publisher, log: logOrNop(log),
	}
}

const maxField = 100

// ValidateGuest checks the booking form.  Guests of the partner hotels
// give a room number; external guests give a phone or e-mail instead.
// It returns the guest with trimmed fields and, for external guests, the
// contact moved into Room, which is where it is stored.
func ValidateGuest(g model.Guest, schedule config.Schedule) (model.Guest, error) {
	g.FirstName = strings.TrimSpace(g.FirstName)
	g.LastName = strings.TrimSpace(g.LastName)
	g.Hotel = strings.TrimSpace(g.Hotel)
	g.Room = strings.TrimSpace(g.Room)
	g.Contact = strings.TrimSpace(g.Contact)
	g.Comments = strings.TrimSpace(g.Comments)

	ve := &ValidationError{}
	if g.FirstName == "" {
		ve.add("first_name", "required")
	} else if utf8.RuneCountInString(g.FirstName) > maxField {
		ve.add("first_name", "too long")
	}
	if g.LastName == "" {
		ve.add("last_name", "required")
	} else if utf8.RuneCountInString(g.LastName) > maxField {
		ve.add("last_name", "too long")
	}
	switch {
	case g.Hotel == "":
		ve.add("hotel", "required")
	case !schedule.HotelAllowed(g.Hotel):
		ve.add("hotel", "unknown hotel")
	case g.Hotel == config.HotelExternal:
		if g.Contact == "" {
			g.Contact = g.Room
		}
		if g.Contact == "" {
			ve.add("contact", "phone or e-mail required for external guests")
		} else if utf8.RuneCountInString(g.Contact) > 190 {
			ve.add("contact", "too long")
		}
		g.Room = g.Contact
	default:
		if g.Room == "" {
			ve.add("room", "required")
		} else if utf8.RuneCountInString(g.Room) > 20 {
			ve.add("room", "too long")
		}
	}
	if utf8.RuneCountInString(g.Comments) > 1000 {
		ve.add("comments", "too long")
	}
	return g, ve.orNil()
}

// Book reserves one seat on req.SlotID for the guest.
//
// A sold-out slot is rejected before any write.  Otherwise the seat is
// taken with a conditional decrement and the reservation is inserted in
// the same transaction; losing the race for the last seat yields
// ErrSoldOut and a duplicate guest yields ErrDuplicateReservation, both
// with nothing written.
func (s *BookingService) Book(ctx context.Context, req BookingRequest) (BookingResult, error) {
	guest, err := ValidateGuest(req.Guest, s.schedule)
	if err != nil {
		metrics.IncBooking("invalid")
		return BookingResult{}, err
	}

	slot, err := s.slots.GetByID(ctx, req.SlotID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		metrics.IncBooking("invalid")
		return BookingResult{}, ErrSlotNotFound
	case err != nil:
		metrics.IncBooking("error")
		return BookingResult{}, fmt.Errorf("load slot: %w", err)
	case !slot.Enabled:
		metrics.IncBooking("invalid")
		return BookingResult{}, ErrSlotDisabled
	case slot.AvailableSeats <= 0:
		metrics.IncBooking("sold_out")
		return BookingResult{}, ErrSoldOut
	}

	res, err := s.reserve(ctx, slot, guest)
	switch {
	case errors.Is(err, ErrSoldOut):
		metrics.IncBooking("sold_out")
		return BookingResult{}, err
	case errors.Is(err, ErrDuplicateReservation):
		metrics.IncBooking("duplicate")
		return BookingResult{}, err
	case err != nil:
		metrics.IncBooking("error")
		s.log.Error().Err(err).Uint64("slot_id", slot.ID).Msg("booking failed")
		return BookingResult{}, err
	}
	metrics.IncBooking("confirmed")

	s.notifier.Publish(ctx, realtime.NewEvent(realtime.TableVisits, realtime.OpInsert, res.Reservation.ID))
	s.notifier.Publish(ctx, realtime.NewEvent(realtime.TableSlots, realtime.OpUpdate, res.Slot.ID))
	if s.publisher != nil {
		ev := queue.ReservationConfirmedEvent{
			ReservationID: res.Reservation.ID,
			SlotID:        res.Slot.ID,
			Date:          res.Reservation.Date,
			Time:          res.Reservation.Time,
			Language:      res.Reservation.Language,
			GuestName:     res.Reservation.FirstName + " " + res.Reservation.LastName,
			Hotel:         res.Reservation.Hotel,
			Room:          res.Reservation.Room,
			SeatsLeft:     res.Slot.AvailableSeats,
			ConfirmedAt:   res.Reservation.CreatedAt.Format(time.RFC3339),
		}
		// broker trouble never fails a committed booking
		_ = s.publisher.PublishReservationConfirmed(context.WithoutCancel(ctx), ev)
	}
	s.log.Info().Uint64("reservation_id", res.Reservation.ID).Uint64("slot_id", res.Slot.ID).
		Int("seats_left", res.Slot.AvailableSeats).Msg("reservation confirmed")
	return res, nil
}

func (s *BookingService) reserve(ctx context.Context, slot model.Slot, g model.Guest) (BookingResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return BookingResult{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	ok, err := s.slots.DecrementTx(ctx, tx, slot.ID)
	if err != nil {
		return BookingResult{}, fmt.Errorf("take seat: %w", err)
	}
	if !ok {
		return BookingResult{}, ErrSoldOut
	}

	v := model.Reservation{
		Date:      slot.Date,
		Time:      slot.Time,
		Language:  slot.Language,
		FirstName: g.FirstName,
		LastName:  g.LastName,
		Hotel:     g.Hotel,
		Room:      g.Room,
		Comments:  g.Comments,
		Status:    model.StatusConfirmed,
	}
	if err := s.visits.CreateTx(ctx, tx, &v); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return BookingResult{}, ErrDuplicateReservation
		}
		return BookingResult{}, fmt.Errorf("insert reservation: %w", err)
	}

	after, err := s.slots.GetByIDTx(ctx, tx, slot.ID)
	if err != nil {
		return BookingResult{}, fmt.Errorf("reload slot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return BookingResult{}, err
	}
	committed = true
	return BookingResult{Reservation: v, Slot: after}, nil
}
