package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iliyamo/winery-visit-booking/internal/config"
	"github.com/iliyamo/winery-visit-booking/internal/metrics"
	"github.com/iliyamo/winery-visit-booking/internal/model"
	"github.com/iliyamo/winery-visit-booking/internal/realtime"
	"github.com/iliyamo/winery-visit-booking/internal/repository"
)

// AdminService implements the schedule and reservation mutations of the
// admin area.  Every mutation is a single keyed statement; a write that
// matches no row is ErrNotFound.  Concurrent admins are not coordinated:
// the last write wins.
type AdminService struct {
	slots     *repository.SlotRepo
	visits    *repository.ReservationRepo
	templates []config.SlotTemplate
	notifier  Notifier
	log       *zerolog.Logger
}

// NewAdminService wires the admin mutations.  templates are the default
// slots added by AddDefaultSlots.
func NewAdminService(slots *repository.SlotRepo, visits *repository.ReservationRepo,
	templates []config.SlotTemplate, notifier Notifier, log *zerolog.Logger) *AdminService {
	return &AdminService{slots: slots, visits: visits, templates: templates, notifier: notifierOrNop(notifier), log: logOrNop(log)}
}

// SlotInput is the admin form for a new slot.
type SlotInput struct {
	Date     string `json:"date"`
	Time     string `json:"time"`
	Language string `json:"language"`
	Seats    int    `json:"seats"`
}

func (in SlotInput) normalize() (SlotInput, error) {
	ve := &ValidationError{}
	if !model.ValidDate(in.Date) {
		ve.add("date", "must be YYYY-MM-DD")
	}
	if !model.ValidTime(in.Time) {
		ve.add("time", "must be HH:MM")
	}
	if lang, ok := model.NormalizeLanguage(in.Language); ok {
		in.Language = lang
	} else {
		ve.add("language", "must be Español or English")
	}
	if in.Seats < 1 {
		ve.add("seats", "must be at least 1")
	}
	return in, ve.orNil()
}

// mapRepoErr turns repository sentinels into service ones.
func mapRepoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return ErrDuplicateSlot
	}
	return err
}

func (s *AdminService) done(ctx context.Context, action string, err error, ev realtime.Event) error {
	metrics.IncAdmin(action, err)
	if err != nil {
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrDuplicateSlot) &&
			!errors.Is(err, ErrCapacityBelowBookings) && !IsValidation(err) {
			s.log.Error().Err(err).Str("action", action).Msg("admin mutation failed")
		}
		return err
	}
	s.log.Info().Str("action", action).Uint64("id", ev.RecordID).Msg("admin mutation")
	s.notifier.Publish(ctx, ev)
	return nil
}

// CreateSlot adds a slot with every seat free.
func (s *AdminService) CreateSlot(ctx context.Context, in SlotInput) (model.Slot, error) {
	in, err := in.normalize()
	if err != nil {
		return model.Slot{}, s.done(ctx, "create_slot", err, realtime.Event{})
	}
	slot := model.Slot{Date: in.Date, Time: in.Time, Language: in.Language, TotalSeats: in.Seats}
	err = mapRepoErr(s.slots.Create(ctx, &slot))
	return slot, s.done(ctx, "create_slot", err, realtime.NewEvent(realtime.TableSlots, realtime.OpInsert, slot.ID))
}

// AddDefaultSlots creates the default templates on date, skipping the ones
// that already exist, and returns how many were added.
func (s *AdminService) AddDefaultSlots(ctx context.Context, date string) (int, error) {
	if !model.ValidDate(date) {
		ve := &ValidationError{}
		ve.add("date", "must be YYYY-MM-DD")
		return 0, s.done(ctx, "add_defaults", ve, realtime.Event{})
	}
	added := 0
	for _, t := range s.templates {
		lang, ok := model.NormalizeLanguage(t.Language)
		if !ok {
			continue
		}
		slot := model.Slot{Date: date, Time: t.Time, Language: lang, TotalSeats: t.Seats}
		if err := s.slots.Create(ctx, &slot); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				continue
			}
			return added, s.done(ctx, "add_defaults", fmt.Errorf("add default %s %s: %w", t.Time, lang, err), realtime.Event{})
		}
		added++
	}
	if added == 0 {
		metrics.IncAdmin("add_defaults", nil)
		return 0, nil
	}
	return added, s.done(ctx, "add_defaults", nil, realtime.NewEvent(realtime.TableSlots, realtime.OpInsert, 0))
}

// DeleteSlot removes a slot.  Its reservations are kept.
func (s *AdminService) DeleteSlot(ctx context.Context, id uint64) error {
	err := mapRepoErr(s.slots.Delete(ctx, id))
	return s.done(ctx, "delete_slot", err, realtime.NewEvent(realtime.TableSlots, realtime.OpDelete, id))
}

// UpdateCapacity sets a new total and moves the free seats by the same
// amount.  A total below the seats already booked is rejected before any
// write; the write itself is conditional, so a booking that slips in
// between cannot push the free count below zero either.
func (s *AdminService) UpdateCapacity(ctx context.Context, id uint64, newTotal int) (model.Slot, error) {
	if newTotal < 0 {
		ve := &ValidationError{}
		ve.add("total_seats", "must not be negative")
		return model.Slot{}, s.done(ctx, "update_capacity", ve, realtime.Event{})
	}
	cur, err := s.slots.GetByID(ctx, id)
	if err != nil {
		return model.Slot{}, s.done(ctx, "update_capacity", mapRepoErr(err), realtime.Event{})
	}
	if cur.AvailableSeats+(newTotal-cur.TotalSeats) < 0 {
		return model.Slot{}, s.done(ctx, "update_capacity", ErrCapacityBelowBookings, realtime.Event{})
	}
	updated, err := s.slots.UpdateCapacity(ctx, id, newTotal)
	if errors.Is(err, repository.ErrConflict) {
		err = ErrCapacityBelowBookings
	}
	err = mapRepoErr(err)
	return updated, s.done(ctx, "update_capacity", err, realtime.NewEvent(realtime.TableSlots, realtime.OpUpdate, id))
}

// UpdateLanguage changes a slot's language; aliases are accepted.
func (s *AdminService) UpdateLanguage(ctx context.Context, id uint64, language string) error {
	lang, ok := model.NormalizeLanguage(language)
	if !ok {
		ve := &ValidationError{}
		ve.add("language", "must be Español or English")
		return s.done(ctx, "update_language", ve, realtime.Event{})
	}
	err := mapRepoErr(s.slots.UpdateLanguage(ctx, id, lang))
	return s.done(ctx, "update_language", err, realtime.NewEvent(realtime.TableSlots, realtime.OpUpdate, id))
}

// SetEnabled shows or hides a slot on the public page.
func (s *AdminService) SetEnabled(ctx context.Context, id uint64, enabled bool) error {
	err := mapRepoErr(s.slots.SetEnabled(ctx, id, enabled))
	return s.done(ctx, "set_enabled", err, realtime.NewEvent(realtime.TableSlots, realtime.OpUpdate, id))
}

// DeleteReservation removes a reservation.  The seat is not returned to
// the slot; an admin who wants it back raises the capacity.
func (s *AdminService) DeleteReservation(ctx context.Context, id uint64) error {
	err := mapRepoErr(s.visits.Delete(ctx, id))
	return s.done(ctx, "delete_reservation", err, realtime.NewEvent(realtime.TableVisits, realtime.OpDelete, id))
}

// ReservationsForDate lists the day's reservations ordered by time.
func (s *AdminService) ReservationsForDate(ctx context.Context, date string) ([]model.Reservation, error) {
	if !model.ValidDate(date) {
		ve := &ValidationError{}
		ve.add("date", "must be YYYY-MM-DD")
		return nil, ve
	}
	return s.visits.ListByDate(ctx, date)
}

// ReservationPage is one page of the master listing.
type ReservationPage struct {
	Items  []model.Reservation `json:"items"`
	Total  int                 `json:"total"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
}

// SearchReservations filters all reservations by first name, last name,
// room or hotel; newest day first, then by time.
func (s *AdminService) SearchReservations(ctx context.Context, term string, limit, offset int) (ReservationPage, error) {
	items, total, err := s.visits.Search(ctx, repository.SearchParams{Term: term, Limit: limit, Offset: offset})
	if err != nil {
		return ReservationPage{}, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return ReservationPage{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}
