package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/winery-visit-booking/internal/model"
	"github.com/iliyamo/winery-visit-booking/internal/repository"
)

// AvailabilityService reads slots for the admin schedule and the public
// booking page.
type AvailabilityService struct {
	slots   *repository.SlotRepo
	prov    *Provisioner // optional
	horizon int
	loc     *time.Location
	log     *zerolog.Logger
	now     func() time.Time
}

// NewAvailabilityService builds the reader.  prov may be nil, in which
// case no provisioning happens before public reads.
func NewAvailabilityService(slots *repository.SlotRepo, prov *Provisioner, horizon int, loc *time.Location, log *zerolog.Logger) *AvailabilityService {
	if loc == nil {
		loc = time.UTC
	}
	return &AvailabilityService{slots: slots, prov: prov, horizon: horizon, loc: loc, log: logOrNop(log), now: time.Now}
}

// Today is the current day in the booking timezone.
func (s *AvailabilityService) Today() string { return model.Today(s.now(), s.loc) }

// ListForDate returns every slot on date, enabled or not, ordered by time
// then language.
func (s *AvailabilityService) ListForDate(ctx context.Context, date string) ([]model.Slot, error) {
	if !model.ValidDate(date) {
		ve := &ValidationError{}
		ve.add("date", "must be YYYY-MM-DD")
		return nil, ve
	}
	out, err := s.slots.ListByDate(ctx, date)
	if err != nil {
		s.log.Error().Err(err).Str("date", date).Msg("list slots for date")
		return nil, ErrAvailabilityUnavailable
	}
	return out, nil
}

// ListUpcoming returns enabled slots from today onwards, sold-out ones
// included and flagged.  It first asks the provisioner to stock the
// rolling window; a provisioning failure is logged and ignored.
func (s *AvailabilityService) ListUpcoming(ctx context.Context, today string) ([]model.SlotView, error) {
	if today == "" {
		today = s.Today()
	}
	if s.prov != nil {
		if _, err := s.prov.EnsureFutureAvailability(ctx, s.horizon); err != nil {
			s.log.Warn().Err(err).Msg("ensure future availability failed")
		}
	}
	slots, err := s.slots.ListUpcoming(ctx, today)
	if err != nil {
		s.log.Error().Err(err).Msg("list upcoming slots")
		return nil, ErrAvailabilityUnavailable
	}
	out := make([]model.SlotView, len(slots))
	for i, sl := range slots {
		out[i] = model.NewSlotView(sl)
	}
	return out, nil
}

// Calendar builds the month grid for the public calendar from the
// upcoming slots.
func (s *AvailabilityService) Calendar(ctx context.Context, month time.Time) (CalendarMonth, error) {
	today := s.Today()
	views, err := s.ListUpcoming(ctx, today)
	if err != nil {
		return CalendarMonth{}, err
	}
	slots := make([]model.Slot, len(views))
	for i, v := range views {
		slots[i] = v.Slot
	}
	return BuildCalendarMonth(slots, month, today), nil
}

// SlotsForDay returns the public slots of one day via the selector.
func (s *AvailabilityService) SlotsForDay(ctx context.Context, date string) ([]model.SlotView, error) {
	views, err := s.ListUpcoming(ctx, "")
	if err != nil {
		return nil, err
	}
	slots := make([]model.Slot, len(views))
	for i, v := range views {
		slots[i] = v.Slot
	}
	day := SlotsForDate(slots, date)
	out := make([]model.SlotView, len(day))
	for i, sl := range day {
		out[i] = model.NewSlotView(sl)
	}
	return out, nil
}
