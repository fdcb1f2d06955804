// Package dashboard keeps the admin dashboard's state: which view is open,
// the selected date, the search term and the rows loaded for them.  A
// Dashboard is refreshed explicitly or by change events from the
// realtime hub.
package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/winery-visit-booking/internal/model"
	"github.com/iliyamo/winery-visit-booking/internal/realtime"
	"github.com/iliyamo/winery-visit-booking/internal/service"
)

type View string

const (
	ViewHome         View = "home"
	ViewSchedule     View = "schedule"
	ViewReservations View = "reservations"
	ViewAnalytics    View = "analytics"
)

// ParseView maps a name to a View, defaulting to home.
func ParseView(s string) View {
	switch v := View(s); v {
	case ViewSchedule, ViewReservations, ViewAnalytics:
		return v
	}
	return ViewHome
}

// SlotSource lists every slot of a day, disabled ones included.
type SlotSource interface {
	ListByDate(ctx context.Context, date string) ([]model.Slot, error)
}

// ReservationSource serves the day listing and the master search.
type ReservationSource interface {
	ReservationsForDate(ctx context.Context, date string) ([]model.Reservation, error)
	SearchReservations(ctx context.Context, term string, limit, offset int) (service.ReservationPage, error)
}

// AnalyticsSource serves the history view.
type AnalyticsSource interface {
	Analytics(ctx context.Context, today string, days int) (service.Analytics, error)
}

// Sources bundles what a Dashboard reads from.
type Sources struct {
	Slots        SlotSource
	Reservations ReservationSource
	Analytics    AnalyticsSource
}

// State is a snapshot of the dashboard.  Day data (slots, reservations
// and stats for Date) is always loaded; Search and History only for
// their views.
type State struct {
	View         View                     `json:"view"`
	Date         string                   `json:"date"`
	Today        string                   `json:"today"`
	SearchTerm   string                   `json:"search_term,omitempty"`
	Offset       int                      `json:"offset,omitempty"`
	Slots        []model.Slot             `json:"slots"`
	Reservations []model.Reservation      `json:"reservations"`
	Stats        service.DailyStats       `json:"stats"`
	Search       *service.ReservationPage `json:"search,omitempty"`
	History      *service.Analytics       `json:"analytics,omitempty"`
	Error        string                   `json:"error,omitempty"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

// Dashboard is safe for concurrent use.
type Dashboard struct {
	src   Sources
	today func() string
	log   *zerolog.Logger

	mu    sync.Mutex
	state State
}

// New returns a Dashboard on view for date.  An invalid date means today.
func New(src Sources, today func() string, view View, date string, log *zerolog.Logger) *Dashboard {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	if !model.ValidDate(date) {
		date = today()
	}
	return &Dashboard{
		src:   src,
		today: today,
		log:   log,
		state: State{View: view, Date: date},
	}
}

// Snapshot returns a copy of the current state.
func (d *Dashboard) Snapshot() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// SetView switches view and reloads.
func (d *Dashboard) SetView(ctx context.Context, v View) (State, error) {
	d.mu.Lock()
	d.state.View = v
	d.mu.Unlock()
	return d.Refresh(ctx)
}

// SetDate selects another day and reloads.  Invalid dates are ignored.
func (d *Dashboard) SetDate(ctx context.Context, date string) (State, error) {
	if model.ValidDate(date) {
		d.mu.Lock()
		d.state.Date = date
		d.mu.Unlock()
	}
	return d.Refresh(ctx)
}

// SetSearch changes the master-listing filter and reloads.
func (d *Dashboard) SetSearch(ctx context.Context, term string, offset int) (State, error) {
	d.mu.Lock()
	d.state.SearchTerm, d.state.Offset = term, offset
	d.mu.Unlock()
	return d.Refresh(ctx)
}

// Refresh reloads the data of the current view.  On error the previous
// rows are kept and the error is recorded in the state.
func (d *Dashboard) Refresh(ctx context.Context) (State, error) {
	d.mu.Lock()
	next := d.state
	d.mu.Unlock()

	next.Today = d.today()
	err := d.load(ctx, &next)

	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		d.state.Error = service.Message(err)
		d.log.Warn().Err(err).Str("view", string(next.View)).Str("date", next.Date).Msg("dashboard refresh failed")
		return d.state, err
	}
	next.Error = ""
	next.UpdatedAt = time.Now().UTC()
	d.state = next
	return d.state, nil
}

func (d *Dashboard) load(ctx context.Context, st *State) error {
	slots, err := d.src.Slots.ListByDate(ctx, st.Date)
	if err != nil {
		return err
	}
	visits, err := d.src.Reservations.ReservationsForDate(ctx, st.Date)
	if err != nil {
		return err
	}
	st.Slots, st.Reservations = slots, visits
	st.Stats = service.ComputeDailyStats(st.Date, slots, visits)

	st.Search, st.History = nil, nil
	switch st.View {
	case ViewReservations:
		page, err := d.src.Reservations.SearchReservations(ctx, st.SearchTerm, 0, st.Offset)
		if err != nil {
			return err
		}
		st.Search = &page
	case ViewAnalytics:
		a, err := d.src.Analytics.Analytics(ctx, st.Today, service.AnalyticsDays)
		if err != nil {
			return err
		}
		st.History = &a
	}
	return nil
}

// Tables are the realtime tables a dashboard listens to.
var Tables = []string{realtime.TableVisits, realtime.TableSlots}

// Watch refreshes on every event of sub until ctx ends or the
// subscription closes, calling onChange with each new state.  Refresh
// errors are recorded in the state and do not stop the loop.
func (d *Dashboard) Watch(ctx context.Context, sub *realtime.Subscription, onChange func(State)) {
	realtime.Listen(ctx, sub, func(ev realtime.Event) {
		if ev.Table != realtime.TableVisits && ev.Table != realtime.TableSlots {
			return
		}
		st, _ := d.Refresh(ctx)
		if onChange != nil {
			onChange(st)
		}
	})
}
