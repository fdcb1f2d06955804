package service

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/winery-visit-booking/internal/config"
	"github.com/iliyamo/winery-visit-booking/internal/database"
	"github.com/iliyamo/winery-visit-booking/internal/model"
	"github.com/iliyamo/winery-visit-booking/internal/queue"
	"github.com/iliyamo/winery-visit-booking/internal/realtime"
	"github.com/iliyamo/winery-visit-booking/internal/repository"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (n *recordingNotifier) Publish(_ context.Context, ev realtime.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) tables() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.events))
	for i, ev := range n.events {
		out[i] = ev.Table + "." + ev.Op
	}
	return out
}

type recordingPublisher struct {
	mu  sync.Mutex
	got []queue.ReservationConfirmedEvent
}

func (p *recordingPublisher) PublishReservationConfirmed(_ context.Context, ev queue.ReservationConfirmedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, ev)
	return nil
}

type env struct {
	db       *sql.DB
	slots    *repository.SlotRepo
	visits   *repository.ReservationRepo
	notifier *recordingNotifier
	pub      *recordingPublisher
	booking  *BookingService
	admin    *AdminService
	stats    *StatsService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "visits.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, database.SQLite))

	e := &env{
		db:       db,
		slots:    repository.NewSlotRepo(db),
		visits:   repository.NewReservationRepo(db),
		notifier: &recordingNotifier{},
		pub:      &recordingPublisher{},
	}
	sched := config.DefaultSchedule()
	e.booking = NewBookingService(db, e.slots, e.visits, sched, e.notifier, e.pub, nil)
	e.admin = NewAdminService(e.slots, e.visits, sched.DefaultSlots, e.notifier, nil)
	e.stats = NewStatsService(e.slots, e.visits)
	return e
}

func (e *env) slot(t *testing.T, date, hhmm, lang string, total, available int) model.Slot {
	t.Helper()
	s := model.Slot{Date: date, Time: hhmm, Language: lang, TotalSeats: total}
	require.NoError(t, e.slots.Create(context.Background(), &s))
	if available != total {
		_, err := e.db.Exec(`UPDATE slots SET available_seats = ? WHERE id = ?`, available, s.ID)
		require.NoError(t, err)
		s.AvailableSeats = available
	}
	return s
}

func (e *env) countVisits(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.QueryRow(`SELECT COUNT(*) FROM visits`).Scan(&n))
	return n
}

func guest(first string) model.Guest {
	return model.Guest{FirstName: first, LastName: "Pérez", Hotel: "Sheraton", Room: "101", Language: "English"}
}

func TestBookLastSeatThenSoldOut(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s := e.slot(t, "2024-06-01", "19:00", model.LangSpanish, 15, 1)

	// the guest says English; the stored language comes from the slot
	res, err := e.booking.Book(ctx, BookingRequest{SlotID: s.ID, Guest: guest("Lucía")})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Slot.AvailableSeats)
	assert.Equal(t, model.LangSpanish, res.Reservation.Language)
	assert.Equal(t, "2024-06-01", res.Reservation.Date)
	assert.Equal(t, "19:00", res.Reservation.Time)
	assert.Equal(t, model.StatusConfirmed, res.Reservation.Status)

	stored, err := e.visits.GetByID(ctx, res.Reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LangSpanish, stored.Language)

	_, err = e.booking.Book(ctx, BookingRequest{SlotID: s.ID, Guest: guest("Marta")})
	assert.ErrorIs(t, err, ErrSoldOut)
	assert.Equal(t, "Este horario está agotado", Message(err))
	assert.Equal(t, 1, e.countVisits(t))

	got, err := e.slots.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AvailableSeats)

	assert.Equal(t, []string{"visits.INSERT", "slots.UPDATE"}, e.notifier.tables())
	require.Len(t, e.pub.got, 1)
	assert.Equal(t, "Lucía Pérez", e.pub.got[0].GuestName)
	assert.Equal(t, 0, e.pub.got[0].SeatsLeft)
}

func TestBookDuplicateReturnsSeat(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s := e.slot(t, "2024-06-01", "19:30", model.LangEnglish, 15, 15)

	_, err := e.booking.Book(ctx, BookingRequest{SlotID: s.ID, Guest: guest("John")})
	require.NoError(t, err)
	_, err = e.booking.Book(ctx, BookingRequest{SlotID: s.ID, Guest: guest("John")})
	assert.ErrorIs(t, err, ErrDuplicateReservation)

	got, err := e.slots.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 14, got.AvailableSeats)
	assert.Equal(t, 1, e.countVisits(t))
}

func TestBookRejectsBeforeWriting(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s := e.slot(t, "2024-06-01", "19:00", model.LangSpanish, 15, 15)

	_, err := e.booking.Book(ctx, BookingRequest{SlotID: 999, Guest: guest("Ana")})
	assert.ErrorIs(t, err, ErrSlotNotFound)

	require.NoError(t, e.slots.SetEnabled(ctx, s.ID, false))
	_, err = e.booking.Book(ctx, BookingRequest{SlotID: s.ID, Guest: guest("Ana")})
	assert.ErrorIs(t, err, ErrSlotDisabled)
	require.NoError(t, e.slots.SetEnabled(ctx, s.ID, true))

	_, err = e.booking.Book(ctx, BookingRequest{SlotID: s.ID, Guest: model.Guest{Hotel: "Hilton"}})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	assert.Equal(t, 0, e.countVisits(t))
	assert.Empty(t, e.notifier.tables())
}

func TestBookConcurrentNeverOversells(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s := e.slot(t, "2024-06-01", "19:00", model.LangSpanish, 15, 3)

	const attempts = 12
	var (
		wg              sync.WaitGroup
		mu              sync.Mutex
		booked, soldOut int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g := guest("Guest")
			g.Room = string(rune('A' + i))
			_, err := e.booking.Book(ctx, BookingRequest{SlotID: s.ID, Guest: g})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				booked++
			case assert.ErrorIs(t, err, ErrSoldOut):
				soldOut++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 3, booked)
	assert.Equal(t, attempts-3, soldOut)
	got, err := e.slots.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AvailableSeats)
	assert.Equal(t, 3, e.countVisits(t))
}

// hangingBroker stands in for a broker that accepts the TCP handshake and
// then never answers: every call sleeps before failing.
type hangingBroker struct{ delay time.Duration }

func (b hangingBroker) Forward(context.Context, realtime.Event) error {
	time.Sleep(b.delay)
	return errors.New("dial timeout")
}

func (b hangingBroker) PublishReservationConfirmed(context.Context, queue.ReservationConfirmedEvent) error {
	time.Sleep(b.delay)
	return errors.New("dial timeout")
}

func TestBookDoesNotWaitForBroker(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := e.slot(t, "2024-06-01", "19:00", model.LangEnglish, 15, 15)

	broker := hangingBroker{delay: 3 * time.Second}
	hub := realtime.NewHub(nil)
	hub.SetForwarder(broker)
	go hub.RunForwarder(ctx)
	outbox := queue.NewOutbox(broker, 16, nil)
	go outbox.Run(ctx)
	sub := hub.Subscribe(realtime.TableVisits)
	defer sub.Close()

	booking := NewBookingService(e.db, e.slots, e.visits, config.DefaultSchedule(), hub, outbox, nil)
	start := time.Now()
	_, err := booking.Book(ctx, BookingRequest{SlotID: s.ID, Guest: guest("Inés")})
	require.NoError(t, err)
	_, err = booking.Book(ctx, BookingRequest{SlotID: s.ID, Guest: guest("Sofía")})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)

	// local subscribers are still told right away
	select {
	case ev := <-sub.C():
		assert.Equal(t, realtime.OpInsert, ev.Op)
	case <-time.After(time.Second):
		t.Fatal("no local event")
	}
	assert.Equal(t, 2, e.countVisits(t))
}

func TestValidateGuest(t *testing.T) {
	sched := config.DefaultSchedule()

	g, err := ValidateGuest(model.Guest{FirstName: " Ana ", LastName: "Gómez", Hotel: "Externo", Contact: "+54 261 555 0000"}, sched)
	require.NoError(t, err)
	assert.Equal(t, "Ana", g.FirstName)
	assert.Equal(t, "+54 261 555 0000", g.Room)

	// contact typed into the room field is accepted for external guests
	g, err = ValidateGuest(model.Guest{FirstName: "Ana", LastName: "Gómez", Hotel: "Externo", Room: "ana@example.com"}, sched)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", g.Room)

	_, err = ValidateGuest(model.Guest{FirstName: "Ana", LastName: "Gómez", Hotel: "Externo"}, sched)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "contact")

	_, err = ValidateGuest(model.Guest{FirstName: "Ana", LastName: "Gómez", Hotel: "Huentala"}, sched)
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "room")

	_, err = ValidateGuest(model.Guest{Hotel: "Hilton", Room: "1"}, sched)
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "first_name")
	assert.Contains(t, ve.Fields, "last_name")
	assert.Contains(t, ve.Fields, "hotel")
}

func TestAdminMutations(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	s, err := e.admin.CreateSlot(ctx, SlotInput{Date: "2024-06-01", Time: "19:00", Language: "Spanish", Seats: 15})
	require.NoError(t, err)
	assert.Equal(t, model.LangSpanish, s.Language)

	_, err = e.admin.CreateSlot(ctx, SlotInput{Date: "2024-06-01", Time: "19:00", Language: "Español", Seats: 10})
	assert.ErrorIs(t, err, ErrDuplicateSlot)

	_, err = e.admin.CreateSlot(ctx, SlotInput{Date: "06/01/2024", Time: "7pm", Language: "Deutsch"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Fields, 4)

	// one default (19:00 Español) already exists
	added, err := e.admin.AddDefaultSlots(ctx, "2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	added, err = e.admin.AddDefaultSlots(ctx, "2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	day, err := e.slots.ListByDate(ctx, "2024-06-01")
	require.NoError(t, err)
	require.Len(t, day, 2)
	en := day[1]
	assert.Equal(t, model.LangEnglish, en.Language)
	assert.Equal(t, "19:30", en.Time)

	assert.NoError(t, e.admin.UpdateLanguage(ctx, en.ID, "Inglés"))
	assert.ErrorIs(t, e.admin.UpdateLanguage(ctx, 999, "English"), ErrNotFound)
	assert.True(t, IsValidation(e.admin.UpdateLanguage(ctx, en.ID, "Klingon")))

	require.NoError(t, e.admin.SetEnabled(ctx, en.ID, false))
	assert.ErrorIs(t, e.admin.SetEnabled(ctx, 999, false), ErrNotFound)
	assert.ErrorIs(t, e.admin.DeleteSlot(ctx, 999), ErrNotFound)
	assert.ErrorIs(t, e.admin.DeleteReservation(ctx, 999), ErrNotFound)
}

func TestAdminUpdateCapacity(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s := e.slot(t, "2024-06-01", "19:00", model.LangSpanish, 15, 10) // 5 booked

	got, err := e.admin.UpdateCapacity(ctx, s.ID, 20)
	require.NoError(t, err)
	assert.Equal(t, 20, got.TotalSeats)
	assert.Equal(t, 15, got.AvailableSeats)

	got, err = e.admin.UpdateCapacity(ctx, s.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AvailableSeats)

	_, err = e.admin.UpdateCapacity(ctx, s.ID, 4)
	assert.ErrorIs(t, err, ErrCapacityBelowBookings)

	_, err = e.admin.UpdateCapacity(ctx, 999, 4)
	assert.ErrorIs(t, err, ErrNotFound)

	cur, err := e.slots.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, cur.TotalSeats)
	assert.GreaterOrEqual(t, cur.AvailableSeats, 0)
	assert.LessOrEqual(t, cur.AvailableSeats, cur.TotalSeats)
}

func TestDeleteSlotKeepsReservationsAndDeleteReservationKeepsSeat(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s := e.slot(t, "2024-06-01", "19:00", model.LangSpanish, 15, 15)
	other := e.slot(t, "2024-06-02", "19:00", model.LangSpanish, 15, 15)

	res, err := e.booking.Book(ctx, BookingRequest{SlotID: s.ID, Guest: guest("Ana")})
	require.NoError(t, err)
	require.NoError(t, e.admin.DeleteSlot(ctx, s.ID))
	_, err = e.visits.GetByID(ctx, res.Reservation.ID)
	assert.NoError(t, err)

	res2, err := e.booking.Book(ctx, BookingRequest{SlotID: other.ID, Guest: guest("Ana")})
	require.NoError(t, err)
	require.NoError(t, e.admin.DeleteReservation(ctx, res2.Reservation.ID))
	cur, err := e.slots.GetByID(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, 14, cur.AvailableSeats)
}

func TestSearchReservations(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s := e.slot(t, "2024-06-01", "19:00", model.LangSpanish, 15, 15)
	for _, name := range []string{"Ana", "Bruno", "Carla"} {
		_, err := e.booking.Book(ctx, BookingRequest{SlotID: s.ID, Guest: guest(name)})
		require.NoError(t, err)
	}
	page, err := e.admin.SearchReservations(ctx, "bru", 0, -5)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 50, page.Limit)
	assert.Equal(t, 0, page.Offset)
	assert.Equal(t, "Bruno", page.Items[0].FirstName)

	day, err := e.admin.ReservationsForDate(ctx, "2024-06-01")
	require.NoError(t, err)
	assert.Len(t, day, 3)
}

func TestDailyStats(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	es := e.slot(t, "2024-06-01", "19:00", model.LangSpanish, 10, 10)
	en := e.slot(t, "2024-06-01", "19:30", model.LangEnglish, 10, 10)
	for i, id := range []uint64{es.ID, es.ID, en.ID} {
		g := guest("G")
		g.Room = string(rune('1' + i))
		_, err := e.booking.Book(ctx, BookingRequest{SlotID: id, Guest: g})
		require.NoError(t, err)
	}
	st, err := e.stats.Daily(ctx, "2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, DailyStats{Date: "2024-06-01", Total: 3, Spanish: 2, English: 1, Capacity: 20, Booked: 3, Occupancy: 15}, st)

	empty, err := e.stats.Daily(ctx, "2024-06-05")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Occupancy)
}

func TestComputeDailyStatsCountsAliases(t *testing.T) {
	st := ComputeDailyStats("2024-06-01",
		[]model.Slot{{TotalSeats: 3, AvailableSeats: 0}},
		[]model.Reservation{{Language: "Spanish"}, {Language: "Inglés"}, {Language: "English"}})
	assert.Equal(t, 1, st.Spanish)
	assert.Equal(t, 2, st.English)
	assert.Equal(t, 100, st.Occupancy)
}

func TestAnalyticsZeroFills(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s := e.slot(t, "2024-06-10", "19:00", model.LangSpanish, 10, 10)
	old := e.slot(t, "2024-04-01", "19:00", model.LangEnglish, 10, 10)
	_, err := e.booking.Book(ctx, BookingRequest{SlotID: s.ID, Guest: guest("A")})
	require.NoError(t, err)
	_, err = e.booking.Book(ctx, BookingRequest{SlotID: old.ID, Guest: guest("B")})
	require.NoError(t, err)

	a, err := e.stats.Analytics(ctx, "2024-06-15", 30)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-16", a.From)
	assert.Len(t, a.History, 31)
	assert.Equal(t, 1, a.Totals.All)
	assert.Equal(t, 1, a.Totals.Spanish)
	for _, d := range a.History {
		if d.Date == "2024-06-10" {
			assert.Equal(t, 1, d.Total)
		} else {
			assert.Zero(t, d.Total, d.Date)
		}
	}
}

func fixedNow() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }

func TestProvisionerFillsWindowOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	days := repository.NewProvisionRepo(e.db)
	tmpl := []config.SlotTemplate{{Time: "19:00", Language: "Español", Seats: 15}, {Time: "19:30", Language: "Inglés", Seats: 15}}

	p := NewProvisioner(e.db, e.slots, days, tmpl, nil, e.notifier, time.UTC, nil)
	p.now = fixedNow
	assert.Equal(t, model.LangEnglish, p.Templates()[1].Language)

	n, err := p.EnsureFutureAvailability(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	n, err = p.EnsureFutureAvailability(ctx, 3)
	require.NoError(t, err)
	assert.Zero(t, n)

	// a deleted slot is not resurrected, even by a fresh instance
	day, err := e.slots.ListByDate(ctx, "2024-06-02")
	require.NoError(t, err)
	require.Len(t, day, 2)
	require.NoError(t, e.slots.Delete(ctx, day[0].ID))

	p2 := NewProvisioner(e.db, e.slots, days, tmpl, nil, nil, time.UTC, nil)
	p2.now = fixedNow
	n, err = p2.EnsureFutureAvailability(ctx, 3)
	require.NoError(t, err)
	assert.Zero(t, n)

	// extending the window only touches the new day
	n, err = p2.EnsureFutureAvailability(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestProvisionerSkipsExistingSlots(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.slot(t, "2024-06-01", "19:00", model.LangSpanish, 8, 8)

	p := NewProvisioner(e.db, e.slots, repository.NewProvisionRepo(e.db), config.DefaultSchedule().DefaultSlots, nil, nil, time.UTC, nil)
	p.now = fixedNow
	n, err := p.EnsureFutureAvailability(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	day, err := e.slots.ListByDate(ctx, "2024-06-01")
	require.NoError(t, err)
	require.Len(t, day, 2)
	assert.Equal(t, 8, day[0].TotalSeats)
}

func TestProvisionerRespectsRedisLock(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	e := newEnv(t)
	ctx := context.Background()
	p := NewProvisioner(e.db, e.slots, repository.NewProvisionRepo(e.db), config.DefaultSchedule().DefaultSlots, rdb, nil, time.UTC, nil)
	p.now = fixedNow

	require.NoError(t, mr.Set("lock:provision:2024-06-01", "other"))
	n, err := p.EnsureFutureAvailability(ctx, 2)
	require.NoError(t, err)
	assert.Zero(t, n)

	mr.Del("lock:provision:2024-06-01")
	n, err = p.EnsureFutureAvailability(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.False(t, mr.Exists("lock:provision:2024-06-01"))
}

func TestAvailabilityListUpcoming(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.slot(t, "2024-05-31", "19:00", model.LangSpanish, 15, 15) // past
	sold := e.slot(t, "2024-06-01", "19:00", model.LangSpanish, 15, 0)
	hidden := e.slot(t, "2024-06-02", "19:00", model.LangEnglish, 15, 15)
	require.NoError(t, e.slots.SetEnabled(ctx, hidden.ID, false))

	svc := NewAvailabilityService(e.slots, nil, 60, time.UTC, nil)
	svc.now = fixedNow

	views, err := svc.ListUpcoming(ctx, "")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, sold.ID, views[0].ID)
	assert.True(t, views[0].SoldOut)

	day, err := svc.ListForDate(ctx, "2024-06-02")
	require.NoError(t, err)
	assert.Len(t, day, 1)

	_, err = svc.ListForDate(ctx, "junio")
	assert.True(t, IsValidation(err))

	cal, err := svc.Calendar(ctx, fixedNow())
	require.NoError(t, err)
	assert.Equal(t, 6, cal.Month)
	// June 2024 starts on a Saturday
	assert.True(t, cal.Days[0].Padding)
	assert.Equal(t, "2024-06-01", cal.Days[6].Date)
	assert.True(t, cal.Days[6].Available)
	assert.False(t, cal.Days[7].Available)

	slotsOn, err := svc.SlotsForDay(ctx, "2024-06-01")
	require.NoError(t, err)
	assert.Len(t, slotsOn, 1)
}

func TestAvailabilityWithProvisioner(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := NewProvisioner(e.db, e.slots, repository.NewProvisionRepo(e.db), config.DefaultSchedule().DefaultSlots, nil, nil, time.UTC, nil)
	p.now = fixedNow
	svc := NewAvailabilityService(e.slots, p, 5, time.UTC, nil)
	svc.now = fixedNow

	views, err := svc.ListUpcoming(ctx, "")
	require.NoError(t, err)
	assert.Len(t, views, 10)
}

func TestAvailabilityReadFailure(t *testing.T) {
	e := newEnv(t)
	svc := NewAvailabilityService(e.slots, nil, 60, time.UTC, nil)
	require.NoError(t, e.db.Close())

	_, err := svc.ListUpcoming(context.Background(), "2024-06-01")
	assert.ErrorIs(t, err, ErrAvailabilityUnavailable)
	assert.Equal(t, "No se pudieron cargar las fechas disponibles.", Message(err))
}
