package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/winery-visit-booking/internal/config"
	"github.com/iliyamo/winery-visit-booking/internal/model"
	"github.com/iliyamo/winery-visit-booking/internal/realtime"
	"github.com/iliyamo/winery-visit-booking/internal/repository"
)

const provisionLockTTL = 30 * time.Second

// Provisioner keeps a rolling window of future days stocked with the
// default slot templates.  Each day is handled at most once: the day is
// marked in provisioned_days in the same transaction that creates its
// slots, so a slot an admin deletes later is not recreated.
type Provisioner struct {
	db        *sql.DB
	slots     *repository.SlotRepo
	days      *repository.ProvisionRepo
	templates []config.SlotTemplate
	rdb       *redis.Client // optional cross-instance lock
	notifier  Notifier
	loc       *time.Location
	log       *zerolog.Logger
	now       func() time.Time

	mu      sync.Mutex
	doneFor string // "from|days" of the last complete run
}

// NewProvisioner builds a Provisioner.  Template languages are normalized
// here; unknown languages are skipped with a warning.
func NewProvisioner(db *sql.DB, slots *repository.SlotRepo, days *repository.ProvisionRepo,
	templates []config.SlotTemplate, rdb *redis.Client, notifier Notifier, loc *time.Location, log *zerolog.Logger) *Provisioner {
	if loc == nil {
		loc = time.UTC
	}
	log = logOrNop(log)
	p := &Provisioner{
		db: db, slots: slots, days: days, rdb: rdb,
		notifier: notifierOrNop(notifier), loc: loc, log: log, now: time.Now,
	}
	for _, t := range templates {
		lang, ok := model.NormalizeLanguage(t.Language)
		if !ok {
			log.Warn().Str("language", t.Language).Msg("provisioner: skipping template with unknown language")
			continue
		}
		t.Language = lang
		p.templates = append(p.templates, t)
	}
	return p
}

// Templates returns the normalized default slot templates.
func (p *Provisioner) Templates() []config.SlotTemplate {
	return append([]config.SlotTemplate(nil), p.templates...)
}

// EnsureFutureAvailability creates the default slots for every day in
// [today, today+daysAhead) that has never been provisioned and returns how
// many slots were created.  It is idempotent and safe to call on every
// public read: a complete run is remembered for the rest of the day, and
// when Redis is available only one instance works on a window at a time.
func (p *Provisioner) EnsureFutureAvailability(ctx context.Context, daysAhead int) (int, error) {
	if daysAhead < 1 || len(p.templates) == 0 {
		return 0, nil
	}
	today, _ := model.ParseDate(model.Today(p.now(), p.loc))
	from := model.FormatDate(today)
	to := model.FormatDate(today.AddDate(0, 0, daysAhead-1))
	key := fmt.Sprintf("%s|%d", from, daysAhead)

	p.mu.Lock()
	done := p.doneFor == key
	p.mu.Unlock()
	if done {
		return 0, nil
	}

	if p.rdb != nil {
		lockKey := "lock:provision:" + from
		ok, err := p.rdb.SetNX(ctx, lockKey, "1", provisionLockTTL).Result()
		if err != nil {
			// Redis trouble is not a reason to skip; provisioned_days
			// still prevents double work.
			p.log.Warn().Err(err).Msg("provisioner: lock unavailable, continuing unlocked")
		} else if !ok {
			return 0, nil
		} else {
			defer p.rdb.Del(context.WithoutCancel(ctx), lockKey)
		}
	}

	marked, err := p.days.Provisioned(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("load provisioned days: %w", err)
	}

	created := 0
	for d := today; !d.After(today.AddDate(0, 0, daysAhead-1)); d = d.AddDate(0, 0, 1) {
		date := model.FormatDate(d)
		if marked[date] {
			continue
		}
		n, err := p.provisionDay(ctx, date)
		if err != nil {
			return created, fmt.Errorf("provision %s: %w", date, err)
		}
		created += n
	}

	p.mu.Lock()
	p.doneFor = key
	p.mu.Unlock()

	if created > 0 {
		p.log.Info().Int("slots", created).Str("from", from).Str("to", to).Msg("provisioned future availability")
		p.notifier.Publish(ctx, realtime.NewEvent(realtime.TableSlots, realtime.OpInsert, 0))
	}
	return created, nil
}

func (p *Provisioner) provisionDay(ctx context.Context, date string) (int, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	first, err := p.days.MarkTx(ctx, tx, date)
	if err != nil {
		return 0, err
	}
	if !first {
		return 0, nil
	}
	n := 0
	for _, t := range p.templates {
		s := model.Slot{Date: date, Time: t.Time, Language: t.Language, TotalSeats: t.Seats}
		if err := p.slots.CreateTx(ctx, tx, &s); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				continue // an admin created it by hand already
			}
			return 0, err
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return n, nil
}
