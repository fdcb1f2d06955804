package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/winery-visit-booking/internal/model"
)

// SlotRepo provides access to the slots table.  Every keyed write checks
// the affected-row count so a missing row surfaces as ErrNotFound rather
// than a silent success.
type SlotRepo struct {
	db *sql.DB
}

// NewSlotRepo returns a new SlotRepo bound to the given database.
func NewSlotRepo(db *sql.DB) *SlotRepo { return &SlotRepo{db: db} }

const slotColumns = `id, visit_date, visit_time, language, total_seats, available_seats, enabled, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSlot(row rowScanner) (model.Slot, error) {
	var (
		s                model.Slot
		created, updated dbTime
	)
	err := row.Scan(&s.ID, &s.Date, &s.Time, &s.Language, &s.TotalSeats, &s.AvailableSeats,
		&s.Enabled, &created, &updated)
	s.CreatedAt, s.UpdatedAt = created.T, updated.T
	return s, err
}

func (r *SlotRepo) list(ctx context.Context, q string, args ...any) ([]model.Slot, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Slot, 0)
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListByDate returns every slot on the day, enabled or not, ordered by
// time then language.  Used by the admin schedule view.
func (r *SlotRepo) ListByDate(ctx context.Context, date string) ([]model.Slot, error) {
	return r.list(ctx,
		`SELECT `+slotColumns+` FROM slots WHERE visit_date = ? ORDER BY visit_time, language`, date)
}

// ListUpcoming returns enabled slots from the given day onwards ordered by
// date then time.  Sold-out slots are included.
func (r *SlotRepo) ListUpcoming(ctx context.Context, from string) ([]model.Slot, error) {
	return r.list(ctx,
		`SELECT `+slotColumns+` FROM slots WHERE enabled = 1 AND visit_date >= ? ORDER BY visit_date, visit_time, language`, from)
}

// ListRange returns all slots between two days inclusive.
func (r *SlotRepo) ListRange(ctx context.Context, from, to string) ([]model.Slot, error) {
	return r.list(ctx,
		`SELECT `+slotColumns+` FROM slots WHERE visit_date BETWEEN ? AND ? ORDER BY visit_date, visit_time, language`, from, to)
}

// GetByID loads one slot.  A missing row yields ErrNotFound.
func (r *SlotRepo) GetByID(ctx context.Context, id uint64) (model.Slot, error) {
	s, err := scanSlot(r.db.QueryRowContext(ctx, `SELECT `+slotColumns+` FROM slots WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrNotFound
	}
	return s, err
}

// GetByIDTx is GetByID inside a transaction.
func (r *SlotRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Slot, error) {
	s, err := scanSlot(tx.QueryRowContext(ctx, `SELECT `+slotColumns+` FROM slots WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrNotFound
	}
	return s, err
}

// Create inserts an enabled slot with all seats free and fills in its id.
// A (date, time, language) collision yields ErrDuplicate.
func (r *SlotRepo) Create(ctx context.Context, s *model.Slot) error {
	return r.create(ctx, r.db, s)
}

// CreateTx is Create inside a transaction.
func (r *SlotRepo) CreateTx(ctx context.Context, tx *sql.Tx, s *model.Slot) error {
	return r.create(ctx, tx, s)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *SlotRepo) create(ctx context.Context, ex execer, s *model.Slot) error {
	now := time.Now().UTC().Truncate(time.Second)
	res, err := ex.ExecContext(ctx,
		`INSERT INTO slots (visit_date, visit_time, language, total_seats, available_seats, enabled, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Date, s.Time, s.Language, s.TotalSeats, s.TotalSeats, true, sqlTime(now), sqlTime(now))
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	s.AvailableSeats = s.TotalSeats
	s.Enabled = true
	s.CreatedAt, s.UpdatedAt = now, now
	return nil
}

// Delete removes a slot.  Reservations on it are left untouched.
func (r *SlotRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM slots WHERE id = ?`, id)
	return affectedOne(res, err)
}

// UpdateCapacity changes the total and shifts the free seats by the same
// difference.  The update only applies while the result stays
// non-negative; if a booking got in between the precheck and this
// statement the row is left alone and ErrConflict is returned.  The SET
// order matters on MySQL, which evaluates assignments left to right.
func (r *SlotRepo) UpdateCapacity(ctx context.Context, id uint64, newTotal int) (model.Slot, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE slots SET available_seats = available_seats + (? - total_seats), total_seats = ?, updated_at = ?
		 WHERE id = ? AND available_seats + (? - total_seats) >= 0`,
		newTotal, newTotal, sqlTime(time.Now()), id, newTotal)
	if err := affectedOne(res, err); err != nil {
		if errors.Is(err, ErrNotFound) {
			// tell a vanished row apart from a lost race
			if _, gerr := r.GetByID(ctx, id); gerr == nil {
				return model.Slot{}, ErrConflict
			}
		}
		return model.Slot{}, err
	}
	return r.GetByID(ctx, id)
}

// UpdateLanguage changes the tour language of a slot.
func (r *SlotRepo) UpdateLanguage(ctx context.Context, id uint64, language string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE slots SET language = ?, updated_at = ? WHERE id = ?`, language, sqlTime(time.Now()), id)
	if err != nil && isDuplicate(err) {
		return ErrDuplicate
	}
	return affectedOne(res, err)
}

// SetEnabled toggles public visibility.
func (r *SlotRepo) SetEnabled(ctx context.Context, id uint64, enabled bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE slots SET enabled = ?, updated_at = ? WHERE id = ?`, enabled, sqlTime(time.Now()), id)
	return affectedOne(res, err)
}

// DecrementTx takes one seat from an enabled slot inside tx.  It returns
// false when the slot is sold out, disabled or gone; the caller treats
// that as a lost race.
func (r *SlotRepo) DecrementTx(ctx context.Context, tx *sql.Tx, id uint64) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE slots SET available_seats = available_seats - 1, updated_at = ?
		 WHERE id = ? AND enabled = 1 AND available_seats > 0`, sqlTime(time.Now()), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// affectedOne folds an Exec result into ErrNotFound when no row matched.
func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
