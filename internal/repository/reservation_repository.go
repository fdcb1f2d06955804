package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/winery-visit-booking/internal/model"
)

// ReservationRepo provides access to the visits table.  Reservations are
// inserted by the booking transaction and only ever deleted by an admin;
// they are never updated in place.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const visitColumns = `id, visit_date, visit_time, first_name, last_name, hotel, room, language, comments, status, created_at`

func scanVisit(row rowScanner) (model.Reservation, error) {
	var (
		v        model.Reservation
		comments sql.NullString
		created  dbTime
	)
	err := row.Scan(&v.ID, &v.Date, &v.Time, &v.FirstName, &v.LastName, &v.Hotel, &v.Room,
		&v.Language, &comments, &v.Status, &created)
	v.Comments = comments.String
	v.CreatedAt = created.T
	return v, err
}

// CreateTx inserts a reservation within the scope of an existing
// transaction and populates its generated ID.  A collision on the guest
// identity tuple yields ErrDuplicate; the caller must roll back so the
// seat taken earlier in the same transaction is returned.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, v *model.Reservation) error {
	now := time.Now().UTC().Truncate(time.Second)
	var comments any
	if v.Comments != "" {
		comments = v.Comments
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO visits (visit_date, visit_time, first_name, last_name, hotel, room, language, comments, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.Date, v.Time, v.FirstName, v.LastName, v.Hotel, v.Room, v.Language, comments, v.Status, sqlTime(now))
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
	v.ID = uint64(id)
	v.CreatedAt = now
	return nil
}

// GetByID loads one reservation.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (model.Reservation, error) {
	v, err := scanVisit(r.db.QueryRowContext(ctx, `SELECT `+visitColumns+` FROM visits WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return v, ErrNotFound
	}
	return v, err
}

// Delete removes a reservation.  The seat is not handed back to the slot.
func (r *ReservationRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM visits WHERE id = ?`, id)
	return affectedOne(res, err)
}

// ListByDate returns the day's reservations ordered by time.
func (r *ReservationRepo) ListByDate(ctx context.Context, date string) ([]model.Reservation, error) {
	return r.list(ctx, `SELECT `+visitColumns+` FROM visits WHERE visit_date = ? ORDER BY visit_time, id`, date)
}

// ListRange returns reservations between two days inclusive.
func (r *ReservationRepo) ListRange(ctx context.Context, from, to string) ([]model.Reservation, error) {
	return r.list(ctx,
		`SELECT `+visitColumns+` FROM visits WHERE visit_date BETWEEN ? AND ? ORDER BY visit_date, visit_time, id`, from, to)
}

// SearchParams filters the master reservation listing.
type SearchParams struct {
	Term   string // matched against first name, last name, room and hotel
	Limit  int
	Offset int
}

// Search returns one page of reservations ordered newest day first and,
// within a day, by time.  The second result is the total number of
// matches ignoring the page bounds.
func (r *ReservationRepo) Search(ctx context.Context, p SearchParams) ([]model.Reservation, int, error) {
	where := ""
	var args []any
	if term := strings.TrimSpace(p.Term); term != "" {
		like := "%" + escapeLike(strings.ToLower(term)) + "%"
		where = ` WHERE LOWER(first_name) LIKE ? ESCAPE '!' OR LOWER(last_name) LIKE ? ESCAPE '!'` +
			` OR LOWER(room) LIKE ? ESCAPE '!' OR LOWER(hotel) LIKE ? ESCAPE '!'`
		args = append(args, like, like, like, like)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM visits`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := p.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	q := `SELECT ` + visitColumns + ` FROM visits` + where +
		` ORDER BY visit_date DESC, visit_time ASC, id ASC LIMIT ? OFFSET ?`
	items, err := r.list(ctx, q, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// DayLanguageCount is one bucket of the per-day, per-language aggregate.
type DayLanguageCount struct {
	Date     string
	Language string
	Count    int
}

// CountByDayLanguage aggregates reservations between two days inclusive.
// Languages are returned as stored, aliases included.
func (r *ReservationRepo) CountByDayLanguage(ctx context.Context, from, to string) ([]DayLanguageCount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT visit_date, language, COUNT(*) FROM visits WHERE visit_date BETWEEN ? AND ?
		 GROUP BY visit_date, language ORDER BY visit_date`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DayLanguageCount
	for rows.Next() {
		var c DayLanguageCount
		if err := rows.Scan(&c.Date, &c.Language, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ReservationRepo) list(ctx context.Context, q string, args ...any) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// escapeLike neutralises LIKE wildcards in user input; '!' is the escape
// character declared in the queries.
func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}
