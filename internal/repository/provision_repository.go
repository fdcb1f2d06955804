package repository

import (
	"context"
	"database/sql"
)

// ProvisionRepo tracks which days the provisioning run has already
// handled.  A marked day is never filled again, so slots an admin
// deleted stay deleted.
type ProvisionRepo struct {
	db *sql.DB
}

// NewProvisionRepo returns a new ProvisionRepo bound to the given database.
func NewProvisionRepo(db *sql.DB) *ProvisionRepo { return &ProvisionRepo{db: db} }

// Provisioned returns the set of marked days between two days inclusive.
func (r *ProvisionRepo) Provisioned(ctx context.Context, from, to string) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT visit_date FROM provisioned_days WHERE visit_date BETWEEN ? AND ?`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]bool{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out[d] = true
	}
	return out, rows.Err()
}

// MarkTx records a day as provisioned.  It returns false when another
// run marked it first, in which case the caller should skip the day.
func (r *ProvisionRepo) MarkTx(ctx context.Context, tx *sql.Tx, date string) (bool, error) {
	_, err := tx.ExecContext(ctx, `INSERT INTO provisioned_days (visit_date) VALUES (?)`, date)
	if err != nil {
		if isDuplicate(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// BeginTx starts a transaction on the underlying database.
func (r *ProvisionRepo) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return r.db.BeginTx(ctx, nil)
}
