package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DemoDays is how many days of mock availability the demo store carries.
const DemoDays = 90

// SeedDemo fills an empty store with mock availability starting at today:
// every day has a Spanish tour with 8 of 10 seats left and an English tour
// with all 10 seats free.  A store that already has slots is left alone.
func SeedDemo(ctx context.Context, db *sql.DB, today time.Time) error {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM slots").Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const q = `INSERT INTO slots (visit_date, visit_time, language, total_seats, available_seats, enabled) VALUES (?, ?, ?, ?, ?, 1)`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return err
	}
	defer stmt.Close()

	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	for i := 0; i < DemoDays; i++ {
		d := day.AddDate(0, 0, i).Format("2006-01-02")
		if _, err := stmt.ExecContext(ctx, d, "19:00", "Español", 10, 8); err != nil {
			return fmt.Errorf("seed %s: %w", d, err)
		}
		if _, err := stmt.ExecContext(ctx, d, "19:00", "English", 10, 10); err != nil {
			return fmt.Errorf("seed %s: %w", d, err)
		}
		// demo days never get provisioned on top of the mock data
		if _, err := tx.ExecContext(ctx, "INSERT INTO provisioned_days (visit_date) VALUES (?)", d); err != nil {
			return fmt.Errorf("seed %s: %w", d, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
