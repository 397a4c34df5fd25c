package database

import (
	"context"
	"fmt"
	"time"

	"navalha/internal/models"
)

// ListLunchBreaks returns the blocked intervals for a barber on one date.
// Date uses the "2006-01-02" form the rows are keyed by.
func (db *DB) ListLunchBreaks(ctx context.Context, barberID int64, date string) ([]models.LunchBreak, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, barber_id, date, start_time, end_time, created_at
		FROM lunch_breaks
		WHERE barber_id = ? AND date = ?
		ORDER BY start_time`,
		barberID, date,
	)
	if err != nil {
		return nil, fmt.Errorf("list lunch breaks: %w", err)
	}
	defer rows.Close()

	var breaks []models.LunchBreak
	for rows.Next() {
		var lb models.LunchBreak
		if err := rows.Scan(&lb.ID, &lb.BarberID, &lb.Date, &lb.StartTime,
			&lb.EndTime, &lb.CreatedAt); err != nil {
			return nil, err
		}
		breaks = append(breaks, lb)
	}
	return breaks, rows.Err()
}

// ListLunchBreaksFrom returns all breaks on or after the given date, for
// the admin overview.
func (db *DB) ListLunchBreaksFrom(ctx context.Context, from string) ([]models.LunchBreak, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, barber_id, date, start_time, end_time, created_at
		FROM lunch_breaks
		WHERE date >= ?
		ORDER BY date, start_time`,
		from,
	)
	if err != nil {
		return nil, fmt.Errorf("list lunch breaks from %s: %w", from, err)
	}
	defer rows.Close()

	var breaks []models.LunchBreak
	for rows.Next() {
		var lb models.LunchBreak
		if err := rows.Scan(&lb.ID, &lb.BarberID, &lb.Date, &lb.StartTime,
			&lb.EndTime, &lb.CreatedAt); err != nil {
			return nil, err
		}
		breaks = append(breaks, lb)
	}
	return breaks, rows.Err()
}

// CreateLunchBreak inserts a blocked interval and fills in its id.
func (db *DB) CreateLunchBreak(ctx context.Context, lb *models.LunchBreak) error {
	if err := lb.Validate(); err != nil {
		return err
	}
	now := time.Now()
	res, err := db.ExecContext(ctx, `
		INSERT INTO lunch_breaks (barber_id, date, start_time, end_time, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		lb.BarberID, lb.Date, lb.StartTime, lb.EndTime, now,
	)
	if err != nil {
		return fmt.Errorf("create lunch break: %w", err)
	}
	lb.ID, err = res.LastInsertId()
	if err != nil {
		return err
	}
	lb.CreatedAt = now
	return nil
}

// DeleteLunchBreak removes a blocked interval.
func (db *DB) DeleteLunchBreak(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, "DELETE FROM lunch_breaks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete lunch break %d: %w", id, err)
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
