package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"navalha/internal/models"
)

// CreateBooking inserts a booking after re-checking the slot inside a
// transaction. Slot computation happens outside the database, so two clients
// can race for the same slot; the conflict check and insert run atomically
// and the loser gets ErrSlotTaken.
func (db *DB) CreateBooking(ctx context.Context, b *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var count int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE barber_id = ?
		AND start_time < ? AND end_time > ?
		AND status != 'canceled'`,
		b.BarberID, b.EndTime, b.StartTime,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("check slot: %w", err)
	}
	if count > 0 {
		return ErrSlotTaken
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO bookings (
			id, user_id, service_id, service_name, duration_minutes,
			barber_id, barber_name, start_time, end_time,
			client_name, client_phone, status, price, reminder_sent,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		b.ID, b.UserID, b.ServiceID, b.ServiceName, b.DurationMinutes,
		b.BarberID, b.BarberName, b.StartTime, b.EndTime,
		b.ClientName, b.ClientPhone, b.Status, b.Price,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit booking: %w", err)
	}
	b.CreatedAt = now
	b.UpdatedAt = now
	return nil
}

// GetBooking returns a booking by id.
func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, user_id, service_id, service_name, duration_minutes,
		       barber_id, barber_name, start_time, end_time,
		       client_name, client_phone, status, price, reminder_sent,
		       created_at, updated_at
		FROM bookings WHERE id = ?`,
		id,
	)
	b, err := scanBookingRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking %s: %w", id, err)
	}
	return b, nil
}

// GetBookingsForBarberOnDate returns the non-canceled bookings that overlap
// the given calendar day, ordered by start time. Exactly the snapshot the
// slot generator needs.
func (db *DB) GetBookingsForBarberOnDate(ctx context.Context, barberID int64, date time.Time) ([]models.Booking, error) {
	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, service_id, service_name, duration_minutes,
		       barber_id, barber_name, start_time, end_time,
		       client_name, client_phone, status, price, reminder_sent,
		       created_at, updated_at
		FROM bookings
		WHERE barber_id = ?
		AND start_time < ? AND end_time > ?
		AND status != 'canceled'
		ORDER BY start_time`,
		barberID, endOfDay, startOfDay,
	)
	if err != nil {
		return nil, fmt.Errorf("bookings for barber %d: %w", barberID, err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

// ListBookingsForUser returns a user's bookings, newest first.
func (db *DB) ListBookingsForUser(ctx context.Context, userID string) ([]models.Booking, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, service_id, service_name, duration_minutes,
		       barber_id, barber_name, start_time, end_time,
		       client_name, client_phone, status, price, reminder_sent,
		       created_at, updated_at
		FROM bookings
		WHERE user_id = ?
		ORDER BY start_time DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("bookings for user %s: %w", userID, err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

// ListBookingsInRange returns all bookings starting within [from, to),
// for reports and exports.
func (db *DB) ListBookingsInRange(ctx context.Context, from, to time.Time) ([]models.Booking, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, service_id, service_name, duration_minutes,
		       barber_id, barber_name, start_time, end_time,
		       client_name, client_phone, status, price, reminder_sent,
		       created_at, updated_at
		FROM bookings
		WHERE start_time >= ? AND start_time < ?
		ORDER BY start_time`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("bookings in range: %w", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

// CancelBooking marks a booking canceled, freeing its slot.
func (db *DB) CancelBooking(ctx context.Context, id string) error {
	return db.setBookingStatus(ctx, id, models.StatusCanceled)
}

// CompleteBooking marks a booking completed after the visit.
func (db *DB) CompleteBooking(ctx context.Context, id string) error {
	return db.setBookingStatus(ctx, id, models.StatusCompleted)
}

func (db *DB) setBookingStatus(ctx context.Context, id, status string) error {
	res, err := db.ExecContext(ctx,
		"UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("set booking %s status %s: %w", id, status, err)
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

// GetUpcomingBookings returns confirmed bookings starting within the window
// that have not been reminded yet.
func (db *DB) GetUpcomingBookings(ctx context.Context, within time.Duration) ([]models.Booking, error) {
	now := time.Now()
	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, service_id, service_name, duration_minutes,
		       barber_id, barber_name, start_time, end_time,
		       client_name, client_phone, status, price, reminder_sent,
		       created_at, updated_at
		FROM bookings
		WHERE status = 'confirmed'
		AND reminder_sent = 0
		AND start_time > ? AND start_time <= ?
		ORDER BY start_time`,
		now, now.Add(within),
	)
	if err != nil {
		return nil, fmt.Errorf("upcoming bookings: %w", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

// MarkReminderSent records that the reminder for a booking went out.
func (db *DB) MarkReminderSent(ctx context.Context, id string) error {
	_, err := db.ExecContext(ctx,
		"UPDATE bookings SET reminder_sent = 1, updated_at = ? WHERE id = ?",
		time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("mark reminder sent %s: %w", id, err)
	}
	return nil
}

// CleanupBookings removes malformed rows that would confuse slot generation
// or reporting. Returns the number of rows removed.
func (db *DB) CleanupBookings(ctx context.Context) (int64, error) {
	res, err := db.ExecContext(ctx, `
		DELETE FROM bookings
		WHERE trim(service_name) = '' OR trim(client_name) = '' OR trim(barber_name) = ''`,
	)
	if err != nil {
		return 0, fmt.Errorf("cleanup bookings: %w", err)
	}
	return res.RowsAffected()
}

func collectBookings(rows *sql.Rows) ([]models.Booking, error) {
	var bookings []models.Booking
	for rows.Next() {
		var b models.Booking
		if err := rows.Scan(
			&b.ID, &b.UserID, &b.ServiceID, &b.ServiceName, &b.DurationMinutes,
			&b.BarberID, &b.BarberName, &b.StartTime, &b.EndTime,
			&b.ClientName, &b.ClientPhone, &b.Status, &b.Price, &b.ReminderSent,
			&b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func scanBookingRow(row *sql.Row) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(
		&b.ID, &b.UserID, &b.ServiceID, &b.ServiceName, &b.DurationMinutes,
		&b.BarberID, &b.BarberName, &b.StartTime, &b.EndTime,
		&b.ClientName, &b.ClientPhone, &b.Status, &b.Price, &b.ReminderSent,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
