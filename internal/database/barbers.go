package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"navalha/internal/models"
)

// ListActiveBarbers returns barbers currently taking bookings.
func (db *DB) ListActiveBarbers(ctx context.Context) ([]models.Barber, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, specialty, experience, rating, phone, email,
		       is_active, created_at, updated_at
		FROM barbers
		WHERE is_active = 1
		ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("list barbers: %w", err)
	}
	defer rows.Close()

	var barbers []models.Barber
	for rows.Next() {
		b, err := scanBarber(rows)
		if err != nil {
			return nil, err
		}
		barbers = append(barbers, *b)
	}
	return barbers, rows.Err()
}

// GetBarber returns a barber by id.
func (db *DB) GetBarber(ctx context.Context, id int64) (*models.Barber, error) {
	var b models.Barber
	var specialty, experience, phone, email sql.NullString
	err := db.QueryRowContext(ctx, `
		SELECT id, name, specialty, experience, rating, phone, email,
		       is_active, created_at, updated_at
		FROM barbers WHERE id = ?`,
		id,
	).Scan(
		&b.ID, &b.Name, &specialty, &experience, &b.Rating, &phone, &email,
		&b.IsActive, &b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get barber %d: %w", id, err)
	}
	b.Specialty = specialty.String
	b.Experience = experience.String
	b.Phone = phone.String
	b.Email = email.String
	return &b, nil
}

// CreateBarber inserts a barber and fills in its id.
func (db *DB) CreateBarber(ctx context.Context, b *models.Barber) error {
	now := time.Now()
	res, err := db.ExecContext(ctx, `
		INSERT INTO barbers (name, specialty, experience, rating, phone, email, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.Name, b.Specialty, b.Experience, b.Rating, b.Phone, b.Email, true, now, now,
	)
	if err != nil {
		return fmt.Errorf("create barber: %w", err)
	}
	b.ID, err = res.LastInsertId()
	if err != nil {
		return err
	}
	b.IsActive = true
	b.CreatedAt = now
	b.UpdatedAt = now
	return nil
}

// UpdateBarber updates a barber's profile fields.
func (db *DB) UpdateBarber(ctx context.Context, b *models.Barber) error {
	res, err := db.ExecContext(ctx, `
		UPDATE barbers
		SET name = ?, specialty = ?, experience = ?, rating = ?, phone = ?, email = ?,
		    is_active = ?, updated_at = ?
		WHERE id = ?`,
		b.Name, b.Specialty, b.Experience, b.Rating, b.Phone, b.Email,
		b.IsActive, time.Now(), b.ID,
	)
	if err != nil {
		return fmt.Errorf("update barber %d: %w", b.ID, err)
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

// DeactivateBarber hides a barber from booking without deleting history.
func (db *DB) DeactivateBarber(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx,
		"UPDATE barbers SET is_active = 0, updated_at = ? WHERE id = ?",
		time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("deactivate barber %d: %w", id, err)
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

func scanBarber(rows *sql.Rows) (*models.Barber, error) {
	var b models.Barber
	var specialty, experience, phone, email sql.NullString
	if err := rows.Scan(
		&b.ID, &b.Name, &specialty, &experience, &b.Rating, &phone, &email,
		&b.IsActive, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	b.Specialty = specialty.String
	b.Experience = experience.String
	b.Phone = phone.String
	b.Email = email.String
	return &b, nil
}
