package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"navalha/internal/models"
)

// ListActiveServices returns services currently offered.
func (db *DB) ListActiveServices(ctx context.Context) ([]models.Service, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, duration_minutes, price, is_active, created_at, updated_at
		FROM services
		WHERE is_active = 1
		ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var services []models.Service
	for rows.Next() {
		var s models.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.DurationMinutes, &s.Price,
			&s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

// GetService returns a service by id.
func (db *DB) GetService(ctx context.Context, id int64) (*models.Service, error) {
	var s models.Service
	err := db.QueryRowContext(ctx, `
		SELECT id, name, duration_minutes, price, is_active, created_at, updated_at
		FROM services WHERE id = ?`,
		id,
	).Scan(&s.ID, &s.Name, &s.DurationMinutes, &s.Price, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get service %d: %w", id, err)
	}
	return &s, nil
}

// CreateService inserts a service and fills in its id.
func (db *DB) CreateService(ctx context.Context, s *models.Service) error {
	if s.DurationMinutes <= 0 {
		return fmt.Errorf("duration_minutes must be positive, got %d", s.DurationMinutes)
	}
	now := time.Now()
	res, err := db.ExecContext(ctx, `
		INSERT INTO services (name, duration_minutes, price, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.Name, s.DurationMinutes, s.Price, true, now, now,
	)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	s.ID, err = res.LastInsertId()
	if err != nil {
		return err
	}
	s.IsActive = true
	s.CreatedAt = now
	s.UpdatedAt = now
	return nil
}

// UpdateService updates name, duration and price.
func (db *DB) UpdateService(ctx context.Context, s *models.Service) error {
	if s.DurationMinutes <= 0 {
		return fmt.Errorf("duration_minutes must be positive, got %d", s.DurationMinutes)
	}
	res, err := db.ExecContext(ctx, `
		UPDATE services
		SET name = ?, duration_minutes = ?, price = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		s.Name, s.DurationMinutes, s.Price, s.IsActive, time.Now(), s.ID,
	)
	if err != nil {
		return fmt.Errorf("update service %d: %w", s.ID, err)
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

// DeactivateService hides a service from booking without deleting history.
func (db *DB) DeactivateService(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx,
		"UPDATE services SET is_active = 0, updated_at = ? WHERE id = ?",
		time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("deactivate service %d: %w", id, err)
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
