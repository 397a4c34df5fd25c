package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"navalha/internal/models"
)

// DefaultScheduleConfig provides the working window applied when a barber
// has no explicit schedule yet. Monday through Saturday; Sunday stays off.
var DefaultScheduleConfig = struct {
	StartTime string
	EndTime   string
	Days      []int
}{
	StartTime: "09:00",
	EndTime:   "18:00",
	Days:      []int{1, 2, 3, 4, 5, 6},
}

// EnsureDefaultSchedules creates default weekly schedules for all active
// barbers that do not have one yet.
func (db *DB) EnsureDefaultSchedules(ctx context.Context) error {
	barbers, err := db.ListActiveBarbers(ctx)
	if err != nil {
		return fmt.Errorf("list barbers: %w", err)
	}

	for _, barber := range barbers {
		for _, dayOfWeek := range DefaultScheduleConfig.Days {
			exists, err := db.scheduleExists(ctx, barber.ID, dayOfWeek)
			if err != nil {
				return fmt.Errorf("check schedule: %w", err)
			}
			if exists {
				continue
			}

			sched := &models.WeeklySchedule{
				BarberID:  barber.ID,
				DayOfWeek: dayOfWeek,
				StartTime: DefaultScheduleConfig.StartTime,
				EndTime:   DefaultScheduleConfig.EndTime,
				IsActive:  true,
			}
			if err := db.UpsertSchedule(ctx, sched); err != nil {
				return fmt.Errorf("create schedule for barber %d day %d: %w", barber.ID, dayOfWeek, err)
			}
		}
	}
	return nil
}

func (db *DB) scheduleExists(ctx context.Context, barberID int64, dayOfWeek int) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM weekly_schedules WHERE barber_id = ? AND day_of_week = ?",
		barberID, dayOfWeek,
	).Scan(&count)
	return count > 0, err
}

// GetScheduleByDay returns the active schedule for a barber on one weekday.
// ErrNotFound means the barber does not work that day; callers must not
// generate slots in that case.
func (db *DB) GetScheduleByDay(ctx context.Context, barberID int64, dayOfWeek int) (*models.WeeklySchedule, error) {
	var s models.WeeklySchedule
	err := db.QueryRowContext(ctx, `
		SELECT id, barber_id, day_of_week, start_time, end_time, is_active, created_at, updated_at
		FROM weekly_schedules
		WHERE barber_id = ? AND day_of_week = ? AND is_active = 1
		LIMIT 1`,
		barberID, dayOfWeek,
	).Scan(&s.ID, &s.BarberID, &s.DayOfWeek, &s.StartTime, &s.EndTime,
		&s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule for barber %d day %d: %w", barberID, dayOfWeek, err)
	}
	return &s, nil
}

// ListSchedules returns all schedule rows for a barber, including inactive
// ones, ordered by weekday.
func (db *DB) ListSchedules(ctx context.Context, barberID int64) ([]models.WeeklySchedule, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, barber_id, day_of_week, start_time, end_time, is_active, created_at, updated_at
		FROM weekly_schedules
		WHERE barber_id = ?
		ORDER BY day_of_week`,
		barberID,
	)
	if err != nil {
		return nil, fmt.Errorf("list schedules for barber %d: %w", barberID, err)
	}
	defer rows.Close()

	var schedules []models.WeeklySchedule
	for rows.Next() {
		var s models.WeeklySchedule
		if err := rows.Scan(&s.ID, &s.BarberID, &s.DayOfWeek, &s.StartTime, &s.EndTime,
			&s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}

// UpsertSchedule creates or replaces the schedule for one barber weekday.
func (db *DB) UpsertSchedule(ctx context.Context, s *models.WeeklySchedule) error {
	if err := s.Validate(); err != nil {
		return err
	}
	now := time.Now()
	_, err := db.ExecContext(ctx, `
		INSERT INTO weekly_schedules (barber_id, day_of_week, start_time, end_time, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(barber_id, day_of_week) DO UPDATE SET
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at`,
		s.BarberID, s.DayOfWeek, s.StartTime, s.EndTime, s.IsActive, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert schedule: %w", err)
	}
	return nil
}

// SetDayOff deactivates the schedule for one barber weekday.
func (db *DB) SetDayOff(ctx context.Context, barberID int64, dayOfWeek int) error {
	res, err := db.ExecContext(ctx, `
		UPDATE weekly_schedules SET is_active = 0, updated_at = ?
		WHERE barber_id = ? AND day_of_week = ?`,
		time.Now(), barberID, dayOfWeek,
	)
	if err != nil {
		return fmt.Errorf("set day off: %w", err)
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
