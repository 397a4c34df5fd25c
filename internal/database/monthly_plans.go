package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"navalha/internal/models"
)

// ListActivePlanSlots returns the recurring slots of all active plans for a
// barber that fall on the given weekday, flattened for the slot generator.
func (db *DB) ListActivePlanSlots(ctx context.Context, barberID int64, dayOfWeek int) ([]models.RecurringSlot, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT s.day_of_week, s.time
		FROM monthly_plan_slots s
		JOIN monthly_plans p ON p.id = s.plan_id
		WHERE p.barber_id = ? AND p.active = 1 AND s.day_of_week = ?
		ORDER BY s.time`,
		barberID, dayOfWeek,
	)
	if err != nil {
		return nil, fmt.Errorf("list plan slots: %w", err)
	}
	defer rows.Close()

	var slots []models.RecurringSlot
	for rows.Next() {
		var s models.RecurringSlot
		if err := rows.Scan(&s.DayOfWeek, &s.Time); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// ListPlans returns all plans for a barber with their recurring slots.
func (db *DB) ListPlans(ctx context.Context, barberID int64) ([]models.MonthlyPlan, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, barber_id, client_name, client_phone, active, created_at, updated_at
		FROM monthly_plans
		WHERE barber_id = ?
		ORDER BY client_name`,
		barberID,
	)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var plans []models.MonthlyPlan
	for rows.Next() {
		var p models.MonthlyPlan
		if err := rows.Scan(&p.ID, &p.BarberID, &p.ClientName, &p.ClientPhone,
			&p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range plans {
		slots, err := db.planSlots(ctx, plans[i].ID)
		if err != nil {
			return nil, err
		}
		plans[i].RecurringSlots = slots
	}
	return plans, nil
}

// GetPlan returns a plan with its recurring slots.
func (db *DB) GetPlan(ctx context.Context, id int64) (*models.MonthlyPlan, error) {
	var p models.MonthlyPlan
	err := db.QueryRowContext(ctx, `
		SELECT id, barber_id, client_name, client_phone, active, created_at, updated_at
		FROM monthly_plans WHERE id = ?`,
		id,
	).Scan(&p.ID, &p.BarberID, &p.ClientName, &p.ClientPhone, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get plan %d: %w", id, err)
	}
	p.RecurringSlots, err = db.planSlots(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (db *DB) planSlots(ctx context.Context, planID int64) ([]models.RecurringSlot, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT day_of_week, time FROM monthly_plan_slots WHERE plan_id = ? ORDER BY day_of_week, time",
		planID,
	)
	if err != nil {
		return nil, fmt.Errorf("plan %d slots: %w", planID, err)
	}
	defer rows.Close()

	var slots []models.RecurringSlot
	for rows.Next() {
		var s models.RecurringSlot
		if err := rows.Scan(&s.DayOfWeek, &s.Time); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// CreatePlan inserts a plan with its recurring slots in one transaction.
func (db *DB) CreatePlan(ctx context.Context, p *models.MonthlyPlan) error {
	if err := p.Validate(); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO monthly_plans (barber_id, client_name, client_phone, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.BarberID, p.ClientName, p.ClientPhone, true, now, now,
	)
	if err != nil {
		return fmt.Errorf("create plan: %w", err)
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return err
	}

	for _, slot := range p.RecurringSlots {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO monthly_plan_slots (plan_id, day_of_week, time) VALUES (?, ?, ?)",
			p.ID, slot.DayOfWeek, slot.Time,
		); err != nil {
			return fmt.Errorf("create plan slot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit plan: %w", err)
	}
	p.Active = true
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

// UpdatePlan replaces the plan's fields and its recurring slots.
func (db *DB) UpdatePlan(ctx context.Context, p *models.MonthlyPlan) error {
	if err := p.Validate(); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE monthly_plans
		SET client_name = ?, client_phone = ?, active = ?, updated_at = ?
		WHERE id = ?`,
		p.ClientName, p.ClientPhone, p.Active, time.Now(), p.ID,
	)
	if err != nil {
		return fmt.Errorf("update plan %d: %w", p.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM monthly_plan_slots WHERE plan_id = ?", p.ID); err != nil {
		return fmt.Errorf("clear plan slots: %w", err)
	}
	for _, slot := range p.RecurringSlots {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO monthly_plan_slots (plan_id, day_of_week, time) VALUES (?, ?, ?)",
			p.ID, slot.DayOfWeek, slot.Time,
		); err != nil {
			return fmt.Errorf("create plan slot: %w", err)
		}
	}

	return tx.Commit()
}

// SetPlanActive toggles a plan without touching its slots. Inactive plans
// stop reserving their recurring slots immediately.
func (db *DB) SetPlanActive(ctx context.Context, id int64, active bool) error {
	res, err := db.ExecContext(ctx,
		"UPDATE monthly_plans SET active = ?, updated_at = ? WHERE id = ?",
		active, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("set plan %d active=%v: %w", id, active, err)
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

// DeletePlan removes a plan and its slots.
func (db *DB) DeletePlan(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, "DELETE FROM monthly_plans WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete plan %d: %w", id, err)
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
