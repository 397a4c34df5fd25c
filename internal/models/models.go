package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Barber is a staff member clients can book with.
type Barber struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Specialty  string    `json:"specialty,omitempty"`
	Experience string    `json:"experience,omitempty"`
	Rating     float64   `json:"rating,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Email      string    `json:"email,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Service is a bookable service with a fixed duration and price.
type Service struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"duration_minutes"`
	Price           float64   `json:"price"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// WeeklySchedule defines the working window of a barber on one weekday.
// Absent or inactive rows mean the barber does not work that day.
type WeeklySchedule struct {
	ID        int64     `json:"id"`
	BarberID  int64     `json:"barber_id"`
	DayOfWeek int       `json:"day_of_week"` // 0-6 (Sunday-Saturday)
	StartTime string    `json:"start_time"`  // "09:00"
	EndTime   string    `json:"end_time"`    // "18:00"
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LunchBreak is an ad-hoc blocked interval for one barber on one specific
// date, independent of the weekly schedule.
type LunchBreak struct {
	ID        int64     `json:"id"`
	BarberID  int64     `json:"barber_id"`
	Date      string    `json:"date"`       // "2006-01-02"
	StartTime string    `json:"start_time"` // "12:00"
	EndTime   string    `json:"end_time"`   // "13:00"
	CreatedAt time.Time `json:"created_at"`
}

// RecurringSlot names a weekly reserved slot inside a monthly plan.
type RecurringSlot struct {
	DayOfWeek int    `json:"day_of_week"` // 0-6
	Time      string `json:"time"`        // "20:00"
}

// MonthlyPlan is a standing reservation: every week, on each recurring
// slot's day-of-week and exact time, the slot is held for the plan's client
// whether or not a concrete booking exists for that week.
type MonthlyPlan struct {
	ID             int64           `json:"id"`
	BarberID       int64           `json:"barber_id"`
	ClientName     string          `json:"client_name"`
	ClientPhone    string          `json:"client_phone"`
	Active         bool            `json:"active"`
	RecurringSlots []RecurringSlot `json:"recurring_slots"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Booking statuses.
const (
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCanceled  = "canceled"
)

// Booking is an occupied interval for one barber.
type Booking struct {
	ID              string    `json:"id"` // uuid
	UserID          string    `json:"user_id"`
	ServiceID       int64     `json:"service_id"`
	ServiceName     string    `json:"service_name"`
	DurationMinutes int       `json:"duration_minutes"`
	BarberID        int64     `json:"barber_id"`
	BarberName      string    `json:"barber_name"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	ClientName      string    `json:"client_name"`
	ClientPhone     string    `json:"client_phone"`
	Status          string    `json:"status"`
	Price           float64   `json:"price"`
	ReminderSent    bool      `json:"reminder_sent"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Duration returns the booked interval length.
func (b *Booking) Duration() time.Duration {
	return b.EndTime.Sub(b.StartTime)
}

// OverlapsWith checks if this booking overlaps another.
// Half-open [start, end) semantics: touching endpoints do not conflict.
func (b *Booking) OverlapsWith(other *Booking) bool {
	return b.StartTime.Before(other.EndTime) && other.StartTime.Before(b.EndTime)
}

// ContainsTime reports whether t falls inside the booked interval.
func (b *Booking) ContainsTime(t time.Time) bool {
	return !t.Before(b.StartTime) && t.Before(b.EndTime)
}

// IsActive reports whether the booking still occupies its slot.
func (b *Booking) IsActive() bool {
	return b.Status != StatusCanceled
}

// ValidStatus reports whether s is a known booking status.
func ValidStatus(s string) bool {
	switch s {
	case StatusConfirmed, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

// ParseClock parses a "HH:MM" wall-clock string into hour and minute.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("invalid time format: %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid hour: %w", err)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid minute: %w", err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("time out of range: %q", s)
	}
	return hour, minute, nil
}

// ClockOnDate anchors a "HH:MM" string to the given calendar date in the
// date's location.
func ClockOnDate(date time.Time, s string) (time.Time, error) {
	hour, minute, err := ParseClock(s)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location()), nil
}

// Validate checks a weekly schedule row before it is stored.
func (s *WeeklySchedule) Validate() error {
	if s.BarberID <= 0 {
		return fmt.Errorf("barber_id is required")
	}
	if s.DayOfWeek < 0 || s.DayOfWeek > 6 {
		return fmt.Errorf("day_of_week must be 0-6, got %d", s.DayOfWeek)
	}
	if _, _, err := ParseClock(s.StartTime); err != nil {
		return fmt.Errorf("start_time: %w", err)
	}
	if _, _, err := ParseClock(s.EndTime); err != nil {
		return fmt.Errorf("end_time: %w", err)
	}
	return nil
}

// Validate checks a lunch break before it is stored.
func (lb *LunchBreak) Validate() error {
	if lb.BarberID <= 0 {
		return fmt.Errorf("barber_id is required")
	}
	if _, err := time.Parse("2006-01-02", lb.Date); err != nil {
		return fmt.Errorf("date: expected YYYY-MM-DD, got %q", lb.Date)
	}
	sh, sm, err := ParseClock(lb.StartTime)
	if err != nil {
		return fmt.Errorf("start_time: %w", err)
	}
	eh, em, err := ParseClock(lb.EndTime)
	if err != nil {
		return fmt.Errorf("end_time: %w", err)
	}
	if eh*60+em <= sh*60+sm {
		return fmt.Errorf("end_time must be after start_time")
	}
	return nil
}

// Validate checks a monthly plan before it is stored. Recurring slot times
// must sit on the 30-minute grid, otherwise the slot could never match a
// generated candidate and the reservation would silently not hold.
func (p *MonthlyPlan) Validate() error {
	if p.BarberID <= 0 {
		return fmt.Errorf("barber_id is required")
	}
	if strings.TrimSpace(p.ClientName) == "" {
		return fmt.Errorf("client_name is required")
	}
	if strings.TrimSpace(p.ClientPhone) == "" {
		return fmt.Errorf("client_phone is required")
	}
	if len(p.RecurringSlots) == 0 {
		return fmt.Errorf("at least one recurring slot is required")
	}
	for i, slot := range p.RecurringSlots {
		if slot.DayOfWeek < 0 || slot.DayOfWeek > 6 {
			return fmt.Errorf("slot %d: day_of_week must be 0-6, got %d", i, slot.DayOfWeek)
		}
		_, minute, err := ParseClock(slot.Time)
		if err != nil {
			return fmt.Errorf("slot %d: %w", i, err)
		}
		if minute%30 != 0 {
			return fmt.Errorf("slot %d: time %q is not aligned to the 30-minute grid", i, slot.Time)
		}
	}
	return nil
}

// SlotsForDay returns the plan's recurring slots matching the weekday.
func (p *MonthlyPlan) SlotsForDay(dayOfWeek int) []RecurringSlot {
	var out []RecurringSlot
	for _, slot := range p.RecurringSlots {
		if slot.DayOfWeek == dayOfWeek {
			out = append(out, slot)
		}
	}
	return out
}
