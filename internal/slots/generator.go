// Package slots computes bookable time slots for a barber on a date.
//
// The generator is pure: it performs no I/O, treats its inputs as an
// immutable snapshot and is re-invoked by callers whenever bookings,
// breaks or plans change.
package slots

import (
	"time"

	"navalha/internal/models"
)

// Defaults applied when an option is absent or malformed.
const (
	DefaultWorkStart = "09:00"
	DefaultWorkEnd   = "18:00"
	DefaultGridStep  = 30 // minutes
)

// Options configures the working window and candidate grid.
type Options struct {
	WorkStart       string // "09:00"
	WorkEnd         string // "18:00"
	GridStepMinutes int    // fixed step between candidate starts
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		WorkStart:       DefaultWorkStart,
		WorkEnd:         DefaultWorkEnd,
		GridStepMinutes: DefaultGridStep,
	}
}

// Generate returns the chronological sequence of available slot starts for a
// service of durationMinutes on date. A slot is the half-open interval
// [start, start+duration); touching endpoints do not conflict.
//
// Inputs are expected pre-filtered by the caller: bookings to the same
// barber overlapping the date, breaks to the same barber and exact date,
// recurring to the plan slots whose day-of-week matches the date.
//
// Unparseable work window strings fall back to 09:00/18:00. A window whose
// start is not before its end yields an empty sequence.
func Generate(
	date time.Time,
	durationMinutes int,
	bookings []models.Booking,
	breaks []models.LunchBreak,
	recurring []models.RecurringSlot,
	opts Options,
) []time.Time {
	if durationMinutes <= 0 {
		durationMinutes = DefaultGridStep
	}
	step := opts.GridStepMinutes
	if step <= 0 {
		step = DefaultGridStep
	}

	// All candidates are anchored to the date's midnight in local time.
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	workStart := clockOrDefault(midnight, opts.WorkStart, DefaultWorkStart)
	workEnd := clockOrDefault(midnight, opts.WorkEnd, DefaultWorkEnd)
	if !workStart.Before(workEnd) {
		return nil
	}

	duration := time.Duration(durationMinutes) * time.Minute
	stepDur := time.Duration(step) * time.Minute

	blocked := breakIntervals(midnight, breaks)
	reserved := recurringStarts(midnight, recurring)

	var out []time.Time
	for cursor := workStart; cursor.Before(workEnd); cursor = cursor.Add(stepDur) {
		slotStart := cursor
		slotEnd := cursor.Add(duration)

		// Intervals only move later, so the first overrun ends generation.
		if slotEnd.After(workEnd) {
			break
		}

		if overlapsAny(slotStart, slotEnd, blocked) {
			continue
		}
		if overlapsBooking(slotStart, slotEnd, bookings) {
			continue
		}
		if startsReserved(slotStart, reserved) {
			continue
		}

		out = append(out, slotStart)
	}
	return out
}

type interval struct {
	start, end time.Time
}

func breakIntervals(midnight time.Time, breaks []models.LunchBreak) []interval {
	var out []interval
	for _, lb := range breaks {
		start, err := models.ClockOnDate(midnight, lb.StartTime)
		if err != nil {
			continue
		}
		end, err := models.ClockOnDate(midnight, lb.EndTime)
		if err != nil {
			continue
		}
		out = append(out, interval{start: start, end: end})
	}
	return out
}

func recurringStarts(midnight time.Time, recurring []models.RecurringSlot) []time.Time {
	var out []time.Time
	for _, slot := range recurring {
		start, err := models.ClockOnDate(midnight, slot.Time)
		if err != nil {
			continue
		}
		out = append(out, start)
	}
	return out
}

func overlapsAny(start, end time.Time, blocked []interval) bool {
	for _, iv := range blocked {
		if start.Before(iv.end) && iv.start.Before(end) {
			return true
		}
	}
	return false
}

func overlapsBooking(start, end time.Time, bookings []models.Booking) bool {
	for _, b := range bookings {
		if start.Before(b.EndTime) && b.StartTime.Before(end) {
			return true
		}
	}
	return false
}

// A recurring plan reserves the exact grid slot it names, so the check is
// start equality, not overlap.
func startsReserved(start time.Time, reserved []time.Time) bool {
	for _, r := range reserved {
		if start.Equal(r) {
			return true
		}
	}
	return false
}

func clockOrDefault(midnight time.Time, s, fallback string) time.Time {
	t, err := models.ClockOnDate(midnight, s)
	if err != nil {
		t, _ = models.ClockOnDate(midnight, fallback)
	}
	return t
}
