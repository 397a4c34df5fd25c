package slots

import (
	"testing"
	"time"

	"navalha/internal/models"
)

// 2024-06-03 is a Monday.
var monday = time.Date(2024, 6, 3, 0, 0, 0, 0, time.Local)

func at(hour, min int) time.Time {
	return time.Date(monday.Year(), monday.Month(), monday.Day(), hour, min, 0, 0, monday.Location())
}

func booking(startHour, startMin, endHour, endMin int) models.Booking {
	return models.Booking{
		StartTime: at(startHour, startMin),
		EndTime:   at(endHour, endMin),
		Status:    models.StatusConfirmed,
	}
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name      string
		duration  int
		bookings  []models.Booking
		breaks    []models.LunchBreak
		recurring []models.RecurringSlot
		opts      Options
		expected  []time.Time
	}{
		{
			name:     "morning window no conflicts",
			duration: 30,
			opts:     Options{WorkStart: "09:00", WorkEnd: "11:00", GridStepMinutes: 30},
			expected: []time.Time{at(9, 0), at(9, 30), at(10, 0), at(10, 30)},
		},
		{
			name:     "booking lunch and recurring plan excluded",
			duration: 30,
			opts:     Options{WorkStart: "09:00", WorkEnd: "12:00", GridStepMinutes: 30},
			bookings: []models.Booking{booking(9, 30, 10, 0)},
			breaks: []models.LunchBreak{
				{Date: "2024-06-03", StartTime: "11:00", EndTime: "11:30"},
			},
			recurring: []models.RecurringSlot{{DayOfWeek: 1, Time: "10:30"}},
			// 09:30 booked, 10:30 reserved, 11:00 lunch; 11:30 survives
			// because its end equals the work end exactly.
			expected: []time.Time{at(9, 0), at(10, 0), at(11, 30)},
		},
		{
			name:     "60 minute service on 30 minute grid",
			duration: 60,
			opts:     Options{WorkStart: "09:00", WorkEnd: "11:00", GridStepMinutes: 30},
			expected: []time.Time{at(9, 0), at(9, 30), at(10, 0)},
		},
		{
			name:     "60 minute service spanning a booking",
			duration: 60,
			opts:     Options{WorkStart: "09:00", WorkEnd: "12:00", GridStepMinutes: 30},
			bookings: []models.Booking{booking(10, 0, 10, 30)},
			// 09:30 and 10:00 would overlap the booking mid-span.
			expected: []time.Time{at(9, 0), at(10, 30), at(11, 0)},
		},
		{
			name:     "touching endpoints do not conflict",
			duration: 30,
			opts:     Options{WorkStart: "09:00", WorkEnd: "10:30", GridStepMinutes: 30},
			bookings: []models.Booking{booking(9, 30, 10, 0)},
			expected: []time.Time{at(9, 0), at(10, 0)},
		},
		{
			name:     "degenerate window yields empty",
			duration: 30,
			opts:     Options{WorkStart: "10:00", WorkEnd: "09:00", GridStepMinutes: 30},
			expected: nil,
		},
		{
			name:     "equal start and end yields empty",
			duration: 30,
			opts:     Options{WorkStart: "09:00", WorkEnd: "09:00", GridStepMinutes: 30},
			expected: nil,
		},
		{
			name:     "service longer than window yields empty",
			duration: 120,
			opts:     Options{WorkStart: "09:00", WorkEnd: "10:00", GridStepMinutes: 30},
			expected: nil,
		},
		{
			name:     "fully booked day yields empty",
			duration: 30,
			opts:     Options{WorkStart: "09:00", WorkEnd: "10:00", GridStepMinutes: 30},
			bookings: []models.Booking{booking(9, 0, 10, 0)},
			expected: nil,
		},
		{
			name:      "recurring plan only blocks exact starts",
			duration:  30,
			opts:      Options{WorkStart: "09:00", WorkEnd: "10:30", GridStepMinutes: 30},
			recurring: []models.RecurringSlot{{DayOfWeek: 1, Time: "09:30"}},
			expected:  []time.Time{at(9, 0), at(10, 0)},
		},
		{
			name:      "off-grid recurring time never matches",
			duration:  30,
			opts:      Options{WorkStart: "09:00", WorkEnd: "10:00", GridStepMinutes: 30},
			recurring: []models.RecurringSlot{{DayOfWeek: 1, Time: "09:15"}},
			expected:  []time.Time{at(9, 0), at(9, 30)},
		},
		{
			name:     "malformed work start falls back to default",
			duration: 30,
			opts:     Options{WorkStart: "not-a-time", WorkEnd: "10:00", GridStepMinutes: 30},
			expected: []time.Time{at(9, 0), at(9, 30)},
		},
		{
			name:     "empty options use defaults",
			duration: 30,
			opts:     Options{},
			bookings: []models.Booking{booking(9, 0, 18, 0)},
			expected: nil,
		},
		{
			name:     "malformed lunch break is ignored",
			duration: 30,
			opts:     Options{WorkStart: "09:00", WorkEnd: "10:00", GridStepMinutes: 30},
			breaks: []models.LunchBreak{
				{Date: "2024-06-03", StartTime: "nope", EndTime: "09:30"},
			},
			expected: []time.Time{at(9, 0), at(9, 30)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Generate(monday, tt.duration, tt.bookings, tt.breaks, tt.recurring, tt.opts)

			if len(got) != len(tt.expected) {
				t.Fatalf("expected %d slots, got %d: %v", len(tt.expected), len(got), got)
			}
			for i, want := range tt.expected {
				if !got[i].Equal(want) {
					t.Errorf("slot %d: expected %s, got %s", i, want.Format("15:04"), got[i].Format("15:04"))
				}
			}
		})
	}
}

func TestGenerate_SpecScenario(t *testing.T) {
	// Monday 09:00-12:00, 30-minute service, one booking 09:30-10:00,
	// lunch 11:00-11:30, recurring plan slot at 10:30.
	got := Generate(
		monday,
		30,
		[]models.Booking{booking(9, 30, 10, 0)},
		[]models.LunchBreak{{Date: "2024-06-03", StartTime: "11:00", EndTime: "11:30"}},
		[]models.RecurringSlot{{DayOfWeek: 1, Time: "10:30"}},
		Options{WorkStart: "09:00", WorkEnd: "12:00", GridStepMinutes: 30},
	)

	want := []time.Time{at(9, 0), at(10, 0), at(11, 30)}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("slot %d: expected %s, got %s", i, want[i].Format("15:04"), got[i].Format("15:04"))
		}
	}
}

func TestGenerate_NoOverlapProperties(t *testing.T) {
	bookings := []models.Booking{
		booking(9, 30, 10, 30),
		booking(14, 0, 15, 0),
	}
	breaks := []models.LunchBreak{
		{Date: "2024-06-03", StartTime: "12:00", EndTime: "13:00"},
	}
	opts := Options{WorkStart: "09:00", WorkEnd: "18:00", GridStepMinutes: 30}

	for _, duration := range []int{30, 40, 60, 90} {
		got := Generate(monday, duration, bookings, breaks, nil, opts)
		workStart := at(9, 0)
		workEnd := at(18, 0)

		for _, s := range got {
			end := s.Add(time.Duration(duration) * time.Minute)

			if s.Before(workStart) || end.After(workEnd) {
				t.Errorf("duration %d: slot %s not contained in working window", duration, s.Format("15:04"))
			}
			if offset := s.Sub(workStart); offset%(30*time.Minute) != 0 {
				t.Errorf("duration %d: slot %s not aligned to 30-minute grid", duration, s.Format("15:04"))
			}
			for _, b := range bookings {
				if s.Before(b.EndTime) && b.StartTime.Before(end) {
					t.Errorf("duration %d: slot %s overlaps booking %s-%s",
						duration, s.Format("15:04"), b.StartTime.Format("15:04"), b.EndTime.Format("15:04"))
				}
			}
			if s.Before(at(13, 0)) && at(12, 0).Before(end) {
				t.Errorf("duration %d: slot %s overlaps lunch break", duration, s.Format("15:04"))
			}
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	bookings := []models.Booking{booking(10, 0, 11, 0)}
	breaks := []models.LunchBreak{{Date: "2024-06-03", StartTime: "12:00", EndTime: "13:00"}}
	recurring := []models.RecurringSlot{{DayOfWeek: 1, Time: "15:00"}}
	opts := Options{WorkStart: "09:00", WorkEnd: "18:00", GridStepMinutes: 30}

	first := Generate(monday, 30, bookings, breaks, recurring, opts)
	second := Generate(monday, 30, bookings, breaks, recurring, opts)

	if len(first) != len(second) {
		t.Fatalf("runs differ in length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Equal(second[i]) {
			t.Errorf("slot %d differs between runs: %s vs %s",
				i, first[i].Format("15:04"), second[i].Format("15:04"))
		}
	}
}

func TestGenerate_MalformedFallbackMatchesDefault(t *testing.T) {
	withDefault := Generate(monday, 30, nil, nil, nil,
		Options{WorkStart: "09:00", WorkEnd: "18:00", GridStepMinutes: 30})
	withMalformed := Generate(monday, 30, nil, nil, nil,
		Options{WorkStart: "not-a-time", WorkEnd: "18:00", GridStepMinutes: 30})

	if len(withDefault) != len(withMalformed) {
		t.Fatalf("fallback output differs: %d vs %d slots", len(withDefault), len(withMalformed))
	}
	for i := range withDefault {
		if !withDefault[i].Equal(withMalformed[i]) {
			t.Errorf("slot %d differs: %s vs %s",
				i, withDefault[i].Format("15:04"), withMalformed[i].Format("15:04"))
		}
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if opts.WorkStart != "09:00" || opts.WorkEnd != "18:00" || opts.GridStepMinutes != 30 {
		t.Errorf("unexpected defaults: %+v", opts)
	}
}
