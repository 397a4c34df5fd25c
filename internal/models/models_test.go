package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func datetime(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

func TestBooking_Duration(t *testing.T) {
	b := Booking{
		StartTime: datetime(2026, 1, 15, 10, 0),
		EndTime:   datetime(2026, 1, 15, 11, 30),
	}
	assert.Equal(t, 90*time.Minute, b.Duration())
}

func TestBooking_OverlapsWith(t *testing.T) {
	existing := Booking{
		StartTime: datetime(2026, 1, 15, 10, 0),
		EndTime:   datetime(2026, 1, 15, 14, 0),
	}

	before := Booking{
		StartTime: datetime(2026, 1, 15, 8, 0),
		EndTime:   datetime(2026, 1, 15, 10, 0),
	}
	assert.False(t, existing.OverlapsWith(&before))

	after := Booking{
		StartTime: datetime(2026, 1, 15, 14, 0),
		EndTime:   datetime(2026, 1, 15, 16, 0),
	}
	assert.False(t, existing.OverlapsWith(&after))

	during := Booking{
		StartTime: datetime(2026, 1, 15, 12, 0),
		EndTime:   datetime(2026, 1, 15, 16, 0),
	}
	assert.True(t, existing.OverlapsWith(&during))

	contained := Booking{
		StartTime: datetime(2026, 1, 15, 11, 0),
		EndTime:   datetime(2026, 1, 15, 13, 0),
	}
	assert.True(t, existing.OverlapsWith(&contained))
}

func TestBooking_ContainsTime(t *testing.T) {
	b := Booking{
		StartTime: datetime(2026, 1, 15, 10, 0),
		EndTime:   datetime(2026, 1, 15, 14, 0),
	}

	assert.True(t, b.ContainsTime(datetime(2026, 1, 15, 10, 0)))
	assert.True(t, b.ContainsTime(datetime(2026, 1, 15, 12, 0)))
	assert.False(t, b.ContainsTime(datetime(2026, 1, 15, 14, 0)))
	assert.False(t, b.ContainsTime(datetime(2026, 1, 15, 9, 0)))
}

func TestBooking_IsActive(t *testing.T) {
	assert.True(t, (&Booking{Status: StatusConfirmed}).IsActive())
	assert.True(t, (&Booking{Status: StatusCompleted}).IsActive())
	assert.False(t, (&Booking{Status: StatusCanceled}).IsActive())
}

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus("confirmed"))
	assert.True(t, ValidStatus("completed"))
	assert.True(t, ValidStatus("canceled"))
	assert.False(t, ValidStatus("pending"))
	assert.False(t, ValidStatus(""))
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		input   string
		hour    int
		minute  int
		wantErr bool
	}{
		{"09:00", 9, 0, false},
		{"18:30", 18, 30, false},
		{"00:00", 0, 0, false},
		{"23:59", 23, 59, false},
		{"24:00", 0, 0, true},
		{"09:60", 0, 0, true},
		{"not-a-time", 0, 0, true},
		{"9", 0, 0, true},
		{"", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			h, m, err := ParseClock(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.hour, h)
			assert.Equal(t, tt.minute, m)
		})
	}
}

func TestClockOnDate(t *testing.T) {
	date := time.Date(2024, 6, 3, 15, 42, 7, 0, time.UTC)

	got, err := ClockOnDate(date, "09:30")
	assert.NoError(t, err)
	assert.Equal(t, datetime(2024, 6, 3, 9, 30), got)
}

func TestWeeklySchedule_Validate(t *testing.T) {
	valid := WeeklySchedule{BarberID: 1, DayOfWeek: 1, StartTime: "09:00", EndTime: "18:00"}
	assert.NoError(t, valid.Validate())

	badDay := valid
	badDay.DayOfWeek = 7
	assert.Error(t, badDay.Validate())

	badTime := valid
	badTime.StartTime = "nine"
	assert.Error(t, badTime.Validate())

	noBarber := valid
	noBarber.BarberID = 0
	assert.Error(t, noBarber.Validate())
}

func TestLunchBreak_Validate(t *testing.T) {
	valid := LunchBreak{BarberID: 1, Date: "2024-06-03", StartTime: "12:00", EndTime: "13:00"}
	assert.NoError(t, valid.Validate())

	badDate := valid
	badDate.Date = "03/06/2024"
	assert.Error(t, badDate.Validate())

	inverted := valid
	inverted.StartTime = "13:00"
	inverted.EndTime = "12:00"
	assert.Error(t, inverted.Validate())

	zeroLength := valid
	zeroLength.EndTime = "12:00"
	assert.Error(t, zeroLength.Validate())
}

func TestMonthlyPlan_Validate(t *testing.T) {
	valid := MonthlyPlan{
		BarberID:    1,
		ClientName:  "Carlos",
		ClientPhone: "11999990000",
		RecurringSlots: []RecurringSlot{
			{DayOfWeek: 1, Time: "20:00"},
			{DayOfWeek: 4, Time: "10:30"},
		},
	}
	assert.NoError(t, valid.Validate())

	offGrid := valid
	offGrid.RecurringSlots = []RecurringSlot{{DayOfWeek: 1, Time: "20:15"}}
	assert.Error(t, offGrid.Validate())

	noSlots := valid
	noSlots.RecurringSlots = nil
	assert.Error(t, noSlots.Validate())

	noName := valid
	noName.ClientName = "  "
	assert.Error(t, noName.Validate())
}

func TestMonthlyPlan_SlotsForDay(t *testing.T) {
	plan := MonthlyPlan{
		RecurringSlots: []RecurringSlot{
			{DayOfWeek: 1, Time: "20:00"},
			{DayOfWeek: 1, Time: "10:00"},
			{DayOfWeek: 4, Time: "10:30"},
		},
	}

	monday := plan.SlotsForDay(1)
	assert.Len(t, monday, 2)
	assert.Empty(t, plan.SlotsForDay(0))
}
