package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"navalha/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedBarber(t *testing.T, db *DB) int64 {
	t.Helper()
	b := &models.Barber{Name: "João"}
	require.NoError(t, db.CreateBarber(context.Background(), b))
	return b.ID
}

func testBooking(barberID int64, id string, start time.Time, minutes int) *models.Booking {
	return &models.Booking{
		ID: id, UserID: "u1",
		ServiceID: 1, ServiceName: "Corte", DurationMinutes: minutes,
		BarberID: barberID, BarberName: "João",
		StartTime:  start,
		EndTime:    start.Add(time.Duration(minutes) * time.Minute),
		ClientName: "Ana", ClientPhone: "11911110000",
		Status: models.StatusConfirmed,
	}
}

func TestCreateBooking_ConflictRejected(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	barberID := seedBarber(t, db)

	start := time.Date(2026, 6, 1, 9, 30, 0, 0, time.Local)

	require.NoError(t, db.CreateBooking(ctx, testBooking(barberID, "first", start, 30)))

	// Same slot loses.
	err := db.CreateBooking(ctx, testBooking(barberID, "same", start, 30))
	assert.ErrorIs(t, err, ErrSlotTaken)

	// Partial overlap loses too.
	err = db.CreateBooking(ctx, testBooking(barberID, "overlap", start.Add(15*time.Minute), 30))
	assert.ErrorIs(t, err, ErrSlotTaken)

	// Touching endpoints do not conflict.
	require.NoError(t, db.CreateBooking(ctx, testBooking(barberID, "adjacent", start.Add(30*time.Minute), 30)))

	// Another barber is independent.
	otherID := seedBarber2(t, db)
	require.NoError(t, db.CreateBooking(ctx, testBooking(otherID, "other-barber", start, 30)))
}

func seedBarber2(t *testing.T, db *DB) int64 {
	t.Helper()
	b := &models.Barber{Name: "Pedro"}
	require.NoError(t, db.CreateBarber(context.Background(), b))
	return b.ID
}

func TestCancelBooking_FreesSlot(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	barberID := seedBarber(t, db)

	start := time.Date(2026, 6, 1, 10, 0, 0, 0, time.Local)
	require.NoError(t, db.CreateBooking(ctx, testBooking(barberID, "b1", start, 30)))

	require.NoError(t, db.CancelBooking(ctx, "b1"))

	require.NoError(t, db.CreateBooking(ctx, testBooking(barberID, "b2", start, 30)))

	assert.ErrorIs(t, db.CancelBooking(ctx, "missing"), ErrNotFound)
}

func TestGetBookingsForBarberOnDate(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	barberID := seedBarber(t, db)

	day := time.Date(2026, 6, 1, 0, 0, 0, 0, time.Local)
	require.NoError(t, db.CreateBooking(ctx, testBooking(barberID, "in-day", day.Add(9*time.Hour), 30)))
	require.NoError(t, db.CreateBooking(ctx, testBooking(barberID, "next-day", day.Add(33*time.Hour), 30)))
	require.NoError(t, db.CreateBooking(ctx, testBooking(barberID, "canceled", day.Add(11*time.Hour), 30)))
	require.NoError(t, db.CancelBooking(ctx, "canceled"))

	got, err := db.GetBookingsForBarberOnDate(ctx, barberID, day)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "in-day", got[0].ID)
}

func TestUpcomingBookingsAndReminders(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	barberID := seedBarber(t, db)

	soon := time.Now().Add(2 * time.Hour)
	far := time.Now().Add(72 * time.Hour)
	require.NoError(t, db.CreateBooking(ctx, testBooking(barberID, "soon", soon, 30)))
	require.NoError(t, db.CreateBooking(ctx, testBooking(barberID, "far", far, 30)))

	got, err := db.GetUpcomingBookings(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "soon", got[0].ID)

	require.NoError(t, db.MarkReminderSent(ctx, "soon"))

	got, err = db.GetUpcomingBookings(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEnsureDefaultSchedules(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	barberID := seedBarber(t, db)

	require.NoError(t, db.EnsureDefaultSchedules(ctx))

	schedules, err := db.ListSchedules(ctx, barberID)
	require.NoError(t, err)
	assert.Len(t, schedules, 6) // Monday through Saturday

	// Idempotent, and custom hours survive a re-run.
	custom := &models.WeeklySchedule{
		BarberID: barberID, DayOfWeek: 1,
		StartTime: "10:00", EndTime: "20:00", IsActive: true,
	}
	require.NoError(t, db.UpsertSchedule(ctx, custom))
	require.NoError(t, db.EnsureDefaultSchedules(ctx))

	sched, err := db.GetScheduleByDay(ctx, barberID, 1)
	require.NoError(t, err)
	assert.Equal(t, "10:00", sched.StartTime)

	// Sunday has no row.
	_, err = db.GetScheduleByDay(ctx, barberID, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListActivePlanSlots(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	barberID := seedBarber(t, db)

	plan := &models.MonthlyPlan{
		BarberID: barberID, ClientName: "Carlos", ClientPhone: "11999990000",
		RecurringSlots: []models.RecurringSlot{
			{DayOfWeek: 1, Time: "20:00"},
			{DayOfWeek: 4, Time: "10:30"},
		},
	}
	require.NoError(t, db.CreatePlan(ctx, plan))

	slots, err := db.ListActivePlanSlots(ctx, barberID, 1)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "20:00", slots[0].Time)

	// Inactive plans stop reserving.
	require.NoError(t, db.SetPlanActive(ctx, plan.ID, false))
	slots, err = db.ListActivePlanSlots(ctx, barberID, 1)
	require.NoError(t, err)
	assert.Empty(t, slots)
}
