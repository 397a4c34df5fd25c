package availability

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"navalha/internal/database"
	"navalha/internal/models"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetService(ctx context.Context, id int64) (*models.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Service), args.Error(1)
}

func (m *mockStore) GetScheduleByDay(ctx context.Context, barberID int64, dayOfWeek int) (*models.WeeklySchedule, error) {
	args := m.Called(ctx, barberID, dayOfWeek)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WeeklySchedule), args.Error(1)
}

func (m *mockStore) GetBookingsForBarberOnDate(ctx context.Context, barberID int64, date time.Time) ([]models.Booking, error) {
	args := m.Called(ctx, barberID, date)
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *mockStore) ListLunchBreaks(ctx context.Context, barberID int64, date string) ([]models.LunchBreak, error) {
	args := m.Called(ctx, barberID, date)
	return args.Get(0).([]models.LunchBreak), args.Error(1)
}

func (m *mockStore) ListActivePlanSlots(ctx context.Context, barberID int64, dayOfWeek int) ([]models.RecurringSlot, error) {
	args := m.Called(ctx, barberID, dayOfWeek)
	return args.Get(0).([]models.RecurringSlot), args.Error(1)
}

func testLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// 2024-06-03 is a Monday.
var monday = time.Date(2024, 6, 3, 0, 0, 0, 0, time.Local)

func TestSlotsForDate(t *testing.T) {
	ctx := context.Background()
	store := new(mockStore)

	store.On("GetService", ctx, int64(1)).Return(&models.Service{ID: 1, Name: "Corte", DurationMinutes: 30}, nil)
	store.On("GetScheduleByDay", ctx, int64(1), 1).Return(&models.WeeklySchedule{
		BarberID: 1, DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00", IsActive: true,
	}, nil)
	store.On("GetBookingsForBarberOnDate", ctx, int64(1), monday).Return([]models.Booking{
		{
			StartTime: time.Date(2024, 6, 3, 9, 30, 0, 0, time.Local),
			EndTime:   time.Date(2024, 6, 3, 10, 0, 0, 0, time.Local),
			Status:    models.StatusConfirmed,
		},
	}, nil)
	store.On("ListLunchBreaks", ctx, int64(1), "2024-06-03").Return([]models.LunchBreak{
		{BarberID: 1, Date: "2024-06-03", StartTime: "11:00", EndTime: "11:30"},
	}, nil)
	store.On("ListActivePlanSlots", ctx, int64(1), 1).Return([]models.RecurringSlot{
		{DayOfWeek: 1, Time: "10:30"},
	}, nil)

	svc := NewService(store, 30, testLogger())

	got, err := svc.SlotsForDate(ctx, 1, 1, monday)
	assert.NoError(t, err)

	want := []time.Time{
		time.Date(2024, 6, 3, 9, 0, 0, 0, time.Local),
		time.Date(2024, 6, 3, 10, 0, 0, 0, time.Local),
		time.Date(2024, 6, 3, 11, 30, 0, 0, time.Local),
	}
	assert.Equal(t, want, got)
	store.AssertExpectations(t)
}

func TestSlotsForDate_NoSchedule(t *testing.T) {
	ctx := context.Background()
	store := new(mockStore)

	store.On("GetService", ctx, int64(1)).Return(&models.Service{ID: 1, DurationMinutes: 30}, nil)
	store.On("GetScheduleByDay", ctx, int64(1), 0).Return(nil, database.ErrNotFound)

	svc := NewService(store, 30, testLogger())

	sunday := time.Date(2024, 6, 2, 0, 0, 0, 0, time.Local)
	got, err := svc.SlotsForDate(ctx, 1, 1, sunday)
	assert.ErrorIs(t, err, ErrNoSchedule)
	assert.Nil(t, got)
}

func TestSlotsForDate_CacheHit(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	store := new(mockStore)
	store.On("GetService", ctx, int64(1)).Return(&models.Service{ID: 1, DurationMinutes: 30}, nil)
	store.On("GetScheduleByDay", ctx, int64(1), 1).Return(&models.WeeklySchedule{
		BarberID: 1, DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00", IsActive: true,
	}, nil)
	// The snapshot loads must run exactly once; the second call hits the cache.
	store.On("GetBookingsForBarberOnDate", ctx, int64(1), monday).Return([]models.Booking{}, nil).Once()
	store.On("ListLunchBreaks", ctx, int64(1), "2024-06-03").Return([]models.LunchBreak{}, nil).Once()
	store.On("ListActivePlanSlots", ctx, int64(1), 1).Return([]models.RecurringSlot{}, nil).Once()

	svc := NewService(store, 30, testLogger())
	svc.UseRedisCache(client, time.Minute)

	first, err := svc.SlotsForDate(ctx, 1, 1, monday)
	assert.NoError(t, err)
	assert.Len(t, first, 2)

	second, err := svc.SlotsForDate(ctx, 1, 1, monday)
	assert.NoError(t, err)
	assert.Len(t, second, len(first))
	for i := range first {
		assert.True(t, first[i].Equal(second[i]))
	}
	store.AssertExpectations(t)
}

func TestInvalidateAll(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	mr.Set("availability:1:1:2024-06-03", `["stale"]`)
	mr.Set("other:key", "kept")

	svc := NewService(new(mockStore), 30, testLogger())
	svc.UseRedisCache(client, time.Minute)
	svc.InvalidateAll(ctx)

	assert.False(t, mr.Exists("availability:1:1:2024-06-03"))
	assert.True(t, mr.Exists("other:key"))
}

func TestAvailableDates(t *testing.T) {
	ctx := context.Background()
	store := new(mockStore)

	// Works Monday only.
	for day := 0; day < 7; day++ {
		if day == 1 {
			store.On("GetScheduleByDay", ctx, int64(1), day).Return(&models.WeeklySchedule{
				BarberID: 1, DayOfWeek: day, StartTime: "09:00", EndTime: "18:00", IsActive: true,
			}, nil)
			continue
		}
		store.On("GetScheduleByDay", ctx, int64(1), day).Return(nil, database.ErrNotFound)
	}

	svc := NewService(store, 30, testLogger())

	dates, err := svc.AvailableDates(ctx, 1, 14)
	assert.NoError(t, err)
	assert.Len(t, dates, 14)

	for _, d := range dates {
		if d.Weekday == 1 {
			assert.True(t, d.Bookable, "monday %s should be bookable", d.Date)
		} else {
			assert.False(t, d.Bookable, "%s should not be bookable", d.Date)
		}
	}
}
