// Package availability resolves the slot generator's inputs and caches its
// output. It is the only caller of slots.Generate in the service.
package availability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"navalha/internal/database"
	"navalha/internal/events"
	"navalha/internal/metrics"
	"navalha/internal/models"
	"navalha/internal/slots"
)

// ErrNoSchedule is returned when the barber has no active schedule for the
// requested weekday. Callers translate it to an empty day, never to slots.
var ErrNoSchedule = errors.New("barber has no active schedule for this day")

// Store is the subset of the database the service reads.
type Store interface {
	GetService(ctx context.Context, id int64) (*models.Service, error)
	GetScheduleByDay(ctx context.Context, barberID int64, dayOfWeek int) (*models.WeeklySchedule, error)
	GetBookingsForBarberOnDate(ctx context.Context, barberID int64, date time.Time) ([]models.Booking, error)
	ListLunchBreaks(ctx context.Context, barberID int64, date string) ([]models.LunchBreak, error)
	ListActivePlanSlots(ctx context.Context, barberID int64, dayOfWeek int) ([]models.RecurringSlot, error)
}

// Service computes available slots for barber/service/date requests.
type Service struct {
	store    Store
	redis    *redis.Client
	cacheTTL time.Duration
	gridStep int
	logger   *zerolog.Logger
}

// NewService constructs the service. gridStep is the candidate grid step in
// minutes; zero falls back to the default.
func NewService(store Store, gridStep int, logger *zerolog.Logger) *Service {
	if gridStep <= 0 {
		gridStep = slots.DefaultGridStep
	}
	return &Service{store: store, gridStep: gridStep, logger: logger}
}

// UseRedisCache configures optional caching of computed slot lists.
func (s *Service) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	s.redis = redisClient
	s.cacheTTL = ttl
}

// SubscribeInvalidation drops cached availability whenever bookings or
// schedules change. Dropping everything is simpler than tracking which
// barber/date pairs a change touches, and the cache refills on demand.
func (s *Service) SubscribeInvalidation(bus *events.EventBus) {
	invalidate := func(events.Event) error {
		s.InvalidateAll(context.Background())
		return nil
	}
	bus.Subscribe(events.TypeBookingCreated, invalidate)
	bus.Subscribe(events.TypeBookingCanceled, invalidate)
	bus.Subscribe(events.TypeScheduleChanged, invalidate)
}

// SlotsForDate returns available slot starts for a barber, service and date.
// Returns ErrNoSchedule when the barber does not work that weekday.
func (s *Service) SlotsForDate(ctx context.Context, barberID, serviceID int64, date time.Time) ([]time.Time, error) {
	svc, err := s.store.GetService(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("resolve service %d: %w", serviceID, err)
	}

	dayOfWeek := int(date.Weekday())
	sched, err := s.store.GetScheduleByDay(ctx, barberID, dayOfWeek)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNoSchedule
	}
	if err != nil {
		return nil, fmt.Errorf("resolve schedule: %w", err)
	}

	cacheKey := fmt.Sprintf("availability:%d:%d:%s", barberID, serviceID, date.Format("2006-01-02"))
	var cached []time.Time
	if s.readCache(ctx, cacheKey, &cached) {
		metrics.IncCacheHit()
		return cached, nil
	}
	metrics.IncCacheMiss()

	bookings, err := s.store.GetBookingsForBarberOnDate(ctx, barberID, date)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	breaks, err := s.store.ListLunchBreaks(ctx, barberID, date.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("load lunch breaks: %w", err)
	}
	recurring, err := s.store.ListActivePlanSlots(ctx, barberID, dayOfWeek)
	if err != nil {
		return nil, fmt.Errorf("load plan slots: %w", err)
	}

	available := slots.Generate(date, svc.DurationMinutes, bookings, breaks, recurring, slots.Options{
		WorkStart:       sched.StartTime,
		WorkEnd:         sched.EndTime,
		GridStepMinutes: s.gridStep,
	})

	s.writeCache(ctx, cacheKey, available)
	return available, nil
}

// DateAvailability is one entry of the booking horizon.
type DateAvailability struct {
	Date     string `json:"date"`
	Weekday  int    `json:"weekday"`
	Bookable bool   `json:"bookable"`
}

// AvailableDates returns the next daysAhead calendar days starting from
// today, marking each as bookable when the barber has an active schedule for
// its weekday. Days without a schedule stay listed so clients see the full
// horizon.
func (s *Service) AvailableDates(ctx context.Context, barberID int64, daysAhead int) ([]DateAvailability, error) {
	if daysAhead <= 0 {
		daysAhead = 14
	}

	// One lookup per weekday, not per day.
	workdays := make(map[int]bool, 7)
	for dayOfWeek := 0; dayOfWeek < 7; dayOfWeek++ {
		_, err := s.store.GetScheduleByDay(ctx, barberID, dayOfWeek)
		if errors.Is(err, database.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolve schedule: %w", err)
		}
		workdays[dayOfWeek] = true
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	out := make([]DateAvailability, 0, daysAhead)
	for i := 0; i < daysAhead; i++ {
		d := today.AddDate(0, 0, i)
		weekday := int(d.Weekday())
		out = append(out, DateAvailability{
			Date:     d.Format("2006-01-02"),
			Weekday:  weekday,
			Bookable: workdays[weekday],
		})
	}
	return out, nil
}

// InvalidateAll drops every cached availability entry.
func (s *Service) InvalidateAll(ctx context.Context) {
	if s.redis == nil {
		return
	}
	iter := s.redis.Scan(ctx, 0, "availability:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.redis.Del(ctx, iter.Val()).Err(); err != nil {
			s.logger.Warn().Err(err).Str("key", iter.Val()).Msg("Failed to drop cached availability")
		}
	}
	if err := iter.Err(); err != nil {
		s.logger.Warn().Err(err).Msg("Availability cache scan failed")
	}
}

func (s *Service) readCache(ctx context.Context, key string, out any) bool {
	if s.redis == nil || s.cacheTTL <= 0 {
		return false
	}
	val, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (s *Service) writeCache(ctx context.Context, key string, val any) {
	if s.redis == nil || s.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to cache availability")
	}
}
