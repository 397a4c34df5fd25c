// Package reminders periodically notifies clients about upcoming bookings.
package reminders

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"navalha/internal/models"
)

// BookingStore provides access to bookings for the reminder loop.
type BookingStore interface {
	GetUpcomingBookings(ctx context.Context, within time.Duration) ([]models.Booking, error)
	MarkReminderSent(ctx context.Context, id string) error
}

// Notifier delivers the reminder to the client or staff.
type Notifier interface {
	SendReminder(ctx context.Context, booking *models.Booking) error
}

// Config holds configuration for the reminder service.
type Config struct {
	// CheckInterval is how often to check for upcoming bookings.
	CheckInterval time.Duration

	// HoursBefore is how long before a booking the reminder goes out.
	HoursBefore int

	// MaxConcurrentNotifications limits parallel notification sends.
	MaxConcurrentNotifications int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		CheckInterval:              15 * time.Minute,
		HoursBefore:                24,
		MaxConcurrentNotifications: 10,
	}
}

// Service handles sending booking reminders.
type Service struct {
	config   *Config
	bookings BookingStore
	notifier Notifier
	logger   *zerolog.Logger

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewService creates a new reminder service.
func NewService(config *Config, bookings BookingStore, notifier Notifier, logger *zerolog.Logger) *Service {
	if config == nil {
		config = DefaultConfig()
	}
	if config.CheckInterval == 0 {
		config.CheckInterval = 15 * time.Minute
	}
	if config.HoursBefore == 0 {
		config.HoursBefore = 24
	}
	if config.MaxConcurrentNotifications == 0 {
		config.MaxConcurrentNotifications = 10
	}

	return &Service{
		config:   config,
		bookings: bookings,
		notifier: notifier,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the reminder check loop.
func (s *Service) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop()

	s.logger.Info().
		Dur("check_interval", s.config.CheckInterval).
		Int("hours_before", s.config.HoursBefore).
		Msg("Reminder service started")
}

// Stop gracefully stops the reminder service.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()

	s.logger.Info().Msg("Reminder service stopped")
}

func (s *Service) loop() {
	defer s.wg.Done()

	// Run immediately on start
	s.checkAndSendReminders()

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.checkAndSendReminders()
		}
	}
}

func (s *Service) checkAndSendReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// A one-hour buffer so a reminder due just past the window is not missed
	// until the next tick.
	lookAhead := time.Duration(s.config.HoursBefore+1) * time.Hour

	bookings, err := s.bookings.GetUpcomingBookings(ctx, lookAhead)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to get upcoming bookings")
		return
	}
	if len(bookings) == 0 {
		return
	}

	s.logger.Debug().Int("count", len(bookings)).Msg("Found bookings to check for reminders")

	sem := make(chan struct{}, s.config.MaxConcurrentNotifications)
	var wg sync.WaitGroup

	for _, booking := range bookings {
		if booking.ReminderSent {
			continue
		}

		reminderTime := booking.StartTime.Add(-time.Duration(s.config.HoursBefore) * time.Hour)
		if time.Now().Before(reminderTime) {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}

		go func(b models.Booking) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := s.sendReminder(ctx, &b); err != nil {
				s.logger.Error().Err(err).
					Str("booking_id", b.ID).
					Str("user_id", b.UserID).
					Msg("Failed to send reminder")
			}
		}(booking)
	}

	wg.Wait()
}

func (s *Service) sendReminder(ctx context.Context, booking *models.Booking) error {
	if err := s.notifier.SendReminder(ctx, booking); err != nil {
		return err
	}

	if err := s.bookings.MarkReminderSent(ctx, booking.ID); err != nil {
		// The notification went out; only the bookkeeping failed.
		s.logger.Error().Err(err).
			Str("booking_id", booking.ID).
			Msg("Failed to mark reminder as sent")
	}

	s.logger.Info().
		Str("booking_id", booking.ID).
		Str("user_id", booking.UserID).
		Msg("Reminder sent")
	return nil
}

// CheckNow triggers an immediate check for reminders (useful for testing).
func (s *Service) CheckNow() {
	s.checkAndSendReminders()
}
