package api

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"navalha/internal/availability"
	"navalha/internal/config"
	"navalha/internal/database"
	"navalha/internal/events"
	"navalha/internal/models"
)

const testAPIKey = "valid-key"

type ErrorResponse struct {
	Error string `json:"error"`
}

type testServer struct {
	Handler http.Handler
	DB      *database.DB
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	db := newTestDB(t)

	cfg := &config.Config{}
	cfg.HTTP.APIKey = testAPIKey
	cfg.Shop.Name = "Navalha"
	cfg.Shop.Location = "Rua Augusta 123"

	logger := zerolog.New(io.Discard)
	avail := availability.NewService(db, 30, &logger)
	server := NewHTTPServer(cfg, db, avail, events.NewEventBus(), &logger)

	return &testServer{
		Handler: server.Routes(),
		DB:      db,
	}
}

// seedCatalog inserts a barber working Mondays 09:00-12:00 and a 30-minute
// service, returning their ids.
func seedCatalog(t *testing.T, db *database.DB) (barberID, serviceID int64) {
	t.Helper()
	ctx := context.Background()

	barber := &models.Barber{Name: "João"}
	if err := db.CreateBarber(ctx, barber); err != nil {
		t.Fatalf("seed barber: %v", err)
	}

	service := &models.Service{Name: "Corte", DurationMinutes: 30, Price: 45}
	if err := db.CreateService(ctx, service); err != nil {
		t.Fatalf("seed service: %v", err)
	}

	sched := &models.WeeklySchedule{
		BarberID:  barber.ID,
		DayOfWeek: 1,
		StartTime: "09:00",
		EndTime:   "12:00",
		IsActive:  true,
	}
	if err := db.UpsertSchedule(ctx, sched); err != nil {
		t.Fatalf("seed schedule: %v", err)
	}

	return barber.ID, service.ID
}

// nextMonday returns the next Monday at midnight, at least a day out, so
// seeded bookings always sit in the future.
func nextMonday() time.Time {
	d := time.Now().AddDate(0, 0, 1)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.Local)
}
