// Package api exposes the booking service over HTTP/JSON. Client endpoints
// are open; admin endpoints require the configured API key.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"navalha/internal/availability"
	"navalha/internal/config"
	"navalha/internal/database"
	"navalha/internal/events"
)

// HTTPServer serves the booking API.
type HTTPServer struct {
	cfg   *config.Config
	db    *database.DB
	avail *availability.Service
	bus   *events.EventBus
	log   *zerolog.Logger

	srv *http.Server
}

// NewHTTPServer wires handlers to their dependencies.
func NewHTTPServer(cfg *config.Config, db *database.DB, avail *availability.Service, bus *events.EventBus, logger *zerolog.Logger) *HTTPServer {
	return &HTTPServer{
		cfg:   cfg,
		db:    db,
		avail: avail,
		bus:   bus,
		log:   logger,
	}
}

// Routes builds the request mux.
func (s *HTTPServer) Routes() http.Handler {
	mux := http.NewServeMux()

	// Client endpoints
	mux.HandleFunc("/api/availability", s.handleAvailability)
	mux.HandleFunc("/api/availability/dates", s.handleAvailabilityDates)
	mux.HandleFunc("/api/barbers", s.handleBarbers)
	mux.HandleFunc("/api/services", s.handleServices)
	mux.HandleFunc("/api/bookings", s.handleBookings)
	mux.HandleFunc("/api/bookings/", s.handleBookingByID)

	// Admin endpoints
	mux.HandleFunc("/api/admin/barbers", s.requireAPIKey(s.handleAdminBarbers))
	mux.HandleFunc("/api/admin/barbers/", s.requireAPIKey(s.handleAdminBarberByID))
	mux.HandleFunc("/api/admin/services", s.requireAPIKey(s.handleAdminServices))
	mux.HandleFunc("/api/admin/services/", s.requireAPIKey(s.handleAdminServiceByID))
	mux.HandleFunc("/api/admin/schedules", s.requireAPIKey(s.handleAdminSchedules))
	mux.HandleFunc("/api/admin/lunch-breaks", s.requireAPIKey(s.handleAdminLunchBreaks))
	mux.HandleFunc("/api/admin/lunch-breaks/", s.requireAPIKey(s.handleAdminLunchBreakByID))
	mux.HandleFunc("/api/admin/plans", s.requireAPIKey(s.handleAdminPlans))
	mux.HandleFunc("/api/admin/plans/", s.requireAPIKey(s.handleAdminPlanByID))
	mux.HandleFunc("/api/admin/walkins", s.requireAPIKey(s.handleAdminWalkins))
	mux.HandleFunc("/api/admin/bookings/cleanup", s.requireAPIKey(s.handleAdminCleanup))
	mux.HandleFunc("/api/admin/bookings/export", s.requireAPIKey(s.handleAdminExport))

	return mux
}

// Start runs the server until the context is canceled.
func (s *HTTPServer) Start(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.HTTP.Port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Int("port", s.cfg.HTTP.Port).Msg("HTTP server started")
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}

func (s *HTTPServer) requireAPIKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.HTTP.APIKey == "" || r.Header.Get("X-Api-Key") != s.cfg.HTTP.APIKey {
			writeError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
