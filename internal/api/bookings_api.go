package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"navalha/internal/availability"
	"navalha/internal/database"
	"navalha/internal/events"
	"navalha/internal/metrics"
	"navalha/internal/models"
)

// CreateBookingRequest is the request body for POST /api/bookings.
type CreateBookingRequest struct {
	UserID      string `json:"user_id"`
	BarberID    int64  `json:"barber_id"`
	ServiceID   int64  `json:"service_id"`
	Date        string `json:"date"`       // YYYY-MM-DD
	StartTime   string `json:"start_time"` // HH:MM, must be an offered slot
	ClientName  string `json:"client_name"`
	ClientPhone string `json:"client_phone"`
}

// handleBookings creates a booking or lists bookings by user or by date.
// POST /api/bookings | GET /api/bookings?user_id=... | GET /api/bookings?date=YYYY-MM-DD
func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createBooking(w, r)
	case http.MethodGet:
		s.listBookings(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) createBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("booking_create")

	var req CreateBookingRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := validateCreateBooking(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	date, err := time.ParseInLocation("2006-01-02", req.Date, time.Local)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}
	start, err := models.ClockOnDate(date, req.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_time format; expected HH:MM")
		return
	}

	barber, err := s.db.GetBarber(r.Context(), req.BarberID)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "barber not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resolve barber")
		return
	}
	service, err := s.db.GetService(r.Context(), req.ServiceID)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "service not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resolve service")
		return
	}

	// The requested start must be one of the currently offered slots. This
	// rejects off-grid times, lunch overlaps and reserved plan slots with
	// one check.
	offered, err := s.avail.SlotsForDate(r.Context(), req.BarberID, req.ServiceID, date)
	if errors.Is(err, availability.ErrNoSchedule) {
		writeError(w, http.StatusConflict, "barber does not work on this day")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Msg("failed to compute availability for booking")
		writeError(w, http.StatusInternalServerError, "failed to verify slot")
		return
	}
	if !slotOffered(start, offered) {
		metrics.IncSlotConflict()
		writeError(w, http.StatusConflict, "slot is not available")
		return
	}

	booking := &models.Booking{
		ID:              uuid.NewString(),
		UserID:          req.UserID,
		ServiceID:       service.ID,
		ServiceName:     service.Name,
		DurationMinutes: service.DurationMinutes,
		BarberID:        barber.ID,
		BarberName:      barber.Name,
		StartTime:       start,
		EndTime:         start.Add(time.Duration(service.DurationMinutes) * time.Minute),
		ClientName:      req.ClientName,
		ClientPhone:     req.ClientPhone,
		Status:          models.StatusConfirmed,
		Price:           service.Price,
	}

	if err := s.db.CreateBooking(r.Context(), booking); err != nil {
		if errors.Is(err, database.ErrSlotTaken) {
			// Lost the race to a concurrent client.
			metrics.IncSlotConflict()
			writeError(w, http.StatusConflict, "slot was just taken")
			return
		}
		s.log.Error().Err(err).Str("booking_id", booking.ID).Msg("failed to create booking")
		writeError(w, http.StatusInternalServerError, "failed to create booking")
		return
	}

	metrics.IncBookingCreated(booking.Status)
	s.publishBookingEvent(events.TypeBookingCreated, booking)

	s.log.Info().
		Str("booking_id", booking.ID).
		Int64("barber_id", booking.BarberID).
		Str("start", booking.StartTime.Format(time.RFC3339)).
		Msg("booking created")

	writeJSON(w, http.StatusCreated, booking)
}

func (s *HTTPServer) listBookings(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("booking_list")

	userID := r.URL.Query().Get("user_id")
	dateStr := r.URL.Query().Get("date")

	var bookings []models.Booking
	var err error
	switch {
	case userID != "":
		bookings, err = s.db.ListBookingsForUser(r.Context(), userID)
	case dateStr != "":
		var day time.Time
		day, err = time.ParseInLocation("2006-01-02", dateStr, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
			return
		}
		bookings, err = s.db.ListBookingsInRange(r.Context(), day, day.AddDate(0, 0, 1))
	default:
		writeError(w, http.StatusBadRequest, "user_id or date is required")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list bookings")
		writeError(w, http.StatusInternalServerError, "failed to list bookings")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

// handleBookingByID routes /api/bookings/{id} and /api/bookings/{id}/calendar.
func (s *HTTPServer) handleBookingByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/bookings/")
	if rest == "" {
		writeError(w, http.StatusBadRequest, "booking id is required")
		return
	}

	if id, ok := strings.CutSuffix(rest, "/calendar"); ok {
		s.bookingCalendar(w, r, id)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.getBooking(w, r, rest)
	case http.MethodDelete:
		s.cancelBooking(w, r, rest)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) getBooking(w http.ResponseWriter, r *http.Request, id string) {
	metrics.IncHTTP("booking_get")

	booking, err := s.db.GetBooking(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "booking not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load booking")
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) cancelBooking(w http.ResponseWriter, r *http.Request, id string) {
	metrics.IncHTTP("booking_cancel")

	booking, err := s.db.GetBooking(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "booking not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load booking")
		return
	}
	if booking.Status == models.StatusCanceled {
		writeError(w, http.StatusConflict, "booking is already canceled")
		return
	}

	if err := s.db.CancelBooking(r.Context(), id); err != nil {
		s.log.Error().Err(err).Str("booking_id", id).Msg("failed to cancel booking")
		writeError(w, http.StatusInternalServerError, "failed to cancel booking")
		return
	}

	metrics.IncBookingCanceled()
	booking.Status = models.StatusCanceled
	s.publishBookingEvent(events.TypeBookingCanceled, booking)

	s.log.Info().Str("booking_id", id).Msg("booking canceled")
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *HTTPServer) publishBookingEvent(eventType string, booking *models.Booking) {
	if s.bus == nil {
		return
	}
	payload, err := json.Marshal(booking)
	if err != nil {
		return
	}
	s.bus.Publish(events.Event{Type: eventType, Payload: payload})
}

func validateCreateBooking(req *CreateBookingRequest) error {
	if req.UserID == "" {
		return errors.New("user_id is required")
	}
	if req.BarberID <= 0 {
		return errors.New("barber_id is required")
	}
	if req.ServiceID <= 0 {
		return errors.New("service_id is required")
	}
	if req.Date == "" {
		return errors.New("date is required")
	}
	if req.StartTime == "" {
		return errors.New("start_time is required")
	}
	if strings.TrimSpace(req.ClientName) == "" {
		return errors.New("client_name is required")
	}
	if strings.TrimSpace(req.ClientPhone) == "" {
		return errors.New("client_phone is required")
	}
	return nil
}

func slotOffered(start time.Time, offered []time.Time) bool {
	for _, slot := range offered {
		if slot.Equal(start) {
			return true
		}
	}
	return false
}
