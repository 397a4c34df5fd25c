package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"navalha/internal/availability"
	"navalha/internal/database"
	"navalha/internal/metrics"
)

// AvailabilityResponse is the response for GET /api/availability.
type AvailabilityResponse struct {
	BarberID  int64    `json:"barber_id"`
	ServiceID int64    `json:"service_id"`
	Date      string   `json:"date"`
	Slots     []string `json:"slots"` // "HH:MM", chronological
}

// handleAvailability returns the free slots for a barber/service/date.
// GET /api/availability?barber_id=1&service_id=2&date=YYYY-MM-DD
func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("availability")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	barberID, err := queryInt64(r, "barber_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	serviceID, err := queryInt64(r, "service_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	dateStr := r.URL.Query().Get("date")
	date, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	slots, err := s.avail.SlotsForDate(r.Context(), barberID, serviceID, date)
	if errors.Is(err, availability.ErrNoSchedule) {
		// Barber is off that day; an empty list, not an error.
		slots = nil
	} else if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "service not found")
		return
	} else if err != nil {
		s.log.Error().Err(err).
			Int64("barber_id", barberID).
			Int64("service_id", serviceID).
			Str("date", dateStr).
			Msg("failed to compute availability")
		writeError(w, http.StatusInternalServerError, "failed to compute availability")
		return
	}

	out := make([]string, 0, len(slots))
	for _, slot := range slots {
		out = append(out, slot.Format("15:04"))
	}

	writeJSON(w, http.StatusOK, AvailabilityResponse{
		BarberID:  barberID,
		ServiceID: serviceID,
		Date:      dateStr,
		Slots:     out,
	})
}

// handleAvailabilityDates returns the booking horizon for a barber.
// GET /api/availability/dates?barber_id=1
func (s *HTTPServer) handleAvailabilityDates(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("availability_dates")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	barberID, err := queryInt64(r, "barber_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	dates, err := s.avail.AvailableDates(r.Context(), barberID, s.cfg.DaysAhead())
	if err != nil {
		s.log.Error().Err(err).Int64("barber_id", barberID).Msg("failed to list available dates")
		writeError(w, http.StatusInternalServerError, "failed to list available dates")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"dates": dates})
}

func queryInt64(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, errors.New(name + " is required")
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, errors.New(name + " must be a positive integer")
	}
	return v, nil
}
