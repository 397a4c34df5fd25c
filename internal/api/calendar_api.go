package api

import (
	"errors"
	"fmt"
	"net/http"

	"navalha/internal/calendar"
	"navalha/internal/database"
	"navalha/internal/metrics"
)

// bookingCalendar renders a booking as a calendar artifact.
// GET /api/bookings/{id}/calendar?format=ics|google|outlook
func (s *HTTPServer) bookingCalendar(w http.ResponseWriter, r *http.Request, id string) {
	metrics.IncHTTP("booking_calendar")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	booking, err := s.db.GetBooking(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "booking not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load booking")
		return
	}

	shopName := s.cfg.Shop.Name
	if shopName == "" {
		shopName = "Navalha"
	}
	location := s.cfg.Shop.Location

	format := r.URL.Query().Get("format")
	switch format {
	case "", "ics":
		ics := calendar.BuildICS(booking, shopName, location)
		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=booking-%s.ics", booking.ID))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(ics))
	case "google":
		writeJSON(w, http.StatusOK, map[string]string{"url": calendar.GoogleURL(booking, shopName, location)})
	case "outlook":
		writeJSON(w, http.StatusOK, map[string]string{"url": calendar.OutlookURL(booking, shopName, location)})
	default:
		writeError(w, http.StatusBadRequest, "unknown format; expected ics, google or outlook")
	}
}
