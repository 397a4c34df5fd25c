package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"navalha/internal/database"
	"navalha/internal/events"
	"navalha/internal/export"
	"navalha/internal/metrics"
	"navalha/internal/models"
)

// handleAdminBarbers manages the barber roster.
// GET /api/admin/barbers | POST /api/admin/barbers
func (s *HTTPServer) handleAdminBarbers(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_barbers")
	switch r.Method {
	case http.MethodGet:
		barbers, err := s.db.ListActiveBarbers(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list barbers")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"barbers": barbers})
	case http.MethodPost:
		var b models.Barber
		if err := decodeBody(r, &b); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if strings.TrimSpace(b.Name) == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		if err := s.db.CreateBarber(r.Context(), &b); err != nil {
			s.log.Error().Err(err).Msg("failed to create barber")
			writeError(w, http.StatusInternalServerError, "failed to create barber")
			return
		}
		writeJSON(w, http.StatusCreated, b)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleAdminBarberByID updates or deactivates one barber.
// PUT /api/admin/barbers/{id} | DELETE /api/admin/barbers/{id}
func (s *HTTPServer) handleAdminBarberByID(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_barber")
	id, err := pathID(r.URL.Path, "/api/admin/barbers/")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch r.Method {
	case http.MethodPut:
		var b models.Barber
		if err := decodeBody(r, &b); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		b.ID = id
		if err := s.db.UpdateBarber(r.Context(), &b); err != nil {
			s.respondStoreError(w, err, "failed to update barber")
			return
		}
		writeJSON(w, http.StatusOK, b)
	case http.MethodDelete:
		if err := s.db.DeactivateBarber(r.Context(), id); err != nil {
			s.respondStoreError(w, err, "failed to deactivate barber")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleAdminServices manages the service catalog.
// GET /api/admin/services | POST /api/admin/services
func (s *HTTPServer) handleAdminServices(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_services")
	switch r.Method {
	case http.MethodGet:
		services, err := s.db.ListActiveServices(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list services")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"services": services})
	case http.MethodPost:
		var svc models.Service
		if err := decodeBody(r, &svc); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if strings.TrimSpace(svc.Name) == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		if err := s.db.CreateService(r.Context(), &svc); err != nil {
			s.log.Error().Err(err).Msg("failed to create service")
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, svc)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleAdminServiceByID updates or deactivates one service.
// PUT /api/admin/services/{id} | DELETE /api/admin/services/{id}
func (s *HTTPServer) handleAdminServiceByID(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_service")
	id, err := pathID(r.URL.Path, "/api/admin/services/")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch r.Method {
	case http.MethodPut:
		var svc models.Service
		if err := decodeBody(r, &svc); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		svc.ID = id
		if err := s.db.UpdateService(r.Context(), &svc); err != nil {
			s.respondStoreError(w, err, "failed to update service")
			return
		}
		writeJSON(w, http.StatusOK, svc)
	case http.MethodDelete:
		if err := s.db.DeactivateService(r.Context(), id); err != nil {
			s.respondStoreError(w, err, "failed to deactivate service")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleAdminSchedules lists or replaces weekly schedules.
// GET /api/admin/schedules?barber_id=1 | PUT /api/admin/schedules
func (s *HTTPServer) handleAdminSchedules(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_schedules")
	switch r.Method {
	case http.MethodGet:
		barberID, err := queryInt64(r, "barber_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		schedules, err := s.db.ListSchedules(r.Context(), barberID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list schedules")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"schedules": schedules})
	case http.MethodPut:
		var sched models.WeeklySchedule
		if err := decodeBody(r, &sched); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := s.db.UpsertSchedule(r.Context(), &sched); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.publishScheduleChanged()
		writeJSON(w, http.StatusOK, sched)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleAdminLunchBreaks lists or creates lunch breaks. Without a date the
// GET returns the upcoming overview across all barbers, starting today.
// GET /api/admin/lunch-breaks[?barber_id=1&date=YYYY-MM-DD] | POST /api/admin/lunch-breaks
func (s *HTTPServer) handleAdminLunchBreaks(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_lunch_breaks")
	switch r.Method {
	case http.MethodGet:
		var breaks []models.LunchBreak
		var err error
		if date := r.URL.Query().Get("date"); date != "" {
			var barberID int64
			barberID, err = queryInt64(r, "barber_id")
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			breaks, err = s.db.ListLunchBreaks(r.Context(), barberID, date)
		} else {
			breaks, err = s.db.ListLunchBreaksFrom(r.Context(), time.Now().Format("2006-01-02"))
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list lunch breaks")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"lunch_breaks": breaks})
	case http.MethodPost:
		var lb models.LunchBreak
		if err := decodeBody(r, &lb); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := s.db.CreateLunchBreak(r.Context(), &lb); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.publishScheduleChanged()
		writeJSON(w, http.StatusCreated, lb)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleAdminLunchBreakByID deletes one lunch break.
// DELETE /api/admin/lunch-breaks/{id}
func (s *HTTPServer) handleAdminLunchBreakByID(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_lunch_break")
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id, err := pathID(r.URL.Path, "/api/admin/lunch-breaks/")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.db.DeleteLunchBreak(r.Context(), id); err != nil {
		s.respondStoreError(w, err, "failed to delete lunch break")
		return
	}
	s.publishScheduleChanged()
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleAdminPlans lists or creates monthly plans.
// GET /api/admin/plans?barber_id=1 | POST /api/admin/plans
func (s *HTTPServer) handleAdminPlans(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_plans")
	switch r.Method {
	case http.MethodGet:
		barberID, err := queryInt64(r, "barber_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		plans, err := s.db.ListPlans(r.Context(), barberID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list plans")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"plans": plans})
	case http.MethodPost:
		var plan models.MonthlyPlan
		if err := decodeBody(r, &plan); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := s.db.CreatePlan(r.Context(), &plan); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.publishScheduleChanged()
		writeJSON(w, http.StatusCreated, plan)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleAdminPlanByID updates, toggles or deletes one plan.
// PUT /api/admin/plans/{id} | PATCH /api/admin/plans/{id} | DELETE /api/admin/plans/{id}
func (s *HTTPServer) handleAdminPlanByID(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_plan")
	id, err := pathID(r.URL.Path, "/api/admin/plans/")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch r.Method {
	case http.MethodPut:
		var plan models.MonthlyPlan
		if err := decodeBody(r, &plan); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		plan.ID = id
		if err := s.db.UpdatePlan(r.Context(), &plan); err != nil {
			s.respondStoreError(w, err, err.Error())
			return
		}
		s.publishScheduleChanged()
		writeJSON(w, http.StatusOK, plan)
	case http.MethodPatch:
		var req struct {
			Active *bool `json:"active"`
		}
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Active == nil {
			writeError(w, http.StatusBadRequest, "active is required")
			return
		}
		if err := s.db.SetPlanActive(r.Context(), id, *req.Active); err != nil {
			s.respondStoreError(w, err, "failed to toggle plan")
			return
		}
		s.publishScheduleChanged()
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	case http.MethodDelete:
		if err := s.db.DeletePlan(r.Context(), id); err != nil {
			s.respondStoreError(w, err, "failed to delete plan")
			return
		}
		s.publishScheduleChanged()
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// WalkinRequest is the request body for POST /api/admin/walkins. Staff book
// on behalf of clients without a user account.
type WalkinRequest struct {
	BarberID    int64  `json:"barber_id"`
	ServiceID   int64  `json:"service_id"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	ClientName  string `json:"client_name"`
	ClientPhone string `json:"client_phone"`
}

// handleAdminWalkins creates a walk-in booking. The slot offer check is
// skipped on purpose; staff may squeeze clients into off-grid times. The
// conditional write still rejects true overlaps.
func (s *HTTPServer) handleAdminWalkins(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_walkins")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req WalkinRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.BarberID <= 0 || req.ServiceID <= 0 || req.Date == "" || req.StartTime == "" {
		writeError(w, http.StatusBadRequest, "barber_id, service_id, date and start_time are required")
		return
	}
	if strings.TrimSpace(req.ClientName) == "" {
		writeError(w, http.StatusBadRequest, "client_name is required")
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
	if err != nil {
		s.respondStoreError(w, err, "failed to resolve barber")
		return
	}
	service, err := s.db.GetService(r.Context(), req.ServiceID)
	if err != nil {
		s.respondStoreError(w, err, "failed to resolve service")
		return
	}

	booking := &models.Booking{
		ID:              uuid.NewString(),
		UserID:          "walk-in",
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
			metrics.IncSlotConflict()
			writeError(w, http.StatusConflict, "slot overlaps an existing booking")
			return
		}
		s.log.Error().Err(err).Msg("failed to create walk-in booking")
		writeError(w, http.StatusInternalServerError, "failed to create booking")
		return
	}

	metrics.IncBookingCreated(booking.Status)
	s.publishBookingEvent(events.TypeBookingCreated, booking)
	writeJSON(w, http.StatusCreated, booking)
}

// handleAdminCleanup removes malformed booking rows.
// POST /api/admin/bookings/cleanup
func (s *HTTPServer) handleAdminCleanup(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_cleanup")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	removed, err := s.db.CleanupBookings(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("booking cleanup failed")
		writeError(w, http.StatusInternalServerError, "cleanup failed")
		return
	}

	s.log.Info().Int64("removed", removed).Msg("booking cleanup finished")
	writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

// handleAdminExport streams an xlsx report of bookings in a date range.
// GET /api/admin/bookings/export?from=YYYY-MM-DD&to=YYYY-MM-DD
func (s *HTTPServer) handleAdminExport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_export")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	from, to, err := parseExportRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bookings, err := s.db.ListBookingsInRange(r.Context(), from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load bookings")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=bookings_%s_%s.xlsx",
		from.Format("20060102"), to.Format("20060102")))

	if err := export.WriteBookingsReport(w, bookings); err != nil {
		s.log.Error().Err(err).Msg("failed to write bookings report")
	}
}

func parseExportRange(r *http.Request) (from, to time.Time, err error) {
	fromStr := r.URL.Query().Get("from")
	toStr := r.URL.Query().Get("to")
	if fromStr == "" || toStr == "" {
		return time.Time{}, time.Time{}, errors.New("from and to are required")
	}
	from, err = time.ParseInLocation("2006-01-02", fromStr, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid from format; expected YYYY-MM-DD")
	}
	to, err = time.ParseInLocation("2006-01-02", toStr, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid to format; expected YYYY-MM-DD")
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, errors.New("to must not be before from")
	}
	// The range is inclusive of the last day.
	return from, to.AddDate(0, 0, 1), nil
}

func (s *HTTPServer) publishScheduleChanged() {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.Event{Type: events.TypeScheduleChanged})
}

func (s *HTTPServer) respondStoreError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	s.log.Error().Err(err).Msg(msg)
	writeError(w, http.StatusInternalServerError, msg)
}

func decodeBody(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

func pathID(path, prefix string) (int64, error) {
	raw := strings.TrimPrefix(path, prefix)
	raw = strings.TrimSuffix(raw, "/")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id in path")
	}
	return id, nil
}
