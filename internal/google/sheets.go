// Package google mirrors bookings into a Google Sheets spreadsheet so the
// shop owner can watch the book without touching the admin API.
package google

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"navalha/internal/models"
)

var sheetHeaders = []interface{}{
	"ID", "Date", "Start", "End", "Service", "Barber",
	"Client", "Phone", "Status", "Price", "Created",
}

// SheetsService pushes booking rows to one sheet of a spreadsheet.
type SheetsService struct {
	srv           *sheets.Service
	spreadsheetID string
	sheetName     string
	logger        *zerolog.Logger

	// rowCache maps booking id to its 1-based sheet row, saving a full
	// column scan on every update.
	rowCache map[string]int
	cacheMu  sync.RWMutex
}

// NewSheetsService authorizes with a service account credentials file.
func NewSheetsService(ctx context.Context, credentialsPath, spreadsheetID, sheetName string, logger *zerolog.Logger) (*SheetsService, error) {
	creds, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	jwtConfig, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}

	if sheetName == "" {
		sheetName = "Bookings"
	}

	return &SheetsService{
		srv:           srv,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger,
		rowCache:      make(map[string]int),
	}, nil
}

// SyncBookings rewrites the sheet with the current non-canceled bookings.
func (s *SheetsService) SyncBookings(ctx context.Context, bookings []models.Booking) error {
	active := s.filterActiveBookings(bookings)

	values := make([][]interface{}, 0, len(active)+1)
	values = append(values, sheetHeaders)
	for i, b := range active {
		values = append(values, bookingRowValues(&b))
		s.setCachedRow(b.ID, i+2)
	}

	clearRange := fmt.Sprintf("%s!A:K", s.sheetName)
	if _, err := s.srv.Spreadsheets.Values.Clear(s.spreadsheetID, clearRange, &sheets.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet: %w", err)
	}

	writeRange := fmt.Sprintf("%s!A1", s.sheetName)
	_, err := s.srv.Spreadsheets.Values.Update(s.spreadsheetID, writeRange, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write sheet: %w", err)
	}

	s.logger.Info().Int("rows", len(active)).Msg("Bookings synced to spreadsheet")
	return nil
}

// AppendBooking adds one booking row without a full resync.
func (s *SheetsService) AppendBooking(ctx context.Context, b *models.Booking) error {
	writeRange := fmt.Sprintf("%s!A1", s.sheetName)
	resp, err := s.srv.Spreadsheets.Values.Append(s.spreadsheetID, writeRange, &sheets.ValueRange{
		Values: [][]interface{}{bookingRowValues(b)},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append booking row: %w", err)
	}
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		// Appended row position is unknown without parsing the range; drop
		// the cache entry so the next update rescans.
		s.deleteCacheRow(b.ID)
	}
	return nil
}

func (s *SheetsService) filterActiveBookings(bookings []models.Booking) []models.Booking {
	active := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Status == models.StatusCanceled {
			continue
		}
		active = append(active, b)
	}
	return active
}

func bookingRowValues(b *models.Booking) []interface{} {
	return []interface{}{
		b.ID,
		b.StartTime.Format("2006-01-02"),
		b.StartTime.Format("15:04"),
		b.EndTime.Format("15:04"),
		b.ServiceName,
		b.BarberName,
		b.ClientName,
		b.ClientPhone,
		b.Status,
		b.Price,
		b.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func (s *SheetsService) getCachedRow(id string) (int, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	row, ok := s.rowCache[id]
	return row, ok
}

func (s *SheetsService) setCachedRow(id string, row int) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache[id] = row
}

func (s *SheetsService) deleteCacheRow(id string) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	delete(s.rowCache, id)
}

// ClearCache drops all cached row positions.
func (s *SheetsService) ClearCache() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache = make(map[string]int)
}
