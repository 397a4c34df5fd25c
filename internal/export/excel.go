// Package export renders booking data as xlsx reports.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"navalha/internal/models"
)

var reportHeaders = []string{
	"ID", "Date", "Start", "End", "Service", "Barber",
	"Client", "Phone", "Status", "Price",
}

// WriteBookingsReport writes an xlsx report of the bookings to w, one row
// per booking with a totals row at the bottom.
func WriteBookingsReport(w io.Writer, bookings []models.Booking) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Bookings"
	f.SetSheetName(f.GetSheetName(0), sheet)

	for col, header := range reportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
	}

	var total float64
	for i, b := range bookings {
		row := i + 2
		values := []any{
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
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
		if b.Status != models.StatusCanceled {
			total += b.Price
		}
	}

	totalRow := len(bookings) + 3
	labelCell, err := excelize.CoordinatesToCellName(1, totalRow)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, labelCell, "Total (non-canceled)"); err != nil {
		return err
	}
	valueCell, err := excelize.CoordinatesToCellName(len(reportHeaders), totalRow)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, valueCell, total); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
