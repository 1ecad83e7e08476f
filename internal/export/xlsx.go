package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/example/room-calendar/internal/scheduler"
)

var baseHeaders = []string{"ID", "Subject", "Resource", "Start date", "End date", "Start time", "End time", "Contact"}

// XLSX writes one worksheet with a header row and one row per booking.
// Metadata keys become extra columns in lexical order.
func XLSX(w io.Writer, bookings []scheduler.Booking, opts Options) error {
	opts = opts.withDefaults()

	f := excelize.NewFile()
	defer f.Close()

	sheet := opts.SheetName
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	extra := metadataKeys(bookings)
	headers := append(append([]string(nil), baseHeaders...), extra...)
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, b := range bookings {
		row := []any{b.ID, b.SubjectID, b.ResourceID, b.StartDate, b.EndDate, b.StartTime, b.EndTime, b.ContactKey}
		for _, key := range extra {
			row = append(row, b.Metadata[key])
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(sheet, "B", "C", 20); err != nil {
		return fmt.Errorf("size columns: %w", err)
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
