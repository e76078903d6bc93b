package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"resort/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const (
	bookingsSheet = "Bookings"
	ordersSheet   = "Orders"
	timeLayout    = "2006-01-02 15:04"
)

// Exporter builds admin XLSX reports and optionally archives them on disk.
type Exporter struct {
	dir    string
	logger *zerolog.Logger
}

func NewExporter(dir string, logger *zerolog.Logger) *Exporter {
	return &Exporter{dir: dir, logger: logger}
}

// Bookings renders one row per booking, colored by status.
func (e *Exporter) Bookings(bookings []*models.Booking) (*excelize.File, error) {
	f, err := newWorkbook(bookingsSheet, []string{
		"ID", "User ID", "Room ID", "Room", "Check-in", "Check-out",
		"Nights", "Guests", "Total", "Status", "Created",
	})
	if err != nil {
		return nil, err
	}

	styles, err := statusStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	for i, b := range bookings {
		row := i + 2
		values := []any{
			b.ID,
			b.UserID,
			b.RoomID,
			b.RoomName,
			b.CheckIn.Format(models.DateLayout),
			b.CheckOut.Format(models.DateLayout),
			models.Nights(b.CheckIn, b.CheckOut),
			b.GuestCount,
			b.TotalPrice.InexactFloat64(),
			string(b.Status),
			b.CreatedAt.Format(timeLayout),
		}
		if err := writeRow(f, bookingsSheet, row, values); err != nil {
			f.Close()
			return nil, err
		}
		if style, ok := styles[string(b.Status)]; ok {
			cell, _ := excelize.CoordinatesToCellName(10, row)
			_ = f.SetCellStyle(bookingsSheet, cell, cell, style)
		}
	}

	_ = f.SetColWidth(bookingsSheet, "D", "D", 25)
	_ = f.SetColWidth(bookingsSheet, "E", "F", 12)
	_ = f.SetColWidth(bookingsSheet, "K", "K", 18)
	return f, nil
}

// Orders renders one row per order with its frozen totals.
func (e *Exporter) Orders(orders []*models.Order) (*excelize.File, error) {
	f, err := newWorkbook(ordersSheet, []string{
		"ID", "User ID", "Items", "Total", "Status", "Shipping address", "Phone", "Note", "Created",
	})
	if err != nil {
		return nil, err
	}

	styles, err := statusStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	for i, o := range orders {
		row := i + 2
		values := []any{
			o.ID,
			o.UserID,
			o.TotalItems,
			o.TotalPrice.InexactFloat64(),
			string(o.Status),
			o.ShippingAddress,
			o.PhoneNumber,
			o.Note,
			o.CreatedAt.Format(timeLayout),
		}
		if err := writeRow(f, ordersSheet, row, values); err != nil {
			f.Close()
			return nil, err
		}
		if style, ok := styles[string(o.Status)]; ok {
			cell, _ := excelize.CoordinatesToCellName(5, row)
			_ = f.SetCellStyle(ordersSheet, cell, cell, style)
		}
	}

	_ = f.SetColWidth(ordersSheet, "F", "F", 30)
	_ = f.SetColWidth(ordersSheet, "G", "G", 15)
	_ = f.SetColWidth(ordersSheet, "H", "H", 30)
	_ = f.SetColWidth(ordersSheet, "I", "I", 18)
	return f, nil
}

// Archive saves a copy of the workbook under the export directory and
// returns its path. It is a no-op when no directory is configured.
func (e *Exporter) Archive(f *excelize.File, kind string) (string, error) {
	if e.dir == "" {
		return "", nil
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	name := fmt.Sprintf("%s_export_%s.xlsx", kind, time.Now().Format("2006-01-02_15-04-05"))
	path := filepath.Join(e.dir, name)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save %s: %w", path, err)
	}

	e.logger.Info().Str("file_path", path).Msg("Excel export archived")
	return path, nil
}

func newWorkbook(sheet string, headers []string) (*excelize.File, error) {
	f := excelize.NewFile()
	index, err := f.NewSheet(sheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	header, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		f.Close()
		return nil, err
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
		_ = f.SetCellStyle(sheet, cell, cell, header)
	}
	return f, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

// statusStyles maps statuses to fills: green when settled, yellow while in
// progress, red when cancelled.
func statusStyles(f *excelize.File) (map[string]int, error) {
	fills := map[string]string{
		"PENDING":    "#FFEB9C",
		"PROCESSING": "#FFEB9C",
		"SHIPPED":    "#FFEB9C",
		"CONFIRMED":  "#C6EFCE",
		"DELIVERED":  "#C6EFCE",
		"COMPLETED":  "#C6EFCE",
		"CANCELLED":  "#FFC7CE",
	}
	styles := make(map[string]int, len(fills))
	for status, color := range fills {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			return nil, err
		}
		styles[status] = id
	}
	return styles, nil
}
