package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"guesthouse/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const (
	SheetBookings = "Bookings"
	SheetPayments = "Payments"
	SheetSummary  = "Summary"
)

var (
	bookingHeaders = []string{
		"ID", "Room", "Guest", "Email", "Phone", "Check-in", "Check-out", "Guests",
		"Status", "Payment status", "Total", "Deposit", "Balance", "Created",
	}
	paymentHeaders = []string{
		"ID", "Booking", "Amount", "Type", "Method", "Reference", "Status", "Paid at", "Created",
	}
)

// ExcelExporter renders bookings, payments and the revenue summary into one workbook.
type ExcelExporter struct {
	src    Source
	dir    string
	now    func() time.Time
	logger *zerolog.Logger
}

func NewExcelExporter(src Source, dir string, logger *zerolog.Logger) *ExcelExporter {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &ExcelExporter{src: src, dir: dir, now: time.Now, logger: logger}
}

// Export writes the workbook into the export directory and returns its path.
func (e *ExcelExporter) Export(ctx context.Context) (string, error) {
	// Создаем папку для экспорта, если не существует
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	f, err := e.Build(ctx)
	if err != nil {
		return "", err
	}
	defer f.Close()

	fileName := fmt.Sprintf("guesthouse_export_%s.xlsx", e.now().UTC().Format("2006-01-02_15-04-05"))
	filePath := filepath.Join(e.dir, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}

	e.logger.Info().Str("file_path", filePath).Msg("Excel file created")
	return filePath, nil
}

// WriteTo streams the workbook to w.
func (e *ExcelExporter) WriteTo(ctx context.Context, w io.Writer) error {
	f, err := e.Build(ctx)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

// Build assembles the workbook in memory. The caller closes it.
func (e *ExcelExporter) Build(ctx context.Context) (*excelize.File, error) {
	bookings, err := e.src.ListBookings(ctx, models.BookingFilter{})
	if err != nil {
		return nil, fmt.Errorf("error getting bookings: %w", err)
	}
	payments, err := e.src.ListPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting payments: %w", err)
	}

	f := excelize.NewFile()

	index, err := f.NewSheet(SheetBookings)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("error deleting default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating header style: %w", err)
	}

	sw := &sheetWriter{f: f}
	sw.row(SheetBookings, 1, toCells(bookingHeaders), headerStyle)
	for i, b := range bookings {
		sw.row(SheetBookings, i+2, []interface{}{
			b.ID, roomLabel(b), b.GuestName, b.GuestEmail, b.GuestPhone,
			b.CheckIn.Format(models.DateLayout), b.CheckOut.Format(models.DateLayout), b.Guests,
			b.Status, b.PaymentStatus, b.TotalAmount, b.DepositAmount, b.BalanceAmount,
			b.CreatedAt.UTC().Format(time.RFC3339),
		}, 0)
	}
	sw.colWidth(SheetBookings, "A", "A", 38)
	sw.colWidth(SheetBookings, "B", "N", 18)

	if _, err := f.NewSheet(SheetPayments); err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	sw.row(SheetPayments, 1, toCells(paymentHeaders), headerStyle)
	for i, p := range payments {
		paidAt := ""
		if p.PaidAt != nil {
			paidAt = p.PaidAt.UTC().Format(time.RFC3339)
		}
		sw.row(SheetPayments, i+2, []interface{}{
			p.ID, p.BookingID, p.Amount, p.PaymentType, p.PaymentMethod, p.PaymentReference,
			p.Status, paidAt, p.CreatedAt.UTC().Format(time.RFC3339),
		}, 0)
	}
	sw.colWidth(SheetPayments, "A", "B", 38)
	sw.colWidth(SheetPayments, "C", "I", 16)

	if err := e.writeSummary(ctx, sw, headerStyle); err != nil {
		f.Close()
		return nil, err
	}
	if sw.err != nil {
		f.Close()
		return nil, fmt.Errorf("error filling workbook: %w", sw.err)
	}

	return f, nil
}

func (e *ExcelExporter) writeSummary(ctx context.Context, sw *sheetWriter, headerStyle int) error {
	if _, err := sw.f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}

	total, err := e.src.RevenueTotal(ctx)
	if err != nil {
		return fmt.Errorf("error getting revenue: %w", err)
	}
	byMethod, err := e.src.RevenueByMethod(ctx)
	if err != nil {
		return fmt.Errorf("error getting revenue by method: %w", err)
	}
	byRoom, err := e.src.BookingStatsByRoom(ctx)
	if err != nil {
		return fmt.Errorf("error getting room stats: %w", err)
	}
	monthly, err := e.src.MonthlyTrends(ctx)
	if err != nil {
		return fmt.Errorf("error getting monthly trends: %w", err)
	}

	row := 1
	sw.row(SheetSummary, row, []interface{}{"Generated", e.now().UTC().Format(time.RFC3339)}, 0)
	row += 2

	sw.row(SheetSummary, row, []interface{}{"Revenue", "Payments"}, headerStyle)
	row++
	sw.row(SheetSummary, row, []interface{}{total.Total, total.Payments}, 0)
	row += 2

	sw.row(SheetSummary, row, []interface{}{"Method", "Revenue"}, headerStyle)
	row++
	for _, m := range byMethod {
		sw.row(SheetSummary, row, []interface{}{m.Method, m.Total}, 0)
		row++
	}
	row++

	sw.row(SheetSummary, row, []interface{}{"Room", "Bookings", "Revenue"}, headerStyle)
	row++
	for _, r := range byRoom {
		name := r.RoomName
		if name == "" {
			name = r.RoomID
		}
		sw.row(SheetSummary, row, []interface{}{name, r.TotalBookings, r.TotalRevenue}, 0)
		row++
	}
	row++

	sw.row(SheetSummary, row, []interface{}{"Month", "Bookings", "Revenue"}, headerStyle)
	row++
	for _, m := range monthly {
		sw.row(SheetSummary, row, []interface{}{fmt.Sprintf("%04d-%02d", m.Year, m.Month), m.Bookings, m.Revenue}, 0)
		row++
	}

	sw.colWidth(SheetSummary, "A", "C", 22)
	return nil
}

// sheetWriter fills cells and keeps the first excelize error; later calls
// become no-ops once one has failed.
type sheetWriter struct {
	f   *excelize.File
	err error
}

func (w *sheetWriter) row(sheet string, row int, values []interface{}, style int) {
	for i, v := range values {
		if w.err != nil {
			return
		}
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			w.err = err
			return
		}
		if err := w.f.SetCellValue(sheet, cell, v); err != nil {
			w.err = fmt.Errorf("set %s!%s: %w", sheet, cell, err)
			return
		}
		if style != 0 {
			if err := w.f.SetCellStyle(sheet, cell, cell, style); err != nil {
				w.err = fmt.Errorf("style %s!%s: %w", sheet, cell, err)
				return
			}
		}
	}
}

func (w *sheetWriter) colWidth(sheet, startCol, endCol string, width float64) {
	if w.err != nil {
		return
	}
	if err := w.f.SetColWidth(sheet, startCol, endCol, width); err != nil {
		w.err = fmt.Errorf("width %s!%s:%s: %w", sheet, startCol, endCol, err)
	}
}

func toCells(headers []string) []interface{} {
	cells := make([]interface{}, len(headers))
	for i, h := range headers {
		cells[i] = h
	}
	return cells
}

func roomLabel(b *models.Booking) string {
	if b.RoomName != "" {
		return b.RoomName
	}
	return b.RoomID
}
