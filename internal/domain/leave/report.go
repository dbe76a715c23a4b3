package leave

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

type allocationReportRow struct {
	EmployeeName  string
	LeaveTypeName string
	Days          float64
	DateFrom      string
	DateTo        string
	State         string
}

// AllocationReportPDF renders the current allocation ledger as a PDF.
func (s *Service) AllocationReportPDF(ctx context.Context) ([]byte, error) {
	rows, err := s.Store.DB.Query(ctx, `
    SELECT e.first_name || ' ' || e.last_name, lt.name, a.days,
           a.date_from, a.date_to, a.state
    FROM leave_allocations a
    JOIN employees e ON a.employee_id = e.id
    JOIN leave_types lt ON a.leave_type_id = lt.id
    ORDER BY e.last_name, e.first_name, lt.name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var report []allocationReportRow
	for rows.Next() {
		var row allocationReportRow
		var from, to time.Time
		if err := rows.Scan(&row.EmployeeName, &row.LeaveTypeName, &row.Days, &from, &to, &row.State); err != nil {
			return nil, err
		}
		row.DateFrom = from.Format("2006-01-02")
		row.DateTo = to.Format("2006-01-02")
		report = append(report, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Leave Allocations")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(55, 7, "Employee", "1", 0, "", false, 0, "")
	pdf.CellFormat(45, 7, "Leave Type", "1", 0, "", false, 0, "")
	pdf.CellFormat(20, 7, "Days", "1", 0, "R", false, 0, "")
	pdf.CellFormat(50, 7, "Window", "1", 0, "", false, 0, "")
	pdf.CellFormat(20, 7, "State", "1", 1, "", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range report {
		pdf.CellFormat(55, 7, row.EmployeeName, "1", 0, "", false, 0, "")
		pdf.CellFormat(45, 7, row.LeaveTypeName, "1", 0, "", false, 0, "")
		pdf.CellFormat(20, 7, fmt.Sprintf("%.1f", row.Days), "1", 0, "R", false, 0, "")
		pdf.CellFormat(50, 7, row.DateFrom+" to "+row.DateTo, "1", 0, "", false, 0, "")
		pdf.CellFormat(20, 7, row.State, "1", 1, "", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
