package payroll

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"strings"

	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/pkg/storage"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

var registerHeader = []string{
	"employee_code", "employee_name", "regular_hours", "overtime_hours", "absent_days",
	"basic_pay", "overtime_pay", "sales_commission", "performance_bonus", "other_allowances",
	"total_earnings", "sss", "philhealth", "pagibig", "withholding_tax", "absent_deductions",
	"other_deductions", "loan_deductions", "total_deductions", "gross_pay", "net_pay",
	"payment_method", "status",
}

var unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// Exporter renders a period's payroll register and archives a copy.
type Exporter struct {
	storage  storage.FileStorage
	currency string
}

func NewExporter(fs storage.FileStorage, currency string) *Exporter {
	return &Exporter{storage: fs, currency: currency}
}

func (e *Exporter) Export(ctx context.Context, period payroll.Period, slips []payroll.Payslip, format ExportFormat) (payroll.ExportFile, error) {
	var (
		buf         bytes.Buffer
		contentType string
		err         error
	)
	switch ExportFormat(strings.ToLower(string(format))) {
	case ExportCSV:
		contentType = "text/csv"
		format = ExportCSV
		err = writeRegisterCSV(&buf, slips)
	case ExportPDF:
		contentType = "application/pdf"
		format = ExportPDF
		err = e.writeRegisterPDF(&buf, period, slips)
	default:
		return payroll.ExportFile{}, fmt.Errorf("%w: %q", payroll.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return payroll.ExportFile{}, fmt.Errorf("failed to render payroll register: %w", err)
	}

	slug := strings.Trim(unsafeFilename.ReplaceAllString(strings.ToLower(period.Label), "-"), "-")
	if slug == "" {
		slug = period.ID
	}
	filename := fmt.Sprintf("payroll-register-%s.%s", slug, format)

	if e.storage != nil {
		key := path.Join("exports", period.ShopID, period.ID, filename)
		if _, err := e.storage.Upload(ctx, bytes.NewReader(buf.Bytes()), key, contentType); err != nil {
			slog.Error("failed to archive payroll register", "period_id", period.ID, "path", key, "error", err)
		}
	}

	return payroll.ExportFile{
		Filename:    filename,
		ContentType: contentType,
		Content:     bytes.NewReader(buf.Bytes()),
		Size:        int64(buf.Len()),
	}, nil
}

func money2(v decimal.Decimal) string {
	return v.StringFixed(2)
}

func registerRow(s payroll.Payslip) []string {
	c := s.Calculation
	return []string{
		s.EmployeeCode,
		s.EmployeeName,
		c.Hours.Regular.String(),
		c.Hours.Overtime.String(),
		fmt.Sprintf("%d", c.Hours.AbsentDays),
		money2(c.Earnings.BasicPay),
		money2(c.Earnings.OvertimePay),
		money2(c.Earnings.SalesCommission),
		money2(c.Earnings.PerformanceBonus),
		money2(c.Earnings.OtherAllowances),
		money2(c.Earnings.TotalEarnings),
		money2(c.Deductions.SSS),
		money2(c.Deductions.PhilHealth),
		money2(c.Deductions.PagIBIG),
		money2(c.Deductions.WithholdingTax),
		money2(c.Deductions.AbsentDeductions),
		money2(c.Deductions.OtherDeductions),
		money2(c.Deductions.LoanDeductions),
		money2(c.Deductions.TotalDeductions),
		money2(c.Summary.GrossPay),
		money2(c.Summary.NetPay),
		string(s.PaymentMethod),
		string(s.Status),
	}
}

func writeRegisterCSV(buf *bytes.Buffer, slips []payroll.Payslip) error {
	w := csv.NewWriter(buf)
	if err := w.Write(registerHeader); err != nil {
		return err
	}
	for _, s := range slips {
		if err := w.Write(registerRow(s)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (e *Exporter) writeRegisterPDF(buf *bytes.Buffer, period payroll.Period, slips []payroll.Payslip) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Payroll Register "+period.Label, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Payroll Register")
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Period: %s (%s to %s)", period.Label,
		period.StartDate.Format("2006-01-02"), period.EndDate.Format("2006-01-02")))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Currency: %s    Payslips: %d", e.currency, len(slips)))
	pdf.Ln(10)

	cols := []struct {
		title string
		width float64
	}{
		{"Code", 22}, {"Employee", 58}, {"Gross", 28}, {"Earnings", 28},
		{"Statutory", 26}, {"Tax", 24}, {"Deductions", 28}, {"Net", 28}, {"Status", 25},
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, c := range cols {
		pdf.CellFormat(c.width, 7, c.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	totalGross, totalNet := decimal.Zero, decimal.Zero
	for _, s := range slips {
		c := s.Calculation
		values := []string{
			s.EmployeeCode,
			s.EmployeeName,
			money2(c.Summary.GrossPay),
			money2(c.Earnings.TotalEarnings),
			money2(c.Deductions.Statutory()),
			money2(c.Deductions.WithholdingTax),
			money2(c.Deductions.TotalDeductions),
			money2(c.Summary.NetPay),
			string(s.Status),
		}
		for i, v := range values {
			align := "R"
			if i < 2 || i == len(values)-1 {
				align = "L"
			}
			pdf.CellFormat(cols[i].width, 6, v, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
		totalGross = totalGross.Add(c.Summary.GrossPay)
		totalNet = totalNet.Add(c.Summary.NetPay)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(0, 7, fmt.Sprintf("Total gross: %s %s    Total net: %s %s",
		money2(totalGross), e.currency, money2(totalNet), e.currency))

	return pdf.Output(buf)
}
