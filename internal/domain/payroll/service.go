package payroll

import (
	"context"
	"io"
)

// ExportFile is a rendered payroll register ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     io.Reader
	Size        int64
}

type PayrollService interface {
	// Periods
	CreatePeriod(ctx context.Context, req CreatePeriodRequest) (PeriodResponse, error)
	GetPeriod(ctx context.Context, id string) (PeriodResponse, error)
	ListPeriods(ctx context.Context) ([]PeriodResponse, error)
	FinalizeAttendance(ctx context.Context, id string) (PeriodResponse, error)

	// Batches
	PreviewBatch(ctx context.Context, req PreviewBatchRequest) (BatchPreview, error)
	ConfirmBatch(ctx context.Context, req ConfirmBatchRequest) (ConfirmBatchResponse, error)
	GenerateBatch(ctx context.Context, req GenerateBatchRequest) (BatchResult, error)
	RetryBatch(ctx context.Context, req RetryBatchRequest) (BatchResult, error)
	ExportBatch(ctx context.Context, periodID, format string) (ExportFile, error)

	// Payslips
	GeneratePayslip(ctx context.Context, req GeneratePayslipRequest) (PayslipResponse, error)
	GetPayslip(ctx context.Context, id string) (PayslipResponse, error)
	ListPayslips(ctx context.Context, periodID string) ([]PayslipResponse, error)
	UpdatePayslipStatus(ctx context.Context, id string, req UpdatePayslipStatusRequest) (PayslipResponse, error)

	GetEmployeeSummary(ctx context.Context, employeeID, periodID string) (EmployeeSummaryResponse, error)
}
