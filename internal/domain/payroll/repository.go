package payroll

import "context"

// PeriodRepository defines data access for payroll_periods.
// All methods include shopID to prevent cross-shop access.
type PeriodRepository interface {
	Create(ctx context.Context, period Period) (Period, error)
	GetByID(ctx context.Context, shopID, id string) (Period, error)
	List(ctx context.Context, shopID string) ([]Period, error)
	UpdateAttendanceStatus(ctx context.Context, shopID, id string, status AttendanceStatus) error
}

// PayslipRepository defines data access for payslips. Calculation columns are
// write-once; only status changes after insert.
type PayslipRepository interface {
	// Create returns ErrPayslipAlreadyExists on a unique (employee, period) clash.
	Create(ctx context.Context, slip Payslip) (Payslip, error)
	GetByID(ctx context.Context, shopID, id string) (Payslip, error)
	ListByPeriod(ctx context.Context, shopID, periodID string) ([]Payslip, error)
	ExistsForPeriod(ctx context.Context, shopID, employeeID, periodID string) (bool, error)
	UpdateStatus(ctx context.Context, shopID, id string, status PayslipStatus) error
}
