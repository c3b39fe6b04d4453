package payroll

import "errors"

var (
	ErrPeriodNotFound          = errors.New("payroll period not found")
	ErrPayslipNotFound         = errors.New("payslip not found")
	ErrAttendanceNotFinalized  = errors.New("attendance for this period is not finalized")
	ErrPayslipAlreadyExists    = errors.New("payslip already exists for this employee and period")
	ErrEmployeeNotActive       = errors.New("employee is not active")
	ErrInvalidWorkingDays      = errors.New("period working days must be greater than zero")
	ErrNoRateConfigured        = errors.New("employee has no rate configured for their pay type")
	ErrCalculationMismatch     = errors.New("submitted figures do not match the computed payslip")
	ErrInvalidStatusChange     = errors.New("payslip status cannot change that way")
	ErrInvalidBatchTransition  = errors.New("invalid batch state transition")
	ErrBatchNotConfirmed       = errors.New("batch generation requires confirmation")
	ErrInvalidConfirmation     = errors.New("batch confirmation token is invalid or expired")
	ErrConfirmationStale       = errors.New("batch changed since it was confirmed; preview and confirm again")
	ErrPreviewHasErrors        = errors.New("preview has errors; resolve them before confirming")
	ErrWarningsNotAcknowledged = errors.New("preview has warnings that must be acknowledged")
	ErrNoEmployeesSelected     = errors.New("no employees selected")
	ErrPeriodAlreadyFinalized  = errors.New("attendance for this period is already finalized")
	ErrUnsupportedFormat       = errors.New("unsupported export format")
)
