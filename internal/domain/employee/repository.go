package employee

import "context"

type EmployeeRepository interface {
	GetByID(ctx context.Context, shopID, id string) (Employee, error)
	// GetForPeriod returns the employee with HasSlipForPeriod resolved for periodID.
	GetForPeriod(ctx context.Context, shopID, periodID, id string) (Employee, error)
	// ListForPeriod resolves the given IDs; unknown IDs are simply absent from the result.
	ListForPeriod(ctx context.Context, shopID, periodID string, ids []string) ([]Employee, error)
	// ListPayrollCandidates returns the shop's active employees that have no
	// payslip for periodID yet.
	ListPayrollCandidates(ctx context.Context, shopID, periodID string) ([]Employee, error)
	// ListActive spans every shop.
	ListActive(ctx context.Context) ([]Employee, error)
	// LockForPayroll takes a row lock on the employee inside the current transaction.
	LockForPayroll(ctx context.Context, shopID, id string) error
}
