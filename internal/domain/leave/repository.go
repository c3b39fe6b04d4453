package leave

import (
	"context"
	"time"
)

// LeaveTypeRepository - interface for leave_types table
type LeaveTypeRepository interface {
	GetByID(ctx context.Context, shopID, id string) (LeaveType, error)
}

// LeaveBalanceRepository - interface for leave_balances table
type LeaveBalanceRepository interface {
	GetByEmployeeTypeYear(ctx context.Context, employeeID, leaveTypeID string, year int) (LeaveBalance, error)
	// Decrement fails with ErrInsufficientBalance when fewer than days remain.
	Decrement(ctx context.Context, balanceID string, days int) error
}

// LeaveRequestRepository - interface for leave_requests table
type LeaveRequestRepository interface {
	Create(ctx context.Context, request LeaveRequest) (LeaveRequest, error)
	GetByID(ctx context.Context, shopID, id string) (LeaveRequest, error)
	Update(ctx context.Context, request LeaveRequest) error
	// CheckOverlapping reports whether a waiting or approved request of the
	// employee intersects [start, end].
	CheckOverlapping(ctx context.Context, employeeID string, start, end time.Time) (bool, error)
	// HasApprovedOn reports whether an approved request of the employee covers day.
	HasApprovedOn(ctx context.Context, shopID, employeeID string, day time.Time) (bool, error)
}
