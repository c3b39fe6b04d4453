package leave

import (
	"time"
)

// LeaveType entity
type LeaveType struct {
	ID     string
	ShopID string
	Name   string
	Code   *string

	// Policy Rules
	IsActive         bool
	RequiresApproval bool

	// Request Rules; 0 means no cap.
	MaxConsecutiveDays int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// LeaveBalance is an employee's remaining days for one leave type and year.
type LeaveBalance struct {
	ID          string
	EmployeeID  string
	LeaveTypeID string
	Year        int
	Allocated   int
	Used        int
	UpdatedAt   time.Time
}

// Remaining is never negative.
func (b LeaveBalance) Remaining() int {
	if r := b.Allocated - b.Used; r > 0 {
		return r
	}
	return 0
}

type LeaveRequestStatus string

const (
	LeaveRequestStatusWaitingApproval LeaveRequestStatus = "waiting_approval"
	LeaveRequestStatusApproved        LeaveRequestStatus = "approved"
	LeaveRequestStatusRejected        LeaveRequestStatus = "rejected"
	LeaveRequestStatusCancelled       LeaveRequestStatus = "cancelled"
)

// LeaveRequest entity
type LeaveRequest struct {
	ID          string
	ShopID      string
	EmployeeID  string
	LeaveTypeID string

	StartDate time.Time
	EndDate   time.Time
	TotalDays int
	Reason    string

	Status          LeaveRequestStatus
	ApprovedBy      *string
	ApprovedAt      *time.Time
	RejectionReason *string
	CancelledAt     *time.Time

	SubmittedAt time.Time
	UpdatedAt   time.Time
}

// InclusiveDays counts calendar days from start to end, both included.
func InclusiveDays(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s).Hours()/24) + 1
}
