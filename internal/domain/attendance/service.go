package attendance

import (
	"context"
	"time"
)

// AttendanceService defines business logic for attendance operations
type AttendanceService interface {
	CheckIn(ctx context.Context, req CheckInRequest) (RecordResponse, error)
	CheckOut(ctx context.Context, req CheckOutRequest) (RecordResponse, error)
	// GetSummary aggregates an employee's records for an inclusive date window.
	GetSummary(ctx context.Context, shopID, employeeID string, from, to time.Time) (Summary, []Record, error)
	// CloseStale checks out forgotten punches from earlier days at the shift end.
	CloseStale(ctx context.Context) (int, error)
	// MarkAbsent records every active employee without a record on a past
	// working day, as on_leave when approved leave covers it and absent otherwise.
	MarkAbsent(ctx context.Context, day time.Time) (int, error)
}
