package attendance

import (
	"context"
	"time"
)

// AttendanceRepository defines data access methods for attendance records.
// All methods include shopID to keep tenants apart.
type AttendanceRepository interface {
	Create(ctx context.Context, record Record) (Record, error)
	Update(ctx context.Context, record Record) error
	// GetByEmployeeAndDate returns nil, nil when no record exists for that date.
	GetByEmployeeAndDate(ctx context.Context, shopID, employeeID string, date time.Time) (*Record, error)
	// ListByEmployeePeriod returns records with from <= date <= to.
	ListByEmployeePeriod(ctx context.Context, shopID, employeeID string, from, to time.Time) ([]Record, error)
	// ListOpenBefore spans every shop: records checked in but never checked
	// out on a date strictly before the given one.
	ListOpenBefore(ctx context.Context, before time.Time) ([]Record, error)
}
