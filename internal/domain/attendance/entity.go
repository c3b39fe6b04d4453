package attendance

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusHalfDay Status = "half_day"
	StatusOnLeave Status = "on_leave"
)

// Record is one employee's attendance on one calendar date.
type Record struct {
	ID                string
	ShopID            string
	EmployeeID        string
	Date              time.Time
	Status            Status
	RegularHours      decimal.Decimal
	OvertimeHours     decimal.Decimal
	UndertimeHours    decimal.Decimal
	CheckIn           *time.Time
	CheckOut          *time.Time
	LateMinutes       int
	EarlyLeaveMinutes int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Summary is the per-employee, per-period aggregate consumed by payroll.
type Summary struct {
	EmployeeID          string          `json:"employee_id"`
	TotalRegularHours   decimal.Decimal `json:"total_regular_hours"`
	TotalOvertimeHours  decimal.Decimal `json:"total_overtime_hours"`
	TotalUndertimeHours decimal.Decimal `json:"total_undertime_hours"`
	TotalAbsentDays     int             `json:"total_absent"`
	TotalLateMinutes    int             `json:"total_late_minutes"`
	TotalEarlyMinutes   int             `json:"total_early_leave_minutes"`
}

// Summarize folds records into period totals. Absent days count records with
// status absent only.
func Summarize(employeeID string, records []Record) Summary {
	s := Summary{
		EmployeeID:          employeeID,
		TotalRegularHours:   decimal.Zero,
		TotalOvertimeHours:  decimal.Zero,
		TotalUndertimeHours: decimal.Zero,
	}
	for _, r := range records {
		s.TotalRegularHours = s.TotalRegularHours.Add(r.RegularHours)
		s.TotalOvertimeHours = s.TotalOvertimeHours.Add(r.OvertimeHours)
		s.TotalUndertimeHours = s.TotalUndertimeHours.Add(r.UndertimeHours)
		s.TotalLateMinutes += r.LateMinutes
		s.TotalEarlyMinutes += r.EarlyLeaveMinutes
		if r.Status == StatusAbsent {
			s.TotalAbsentDays++
		}
	}
	return s
}

// Shift is a daily work window expressed as offsets from local midnight.
type Shift struct {
	Start        time.Duration
	End          time.Duration
	BreakMinutes int
	GraceMinutes int
	RestDays     []time.Weekday
}

// DefaultShift is 08:00-17:00 with a one hour unpaid break, Monday to Friday.
var DefaultShift = Shift{
	Start:        8 * time.Hour,
	End:          17 * time.Hour,
	BreakMinutes: 60,
	GraceMinutes: 5,
	RestDays:     []time.Weekday{time.Saturday, time.Sunday},
}

// IsWorkDay reports whether the shift is scheduled on the weekday of day.
func (s Shift) IsWorkDay(day time.Time) bool {
	return !slices.Contains(s.RestDays, day.Weekday())
}

// ScheduledHours is the paid length of the shift.
func (s Shift) ScheduledHours() decimal.Decimal {
	minutes := int64((s.End - s.Start) / time.Minute)
	minutes -= int64(s.BreakMinutes)
	if minutes < 0 {
		minutes = 0
	}
	return decimal.NewFromInt(minutes).Div(decimal.NewFromInt(60))
}
