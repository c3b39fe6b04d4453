package attendance

import (
	"time"

	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/attendance"
	"github.com/shopspring/decimal"
)

var sixty = decimal.NewFromInt(60)

// DayHours is the payroll view of a single day's punches.
type DayHours struct {
	Regular           decimal.Decimal
	Overtime          decimal.Decimal
	Undertime         decimal.Decimal
	LateMinutes       int
	EarlyLeaveMinutes int
}

// DailyHours splits the time between checkIn and checkOut into regular,
// overtime and undertime hours against shift. day is the working date in the
// shop's location; the shift offsets are applied to its midnight.
//
// Lateness is measured from the scheduled start once the grace window has
// passed. The shift break is unpaid and comes out of the worked time.
func DailyHours(shift attendance.Shift, day, checkIn, checkOut time.Time) DayHours {
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	scheduledStart := midnight.Add(shift.Start)
	scheduledEnd := midnight.Add(shift.End)

	var out DayHours

	grace := time.Duration(shift.GraceMinutes) * time.Minute
	if checkIn.After(scheduledStart.Add(grace)) {
		out.LateMinutes = int(checkIn.Sub(scheduledStart) / time.Minute)
	}
	if checkOut.Before(scheduledEnd) {
		out.EarlyLeaveMinutes = int(scheduledEnd.Sub(checkOut) / time.Minute)
	}

	workedMinutes := int64(checkOut.Sub(checkIn)/time.Minute) - int64(shift.BreakMinutes)
	if workedMinutes < 0 {
		workedMinutes = 0
	}
	worked := decimal.NewFromInt(workedMinutes).Div(sixty)
	scheduled := shift.ScheduledHours()

	switch {
	case worked.GreaterThan(scheduled):
		out.Regular = scheduled
		out.Overtime = worked.Sub(scheduled)
		out.Undertime = decimal.Zero
	default:
		out.Regular = worked
		out.Overtime = decimal.Zero
		out.Undertime = scheduled.Sub(worked)
	}

	out.Regular = out.Regular.Round(2)
	out.Overtime = out.Overtime.Round(2)
	out.Undertime = out.Undertime.Round(2)
	return out
}

// dayStatus picks the record status once the day is closed.
func dayStatus(shift attendance.Shift, h DayHours) attendance.Status {
	half := shift.ScheduledHours().Div(decimal.NewFromInt(2))
	switch {
	case h.Regular.LessThan(half):
		return attendance.StatusHalfDay
	case h.LateMinutes > 0:
		return attendance.StatusLate
	default:
		return attendance.StatusPresent
	}
}
