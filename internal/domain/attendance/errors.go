package attendance

import "errors"

// Attendance domain errors
var (
	ErrAlreadyCheckedIn    = errors.New("you have already checked in today")
	ErrNotCheckedIn        = errors.New("you have not checked in yet")
	ErrAlreadyCheckedOut   = errors.New("you have already checked out")
	ErrFutureCheckIn       = errors.New("check-in cannot be in the future")
	ErrCheckOutBeforeIn    = errors.New("check-out must be after check-in")
	ErrAttendanceNotFound  = errors.New("attendance record not found")
	ErrInvalidPeriodWindow = errors.New("period end date is before start date")
	ErrDayNotElapsed       = errors.New("absences can only be marked for past days")
)
