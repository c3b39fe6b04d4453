package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/employee"
	"github.com/go-chi/jwtauth/v5"
	"github.com/shopspring/decimal"
)

// futureTolerance absorbs client clock skew on explicit timestamps.
const futureTolerance = time.Minute

// LeaveCalendar answers whether approved leave covers an employee's day.
// leave.LeaveRequestRepository satisfies it.
type LeaveCalendar interface {
	HasApprovedOn(ctx context.Context, shopID, employeeID string, day time.Time) (bool, error)
}

type AttendanceServiceImpl struct {
	attendance.AttendanceRepository
	employee.EmployeeRepository
	leaves LeaveCalendar
	shift  attendance.Shift
	loc    *time.Location
	now    func() time.Time
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	leaves LeaveCalendar,
	shift attendance.Shift,
	loc *time.Location,
) attendance.AttendanceService {
	if loc == nil {
		loc = time.UTC
	}
	return &AttendanceServiceImpl{
		AttendanceRepository: attendanceRepo,
		EmployeeRepository:   employeeRepo,
		leaves:               leaves,
		shift:                shift,
		loc:                  loc,
		now:                  time.Now,
	}
}

func shopIDFromContext(ctx context.Context) (string, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	shopID, ok := claims["shop_id"].(string)
	if !ok || shopID == "" {
		return "", fmt.Errorf("shop_id claim is missing or invalid")
	}
	return shopID, nil
}

// punchTime resolves an optional RFC3339 timestamp against the service clock.
func (a *AttendanceServiceImpl) punchTime(at *string) (time.Time, error) {
	now := a.now().In(a.loc)
	if at == nil {
		return now, nil
	}
	t, err := time.Parse(time.RFC3339, *at)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp: %w", err)
	}
	t = t.In(a.loc)
	if t.After(now.Add(futureTolerance)) {
		return time.Time{}, attendance.ErrFutureCheckIn
	}
	return t, nil
}

func (a *AttendanceServiceImpl) workDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, a.loc)
}

// CheckIn implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CheckIn(ctx context.Context, req attendance.CheckInRequest) (attendance.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.RecordResponse{}, err
	}

	shopID, err := shopIDFromContext(ctx)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	at, err := a.punchTime(req.At)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	if _, err := a.EmployeeRepository.GetByID(ctx, shopID, req.EmployeeID); err != nil {
		return attendance.RecordResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}

	date := a.workDate(at)
	existing, err := a.AttendanceRepository.GetByEmployeeAndDate(ctx, shopID, req.EmployeeID, date)
	if err != nil {
		return attendance.RecordResponse{}, fmt.Errorf("failed to check existing attendance: %w", err)
	}
	if existing != nil {
		return attendance.RecordResponse{}, attendance.ErrAlreadyCheckedIn
	}

	status := attendance.StatusPresent
	lateMinutes := 0
	scheduledStart := date.Add(a.shift.Start)
	if at.After(scheduledStart.Add(time.Duration(a.shift.GraceMinutes) * time.Minute)) {
		status = attendance.StatusLate
		lateMinutes = int(at.Sub(scheduledStart) / time.Minute)
	}

	checkIn := at.UTC()
	record, err := a.AttendanceRepository.Create(ctx, attendance.Record{
		ShopID:         shopID,
		EmployeeID:     req.EmployeeID,
		Date:           date,
		Status:         status,
		RegularHours:   decimal.Zero,
		OvertimeHours:  decimal.Zero,
		UndertimeHours: decimal.Zero,
		CheckIn:        &checkIn,
		LateMinutes:    lateMinutes,
	})
	if err != nil {
		if errors.Is(err, attendance.ErrAlreadyCheckedIn) {
			return attendance.RecordResponse{}, err
		}
		return attendance.RecordResponse{}, fmt.Errorf("failed to create attendance record: %w", err)
	}

	return mapRecordToResponse(record), nil
}

// CheckOut implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CheckOut(ctx context.Context, req attendance.CheckOutRequest) (attendance.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.RecordResponse{}, err
	}

	shopID, err := shopIDFromContext(ctx)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	at, err := a.punchTime(req.At)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	date := a.workDate(at)
	record, err := a.AttendanceRepository.GetByEmployeeAndDate(ctx, shopID, req.EmployeeID, date)
	if err != nil {
		return attendance.RecordResponse{}, fmt.Errorf("failed to get attendance record: %w", err)
	}
	if record == nil || record.CheckIn == nil {
		return attendance.RecordResponse{}, attendance.ErrNotCheckedIn
	}
	if record.CheckOut != nil {
		return attendance.RecordResponse{}, attendance.ErrAlreadyCheckedOut
	}
	if !at.After(*record.CheckIn) {
		return attendance.RecordResponse{}, attendance.ErrCheckOutBeforeIn
	}

	hours := DailyHours(a.shift, date, record.CheckIn.In(a.loc), at)

	checkOut := at.UTC()
	record.CheckOut = &checkOut
	record.RegularHours = hours.Regular
	record.OvertimeHours = hours.Overtime
	record.UndertimeHours = hours.Undertime
	record.LateMinutes = hours.LateMinutes
	record.EarlyLeaveMinutes = hours.EarlyLeaveMinutes
	record.Status = dayStatus(a.shift, hours)

	if err := a.AttendanceRepository.Update(ctx, *record); err != nil {
		return attendance.RecordResponse{}, fmt.Errorf("failed to update attendance record: %w", err)
	}

	return mapRecordToResponse(*record), nil
}

// GetSummary implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetSummary(ctx context.Context, shopID, employeeID string, from, to time.Time) (attendance.Summary, []attendance.Record, error) {
	if to.Before(from) {
		return attendance.Summary{}, nil, attendance.ErrInvalidPeriodWindow
	}

	records, err := a.AttendanceRepository.ListByEmployeePeriod(ctx, shopID, employeeID, from, to)
	if err != nil {
		return attendance.Summary{}, nil, fmt.Errorf("failed to list attendance records: %w", err)
	}

	return attendance.Summarize(employeeID, records), records, nil
}

// CloseStale implements attendance.AttendanceService. A record that was never
// checked out is closed at its scheduled shift end; check-ins after that end
// close with zero worked time.
func (a *AttendanceServiceImpl) CloseStale(ctx context.Context) (int, error) {
	today := a.workDate(a.now().In(a.loc))

	records, err := a.AttendanceRepository.ListOpenBefore(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("failed to list open attendance records: %w", err)
	}

	closed := 0
	for _, record := range records {
		if record.CheckIn == nil {
			continue
		}
		day := time.Date(record.Date.Year(), record.Date.Month(), record.Date.Day(), 0, 0, 0, 0, a.loc)
		checkIn := record.CheckIn.In(a.loc)
		checkOut := day.Add(a.shift.End)
		if checkOut.Before(checkIn) {
			checkOut = checkIn
		}

		hours := DailyHours(a.shift, day, checkIn, checkOut)
		out := checkOut.UTC()
		record.CheckOut = &out
		record.RegularHours = hours.Regular
		record.OvertimeHours = hours.Overtime
		record.UndertimeHours = hours.Undertime
		record.LateMinutes = hours.LateMinutes
		record.EarlyLeaveMinutes = hours.EarlyLeaveMinutes
		record.Status = dayStatus(a.shift, hours)

		if err := a.AttendanceRepository.Update(ctx, record); err != nil {
			slog.Error("failed to auto-close attendance",
				"attendance_id", record.ID,
				"employee_id", record.EmployeeID,
				"error", err)
			continue
		}
		closed++
	}

	return closed, nil
}

// MarkAbsent implements attendance.AttendanceService. Rest days are skipped,
// as are employees hired after the day and anyone who already has a record.
// An approved leave day is credited with the scheduled shift hours.
func (a *AttendanceServiceImpl) MarkAbsent(ctx context.Context, day time.Time) (int, error) {
	date := a.workDate(day.In(a.loc))
	if !date.Before(a.workDate(a.now().In(a.loc))) {
		return 0, attendance.ErrDayNotElapsed
	}
	if !a.shift.IsWorkDay(date) {
		return 0, nil
	}

	employees, err := a.EmployeeRepository.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list active employees: %w", err)
	}

	dayEnd := date.AddDate(0, 0, 1)
	marked := 0
	for _, emp := range employees {
		if !emp.CreatedAt.IsZero() && !emp.CreatedAt.Before(dayEnd) {
			continue
		}
		logger := slog.With("employee_id", emp.ID, "shop_id", emp.ShopID, "date", date.Format("2006-01-02"))

		existing, err := a.AttendanceRepository.GetByEmployeeAndDate(ctx, emp.ShopID, emp.ID, date)
		if err != nil {
			logger.Error("failed to check attendance before marking absence", "error", err)
			continue
		}
		if existing != nil {
			continue
		}

		onLeave, err := a.leaves.HasApprovedOn(ctx, emp.ShopID, emp.ID, date)
		if err != nil {
			logger.Error("failed to check approved leave", "error", err)
			continue
		}

		record := attendance.Record{
			ShopID:         emp.ShopID,
			EmployeeID:     emp.ID,
			Date:           date,
			Status:         attendance.StatusAbsent,
			RegularHours:   decimal.Zero,
			OvertimeHours:  decimal.Zero,
			UndertimeHours: decimal.Zero,
		}
		if onLeave {
			record.Status = attendance.StatusOnLeave
			record.RegularHours = a.shift.ScheduledHours()
		}

		if _, err := a.AttendanceRepository.Create(ctx, record); err != nil {
			// a punch landed between the lookup and the insert
			if errors.Is(err, attendance.ErrAlreadyCheckedIn) {
				continue
			}
			logger.Error("failed to mark absence", "status", record.Status, "error", err)
			continue
		}
		marked++
	}

	return marked, nil
}

func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.Format(time.RFC3339)
	return &format
}

func mapRecordToResponse(r attendance.Record) attendance.RecordResponse {
	return attendance.RecordResponse{
		ID:                r.ID,
		EmployeeID:        r.EmployeeID,
		Date:              r.Date.Format("2006-01-02"),
		Status:            string(r.Status),
		RegularHours:      r.RegularHours.StringFixed(2),
		OvertimeHours:     r.OvertimeHours.StringFixed(2),
		UndertimeHours:    r.UndertimeHours.StringFixed(2),
		CheckIn:           timePtrToString(r.CheckIn),
		CheckOut:          timePtrToString(r.CheckOut),
		LateMinutes:       r.LateMinutes,
		EarlyLeaveMinutes: r.EarlyLeaveMinutes,
	}
}
