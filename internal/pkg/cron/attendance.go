package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/attendance"
)

// AttendanceMaintainer closes forgotten punches and fills in missed days.
type AttendanceMaintainer interface {
	CloseStale(ctx context.Context) (int, error)
	MarkAbsent(ctx context.Context, day time.Time) (int, error)
}

type AttendanceJobs struct {
	attendance AttendanceMaintainer
	interval   time.Duration
	now        func() time.Time
}

func NewAttendanceJobs(maintainer AttendanceMaintainer, interval time.Duration) *AttendanceJobs {
	if interval <= 0 {
		interval = time.Hour
	}
	return &AttendanceJobs{attendance: maintainer, interval: interval, now: time.Now}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("auto_close_stale_attendances", j.interval, j.AutoCloseStaleAttendances)
	scheduler.AddJob("mark_absent_employees", j.interval, j.MarkAbsentEmployees)
}

// AutoCloseStaleAttendances closes earlier days' open records so payroll
// aggregation sees worked hours instead of a dangling check-in.
func (j *AttendanceJobs) AutoCloseStaleAttendances(ctx context.Context) error {
	closed, err := j.attendance.CloseStale(ctx)
	if err != nil {
		return fmt.Errorf("failed to close stale attendances: %w", err)
	}
	if closed > 0 {
		slog.Info("auto-closed stale attendances", "count", closed)
	}
	return nil
}

// MarkAbsentEmployees records yesterday's absences. Every run is idempotent,
// so the hourly schedule only needs one run per day to succeed.
func (j *AttendanceJobs) MarkAbsentEmployees(ctx context.Context) error {
	yesterday := j.now().AddDate(0, 0, -1)
	marked, err := j.attendance.MarkAbsent(ctx, yesterday)
	if err != nil {
		if errors.Is(err, attendance.ErrDayNotElapsed) {
			return nil
		}
		return fmt.Errorf("failed to mark absent employees: %w", err)
	}
	if marked > 0 {
		slog.Info("marked absent employees", "count", marked, "date", yesterday.Format("2006-01-02"))
	}
	return nil
}
