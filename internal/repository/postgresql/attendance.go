package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

const attendanceColumns = `
	id, shop_id, employee_id, date, status,
	regular_hours, overtime_hours, undertime_hours,
	check_in, check_out, late_minutes, early_leave_minutes,
	created_at, updated_at
`

func scanAttendance(row pgx.Row) (attendance.Record, error) {
	var rec attendance.Record
	err := row.Scan(
		&rec.ID, &rec.ShopID, &rec.EmployeeID, &rec.Date, &rec.Status,
		&rec.RegularHours, &rec.OvertimeHours, &rec.UndertimeHours,
		&rec.CheckIn, &rec.CheckOut, &rec.LateMinutes, &rec.EarlyLeaveMinutes,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	return rec, err
}

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepository) Create(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendances (
			shop_id, employee_id, date, status,
			regular_hours, overtime_hours, undertime_hours,
			check_in, check_out, late_minutes, early_leave_minutes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + attendanceColumns

	created, err := scanAttendance(q.QueryRow(ctx, query,
		record.ShopID, record.EmployeeID, record.Date, record.Status,
		record.RegularHours, record.OvertimeHours, record.UndertimeHours,
		record.CheckIn, record.CheckOut, record.LateMinutes, record.EarlyLeaveMinutes,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return attendance.Record{}, attendance.ErrAlreadyCheckedIn
		}
		return attendance.Record{}, fmt.Errorf("failed to create attendance: %w", err)
	}
	return created, nil
}

// Update implements attendance.AttendanceRepository.
func (a *attendanceRepository) Update(ctx context.Context, record attendance.Record) error {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendances
		SET status = $1, regular_hours = $2, overtime_hours = $3, undertime_hours = $4,
			check_in = $5, check_out = $6, late_minutes = $7, early_leave_minutes = $8,
			updated_at = NOW()
		WHERE id = $9 AND shop_id = $10
		RETURNING id
	`

	var updatedID string
	err := q.QueryRow(ctx, query,
		record.Status, record.RegularHours, record.OvertimeHours, record.UndertimeHours,
		record.CheckIn, record.CheckOut, record.LateMinutes, record.EarlyLeaveMinutes,
		record.ID, record.ShopID,
	).Scan(&updatedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return attendance.ErrAttendanceNotFound
		}
		return fmt.Errorf("failed to update attendance %s: %w", record.ID, err)
	}
	return nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, shopID, employeeID string, date time.Time) (*attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE shop_id = $1 AND employee_id = $2 AND date = $3
	`

	rec, err := scanAttendance(q.QueryRow(ctx, query, shopID, employeeID, date.Format("2006-01-02")))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance: %w", err)
	}
	return &rec, nil
}

// ListByEmployeePeriod implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByEmployeePeriod(ctx context.Context, shopID, employeeID string, from, to time.Time) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE shop_id = $1 AND employee_id = $2 AND date BETWEEN $3 AND $4
		ORDER BY date
	`

	rows, err := q.Query(ctx, query, shopID, employeeID, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	defer rows.Close()

	records := []attendance.Record{}
	for rows.Next() {
		rec, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListOpenBefore implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListOpenBefore(ctx context.Context, before time.Time) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE check_in IS NOT NULL AND check_out IS NULL AND date < $1
		ORDER BY date, shop_id
	`

	rows, err := q.Query(ctx, query, before.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to list open attendance: %w", err)
	}
	defer rows.Close()

	records := []attendance.Record{}
	for rows.Next() {
		rec, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
