package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type periodRepository struct {
	db *database.DB
}

func NewPeriodRepository(db *database.DB) payroll.PeriodRepository {
	return &periodRepository{db: db}
}

const periodColumns = `id, shop_id, label, start_date, end_date, attendance_status, working_days, created_at, updated_at`

func scanPeriod(row pgx.Row) (payroll.Period, error) {
	var p payroll.Period
	err := row.Scan(&p.ID, &p.ShopID, &p.Label, &p.StartDate, &p.EndDate, &p.AttendanceStatus, &p.WorkingDays, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *periodRepository) Create(ctx context.Context, period payroll.Period) (payroll.Period, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_periods (shop_id, label, start_date, end_date, attendance_status, working_days)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + periodColumns

	created, err := scanPeriod(q.QueryRow(ctx, query,
		period.ShopID, period.Label, period.StartDate, period.EndDate, period.AttendanceStatus, period.WorkingDays,
	))
	if err != nil {
		return payroll.Period{}, fmt.Errorf("failed to create payroll period: %w", err)
	}
	return created, nil
}

func (r *periodRepository) GetByID(ctx context.Context, shopID, id string) (payroll.Period, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + periodColumns + ` FROM payroll_periods WHERE id = $1 AND shop_id = $2`

	p, err := scanPeriod(q.QueryRow(ctx, query, id, shopID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.Period{}, payroll.ErrPeriodNotFound
		}
		return payroll.Period{}, fmt.Errorf("failed to get payroll period: %w", err)
	}
	return p, nil
}

func (r *periodRepository) List(ctx context.Context, shopID string) ([]payroll.Period, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + periodColumns + ` FROM payroll_periods WHERE shop_id = $1 ORDER BY start_date DESC`

	rows, err := q.Query(ctx, query, shopID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll periods: %w", err)
	}
	defer rows.Close()

	periods := []payroll.Period{}
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll period: %w", err)
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func (r *periodRepository) UpdateAttendanceStatus(ctx context.Context, shopID, id string, status payroll.AttendanceStatus) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_periods
		SET attendance_status = $1, updated_at = NOW()
		WHERE id = $2 AND shop_id = $3
		RETURNING id
	`

	var updatedID string
	err := q.QueryRow(ctx, query, status, id, shopID).Scan(&updatedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.ErrPeriodNotFound
		}
		return fmt.Errorf("failed to update attendance status: %w", err)
	}
	return nil
}
