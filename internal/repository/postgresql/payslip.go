package postgresql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type payslipRepository struct {
	db *database.DB
}

func NewPayslipRepository(db *database.DB) payroll.PayslipRepository {
	return &payslipRepository{db: db}
}

const payslipColumns = `
	id, shop_id, employee_id, employee_name, employee_code, period_id,
	calculation, payment_method, status, generated_at, generated_by, updated_at
`

func scanPayslip(row pgx.Row) (payroll.Payslip, error) {
	var (
		s    payroll.Payslip
		calc []byte
	)
	err := row.Scan(
		&s.ID, &s.ShopID, &s.EmployeeID, &s.EmployeeName, &s.EmployeeCode, &s.PeriodID,
		&calc, &s.PaymentMethod, &s.Status, &s.GeneratedAt, &s.GeneratedBy, &s.UpdatedAt,
	)
	if err != nil {
		return payroll.Payslip{}, err
	}
	if err := json.Unmarshal(calc, &s.Calculation); err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to decode payslip calculation: %w", err)
	}
	return s, nil
}

func (r *payslipRepository) Create(ctx context.Context, slip payroll.Payslip) (payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	calc, err := json.Marshal(slip.Calculation)
	if err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to encode payslip calculation: %w", err)
	}

	// gross_pay and net_pay duplicate the calculation for reporting queries.
	query := `
		INSERT INTO payslips (
			id, shop_id, employee_id, employee_name, employee_code, period_id,
			calculation, gross_pay, net_pay, payment_method, status, generated_at, generated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + payslipColumns

	created, err := scanPayslip(q.QueryRow(ctx, query,
		slip.ID, slip.ShopID, slip.EmployeeID, slip.EmployeeName, slip.EmployeeCode, slip.PeriodID,
		calc, slip.Calculation.Summary.GrossPay, slip.Calculation.Summary.NetPay,
		slip.PaymentMethod, slip.Status, slip.GeneratedAt, slip.GeneratedBy,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return payroll.Payslip{}, payroll.ErrPayslipAlreadyExists
		}
		return payroll.Payslip{}, fmt.Errorf("failed to insert payslip: %w", err)
	}
	return created, nil
}

func (r *payslipRepository) GetByID(ctx context.Context, shopID, id string) (payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + payslipColumns + ` FROM payslips WHERE id = $1 AND shop_id = $2`

	s, err := scanPayslip(q.QueryRow(ctx, query, id, shopID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.Payslip{}, payroll.ErrPayslipNotFound
		}
		return payroll.Payslip{}, fmt.Errorf("failed to get payslip: %w", err)
	}
	return s, nil
}

func (r *payslipRepository) ListByPeriod(ctx context.Context, shopID, periodID string) ([]payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + payslipColumns + `
		FROM payslips
		WHERE shop_id = $1 AND period_id = $2
		ORDER BY employee_code
	`

	rows, err := q.Query(ctx, query, shopID, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payslips: %w", err)
	}
	defer rows.Close()

	slips := []payroll.Payslip{}
	for rows.Next() {
		s, err := scanPayslip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payslip: %w", err)
		}
		slips = append(slips, s)
	}
	return slips, rows.Err()
}

func (r *payslipRepository) ExistsForPeriod(ctx context.Context, shopID, employeeID, periodID string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM payslips WHERE shop_id = $1 AND employee_id = $2 AND period_id = $3)`,
		shopID, employeeID, periodID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check payslip existence: %w", err)
	}
	return exists, nil
}

func (r *payslipRepository) UpdateStatus(ctx context.Context, shopID, id string, status payroll.PayslipStatus) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payslips
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND shop_id = $3
		RETURNING id
	`

	var updatedID string
	err := q.QueryRow(ctx, query, status, id, shopID).Scan(&updatedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.ErrPayslipNotFound
		}
		return fmt.Errorf("failed to update payslip status: %w", err)
	}
	return nil
}
