package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

// employeeColumns expects $1 to be the payroll period used for has_slip.
const employeeColumns = `
	e.id, e.shop_id, e.employee_code, e.full_name, e.email, e.pay_type,
	e.monthly_salary, e.daily_rate, e.hourly_rate,
	e.sales_commission_rate, e.performance_bonus_rate, e.other_allowances,
	e.loan_amount, e.loan_monthly_deduction, e.status, e.created_at, e.updated_at,
	EXISTS(SELECT 1 FROM payslips p WHERE p.employee_id = e.id AND p.period_id = $1) AS has_slip
`

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var (
		emp             employee.Employee
		loanAmount      *decimal.Decimal
		loanMonthlyDedn *decimal.Decimal
	)
	err := row.Scan(
		&emp.ID, &emp.ShopID, &emp.EmployeeCode, &emp.FullName, &emp.Email, &emp.PayType,
		&emp.MonthlySalary, &emp.DailyRate, &emp.HourlyRate,
		&emp.SalesCommissionRate, &emp.PerformanceBonusRate, &emp.OtherAllowances,
		&loanAmount, &loanMonthlyDedn, &emp.Status, &emp.CreatedAt, &emp.UpdatedAt,
		&emp.HasSlipForPeriod,
	)
	if err != nil {
		return employee.Employee{}, err
	}
	if loanAmount != nil && loanMonthlyDedn != nil {
		emp.Loan = &employee.Loan{Amount: *loanAmount, MonthlyDeduction: *loanMonthlyDedn}
	}
	return emp, nil
}

// GetByID implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) GetByID(ctx context.Context, shopID, id string) (employee.Employee, error) {
	return r.GetForPeriod(ctx, shopID, "", id)
}

// GetForPeriod implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) GetForPeriod(ctx context.Context, shopID, periodID, id string) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + employeeColumns + `
		FROM employees e
		WHERE e.id = $2 AND e.shop_id = $3 AND e.deleted_at IS NULL
	`

	emp, err := scanEmployee(q.QueryRow(ctx, query, nullableID(periodID), id, shopID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee with id %s: %w", id, err)
	}
	return emp, nil
}

// ListForPeriod implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) ListForPeriod(ctx context.Context, shopID, periodID string, ids []string) ([]employee.Employee, error) {
	if len(ids) == 0 {
		return []employee.Employee{}, nil
	}

	query := `SELECT ` + employeeColumns + `
		FROM employees e
		WHERE e.shop_id = $2 AND e.id = ANY($3) AND e.deleted_at IS NULL
		ORDER BY e.employee_code
	`
	return r.list(ctx, query, nullableID(periodID), shopID, ids)
}

// ListPayrollCandidates implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) ListPayrollCandidates(ctx context.Context, shopID, periodID string) ([]employee.Employee, error) {
	query := `SELECT ` + employeeColumns + `
		FROM employees e
		WHERE e.shop_id = $2 AND e.status = $3 AND e.deleted_at IS NULL
		  AND NOT EXISTS (SELECT 1 FROM payslips p WHERE p.employee_id = e.id AND p.period_id = $1)
		ORDER BY e.employee_code
	`
	return r.list(ctx, query, nullableID(periodID), shopID, employee.StatusActive)
}

// ListActive implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) ListActive(ctx context.Context) ([]employee.Employee, error) {
	query := `SELECT ` + employeeColumns + `
		FROM employees e
		WHERE e.status = $2 AND e.deleted_at IS NULL
		ORDER BY e.shop_id, e.employee_code
	`
	return r.list(ctx, query, nullableID(""), employee.StatusActive)
}

func (r *employeeRepositoryImpl) list(ctx context.Context, query string, args ...interface{}) ([]employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	employees := []employee.Employee{}
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return employees, nil
}

// LockForPayroll implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) LockForPayroll(ctx context.Context, shopID, id string) error {
	q := GetQuerier(ctx, r.db)

	var lockedID string
	err := q.QueryRow(ctx, `SELECT id FROM employees WHERE id = $1 AND shop_id = $2 FOR UPDATE`, id, shopID).Scan(&lockedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return employee.ErrEmployeeNotFound
		}
		return fmt.Errorf("failed to lock employee %s: %w", id, err)
	}
	return nil
}

// nullableID keeps an empty period from being compared as a uuid.
func nullableID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
