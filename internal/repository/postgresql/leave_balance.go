package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leaveBalanceRepositoryImpl struct {
	db *database.DB
}

func NewLeaveBalanceRepository(db *database.DB) leave.LeaveBalanceRepository {
	return &leaveBalanceRepositoryImpl{db: db}
}

// GetByEmployeeTypeYear implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) GetByEmployeeTypeYear(ctx context.Context, employeeID, leaveTypeID string, year int) (leave.LeaveBalance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, leave_type_id, year, allocated, used, updated_at
		FROM leave_balances
		WHERE employee_id = $1 AND leave_type_id = $2 AND year = $3
	`

	var b leave.LeaveBalance
	err := q.QueryRow(ctx, query, employeeID, leaveTypeID, year).Scan(
		&b.ID, &b.EmployeeID, &b.LeaveTypeID, &b.Year, &b.Allocated, &b.Used, &b.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return leave.LeaveBalance{}, leave.ErrLeaveBalanceNotFound
		}
		return leave.LeaveBalance{}, fmt.Errorf("failed to get leave balance: %w", err)
	}
	return b, nil
}

// Decrement implements leave.LeaveBalanceRepository. The guard in the WHERE
// clause keeps concurrent approvals from overdrawing the balance.
func (r *leaveBalanceRepositoryImpl) Decrement(ctx context.Context, balanceID string, days int) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_balances
		SET used = used + $2, updated_at = NOW()
		WHERE id = $1 AND used + $2 <= allocated
		RETURNING id
	`

	var updatedID string
	err := q.QueryRow(ctx, query, balanceID, days).Scan(&updatedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return leave.ErrInsufficientBalance
		}
		return fmt.Errorf("failed to decrement leave balance: %w", err)
	}
	return nil
}
