package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leaveTypeRepositoryImpl struct {
	db *database.DB
}

func NewLeaveTypeRepository(db *database.DB) leave.LeaveTypeRepository {
	return &leaveTypeRepositoryImpl{db: db}
}

// GetByID implements leave.LeaveTypeRepository.
func (r *leaveTypeRepositoryImpl) GetByID(ctx context.Context, shopID, id string) (leave.LeaveType, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, shop_id, name, code, is_active, requires_approval, max_consecutive_days, created_at, updated_at
		FROM leave_types
		WHERE id = $1 AND shop_id = $2
	`

	var lt leave.LeaveType
	err := q.QueryRow(ctx, query, id, shopID).Scan(
		&lt.ID, &lt.ShopID, &lt.Name, &lt.Code, &lt.IsActive, &lt.RequiresApproval, &lt.MaxConsecutiveDays,
		&lt.CreatedAt, &lt.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return leave.LeaveType{}, leave.ErrLeaveTypeNotFound
		}
		return leave.LeaveType{}, fmt.Errorf("failed to get leave type: %w", err)
	}
	return lt, nil
}
