package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/pkg/database"
)

type RequestService struct {
	tx database.Transactor
	leave.LeaveTypeRepository
	leave.LeaveBalanceRepository
	leave.LeaveRequestRepository
	employee.EmployeeRepository
	loc *time.Location
	now func() time.Time
}

func NewRequestService(
	tx database.Transactor,
	leaveTypeRepository leave.LeaveTypeRepository,
	leaveBalanceRepository leave.LeaveBalanceRepository,
	leaveRequestRepository leave.LeaveRequestRepository,
	employeeRepository employee.EmployeeRepository,
	loc *time.Location,
) leave.LeaveService {
	if loc == nil {
		loc = time.UTC
	}
	return &RequestService{
		tx:                     tx,
		LeaveTypeRepository:    leaveTypeRepository,
		LeaveBalanceRepository: leaveBalanceRepository,
		LeaveRequestRepository: leaveRequestRepository,
		EmployeeRepository:     employeeRepository,
		loc:                    loc,
		now:                    time.Now,
	}
}

// today is the shop's calendar date, at UTC midnight like parsed request dates.
func (r *RequestService) today() time.Time {
	n := r.now().In(r.loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}

func (r *RequestService) CreateRequest(ctx context.Context, shopID string, req leave.CreateLeaveRequestRequest) (leave.LeaveRequest, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequest{}, err
	}

	emp, err := r.EmployeeRepository.GetByID(ctx, shopID, req.EmployeeID)
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to get employee by ID: %w", err)
	}

	leaveType, err := r.LeaveTypeRepository.GetByID(ctx, shopID, req.LeaveTypeID)
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to get leave type by ID: %w", err)
	}
	if !leaveType.IsActive {
		return leave.LeaveRequest{}, leave.ErrLeaveTypeInactive
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to parse start date: %w", err)
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to parse end date: %w", err)
	}

	if err := r.validateDates(leaveType, startDate, endDate); err != nil {
		return leave.LeaveRequest{}, err
	}
	days := leave.InclusiveDays(startDate, endDate)

	hasOverlap, err := r.LeaveRequestRepository.CheckOverlapping(ctx, emp.ID, startDate, endDate)
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to check overlapping leave requests: %w", err)
	}
	if hasOverlap {
		return leave.LeaveRequest{}, leave.ErrOverlappingLeave
	}

	balance, err := r.LeaveBalanceRepository.GetByEmployeeTypeYear(ctx, emp.ID, leaveType.ID, startDate.Year())
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to get leave balance: %w", err)
	}
	if balance.Remaining() < days {
		return leave.LeaveRequest{}, leave.ErrInsufficientBalance
	}

	now := r.now()
	request := leave.LeaveRequest{
		ShopID:      shopID,
		EmployeeID:  emp.ID,
		LeaveTypeID: leaveType.ID,
		StartDate:   startDate,
		EndDate:     endDate,
		TotalDays:   days,
		Reason:      req.Reason,
		Status:      leave.LeaveRequestStatusWaitingApproval,
		SubmittedAt: now,
	}

	if leaveType.RequiresApproval {
		created, err := r.LeaveRequestRepository.Create(ctx, request)
		if err != nil {
			return leave.LeaveRequest{}, fmt.Errorf("failed to create leave request: %w", err)
		}
		return created, nil
	}

	// Auto-approved types consume the balance at submission.
	request.Status = leave.LeaveRequestStatusApproved
	request.ApprovedAt = &now

	var created leave.LeaveRequest
	err = r.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := r.LeaveBalanceRepository.Decrement(ctx, balance.ID, days); err != nil {
			return err
		}
		created, err = r.LeaveRequestRepository.Create(ctx, request)
		return err
	})
	if err != nil {
		if errors.Is(err, leave.ErrInsufficientBalance) {
			return leave.LeaveRequest{}, err
		}
		return leave.LeaveRequest{}, fmt.Errorf("failed to create auto-approved leave request: %w", err)
	}

	slog.Info("leave request auto-approved", "request_id", created.ID, "employee_id", emp.ID, "days", days)
	return created, nil
}

func (r *RequestService) validateDates(leaveType leave.LeaveType, start, end time.Time) error {
	if start.After(end) {
		return leave.ErrInvalidDateRange
	}
	if start.Before(r.today()) {
		return leave.ErrBackdatedLeave
	}
	if leaveType.MaxConsecutiveDays > 0 && leave.InclusiveDays(start, end) > leaveType.MaxConsecutiveDays {
		return leave.ErrExceedsConsecutiveDays
	}
	return nil
}

func (r *RequestService) getPending(ctx context.Context, shopID, requestID string) (leave.LeaveRequest, error) {
	request, err := r.LeaveRequestRepository.GetByID(ctx, shopID, requestID)
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to get leave request by ID: %w", err)
	}
	if request.Status != leave.LeaveRequestStatusWaitingApproval {
		return leave.LeaveRequest{}, leave.ErrLeaveAlreadyProcessed
	}
	return request, nil
}

// Approve decrements the balance and marks the request approved atomically.
func (r *RequestService) Approve(ctx context.Context, shopID, requestID, approverID string) (leave.LeaveRequest, error) {
	var approved leave.LeaveRequest
	err := r.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		request, err := r.getPending(ctx, shopID, requestID)
		if err != nil {
			return err
		}

		balance, err := r.LeaveBalanceRepository.GetByEmployeeTypeYear(ctx, request.EmployeeID, request.LeaveTypeID, request.StartDate.Year())
		if err != nil {
			return fmt.Errorf("failed to get leave balance: %w", err)
		}
		if balance.Remaining() < request.TotalDays {
			return leave.ErrInsufficientBalance
		}
		if err := r.LeaveBalanceRepository.Decrement(ctx, balance.ID, request.TotalDays); err != nil {
			return err
		}

		now := r.now()
		request.Status = leave.LeaveRequestStatusApproved
		request.ApprovedBy = &approverID
		request.ApprovedAt = &now
		if err := r.LeaveRequestRepository.Update(ctx, request); err != nil {
			return fmt.Errorf("failed to update leave request: %w", err)
		}
		approved = request
		return nil
	})
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	return approved, nil
}

func (r *RequestService) Reject(ctx context.Context, shopID, requestID, approverID, reason string) (leave.LeaveRequest, error) {
	request, err := r.getPending(ctx, shopID, requestID)
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	now := r.now()
	request.Status = leave.LeaveRequestStatusRejected
	request.ApprovedBy = &approverID
	request.ApprovedAt = &now
	request.RejectionReason = &reason
	if err := r.LeaveRequestRepository.Update(ctx, request); err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to update leave request: %w", err)
	}
	return request, nil
}

// Cancel withdraws a request that is still waiting for approval.
func (r *RequestService) Cancel(ctx context.Context, shopID, requestID string) (leave.LeaveRequest, error) {
	request, err := r.getPending(ctx, shopID, requestID)
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	now := r.now()
	request.Status = leave.LeaveRequestStatusCancelled
	request.CancelledAt = &now
	if err := r.LeaveRequestRepository.Update(ctx, request); err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to update leave request: %w", err)
	}
	return request, nil
}
