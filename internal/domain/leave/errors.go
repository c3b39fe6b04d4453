package leave

import "errors"

var (
	ErrLeaveRequestNotFound   = errors.New("leave request not found")
	ErrLeaveTypeNotFound      = errors.New("leave type not found")
	ErrLeaveTypeInactive      = errors.New("leave type is not active")
	ErrLeaveBalanceNotFound   = errors.New("no leave balance for this leave type")
	ErrInsufficientBalance    = errors.New("insufficient leave balance")
	ErrLeaveAlreadyProcessed  = errors.New("leave request already processed")
	ErrOverlappingLeave       = errors.New("leave request overlaps an existing pending or approved request")
	ErrInvalidDateRange       = errors.New("start date must not be after end date")
	ErrBackdatedLeave         = errors.New("start date cannot be in the past")
	ErrExceedsConsecutiveDays = errors.New("requested days exceed the leave type's consecutive day limit")
)
