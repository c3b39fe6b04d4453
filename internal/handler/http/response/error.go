package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Not found
	case errors.Is(err, employee.ErrEmployeeNotFound),
		errors.Is(err, payroll.ErrPeriodNotFound),
		errors.Is(err, payroll.ErrPayslipNotFound),
		errors.Is(err, attendance.ErrAttendanceNotFound),
		errors.Is(err, leave.ErrLeaveRequestNotFound),
		errors.Is(err, leave.ErrLeaveTypeNotFound),
		errors.Is(err, leave.ErrLeaveBalanceNotFound):
		NotFound(w, err.Error())

	case errors.Is(err, employee.ErrUnauthorized):
		Forbidden(w, err.Error())

	// State conflicts
	case errors.Is(err, payroll.ErrPayslipAlreadyExists),
		errors.Is(err, payroll.ErrPeriodAlreadyFinalized),
		errors.Is(err, payroll.ErrInvalidStatusChange),
		errors.Is(err, payroll.ErrInvalidBatchTransition),
		errors.Is(err, payroll.ErrConfirmationStale),
		errors.Is(err, attendance.ErrAlreadyCheckedIn),
		errors.Is(err, attendance.ErrAlreadyCheckedOut),
		errors.Is(err, attendance.ErrNotCheckedIn),
		errors.Is(err, leave.ErrLeaveAlreadyProcessed),
		errors.Is(err, leave.ErrOverlappingLeave):
		Conflict(w, err.Error())

	// Business rule violations
	case errors.Is(err, payroll.ErrAttendanceNotFinalized),
		errors.Is(err, payroll.ErrEmployeeNotActive),
		errors.Is(err, payroll.ErrInvalidWorkingDays),
		errors.Is(err, payroll.ErrNoRateConfigured),
		errors.Is(err, payroll.ErrCalculationMismatch),
		errors.Is(err, payroll.ErrBatchNotConfirmed),
		errors.Is(err, payroll.ErrInvalidConfirmation),
		errors.Is(err, payroll.ErrPreviewHasErrors),
		errors.Is(err, payroll.ErrWarningsNotAcknowledged),
		errors.Is(err, payroll.ErrNoEmployeesSelected),
		errors.Is(err, attendance.ErrFutureCheckIn),
		errors.Is(err, attendance.ErrCheckOutBeforeIn),
		errors.Is(err, attendance.ErrInvalidPeriodWindow),
		errors.Is(err, leave.ErrLeaveTypeInactive),
		errors.Is(err, leave.ErrInsufficientBalance),
		errors.Is(err, leave.ErrInvalidDateRange),
		errors.Is(err, leave.ErrBackdatedLeave),
		errors.Is(err, leave.ErrExceedsConsecutiveDays):
		UnprocessableEntity(w, err.Error())

	case errors.Is(err, payroll.ErrUnsupportedFormat):
		BadRequest(w, err.Error(), nil)

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
