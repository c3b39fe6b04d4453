package payroll

import (
	"time"

	"github.com/cmlabs-hris/shop-erp-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== PERIOD DTOs ==========

type CreatePeriodRequest struct {
	Label       string `json:"label"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	WorkingDays int    `json:"working_days"`
}

func (r *CreatePeriodRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Label) {
		errs = append(errs, validator.ValidationError{Field: "label", Message: "label is required"})
	}
	start, okStart := validator.IsValidDate(r.StartDate)
	if !okStart {
		errs = append(errs, validator.ValidationError{Field: "start_date", Message: "start_date must be in YYYY-MM-DD format"})
	}
	end, okEnd := validator.IsValidDate(r.EndDate)
	if !okEnd {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: "end_date must be in YYYY-MM-DD format"})
	}
	if okStart && okEnd && end.Before(start) {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: "end_date must not be before start_date"})
	}
	if r.WorkingDays <= 0 {
		errs = append(errs, validator.ValidationError{Field: "working_days", Message: "working_days must be greater than zero"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type PeriodResponse struct {
	ID               string `json:"id"`
	Label            string `json:"label"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	AttendanceStatus string `json:"attendance_status"`
	WorkingDays      int    `json:"working_days"`
}

func ToPeriodResponse(p Period) PeriodResponse {
	return PeriodResponse{
		ID:               p.ID,
		Label:            p.Label,
		StartDate:        p.StartDate.Format("2006-01-02"),
		EndDate:          p.EndDate.Format("2006-01-02"),
		AttendanceStatus: string(p.AttendanceStatus),
		WorkingDays:      p.WorkingDays,
	}
}

// ========== BATCH DTOs ==========

type PreviewBatchRequest struct {
	PeriodID    string   `json:"period_id"`
	EmployeeIDs []string `json:"employee_ids,omitempty"` // empty means every payroll candidate
}

func (r *PreviewBatchRequest) Validate() error {
	if validator.IsEmpty(r.PeriodID) {
		return validator.ValidationErrors{{Field: "period_id", Message: "period_id is required"}}
	}
	return nil
}

type ConfirmBatchRequest struct {
	PeriodID            string   `json:"period_id"`
	EmployeeIDs         []string `json:"employee_ids,omitempty"`
	AcknowledgeWarnings bool     `json:"acknowledge_warnings"`
}

func (r *ConfirmBatchRequest) Validate() error {
	if validator.IsEmpty(r.PeriodID) {
		return validator.ValidationErrors{{Field: "period_id", Message: "period_id is required"}}
	}
	return nil
}

// ConfirmBatchResponse carries the token GenerateBatchRequest must echo back
// together with EmployeeIDs.
type ConfirmBatchResponse struct {
	State             BatchState   `json:"state"`
	Preview           BatchPreview `json:"preview"`
	EmployeeIDs       []string     `json:"employee_ids"`
	ConfirmationToken string       `json:"confirmation_token"`
	ExpiresAt         int64        `json:"expires_at"`
}

type GenerateBatchRequest struct {
	PeriodID          string   `json:"period_id"`
	EmployeeIDs       []string `json:"employee_ids"`
	PaymentMethod     string   `json:"payment_method"`
	SendNotifications bool     `json:"send_notifications"`
	ConfirmationToken string   `json:"confirmation_token"`
}

func (r *GenerateBatchRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.PeriodID) {
		errs = append(errs, validator.ValidationError{Field: "period_id", Message: "period_id is required"})
	}
	if len(r.EmployeeIDs) == 0 {
		errs = append(errs, validator.ValidationError{Field: "employee_ids", Message: "at least one employee is required"})
	}
	if !PaymentMethod(r.PaymentMethod).IsValid() {
		errs = append(errs, validator.ValidationError{Field: "payment_method", Message: "payment_method must be one of: bank_transfer, cash, check"})
	}
	if validator.IsEmpty(r.ConfirmationToken) {
		errs = append(errs, validator.ValidationError{Field: "confirmation_token", Message: "confirm the batch preview first"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RetryBatchRequest struct {
	PeriodID          string   `json:"period_id"`
	EmployeeIDs       []string `json:"employee_ids"`
	PaymentMethod     string   `json:"payment_method"`
	ConfirmationToken string   `json:"confirmation_token"`
}

func (r *RetryBatchRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.PeriodID) {
		errs = append(errs, validator.ValidationError{Field: "period_id", Message: "period_id is required"})
	}
	if len(r.EmployeeIDs) == 0 {
		errs = append(errs, validator.ValidationError{Field: "employee_ids", Message: "at least one employee is required"})
	}
	if !PaymentMethod(r.PaymentMethod).IsValid() {
		errs = append(errs, validator.ValidationError{Field: "payment_method", Message: "payment_method must be one of: bank_transfer, cash, check"})
	}
	if validator.IsEmpty(r.ConfirmationToken) {
		errs = append(errs, validator.ValidationError{Field: "confirmation_token", Message: "confirm the retry preview first"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========== PAYSLIP DTOs ==========

type GeneratePayslipRequest struct {
	EmployeeID    string `json:"employee_id"`
	PeriodID      string `json:"period_id"`
	PaymentMethod string `json:"payment_method"`
	// ExpectedNetPay is the figure the client displayed; when set it must
	// equal the recomputed net pay.
	ExpectedNetPay *decimal.Decimal `json:"expected_net_pay,omitempty"`
}

func (r *GeneratePayslipRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	if validator.IsEmpty(r.PeriodID) {
		errs = append(errs, validator.ValidationError{Field: "period_id", Message: "period_id is required"})
	}
	if !PaymentMethod(r.PaymentMethod).IsValid() {
		errs = append(errs, validator.ValidationError{Field: "payment_method", Message: "payment_method must be one of: bank_transfer, cash, check"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UpdatePayslipStatusRequest struct {
	Status string `json:"status"`
}

func (r *UpdatePayslipStatusRequest) Validate() error {
	switch PayslipStatus(r.Status) {
	case PayslipStatusApproved, PayslipStatusPaid:
		return nil
	}
	return validator.ValidationErrors{{Field: "status", Message: "status must be one of: approved, paid"}}
}

type PayslipResponse struct {
	ID            string      `json:"id"`
	EmployeeID    string      `json:"employee_id"`
	EmployeeName  string      `json:"employee_name"`
	EmployeeCode  string      `json:"employee_code"`
	PeriodID      string      `json:"period_id"`
	Calculation   Calculation `json:"calculation"`
	PaymentMethod string      `json:"payment_method"`
	Status        string      `json:"status"`
	GeneratedAt   time.Time   `json:"generated_at"`
	GeneratedBy   string      `json:"generated_by"`
}

func ToPayslipResponse(s Payslip) PayslipResponse {
	return PayslipResponse{
		ID:            s.ID,
		EmployeeID:    s.EmployeeID,
		EmployeeName:  s.EmployeeName,
		EmployeeCode:  s.EmployeeCode,
		PeriodID:      s.PeriodID,
		Calculation:   s.Calculation,
		PaymentMethod: string(s.PaymentMethod),
		Status:        string(s.Status),
		GeneratedAt:   s.GeneratedAt,
		GeneratedBy:   s.GeneratedBy,
	}
}

// EmployeeSummaryResponse pairs an attendance summary with a preview
// calculation for one employee.
type EmployeeSummaryResponse struct {
	EmployeeID    string          `json:"employee_id"`
	EmployeeName  string          `json:"employee_name"`
	PeriodID      string          `json:"period_id"`
	RegularHours  decimal.Decimal `json:"total_regular_hours"`
	OvertimeHours decimal.Decimal `json:"total_overtime_hours"`
	Undertime     decimal.Decimal `json:"total_undertime_hours"`
	AbsentDays    int             `json:"total_absent"`
	HasSlip       bool            `json:"has_slip"`
	Calculation   Calculation     `json:"calculation"`
}
