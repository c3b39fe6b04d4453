package payroll

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
	"github.com/shopspring/decimal"
)

type PayrollServiceImpl struct {
	periodRepo   payroll.PeriodRepository
	payslipRepo  payroll.PayslipRepository
	employeeRepo employee.EmployeeRepository
	attendance   AttendanceSource
	engine       *Engine
	workflow     *Workflow
	batch        *BatchOrchestrator
	exporter     *Exporter
	confirmer    BatchConfirmer
}

func NewPayrollService(
	periodRepo payroll.PeriodRepository,
	payslipRepo payroll.PayslipRepository,
	employeeRepo employee.EmployeeRepository,
	attendanceSource AttendanceSource,
	engine *Engine,
	workflow *Workflow,
	batch *BatchOrchestrator,
	exporter *Exporter,
	confirmer BatchConfirmer,
) payroll.PayrollService {
	return &PayrollServiceImpl{
		periodRepo:   periodRepo,
		payslipRepo:  payslipRepo,
		employeeRepo: employeeRepo,
		attendance:   attendanceSource,
		engine:       engine,
		workflow:     workflow,
		batch:        batch,
		exporter:     exporter,
		confirmer:    confirmer,
	}
}

// Helper to get shop_id and user_id from JWT context
func getClaimsFromContext(ctx context.Context) (shopID, userID string, err error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	shopID, ok := claims["shop_id"].(string)
	if !ok || shopID == "" {
		return "", "", fmt.Errorf("shop_id claim is missing or invalid")
	}

	userID, _ = claims["user_id"].(string)

	return shopID, userID, nil
}

// uniqueIDs drops blanks and repeats, keeping first-seen order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// ========== PERIODS ==========

func (s *PayrollServiceImpl) CreatePeriod(ctx context.Context, req payroll.CreatePeriodRequest) (payroll.PeriodResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PeriodResponse{}, err
	}

	shopID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.PeriodResponse{}, err
	}

	start, _ := time.Parse("2006-01-02", req.StartDate)
	end, _ := time.Parse("2006-01-02", req.EndDate)

	created, err := s.periodRepo.Create(ctx, payroll.Period{
		ShopID:           shopID,
		Label:            req.Label,
		StartDate:        start,
		EndDate:          end,
		AttendanceStatus: payroll.AttendanceNotStarted,
		WorkingDays:      req.WorkingDays,
	})
	if err != nil {
		return payroll.PeriodResponse{}, fmt.Errorf("failed to create payroll period: %w", err)
	}
	return payroll.ToPeriodResponse(created), nil
}

func (s *PayrollServiceImpl) GetPeriod(ctx context.Context, id string) (payroll.PeriodResponse, error) {
	shopID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.PeriodResponse{}, err
	}

	period, err := s.periodRepo.GetByID(ctx, shopID, id)
	if err != nil {
		return payroll.PeriodResponse{}, err
	}
	return payroll.ToPeriodResponse(period), nil
}

func (s *PayrollServiceImpl) ListPeriods(ctx context.Context) ([]payroll.PeriodResponse, error) {
	shopID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	periods, err := s.periodRepo.List(ctx, shopID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll periods: %w", err)
	}

	out := make([]payroll.PeriodResponse, 0, len(periods))
	for _, p := range periods {
		out = append(out, payroll.ToPeriodResponse(p))
	}
	return out, nil
}

// FinalizeAttendance closes the period's attendance so payslips can be generated.
func (s *PayrollServiceImpl) FinalizeAttendance(ctx context.Context, id string) (payroll.PeriodResponse, error) {
	shopID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.PeriodResponse{}, err
	}

	period, err := s.periodRepo.GetByID(ctx, shopID, id)
	if err != nil {
		return payroll.PeriodResponse{}, err
	}
	if period.IsFinalized() {
		return payroll.PeriodResponse{}, payroll.ErrPeriodAlreadyFinalized
	}

	if err := s.periodRepo.UpdateAttendanceStatus(ctx, shopID, id, payroll.AttendanceFinalized); err != nil {
		return payroll.PeriodResponse{}, fmt.Errorf("failed to finalize attendance: %w", err)
	}
	period.AttendanceStatus = payroll.AttendanceFinalized
	return payroll.ToPeriodResponse(period), nil
}

// ========== BATCHES ==========

func (s *PayrollServiceImpl) loadCandidates(ctx context.Context, shopID, periodID string, ids []string) ([]employee.Employee, error) {
	if len(ids) == 0 {
		employees, err := s.employeeRepo.ListPayrollCandidates(ctx, shopID, periodID)
		if err != nil {
			return nil, fmt.Errorf("failed to list payroll candidates: %w", err)
		}
		return employees, nil
	}

	employees, err := s.employeeRepo.ListForPeriod(ctx, shopID, periodID, uniqueIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to load employees: %w", err)
	}
	return employees, nil
}

func (s *PayrollServiceImpl) PreviewBatch(ctx context.Context, req payroll.PreviewBatchRequest) (payroll.BatchPreview, error) {
	if err := req.Validate(); err != nil {
		return payroll.BatchPreview{}, err
	}

	shopID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.BatchPreview{}, err
	}

	period, err := s.periodRepo.GetByID(ctx, shopID, req.PeriodID)
	if err != nil {
		return payroll.BatchPreview{}, err
	}

	employees, err := s.loadCandidates(ctx, shopID, period.ID, req.EmployeeIDs)
	if err != nil {
		return payroll.BatchPreview{}, err
	}

	return s.batch.Preview(ctx, period, employees)
}

// ConfirmBatch recomputes the preview, applies the confirmation gate to it
// and signs what was confirmed.
func (s *PayrollServiceImpl) ConfirmBatch(ctx context.Context, req payroll.ConfirmBatchRequest) (payroll.ConfirmBatchResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.ConfirmBatchResponse{}, err
	}

	shopID, userID, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.ConfirmBatchResponse{}, err
	}

	preview, err := s.PreviewBatch(ctx, payroll.PreviewBatchRequest{PeriodID: req.PeriodID, EmployeeIDs: req.EmployeeIDs})
	if err != nil {
		return payroll.ConfirmBatchResponse{}, err
	}

	state, err := s.batch.Confirm(preview, req.AcknowledgeWarnings)
	if err != nil {
		return payroll.ConfirmBatchResponse{}, err
	}

	token, expiresAt, err := s.confirmer.GenerateBatchConfirmationToken(jwt.BatchConfirmation{
		ShopID:   shopID,
		UserID:   userID,
		PeriodID: preview.PeriodID,
		Digest:   previewDigest(preview),
	})
	if err != nil {
		return payroll.ConfirmBatchResponse{}, fmt.Errorf("failed to sign batch confirmation: %w", err)
	}

	return payroll.ConfirmBatchResponse{
		State:             state,
		Preview:           preview,
		EmployeeIDs:       previewedIDs(preview),
		ConfirmationToken: token,
		ExpiresAt:         expiresAt,
	}, nil
}

func (s *PayrollServiceImpl) batchInput(ctx context.Context, periodID string, ids []string) (BatchInput, error) {
	shopID, userID, err := getClaimsFromContext(ctx)
	if err != nil {
		return BatchInput{}, err
	}

	period, err := s.periodRepo.GetByID(ctx, shopID, periodID)
	if err != nil {
		return BatchInput{}, err
	}

	ids = uniqueIDs(ids)
	employees, err := s.employeeRepo.ListForPeriod(ctx, shopID, period.ID, ids)
	if err != nil {
		return BatchInput{}, fmt.Errorf("failed to load employees: %w", err)
	}

	found := make(map[string]struct{}, len(employees))
	for _, e := range employees {
		found[e.ID] = struct{}{}
	}
	var unknown []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			unknown = append(unknown, id)
		}
	}

	return BatchInput{
		ShopID:     shopID,
		ActorID:    userID,
		Period:     period,
		Employees:  employees,
		UnknownIDs: unknown,
	}, nil
}

// confirmedInput resolves the run and checks it against a signed
// confirmation: same shop, user and period, and a fresh preview of the
// requested employees identical to the confirmed one.
func (s *PayrollServiceImpl) confirmedInput(ctx context.Context, periodID string, ids []string, token string) (BatchInput, error) {
	conf, err := s.confirmer.ValidateBatchConfirmationToken(token)
	if err != nil {
		return BatchInput{}, fmt.Errorf("%w: %v", payroll.ErrInvalidConfirmation, err)
	}

	in, err := s.batchInput(ctx, periodID, ids)
	if err != nil {
		return BatchInput{}, err
	}
	if conf.ShopID != in.ShopID || conf.UserID != in.ActorID || conf.PeriodID != in.Period.ID {
		return BatchInput{}, payroll.ErrInvalidConfirmation
	}

	preview, err := s.batch.Preview(ctx, in.Period, in.Employees)
	if err != nil {
		return BatchInput{}, err
	}
	if len(preview.Errors) > 0 || previewDigest(preview) != conf.Digest {
		return BatchInput{}, payroll.ErrConfirmationStale
	}

	in.ExpectedNet = make(map[string]decimal.Decimal, len(preview.Previews))
	for _, p := range preview.Previews {
		in.ExpectedNet[p.EmployeeID] = p.Calculation.Summary.NetPay
	}
	in.Confirmed = true
	return in, nil
}

func (s *PayrollServiceImpl) GenerateBatch(ctx context.Context, req payroll.GenerateBatchRequest) (payroll.BatchResult, error) {
	if err := req.Validate(); err != nil {
		return payroll.BatchResult{}, err
	}
	in, err := s.confirmedInput(ctx, req.PeriodID, req.EmployeeIDs, req.ConfirmationToken)
	if err != nil {
		return payroll.BatchResult{}, err
	}
	in.PaymentMethod = payroll.PaymentMethod(req.PaymentMethod)
	in.Notify = req.SendNotifications

	return s.batch.Generate(ctx, in)
}

// RetryBatch reruns failed employees. The retry set needs its own confirmation.
func (s *PayrollServiceImpl) RetryBatch(ctx context.Context, req payroll.RetryBatchRequest) (payroll.BatchResult, error) {
	if err := req.Validate(); err != nil {
		return payroll.BatchResult{}, err
	}

	in, err := s.confirmedInput(ctx, req.PeriodID, req.EmployeeIDs, req.ConfirmationToken)
	if err != nil {
		return payroll.BatchResult{}, err
	}
	in.PaymentMethod = payroll.PaymentMethod(req.PaymentMethod)

	return s.batch.Retry(ctx, in)
}

func (s *PayrollServiceImpl) ExportBatch(ctx context.Context, periodID, format string) (payroll.ExportFile, error) {
	shopID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.ExportFile{}, err
	}

	period, err := s.periodRepo.GetByID(ctx, shopID, periodID)
	if err != nil {
		return payroll.ExportFile{}, err
	}

	slips, err := s.payslipRepo.ListByPeriod(ctx, shopID, period.ID)
	if err != nil {
		return payroll.ExportFile{}, fmt.Errorf("failed to list payslips: %w", err)
	}

	return s.exporter.Export(ctx, period, slips, ExportFormat(format))
}

// ========== PAYSLIPS ==========

func (s *PayrollServiceImpl) GeneratePayslip(ctx context.Context, req payroll.GeneratePayslipRequest) (payroll.PayslipResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayslipResponse{}, err
	}

	shopID, userID, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}

	period, err := s.periodRepo.GetByID(ctx, shopID, req.PeriodID)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}

	emp, err := s.employeeRepo.GetForPeriod(ctx, shopID, period.ID, req.EmployeeID)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}

	slip, err := s.workflow.Generate(ctx, emp, period, GenerateOptions{
		ActorID:        userID,
		PaymentMethod:  payroll.PaymentMethod(req.PaymentMethod),
		ExpectedNetPay: req.ExpectedNetPay,
		Notify:         true,
	})
	if err != nil {
		return payroll.PayslipResponse{}, err
	}
	return payroll.ToPayslipResponse(slip), nil
}

func (s *PayrollServiceImpl) GetPayslip(ctx context.Context, id string) (payroll.PayslipResponse, error) {
	shopID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}

	slip, err := s.payslipRepo.GetByID(ctx, shopID, id)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}
	return payroll.ToPayslipResponse(slip), nil
}

func (s *PayrollServiceImpl) ListPayslips(ctx context.Context, periodID string) ([]payroll.PayslipResponse, error) {
	shopID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	slips, err := s.payslipRepo.ListByPeriod(ctx, shopID, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payslips: %w", err)
	}

	out := make([]payroll.PayslipResponse, 0, len(slips))
	for _, slip := range slips {
		out = append(out, payroll.ToPayslipResponse(slip))
	}
	return out, nil
}

// UpdatePayslipStatus moves a payslip forward along generated -> approved -> paid.
func (s *PayrollServiceImpl) UpdatePayslipStatus(ctx context.Context, id string, req payroll.UpdatePayslipStatusRequest) (payroll.PayslipResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayslipResponse{}, err
	}

	shopID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}

	slip, err := s.payslipRepo.GetByID(ctx, shopID, id)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}

	next := payroll.PayslipStatus(req.Status)
	if !slip.Status.CanTransitionTo(next) {
		return payroll.PayslipResponse{}, fmt.Errorf("%w: %s to %s", payroll.ErrInvalidStatusChange, slip.Status, next)
	}

	if err := s.payslipRepo.UpdateStatus(ctx, shopID, id, next); err != nil {
		return payroll.PayslipResponse{}, fmt.Errorf("failed to update payslip status: %w", err)
	}
	slip.Status = next
	return payroll.ToPayslipResponse(slip), nil
}

// GetEmployeeSummary returns the employee's attendance totals and a
// non-persisted calculation for the period.
func (s *PayrollServiceImpl) GetEmployeeSummary(ctx context.Context, employeeID, periodID string) (payroll.EmployeeSummaryResponse, error) {
	shopID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.EmployeeSummaryResponse{}, err
	}

	period, err := s.periodRepo.GetByID(ctx, shopID, periodID)
	if err != nil {
		return payroll.EmployeeSummaryResponse{}, err
	}

	emp, err := s.employeeRepo.GetForPeriod(ctx, shopID, period.ID, employeeID)
	if err != nil {
		return payroll.EmployeeSummaryResponse{}, err
	}

	sum, _, err := s.attendance.GetSummary(ctx, shopID, emp.ID, period.StartDate, period.EndDate)
	if err != nil {
		return payroll.EmployeeSummaryResponse{}, fmt.Errorf("failed to load attendance summary: %w", err)
	}

	calc, err := s.engine.CalculateSummary(ctx, emp, sum, period)
	if err != nil {
		return payroll.EmployeeSummaryResponse{}, err
	}

	return payroll.EmployeeSummaryResponse{
		EmployeeID:    emp.ID,
		EmployeeName:  emp.DisplayName(),
		PeriodID:      period.ID,
		RegularHours:  sum.TotalRegularHours,
		OvertimeHours: sum.TotalOvertimeHours,
		Undertime:     sum.TotalUndertimeHours,
		AbsentDays:    sum.TotalAbsentDays,
		HasSlip:       emp.HasSlipForPeriod,
		Calculation:   calc,
	}, nil
}
