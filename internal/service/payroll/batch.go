package payroll

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/pkg/sse"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const BatchProgressEvent = "payroll.batch.progress"

// ProgressPublisher pushes batch progress to one user. *sse.Hub satisfies it.
type ProgressPublisher interface {
	Publish(userID string, event sse.Event)
}

// BatchInput is everything one generate or retry run needs.
type BatchInput struct {
	ShopID        string
	ActorID       string
	Period        payroll.Period
	Employees     []employee.Employee
	UnknownIDs    []string
	PaymentMethod payroll.PaymentMethod
	Notify        bool
	Confirmed     bool
	// ExpectedNet pins each employee's net pay to the confirmed preview.
	ExpectedNet map[string]decimal.Decimal
}

func (in BatchInput) size() int {
	return len(in.Employees) + len(in.UnknownIDs)
}

// BatchOrchestrator previews and generates payslips for many employees.
type BatchOrchestrator struct {
	workflow   *Workflow
	engine     *Engine
	attendance AttendanceSource
	progress   ProgressPublisher
	workers    int
	newRunID   func() string
}

func NewBatchOrchestrator(workflow *Workflow, engine *Engine, attendanceSource AttendanceSource, progress ProgressPublisher, workers int) *BatchOrchestrator {
	if workers < 1 {
		workers = 1
	}
	return &BatchOrchestrator{
		workflow:   workflow,
		engine:     engine,
		attendance: attendanceSource,
		progress:   progress,
		workers:    workers,
		newRunID:   func() string { return uuid.NewString() },
	}
}

type previewOutcome struct {
	preview *payroll.EmployeePreview
	warning *payroll.BatchIssue
	err     *payroll.BatchIssue
}

func issue(emp employee.Employee, kind payroll.IssueKind, msg string) *payroll.BatchIssue {
	return &payroll.BatchIssue{
		EmployeeID:   emp.ID,
		EmployeeName: emp.DisplayName(),
		Kind:         kind,
		Message:      msg,
	}
}

func preconditionIssue(emp employee.Employee, err error) *payroll.BatchIssue {
	switch {
	case errors.Is(err, payroll.ErrAttendanceNotFinalized):
		return issue(emp, payroll.IssuePeriodNotFinal, err.Error())
	case errors.Is(err, payroll.ErrPayslipAlreadyExists):
		return issue(emp, payroll.IssueSlipExists, err.Error())
	case errors.Is(err, payroll.ErrEmployeeNotActive):
		return issue(emp, payroll.IssueEmployeeInactive, err.Error())
	case errors.Is(err, payroll.ErrNoRateConfigured):
		return issue(emp, payroll.IssueNoRate, err.Error())
	}
	return issue(emp, payroll.IssueCalculationFailed, err.Error())
}

// Preview computes every candidate without persisting anything.
func (b *BatchOrchestrator) Preview(ctx context.Context, period payroll.Period, employees []employee.Employee) (payroll.BatchPreview, error) {
	if period.WorkingDays <= 0 {
		return payroll.BatchPreview{}, payroll.ErrInvalidWorkingDays
	}

	state, err := payroll.BatchIdle.Next(payroll.EventRequestPreview)
	if err != nil {
		return payroll.BatchPreview{}, err
	}

	outcomes := make([]previewOutcome, len(employees))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, emp := range employees {
		g.Go(func() error {
			outcomes[i] = b.previewOne(gctx, emp, period)
			return nil
		})
	}
	_ = g.Wait()

	preview := payroll.BatchPreview{
		PeriodID: period.ID,
		Previews: []payroll.EmployeePreview{},
		Warnings: []payroll.BatchIssue{},
		Errors:   []payroll.BatchIssue{},
		Summary: payroll.PreviewSummary{
			Candidates: len(employees),
			TotalGross: decimal.Zero,
			TotalNet:   decimal.Zero,
		},
	}
	for _, o := range outcomes {
		switch {
		case o.err != nil:
			preview.Errors = append(preview.Errors, *o.err)
		case o.warning != nil:
			preview.Warnings = append(preview.Warnings, *o.warning)
		default:
			preview.Previews = append(preview.Previews, *o.preview)
			preview.Summary.TotalGross = preview.Summary.TotalGross.Add(o.preview.Calculation.Summary.GrossPay)
			preview.Summary.TotalNet = preview.Summary.TotalNet.Add(o.preview.Calculation.Summary.NetPay)
		}
	}
	preview.Summary.Previewed = len(preview.Previews)
	preview.Summary.Warnings = len(preview.Warnings)
	preview.Summary.Errors = len(preview.Errors)

	ev := payroll.EventPreviewOK
	if len(preview.Errors) > 0 {
		ev = payroll.EventPreviewErrors
	}
	if preview.State, err = state.Next(ev); err != nil {
		return payroll.BatchPreview{}, err
	}
	return preview, nil
}

func (b *BatchOrchestrator) previewOne(ctx context.Context, emp employee.Employee, period payroll.Period) previewOutcome {
	if err := CheckPreconditions(emp, period); err != nil {
		return previewOutcome{err: preconditionIssue(emp, err)}
	}

	sum, _, err := b.attendance.GetSummary(ctx, period.ShopID, emp.ID, period.StartDate, period.EndDate)
	if err != nil {
		return previewOutcome{err: issue(emp, payroll.IssueCalculationFailed, err.Error())}
	}
	calc, err := b.engine.CalculateSummary(ctx, emp, sum, period)
	if err != nil {
		return previewOutcome{err: issue(emp, payroll.IssueCalculationFailed, err.Error())}
	}

	if w := previewWarning(emp, sum, calc, period); w != nil {
		return previewOutcome{warning: w}
	}
	return previewOutcome{preview: &payroll.EmployeePreview{
		EmployeeID:   emp.ID,
		EmployeeName: emp.DisplayName(),
		Calculation:  calc,
	}}
}

func previewWarning(emp employee.Employee, sum attendance.Summary, calc payroll.Calculation, period payroll.Period) *payroll.BatchIssue {
	switch {
	case sum.TotalAbsentDays >= period.WorkingDays:
		return issue(emp, payroll.IssueFullyAbsent, "employee was absent for every working day of the period")
	case sum.TotalRegularHours.Add(sum.TotalOvertimeHours).IsZero():
		return issue(emp, payroll.IssueZeroHours, "no hours recorded for the period")
	case calc.Summary.NetPay.IsNegative():
		return issue(emp, payroll.IssueNegativeNet, "deductions exceed earnings; net pay is "+calc.Summary.NetPay.StringFixed(2))
	}
	return nil
}

// Confirm gates generation on a preview. Errors always block; warnings block
// until acknowledged.
func (b *BatchOrchestrator) Confirm(preview payroll.BatchPreview, acknowledgeWarnings bool) (payroll.BatchState, error) {
	if len(preview.Errors) > 0 || preview.State == payroll.BatchPreviewFailed {
		return preview.State, payroll.ErrPreviewHasErrors
	}
	if len(preview.Warnings) > 0 && !acknowledgeWarnings {
		return preview.State, payroll.ErrWarningsNotAcknowledged
	}
	return preview.State.Next(payroll.EventConfirm)
}

// Generate attempts every employee independently. One failure never stops
// the others; Created + Errors always equals the number requested.
func (b *BatchOrchestrator) Generate(ctx context.Context, in BatchInput) (payroll.BatchResult, error) {
	if !in.Confirmed {
		return payroll.BatchResult{}, payroll.ErrBatchNotConfirmed
	}
	state, err := payroll.BatchConfirmed.Next(payroll.EventGenerate)
	if err != nil {
		return payroll.BatchResult{}, err
	}

	res, err := b.run(ctx, in)
	if err != nil {
		return payroll.BatchResult{}, err
	}

	ev := payroll.EventAllSucceeded
	if res.Errors > 0 {
		ev = payroll.EventSomeFailed
	}
	if res.State, err = state.Next(ev); err != nil {
		return payroll.BatchResult{}, err
	}
	return res, nil
}

// Retry reruns the given (previously failed) employees.
func (b *BatchOrchestrator) Retry(ctx context.Context, in BatchInput) (payroll.BatchResult, error) {
	if !in.Confirmed {
		return payroll.BatchResult{}, payroll.ErrBatchNotConfirmed
	}
	state, err := payroll.BatchCompletedWithErrors.Next(payroll.EventRetry)
	if err != nil {
		return payroll.BatchResult{}, err
	}

	res, err := b.run(ctx, in)
	if err != nil {
		return payroll.BatchResult{}, err
	}

	if res.State, err = state.Next(payroll.EventRetryDone); err != nil {
		return payroll.BatchResult{}, err
	}
	return res, nil
}

type batchAccumulator struct {
	mu  sync.Mutex
	res payroll.BatchResult
}

func (a *batchAccumulator) success(slip payroll.Payslip) payroll.BatchResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.res.Created++
	a.res.PayslipIDs = append(a.res.PayslipIDs, slip.ID)
	a.res.Summary.TotalGross = a.res.Summary.TotalGross.Add(slip.Calculation.Summary.GrossPay)
	a.res.Summary.TotalNet = a.res.Summary.TotalNet.Add(slip.Calculation.Summary.NetPay)
	return a.res
}

func (a *batchAccumulator) failure(employeeID, name string, err error) payroll.BatchResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.res.Errors++
	a.res.ErrorDetails = append(a.res.ErrorDetails, payroll.ErrorDetail{
		EmployeeID:   employeeID,
		EmployeeName: name,
		Error:        err.Error(),
	})
	a.res.RetryQueue = append(a.res.RetryQueue, employeeID)
	return a.res
}

func (b *BatchOrchestrator) run(ctx context.Context, in BatchInput) (payroll.BatchResult, error) {
	if in.size() == 0 {
		return payroll.BatchResult{}, payroll.ErrNoEmployeesSelected
	}
	if in.Period.WorkingDays <= 0 {
		return payroll.BatchResult{}, payroll.ErrInvalidWorkingDays
	}

	acc := &batchAccumulator{res: payroll.BatchResult{
		RunID:        b.newRunID(),
		PeriodID:     in.Period.ID,
		PayslipIDs:   []string{},
		ErrorDetails: []payroll.ErrorDetail{},
		RetryQueue:   []string{},
		Summary:      payroll.ResultSummary{TotalGross: decimal.Zero, TotalNet: decimal.Zero},
	}}
	total := in.size()
	logger := slog.With("run_id", acc.res.RunID, "period_id", in.Period.ID)
	logger.Info("payroll batch started", "employees", total, "workers", b.workers)

	for _, id := range in.UnknownIDs {
		b.report(in, total, acc.failure(id, "", errUnknownEmployee), false)
	}

	opts := GenerateOptions{
		ActorID:       in.ActorID,
		PaymentMethod: in.PaymentMethod,
		Notify:        in.Notify,
	}

	var g errgroup.Group
	g.SetLimit(b.workers)
	for _, emp := range in.Employees {
		g.Go(func() error {
			opts := opts
			if net, ok := in.ExpectedNet[emp.ID]; ok {
				opts.ExpectedNetPay = &net
			}
			slip, err := b.workflow.Generate(ctx, emp, in.Period, opts)
			if err != nil {
				logger.Warn("payslip generation failed", "employee_id", emp.ID, "error", err)
				b.report(in, total, acc.failure(emp.ID, emp.DisplayName(), err), false)
				return nil
			}
			b.report(in, total, acc.success(slip), false)
			return nil
		})
	}
	_ = g.Wait()

	acc.mu.Lock()
	res := acc.res
	acc.mu.Unlock()

	b.report(in, total, res, true)
	logger.Info("payroll batch finished", "created", res.Created, "errors", res.Errors)
	return res, nil
}

var errUnknownEmployee = errors.New("employee not found in this shop")

func (b *BatchOrchestrator) report(in BatchInput, total int, snapshot payroll.BatchResult, completed bool) {
	if b.progress == nil || in.ActorID == "" {
		return
	}
	b.progress.Publish(in.ActorID, sse.Event{
		UserID: in.ActorID,
		Event:  BatchProgressEvent,
		Data: payroll.BatchProgress{
			RunID:     snapshot.RunID,
			PeriodID:  snapshot.PeriodID,
			Total:     total,
			Done:      snapshot.Created + snapshot.Errors,
			Failed:    snapshot.Errors,
			Completed: completed,
		},
	})
}
