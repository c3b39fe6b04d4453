package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/pkg/events"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// AttendanceSource supplies the period totals the engine consumes.
type AttendanceSource interface {
	GetSummary(ctx context.Context, shopID, employeeID string, from, to time.Time) (attendance.Summary, []attendance.Record, error)
}

// Notifier tells an employee that a payslip was generated.
type Notifier interface {
	NotifyPayslip(ctx context.Context, emp employee.Employee, period payroll.Period, slip payroll.Payslip) error
}

// GenerateOptions carries the per-call inputs of Workflow.Generate.
type GenerateOptions struct {
	ActorID       string
	PaymentMethod payroll.PaymentMethod
	// ExpectedNetPay, when set, must equal the recomputed net pay.
	ExpectedNetPay *decimal.Decimal
	Notify         bool
}

// Workflow creates and locks a single payslip.
type Workflow struct {
	tx         database.Transactor
	employees  employee.EmployeeRepository
	payslips   payroll.PayslipRepository
	attendance AttendanceSource
	engine     *Engine
	notifier   Notifier
	publisher  events.Publisher

	inflight singleflight.Group
	now      func() time.Time
	newID    func() string
}

func NewWorkflow(
	tx database.Transactor,
	employees employee.EmployeeRepository,
	payslips payroll.PayslipRepository,
	attendanceSource AttendanceSource,
	engine *Engine,
	notifier Notifier,
	publisher events.Publisher,
) *Workflow {
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	return &Workflow{
		tx:         tx,
		employees:  employees,
		payslips:   payslips,
		attendance: attendanceSource,
		engine:     engine,
		notifier:   notifier,
		publisher:  publisher,
		now:        time.Now,
		newID:      func() string { return uuid.NewString() },
	}
}

// CheckPreconditions reports the first reason emp cannot get a payslip for
// period, in the order the workflow enforces them.
func CheckPreconditions(emp employee.Employee, period payroll.Period) error {
	if !period.IsFinalized() {
		return payroll.ErrAttendanceNotFinalized
	}
	if emp.HasSlipForPeriod {
		return payroll.ErrPayslipAlreadyExists
	}
	if emp.Status != employee.StatusActive {
		return payroll.ErrEmployeeNotActive
	}
	if period.WorkingDays <= 0 {
		return payroll.ErrInvalidWorkingDays
	}
	if _, err := ResolveRates(emp, period.WorkingDays); err != nil {
		return err
	}
	return nil
}

type generateResult struct {
	slip  payroll.Payslip
	owner *GenerateOptions
}

// Generate validates, computes and persists the payslip for emp and period.
// Concurrent calls for the same pair in this process share one attempt; only
// the caller that ran it receives the payslip, the rest get
// ErrPayslipAlreadyExists.
func (w *Workflow) Generate(ctx context.Context, emp employee.Employee, period payroll.Period, opts GenerateOptions) (payroll.Payslip, error) {
	if err := CheckPreconditions(emp, period); err != nil {
		return payroll.Payslip{}, err
	}

	key := period.ID + "|" + emp.ID
	v, err, _ := w.inflight.Do(key, func() (interface{}, error) {
		slip, err := w.generate(ctx, emp, period, opts)
		return generateResult{slip: slip, owner: &opts}, err
	})
	if err != nil {
		return payroll.Payslip{}, err
	}

	res := v.(generateResult)
	if res.owner != &opts {
		return payroll.Payslip{}, payroll.ErrPayslipAlreadyExists
	}

	w.afterCommit(ctx, emp, period, res.slip, opts)
	return res.slip, nil
}

func (w *Workflow) generate(ctx context.Context, emp employee.Employee, period payroll.Period, opts GenerateOptions) (payroll.Payslip, error) {
	var created payroll.Payslip

	err := w.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := w.employees.LockForPayroll(ctx, period.ShopID, emp.ID); err != nil {
			return fmt.Errorf("failed to lock employee %s: %w", emp.ID, err)
		}

		exists, err := w.payslips.ExistsForPeriod(ctx, period.ShopID, emp.ID, period.ID)
		if err != nil {
			return fmt.Errorf("failed to check existing payslip: %w", err)
		}
		if exists {
			return payroll.ErrPayslipAlreadyExists
		}

		sum, _, err := w.attendance.GetSummary(ctx, period.ShopID, emp.ID, period.StartDate, period.EndDate)
		if err != nil {
			return fmt.Errorf("failed to load attendance summary: %w", err)
		}

		calc, err := w.engine.CalculateSummary(ctx, emp, sum, period)
		if err != nil {
			return err
		}

		if opts.ExpectedNetPay != nil && !opts.ExpectedNetPay.Round(2).Equal(calc.Summary.NetPay) {
			return fmt.Errorf("%w: expected %s, computed %s", payroll.ErrCalculationMismatch,
				opts.ExpectedNetPay.StringFixed(2), calc.Summary.NetPay.StringFixed(2))
		}

		created, err = w.payslips.Create(ctx, payroll.Payslip{
			ID:            w.newID(),
			ShopID:        period.ShopID,
			EmployeeID:    emp.ID,
			EmployeeName:  emp.DisplayName(),
			EmployeeCode:  emp.EmployeeCode,
			PeriodID:      period.ID,
			Calculation:   calc,
			PaymentMethod: opts.PaymentMethod,
			Status:        payroll.PayslipStatusGenerated,
			GeneratedAt:   w.now().UTC(),
			GeneratedBy:   opts.ActorID,
		})
		if err != nil {
			if errors.Is(err, payroll.ErrPayslipAlreadyExists) {
				return err
			}
			return fmt.Errorf("failed to create payslip: %w", err)
		}
		return nil
	})
	if err != nil {
		return payroll.Payslip{}, err
	}

	slog.Info("payslip generated",
		"payslip_id", created.ID,
		"employee_id", emp.ID,
		"period_id", period.ID,
		"net_pay", created.Calculation.Summary.NetPay.StringFixed(2),
	)
	return created, nil
}

// afterCommit runs side effects that must not undo a stored payslip.
func (w *Workflow) afterCommit(ctx context.Context, emp employee.Employee, period payroll.Period, slip payroll.Payslip, opts GenerateOptions) {
	err := w.publisher.PublishPayslipGenerated(ctx, events.PayslipGeneratedEvent{
		PayslipID:   slip.ID,
		ShopID:      slip.ShopID,
		EmployeeID:  slip.EmployeeID,
		PeriodID:    slip.PeriodID,
		NetPay:      slip.Calculation.Summary.NetPay.StringFixed(2),
		GrossPay:    slip.Calculation.Summary.GrossPay.StringFixed(2),
		GeneratedBy: slip.GeneratedBy,
		GeneratedAt: slip.GeneratedAt,
	})
	if err != nil {
		slog.Error("failed to publish payslip event", "payslip_id", slip.ID, "error", err)
	}

	if opts.Notify && w.notifier != nil {
		if err := w.notifier.NotifyPayslip(ctx, emp, period, slip); err != nil {
			slog.Error("failed to notify employee", "payslip_id", slip.ID, "employee_id", emp.ID, "error", err)
		}
	}
}
