package payroll

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

const hoursPerDay = 8

var (
	eight           = decimal.NewFromInt(hoursPerDay)
	overtimePremium = decimal.RequireFromString("1.25")
)

// Engine turns an employee's compensation and attendance into a Calculation.
// It performs no I/O apart from asking the incentive provider.
type Engine struct {
	incentives IncentiveProvider
}

func NewEngine(incentives IncentiveProvider) *Engine {
	if incentives == nil {
		incentives = NoIncentives{}
	}
	return &Engine{incentives: incentives}
}

// ResolveRates derives monthly, daily and hourly rates from the rate that the
// employee's pay type makes authoritative.
func ResolveRates(emp employee.Employee, workingDays int) (payroll.Rates, error) {
	var authoritative *decimal.Decimal
	switch emp.PayType {
	case employee.PayTypeMonthly:
		authoritative = emp.MonthlySalary
	case employee.PayTypeDaily:
		authoritative = emp.DailyRate
	case employee.PayTypeHourly:
		authoritative = emp.HourlyRate
	}
	if authoritative == nil || !authoritative.IsPositive() {
		return payroll.Rates{}, payroll.ErrNoRateConfigured
	}
	return resolveRates(emp, workingDays), nil
}

// resolveRates never fails; a missing authoritative rate yields zeros.
func resolveRates(emp employee.Employee, workingDays int) payroll.Rates {
	valueOf := func(p *decimal.Decimal) decimal.Decimal {
		if p == nil {
			return decimal.Zero
		}
		return *p
	}
	days := decimal.NewFromInt(int64(workingDays))

	var r payroll.Rates
	switch emp.PayType {
	case employee.PayTypeMonthly:
		r.MonthlyBase = round2(valueOf(emp.MonthlySalary))
		if workingDays > 0 {
			r.DailyRate = round2(r.MonthlyBase.Div(days))
		}
		r.HourlyRate = round2(r.DailyRate.Div(eight))
	case employee.PayTypeDaily:
		r.DailyRate = round2(valueOf(emp.DailyRate))
		r.HourlyRate = round2(r.DailyRate.Div(eight))
		r.MonthlyBase = round2(r.DailyRate.Mul(days))
	case employee.PayTypeHourly:
		r.HourlyRate = round2(valueOf(emp.HourlyRate))
		r.DailyRate = round2(r.HourlyRate.Mul(eight))
		r.MonthlyBase = round2(r.DailyRate.Mul(days))
	}
	return r
}

// Calculate sums records into period totals and computes the payslip figures.
func (e *Engine) Calculate(ctx context.Context, emp employee.Employee, records []attendance.Record, period payroll.Period) (payroll.Calculation, error) {
	return e.CalculateSummary(ctx, emp, attendance.Summarize(emp.ID, records), period)
}

// CalculateSummary is Calculate for callers that already hold the totals.
func (e *Engine) CalculateSummary(ctx context.Context, emp employee.Employee, sum attendance.Summary, period payroll.Period) (payroll.Calculation, error) {
	var c payroll.Calculation

	c.Hours = payroll.Hours{
		Regular:    sum.TotalRegularHours,
		Overtime:   sum.TotalOvertimeHours,
		Undertime:  sum.TotalUndertimeHours,
		AbsentDays: sum.TotalAbsentDays,
	}
	c.Rates = resolveRates(emp, period.WorkingDays)
	hourly := c.Rates.HourlyRate

	inc, err := e.incentives.Incentives(ctx, emp, period)
	if err != nil {
		return payroll.Calculation{}, fmt.Errorf("failed to load incentives for employee %s: %w", emp.ID, err)
	}

	// Earnings
	c.Earnings.BasicPay = round2(sum.TotalRegularHours.Mul(hourly))
	c.Earnings.OvertimePay = round2(sum.TotalOvertimeHours.Mul(hourly).Mul(overtimePremium))
	c.Earnings.SalesCommission = round2(inc.SalesCommission)
	c.Earnings.PerformanceBonus = round2(inc.PerformanceBonus)
	c.Earnings.OtherAllowances = round2(emp.OtherAllowances)
	c.Earnings.TotalEarnings = round2(c.Earnings.BasicPay.
		Add(c.Earnings.OvertimePay).
		Add(c.Earnings.SalesCommission).
		Add(c.Earnings.PerformanceBonus).
		Add(c.Earnings.OtherAllowances))

	// Commission, bonus and allowances stay out of the tax base.
	grossPay := round2(c.Earnings.BasicPay.Add(c.Earnings.OvertimePay))

	// Statutory contributions use the monthly base, not hours worked.
	c.Deductions.SSS = SocialInsurance(c.Rates.MonthlyBase)
	c.Deductions.PhilHealth = HealthInsurance(c.Rates.MonthlyBase)
	c.Deductions.PagIBIG = HousingFund(c.Rates.MonthlyBase)
	statutory := c.Deductions.Statutory()

	taxableBase := decimal.Max(round2(grossPay.Sub(statutory)), decimal.Zero)
	c.Deductions.WithholdingTax = MonthlyWithholding(taxableBase)

	c.Deductions.AbsentDeductions = round2(decimal.NewFromInt(int64(sum.TotalAbsentDays)).Mul(c.Rates.DailyRate))
	c.Deductions.OtherDeductions = round2(sum.TotalUndertimeHours.Mul(hourly))
	if emp.Loan != nil {
		c.Deductions.LoanDeductions = round2(emp.Loan.MonthlyDeduction)
	}
	c.Deductions.TotalDeductions = round2(c.Deductions.WithholdingTax.
		Add(statutory).
		Add(c.Deductions.AbsentDeductions).
		Add(c.Deductions.OtherDeductions).
		Add(c.Deductions.LoanDeductions))

	c.Summary = payroll.Summary{
		GrossPay:      grossPay,
		TaxableIncome: taxableBase,
		NetPay:        round2(c.Earnings.TotalEarnings.Sub(c.Deductions.TotalDeductions)),
	}

	return c, nil
}
