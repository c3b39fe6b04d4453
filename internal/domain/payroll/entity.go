package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// AttendanceStatus tracks whether a period's attendance is closed for payroll.
type AttendanceStatus string

const (
	AttendanceFinalized  AttendanceStatus = "finalized"
	AttendancePending    AttendanceStatus = "pending"
	AttendanceNotStarted AttendanceStatus = "not_started"
)

func (s AttendanceStatus) IsValid() bool {
	switch s {
	case AttendanceFinalized, AttendancePending, AttendanceNotStarted:
		return true
	}
	return false
}

// Period is a payroll period. StartDate and EndDate are inclusive dates.
// WorkingDays is stored on the period and never derived by the engine.
type Period struct {
	ID               string
	ShopID           string
	Label            string
	StartDate        time.Time
	EndDate          time.Time
	AttendanceStatus AttendanceStatus
	WorkingDays      int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (p Period) IsFinalized() bool {
	return p.AttendanceStatus == AttendanceFinalized
}

type Hours struct {
	Regular    decimal.Decimal `json:"regular"`
	Overtime   decimal.Decimal `json:"overtime"`
	Undertime  decimal.Decimal `json:"undertime"`
	AbsentDays int             `json:"absent_days"`
}

type Earnings struct {
	BasicPay         decimal.Decimal `json:"basic_pay"`
	OvertimePay      decimal.Decimal `json:"overtime_pay"`
	SalesCommission  decimal.Decimal `json:"sales_commission"`
	PerformanceBonus decimal.Decimal `json:"performance_bonus"`
	OtherAllowances  decimal.Decimal `json:"other_allowances"`
	TotalEarnings    decimal.Decimal `json:"total_earnings"`
}

type Deductions struct {
	WithholdingTax   decimal.Decimal `json:"withholding_tax"`
	SSS              decimal.Decimal `json:"sss"`
	PhilHealth       decimal.Decimal `json:"philhealth"`
	PagIBIG          decimal.Decimal `json:"pagibig"`
	AbsentDeductions decimal.Decimal `json:"absent_deductions"`
	LoanDeductions   decimal.Decimal `json:"loan_deductions"`
	// OtherDeductions carries undertime.
	OtherDeductions decimal.Decimal `json:"other_deductions"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
}

// Statutory is the sum of the three statutory contributions.
func (d Deductions) Statutory() decimal.Decimal {
	return d.SSS.Add(d.PhilHealth).Add(d.PagIBIG)
}

type Summary struct {
	GrossPay      decimal.Decimal `json:"gross_pay"`
	TaxableIncome decimal.Decimal `json:"taxable_income"`
	NetPay        decimal.Decimal `json:"net_pay"`
}

type Rates struct {
	MonthlyBase decimal.Decimal `json:"monthly_base"`
	DailyRate   decimal.Decimal `json:"daily_rate"`
	HourlyRate  decimal.Decimal `json:"hourly_rate"`
}

// Calculation is the full gross-to-net breakdown for one employee and period.
type Calculation struct {
	Hours      Hours      `json:"hours"`
	Earnings   Earnings   `json:"earnings"`
	Deductions Deductions `json:"deductions"`
	Summary    Summary    `json:"summary"`
	Rates      Rates      `json:"rates"`
}

type PayslipStatus string

const (
	PayslipStatusGenerated PayslipStatus = "generated"
	PayslipStatusApproved  PayslipStatus = "approved"
	PayslipStatusPaid      PayslipStatus = "paid"
)

// CanTransitionTo allows generated -> approved -> paid only.
func (s PayslipStatus) CanTransitionTo(next PayslipStatus) bool {
	switch s {
	case PayslipStatusGenerated:
		return next == PayslipStatusApproved
	case PayslipStatusApproved:
		return next == PayslipStatusPaid
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCheck        PaymentMethod = "check"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodBankTransfer, PaymentMethodCash, PaymentMethodCheck:
		return true
	}
	return false
}

// Payslip is a persisted calculation. Calculation is immutable once stored.
type Payslip struct {
	ID            string
	ShopID        string
	EmployeeID    string
	EmployeeName  string
	EmployeeCode  string
	PeriodID      string
	Calculation   Calculation
	PaymentMethod PaymentMethod
	Status        PayslipStatus
	GeneratedAt   time.Time
	GeneratedBy   string
	UpdatedAt     time.Time
}
