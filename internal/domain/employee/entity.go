package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

// Employee is the compensation view of a shop employee. Only the rate matching
// PayType is authoritative; the other two are ignored by payroll.
type Employee struct {
	ID                   string
	ShopID               string
	EmployeeCode         string
	FullName             string
	Email                *string
	PayType              PayType
	MonthlySalary        *decimal.Decimal
	DailyRate            *decimal.Decimal
	HourlyRate           *decimal.Decimal
	SalesCommissionRate  decimal.Decimal
	PerformanceBonusRate decimal.Decimal
	OtherAllowances      decimal.Decimal
	Loan                 *Loan
	Status               Status
	CreatedAt            time.Time
	UpdatedAt            time.Time

	// Derived per payroll period by the repository
	HasSlipForPeriod bool
}

type Loan struct {
	Amount           decimal.Decimal
	MonthlyDeduction decimal.Decimal
}

type PayType string

const (
	PayTypeMonthly PayType = "monthly"
	PayTypeDaily   PayType = "daily"
	PayTypeHourly  PayType = "hourly"
)

func (p PayType) IsValid() bool {
	switch p {
	case PayTypeMonthly, PayTypeDaily, PayTypeHourly:
		return true
	}
	return false
}

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusOnLeave  Status = "on_leave"
)

// DisplayName falls back to the employee code when no name is on file.
func (e Employee) DisplayName() string {
	if e.FullName != "" {
		return e.FullName
	}
	return e.EmployeeCode
}
