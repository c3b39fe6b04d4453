package payroll

import (
	"context"

	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// Incentives are the variable earnings that come from outside payroll.
type Incentives struct {
	SalesCommission  decimal.Decimal
	PerformanceBonus decimal.Decimal
}

// IncentiveProvider supplies commission and bonus amounts for an employee and
// period, typically from sales data.
type IncentiveProvider interface {
	Incentives(ctx context.Context, emp employee.Employee, period payroll.Period) (Incentives, error)
}

// NoIncentives pays no commission or bonus.
type NoIncentives struct{}

func (NoIncentives) Incentives(context.Context, employee.Employee, payroll.Period) (Incentives, error) {
	return Incentives{SalesCommission: decimal.Zero, PerformanceBonus: decimal.Zero}, nil
}

// IncentiveFunc adapts a plain function to IncentiveProvider.
type IncentiveFunc func(ctx context.Context, emp employee.Employee, period payroll.Period) (Incentives, error)

func (f IncentiveFunc) Incentives(ctx context.Context, emp employee.Employee, period payroll.Period) (Incentives, error) {
	return f(ctx, emp, period)
}
