package payroll

import "github.com/shopspring/decimal"

var (
	hundred = decimal.NewFromInt(100)

	// Social insurance bracket table. Band 0 is everything below sssFirstBand;
	// each following band is sssBandWidth wide and adds sssStep.
	sssFirstBand   = decimal.NewFromInt(3250)
	sssBandWidth   = decimal.NewFromInt(500)
	sssLastBandEnd = decimal.NewFromInt(19750)
	sssCeiling     = decimal.NewFromInt(30000)
	sssBase        = decimal.RequireFromString("135.00")
	sssStep        = decimal.RequireFromString("22.50")
	sssMaximum     = decimal.RequireFromString("1350.00")
	sssGapDefault  = decimal.RequireFromString("900.00")

	healthFloor   = decimal.NewFromInt(10000)
	healthCeiling = decimal.NewFromInt(100000)
	healthRate    = decimal.RequireFromString("0.025")

	housingLowThreshold = decimal.NewFromInt(1500)
	housingLowRate      = decimal.RequireFromString("0.01")
	housingRate         = decimal.RequireFromString("0.02")
	housingCap          = decimal.NewFromInt(100)

	twelve = decimal.NewFromInt(12)
)

type taxBracket struct {
	over decimal.Decimal
	base decimal.Decimal
	rate decimal.Decimal
}

// Annual brackets, highest first.
var taxBrackets = []taxBracket{
	{over: decimal.NewFromInt(8000000), base: decimal.NewFromInt(2202500), rate: decimal.RequireFromString("0.35")},
	{over: decimal.NewFromInt(2000000), base: decimal.NewFromInt(402500), rate: decimal.RequireFromString("0.30")},
	{over: decimal.NewFromInt(800000), base: decimal.NewFromInt(102500), rate: decimal.RequireFromString("0.25")},
	{over: decimal.NewFromInt(400000), base: decimal.NewFromInt(22500), rate: decimal.RequireFromString("0.20")},
	{over: decimal.NewFromInt(250000), base: decimal.Zero, rate: decimal.RequireFromString("0.15")},
}

// round2 rounds half away from zero to two places.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// SocialInsurance returns the monthly SSS contribution for monthlyBase.
//
// Bases in [19,750, 30,000) match no explicit band and fall back to 900.00.
func SocialInsurance(monthlyBase decimal.Decimal) decimal.Decimal {
	switch {
	case monthlyBase.LessThan(sssFirstBand):
		return sssBase
	case monthlyBase.GreaterThanOrEqual(sssCeiling):
		return sssMaximum
	case monthlyBase.GreaterThanOrEqual(sssLastBandEnd):
		return sssGapDefault
	}
	band := monthlyBase.Sub(sssFirstBand).Div(sssBandWidth).Floor().Add(decimal.NewFromInt(1))
	return round2(sssBase.Add(sssStep.Mul(band)))
}

// HealthInsurance returns the PhilHealth share: 2.5% of the clamped base.
func HealthInsurance(monthlyBase decimal.Decimal) decimal.Decimal {
	base := decimal.Min(decimal.Max(monthlyBase, healthFloor), healthCeiling)
	return round2(base.Mul(healthRate))
}

// HousingFund returns the Pag-IBIG share.
func HousingFund(monthlyBase decimal.Decimal) decimal.Decimal {
	if monthlyBase.LessThanOrEqual(housingLowThreshold) {
		return round2(monthlyBase.Mul(housingLowRate))
	}
	return round2(decimal.Min(monthlyBase.Mul(housingRate), housingCap))
}

// IncomeTax applies the progressive annual schedule.
func IncomeTax(annualTaxable decimal.Decimal) decimal.Decimal {
	for _, b := range taxBrackets {
		if annualTaxable.GreaterThan(b.over) {
			return round2(b.base.Add(annualTaxable.Sub(b.over).Mul(b.rate)))
		}
	}
	return decimal.Zero
}

// MonthlyWithholding annualises monthlyTaxable, taxes it and spreads the
// result back over twelve months.
func MonthlyWithholding(monthlyTaxable decimal.Decimal) decimal.Decimal {
	return round2(IncomeTax(monthlyTaxable.Mul(twelve)).Div(twelve))
}
