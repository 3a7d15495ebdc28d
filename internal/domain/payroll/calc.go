package payroll

import (
	"github.com/shopspring/decimal"

	"paystream/internal/domain/core"
)

// Compute is the single pay formula shared by payroll runs and payslips.
// No rounding is applied and a negative net is allowed.
func Compute(c Components) (gross, net decimal.Decimal) {
	gross = c.BaseSalary.Add(c.Allowances).Add(c.Gifts)
	net = gross.Sub(c.Deductions.Add(c.SalaryAdvance))
	return gross, net
}

func ComponentsOf(emp core.Employee) Components {
	return Components{
		BaseSalary:    emp.BaseSalary,
		Allowances:    emp.Allowances,
		Gifts:         emp.Gifts,
		Deductions:    emp.Deductions,
		SalaryAdvance: emp.SalaryAdvance,
	}
}
