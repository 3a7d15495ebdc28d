package reports

import (
	"github.com/shopspring/decimal"

	"paystream/internal/domain/core"
	"paystream/internal/domain/payroll"
)

type DepartmentCost struct {
	Name string          `json:"name"`
	Cost decimal.Decimal `json:"cost"`
}

// Summary is the headline view of the roster and payroll history.
type Summary struct {
	TotalEmployees      int              `json:"totalEmployees"`
	ActiveEmployees     int              `json:"activeEmployees"`
	TotalPayout         decimal.Decimal  `json:"totalPayroll"`
	AverageBaseSalary   decimal.Decimal  `json:"avgSalary"`
	PendingGifts        decimal.Decimal  `json:"totalGifts"`
	OutstandingAdvances decimal.Decimal  `json:"totalAdvances"`
	CostByDepartment    []DepartmentCost `json:"costByDepartment"`
}

// Summarize totals net pay across all history and base salary, gifts and
// advances across the roster. Department cost is base salary grouped by
// department in first-seen order.
func Summarize(employees []core.Employee, history []payroll.Record) Summary {
	s := Summary{
		TotalEmployees:      len(employees),
		TotalPayout:         payroll.TotalNet(history),
		AverageBaseSalary:   decimal.Zero,
		PendingGifts:        decimal.Zero,
		OutstandingAdvances: decimal.Zero,
		CostByDepartment:    []DepartmentCost{},
	}

	baseTotal := decimal.Zero
	index := map[string]int{}
	for _, emp := range employees {
		if emp.Status == core.StatusActive {
			s.ActiveEmployees++
		}
		baseTotal = baseTotal.Add(emp.BaseSalary)
		s.PendingGifts = s.PendingGifts.Add(emp.Gifts)
		s.OutstandingAdvances = s.OutstandingAdvances.Add(emp.SalaryAdvance)

		i, ok := index[emp.Department]
		if !ok {
			i = len(s.CostByDepartment)
			index[emp.Department] = i
			s.CostByDepartment = append(s.CostByDepartment, DepartmentCost{Name: emp.Department, Cost: decimal.Zero})
		}
		s.CostByDepartment[i].Cost = s.CostByDepartment[i].Cost.Add(emp.BaseSalary)
	}
	if len(employees) > 0 {
		s.AverageBaseSalary = baseTotal.Div(decimal.NewFromInt(int64(len(employees))))
	}
	return s
}
