package payslip

import (
	"github.com/shopspring/decimal"

	"paystream/internal/domain/core"
	"paystream/internal/domain/payroll"
)

const DefaultCurrency = "Rs."

type Line struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// Statement is a monthly salary statement for one employee.
type Statement struct {
	EmployeeID      string          `json:"employeeId"`
	EmployeeName    string          `json:"employeeName"`
	Position        string          `json:"position"`
	Department      string          `json:"department"`
	BankAccount     string          `json:"bankAccount"`
	Month           string          `json:"month"`
	Year            int             `json:"year"`
	Currency        string          `json:"currency"`
	Earnings        []Line          `json:"earnings"`
	Deductions      []Line          `json:"deductions"`
	GrossTotal      decimal.Decimal `json:"grossTotal"`
	TotalDeductions decimal.Decimal `json:"totalDeductions"`
	NetPay          decimal.Decimal `json:"netPay"`
}

// Build computes the statement from the employee's current compensation
// using the same formula as payroll drafts. Optional lines only appear when
// their amount is positive.
func Build(emp core.Employee, month string, year int, currency string) Statement {
	if currency == "" {
		currency = DefaultCurrency
	}
	gross, net := payroll.Compute(payroll.ComponentsOf(emp))

	earnings := []Line{{Label: "Basic Salary", Amount: emp.BaseSalary}}
	if emp.Allowances.IsPositive() {
		earnings = append(earnings, Line{Label: "Allowances", Amount: emp.Allowances})
	}
	if emp.Gifts.IsPositive() {
		earnings = append(earnings, Line{Label: "Bonuses", Amount: emp.Gifts})
	}

	deductions := []Line{}
	if emp.SalaryAdvance.IsPositive() {
		deductions = append(deductions, Line{Label: "Advance recovery", Amount: emp.SalaryAdvance})
	}
	if emp.Deductions.IsPositive() {
		deductions = append(deductions, Line{Label: "Tax / Other", Amount: emp.Deductions})
	}

	return Statement{
		EmployeeID:      emp.ID,
		EmployeeName:    emp.FullName(),
		Position:        emp.Position,
		Department:      emp.Department,
		BankAccount:     emp.MaskedBankAccount(),
		Month:           month,
		Year:            year,
		Currency:        currency,
		Earnings:        earnings,
		Deductions:      deductions,
		GrossTotal:      gross,
		TotalDeductions: gross.Sub(net),
		NetPay:          net,
	}
}
