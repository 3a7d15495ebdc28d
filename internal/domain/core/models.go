package core

import (
	"github.com/shopspring/decimal"
)

// Employee is one row of the roster. Gifts and SalaryAdvance accumulate
// between payroll commits and are reset to zero by a commit.
type Employee struct {
	ID            string          `json:"id"`
	FirstName     string          `json:"firstName"`
	LastName      string          `json:"lastName"`
	Email         string          `json:"email"`
	Department    string          `json:"department"`
	Position      string          `json:"position"`
	BaseSalary    decimal.Decimal `json:"baseSalary"`
	Allowances    decimal.Decimal `json:"allowances"`
	Deductions    decimal.Decimal `json:"deductions"`
	Gifts         decimal.Decimal `json:"gifts"`
	SalaryAdvance decimal.Decimal `json:"salaryAdvance"`
	Status        string          `json:"status"`
	JoiningDate   string          `json:"joiningDate"`
	BankAccount   string          `json:"bankAccount,omitempty"`
}

func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

func (e Employee) Terminated() bool {
	return e.Status == StatusTerminated
}
