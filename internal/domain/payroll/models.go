package payroll

import (
	"time"

	"github.com/shopspring/decimal"

	"paystream/internal/domain/core"
)

// Record is one employee's pay for one (month, year) period. Gross and net
// are snapshots taken when the record is committed.
type Record struct {
	ID            string          `json:"id"`
	EmployeeID    string          `json:"employeeId"`
	Month         string          `json:"month"`
	Year          int             `json:"year"`
	GrossPay      decimal.Decimal `json:"grossPay"`
	NetPay        decimal.Decimal `json:"netPay"`
	Status        string          `json:"status"`
	ProcessedDate time.Time       `json:"processedDate"`
}

// Components are the five amounts that make up a pay calculation.
type Components struct {
	BaseSalary    decimal.Decimal
	Allowances    decimal.Decimal
	Gifts         decimal.Decimal
	Deductions    decimal.Decimal
	SalaryAdvance decimal.Decimal
}

type PeriodSplit struct {
	Pending            []core.Employee
	ProcessedForPeriod []Record
}

// Run is the preview of a payroll run for one period.
type Run struct {
	Month              string          `json:"month"`
	Year               int             `json:"year"`
	ProcessedForPeriod []Record        `json:"processed"`
	Pending            []core.Employee `json:"pending"`
	Drafts             []Record        `json:"drafts"`
	TotalNet           decimal.Decimal `json:"totalNetPayout"`
}

type RegisterRow struct {
	RecordID      string `csv:"record_id"`
	EmployeeID    string `csv:"employee_id"`
	EmployeeName  string `csv:"employee_name"`
	Department    string `csv:"department"`
	Month         string `csv:"month"`
	Year          int    `csv:"year"`
	GrossPay      string `csv:"gross_pay"`
	NetPay        string `csv:"net_pay"`
	Status        string `csv:"status"`
	ProcessedDate string `csv:"processed_date"`
}
