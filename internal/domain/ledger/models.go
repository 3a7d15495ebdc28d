package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindAdvance Kind = "advance"
	KindBonus   Kind = "bonus"
)

// Transaction is one append-only ledger line: an advance paid out ahead of
// payroll or a bonus to be added to the next payroll.
type Transaction struct {
	ID           string          `json:"id"`
	EmployeeID   string          `json:"employeeId"`
	EmployeeName string          `json:"employeeName"`
	Amount       decimal.Decimal `json:"amount"`
	Date         time.Time       `json:"date"`
	Reason       string          `json:"reason"`
}

// Grant is a ledger line plus the accumulator value it produces.
type Grant struct {
	Kind        Kind
	Transaction Transaction
	NewTotal    decimal.Decimal
}
