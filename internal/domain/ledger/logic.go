package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"paystream/internal/domain/core"
	"paystream/internal/domain/record"
)

// Accumulator returns the running total a kind of grant adds to.
func (k Kind) Accumulator(emp core.Employee) decimal.Decimal {
	if k == KindBonus {
		return emp.Gifts
	}
	return emp.SalaryAdvance
}

// Apply returns emp with the kind's accumulator set to total.
func (k Kind) Apply(emp core.Employee, total decimal.Decimal) core.Employee {
	if k == KindBonus {
		emp.Gifts = total
	} else {
		emp.SalaryAdvance = total
	}
	return emp
}

// Column is the employee field name holding the kind's accumulator.
func (k Kind) Column() string {
	if k == KindBonus {
		return "gifts"
	}
	return "salaryAdvance"
}

// NewGrant builds the ledger line and new accumulator total for issuing
// amount to emp.
func NewGrant(kind Kind, emp core.Employee, amount decimal.Decimal, reason string, now time.Time) (Grant, error) {
	if kind != KindAdvance && kind != KindBonus {
		return Grant{}, ErrInvalidKind
	}
	if !amount.IsPositive() {
		return Grant{}, ErrInvalidAmount
	}
	return Grant{
		Kind: kind,
		Transaction: Transaction{
			ID:           uuid.NewString(),
			EmployeeID:   emp.ID,
			EmployeeName: emp.FullName(),
			Amount:       amount,
			Date:         now,
			Reason:       strings.TrimSpace(reason),
		},
		NewTotal: kind.Accumulator(emp).Add(amount),
	}, nil
}

func FromRecord(rec map[string]any) Transaction {
	return Transaction{
		ID:           record.String(rec, "id"),
		EmployeeID:   record.String(rec, "employeeId"),
		EmployeeName: record.String(rec, "employeeName"),
		Amount:       record.Number(rec, "amount"),
		Date:         record.Time(rec, "date"),
		Reason:       record.String(rec, "reason"),
	}
}
