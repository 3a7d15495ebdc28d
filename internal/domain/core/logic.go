package core

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"paystream/internal/domain/record"
)

// ParseStatus maps a status label onto its canonical spelling, ignoring case
// and surrounding whitespace.
func ParseStatus(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	for _, status := range Statuses {
		if strings.EqualFold(value, status) {
			return status, nil
		}
	}
	return "", ErrInvalidStatus
}

// FromRecord normalises a loosely keyed row into an Employee. Unknown
// statuses are kept verbatim so that nothing is silently re-labelled.
func FromRecord(rec map[string]any) Employee {
	emp := Employee{
		ID:            record.String(rec, "id"),
		FirstName:     record.String(rec, "firstName"),
		LastName:      record.String(rec, "lastName"),
		Email:         record.String(rec, "email"),
		Department:    record.String(rec, "department"),
		Position:      record.String(rec, "position"),
		BaseSalary:    record.Number(rec, "baseSalary"),
		Allowances:    record.Number(rec, "allowances"),
		Deductions:    record.Number(rec, "deductions"),
		Gifts:         record.Number(rec, "gifts"),
		SalaryAdvance: record.Number(rec, "salaryAdvance"),
		Status:        record.String(rec, "status"),
		JoiningDate:   record.Date(rec, "joiningDate"),
		BankAccount:   record.String(rec, "bankAccount"),
	}
	if status, err := ParseStatus(emp.Status); err == nil {
		emp.Status = status
	}
	return emp
}

// PrepareNew fills in the fields a freshly hired employee always starts with:
// a new id, Active status and today's joining date when none was given.
func PrepareNew(emp Employee, now time.Time) Employee {
	emp = trim(emp)
	if emp.ID == "" {
		emp.ID = uuid.NewString()
	}
	emp.Status = StatusActive
	if emp.JoiningDate == "" {
		emp.JoiningDate = now.Format("2006-01-02")
	}
	return emp
}

// ApplyUpdate copies editable fields from patch onto current. The id and
// the two accumulators are owned by ledger and payroll operations and are
// never overwritten here.
func ApplyUpdate(current, patch Employee) Employee {
	patch = trim(patch)
	next := current
	next.FirstName = patch.FirstName
	next.LastName = patch.LastName
	next.Email = patch.Email
	next.Department = patch.Department
	next.Position = patch.Position
	next.BaseSalary = patch.BaseSalary
	next.Allowances = patch.Allowances
	next.Deductions = patch.Deductions
	next.BankAccount = patch.BankAccount
	if patch.JoiningDate != "" {
		next.JoiningDate = patch.JoiningDate
	}
	if status, err := ParseStatus(patch.Status); err == nil {
		next.Status = status
	}
	return next
}

func trim(emp Employee) Employee {
	emp.ID = strings.TrimSpace(emp.ID)
	emp.FirstName = strings.TrimSpace(emp.FirstName)
	emp.LastName = strings.TrimSpace(emp.LastName)
	emp.Email = strings.ToLower(strings.TrimSpace(emp.Email))
	emp.Department = strings.TrimSpace(emp.Department)
	emp.Position = strings.TrimSpace(emp.Position)
	emp.JoiningDate = strings.TrimSpace(emp.JoiningDate)
	emp.BankAccount = strings.TrimSpace(emp.BankAccount)
	return emp
}

// Find returns the employee with the given id.
func Find(employees []Employee, id string) (Employee, bool) {
	for _, emp := range employees {
		if emp.ID == id {
			return emp, true
		}
	}
	return Employee{}, false
}
