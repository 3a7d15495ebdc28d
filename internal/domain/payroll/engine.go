package payroll

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"paystream/internal/domain/core"
	"paystream/internal/domain/record"
)

// FromRecord normalises a loosely keyed history row into a Record.
func FromRecord(rec map[string]any) Record {
	return Record{
		ID:            record.String(rec, "id"),
		EmployeeID:    record.String(rec, "employeeId"),
		Month:         record.String(rec, "month"),
		Year:          record.Int(rec, "year"),
		GrossPay:      record.Number(rec, "grossPay"),
		NetPay:        record.Number(rec, "netPay"),
		Status:        record.String(rec, "status"),
		ProcessedDate: record.Time(rec, "processedDate"),
	}
}

// EligibleEmployees drops terminated employees and keeps input order.
func EligibleEmployees(employees []core.Employee) []core.Employee {
	out := make([]core.Employee, 0, len(employees))
	for _, emp := range employees {
		if emp.Terminated() {
			continue
		}
		out = append(out, emp)
	}
	return out
}

// InPeriod reports whether rec belongs to (month, year). Months compare
// case-insensitively.
func (r Record) InPeriod(month string, year int) bool {
	return strings.EqualFold(r.Month, month) && r.Year == year
}

// IsProcessed reports whether history already holds a record for emp in
// (month, year).
func IsProcessed(emp core.Employee, history []Record, month string, year int) bool {
	for _, rec := range history {
		if rec.EmployeeID == emp.ID && rec.InPeriod(month, year) {
			return true
		}
	}
	return false
}

// Partition separates eligible employees still owed pay for the period
// from the history records already written for it. Processed records are
// included regardless of the employee's current status.
func Partition(employees []core.Employee, history []Record, month string, year int) PeriodSplit {
	p := PeriodSplit{
		Pending:            []core.Employee{},
		ProcessedForPeriod: []Record{},
	}
	for _, emp := range EligibleEmployees(employees) {
		if !IsProcessed(emp, history, month, year) {
			p.Pending = append(p.Pending, emp)
		}
	}
	for _, rec := range history {
		if rec.InPeriod(month, year) {
			p.ProcessedForPeriod = append(p.ProcessedForPeriod, rec)
		}
	}
	return p
}

// FilterBySearchTerm narrows pending employees to those whose full name or
// id contains term, ignoring case. A blank term keeps everyone.
func FilterBySearchTerm(pending []core.Employee, term string) []core.Employee {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return pending
	}
	out := make([]core.Employee, 0, len(pending))
	for _, emp := range pending {
		if strings.Contains(strings.ToLower(emp.FullName()), needle) ||
			strings.Contains(strings.ToLower(emp.ID), needle) {
			out = append(out, emp)
		}
	}
	return out
}

// BuildDrafts computes one Draft record per pending employee.
func BuildDrafts(pending []core.Employee, month string, year int, now time.Time) []Record {
	drafts := make([]Record, 0, len(pending))
	for _, emp := range pending {
		gross, net := Compute(ComponentsOf(emp))
		drafts = append(drafts, Record{
			ID:            uuid.NewString(),
			EmployeeID:    emp.ID,
			Month:         month,
			Year:          year,
			GrossPay:      gross,
			NetPay:        net,
			Status:        StatusDraft,
			ProcessedDate: now,
		})
	}
	return drafts
}

func TotalNet(records []Record) decimal.Decimal {
	total := decimal.Zero
	for _, rec := range records {
		total = total.Add(rec.NetPay)
	}
	return total
}

// Preview runs the whole reconciliation for one period: partition, filter by
// term, then compute drafts for the filtered pending set.
func Preview(employees []core.Employee, history []Record, month string, year int, term string, now time.Time) Run {
	p := Partition(employees, history, month, year)
	pending := FilterBySearchTerm(p.Pending, term)
	drafts := BuildDrafts(pending, month, year, now)
	return Run{
		Month:              month,
		Year:               year,
		ProcessedForPeriod: p.ProcessedForPeriod,
		Pending:            pending,
		Drafts:             drafts,
		TotalNet:           TotalNet(drafts),
	}
}

// Finalize stamps drafts as Processed at the commit time.
func Finalize(drafts []Record, now time.Time) []Record {
	out := make([]Record, len(drafts))
	for i, draft := range drafts {
		draft.Status = StatusProcessed
		draft.ProcessedDate = now
		out[i] = draft
	}
	return out
}

// EmployeeIDs lists the distinct employees referenced by records.
func EmployeeIDs(records []Record) []string {
	seen := make(map[string]struct{}, len(records))
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		if _, ok := seen[rec.EmployeeID]; ok {
			continue
		}
		seen[rec.EmployeeID] = struct{}{}
		ids = append(ids, rec.EmployeeID)
	}
	return ids
}

// Register joins history with the roster for the payroll register export.
func Register(history []Record, employees []core.Employee) []RegisterRow {
	rows := make([]RegisterRow, 0, len(history))
	for _, rec := range history {
		emp, _ := core.Find(employees, rec.EmployeeID)
		row := RegisterRow{
			RecordID:     rec.ID,
			EmployeeID:   rec.EmployeeID,
			EmployeeName: strings.TrimSpace(emp.FullName()),
			Department:   emp.Department,
			Month:        rec.Month,
			Year:         rec.Year,
			GrossPay:     rec.GrossPay.StringFixed(2),
			NetPay:       rec.NetPay.StringFixed(2),
			Status:       rec.Status,
		}
		if !rec.ProcessedDate.IsZero() {
			row.ProcessedDate = rec.ProcessedDate.UTC().Format(time.RFC3339)
		}
		rows = append(rows, row)
	}
	return rows
}
