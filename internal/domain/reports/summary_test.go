package reports

import (
	"testing"

	"github.com/shopspring/decimal"

	"paystream/internal/domain/core"
	"paystream/internal/domain/payroll"
)

func TestSummarize(t *testing.T) {
	employees := []core.Employee{
		{ID: "1", Department: "Engineering", BaseSalary: decimal.NewFromInt(150000), SalaryAdvance: decimal.NewFromInt(20000), Status: core.StatusActive},
		{ID: "2", Department: "Sales", BaseSalary: decimal.NewFromInt(90000), Gifts: decimal.NewFromInt(5000), Status: core.StatusOnLeave},
		{ID: "3", Department: "Engineering", BaseSalary: decimal.NewFromInt(60000), Status: core.StatusActive},
	}
	history := []payroll.Record{
		{NetPay: decimal.NewFromInt(130000)},
		{NetPay: decimal.NewFromInt(95000)},
	}

	s := Summarize(employees, history)

	if s.TotalEmployees != 3 || s.ActiveEmployees != 2 {
		t.Fatalf("expected 3 total and 2 active, got %d and %d", s.TotalEmployees, s.ActiveEmployees)
	}
	if !s.TotalPayout.Equal(decimal.NewFromInt(225000)) {
		t.Fatalf("expected payout 225000, got %v", s.TotalPayout)
	}
	if !s.AverageBaseSalary.Equal(decimal.NewFromInt(100000)) {
		t.Fatalf("expected average 100000, got %v", s.AverageBaseSalary)
	}
	if !s.PendingGifts.Equal(decimal.NewFromInt(5000)) || !s.OutstandingAdvances.Equal(decimal.NewFromInt(20000)) {
		t.Fatalf("unexpected accumulators: gifts %v advances %v", s.PendingGifts, s.OutstandingAdvances)
	}
	if len(s.CostByDepartment) != 2 || s.CostByDepartment[0].Name != "Engineering" {
		t.Fatalf("unexpected department breakdown: %+v", s.CostByDepartment)
	}
	if !s.CostByDepartment[0].Cost.Equal(decimal.NewFromInt(210000)) {
		t.Fatalf("expected engineering cost 210000, got %v", s.CostByDepartment[0].Cost)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, nil)
	if s.TotalEmployees != 0 || !s.AverageBaseSalary.IsZero() || s.CostByDepartment == nil {
		t.Fatalf("unexpected empty summary: %+v", s)
	}
}
