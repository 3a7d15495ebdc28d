package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"paystream/internal/domain/core"
	"paystream/internal/domain/ledger"
	"paystream/internal/domain/payroll"
	"paystream/internal/domain/settings"
	"paystream/internal/storage"
)

// Seed loads sample data into an empty store: three employees, the
// November 2024 run for two of them and one open advance. Settings that
// have never been saved get the default vocabularies. A store that already
// holds employees is left alone apart from the settings.
func Seed(ctx context.Context, store storage.Store) error {
	if err := ensureSettings(ctx, store); err != nil {
		return err
	}

	existing, err := store.ListEmployees(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	employees := sampleEmployees()
	for _, emp := range employees {
		if err := store.CreateEmployee(ctx, emp); err != nil {
			return fmt.Errorf("seed employee %s: %w", emp.ID, err)
		}
	}

	paidAt := time.Date(2024, 11, 30, 9, 0, 0, 0, time.UTC)
	history := []payroll.Record{
		{ID: "PAY_NOV_001", EmployeeID: "EMP001", Month: "November", Year: 2024, GrossPay: decimal.NewFromInt(150000), NetPay: decimal.NewFromInt(145000), Status: payroll.StatusPaid, ProcessedDate: paidAt},
		{ID: "PAY_NOV_002", EmployeeID: "EMP002", Month: "November", Year: 2024, GrossPay: decimal.NewFromInt(120000), NetPay: decimal.NewFromInt(118000), Status: payroll.StatusPaid, ProcessedDate: paidAt},
	}
	if err := store.CommitPayroll(ctx, history); err != nil {
		return fmt.Errorf("seed payroll: %w", err)
	}

	grant, err := ledger.NewGrant(ledger.KindAdvance, employees[0], decimal.NewFromInt(20000), "Emergency medical bill",
		time.Date(2024, 12, 5, 10, 0, 0, 0, time.UTC))
	if err != nil {
		return err
	}
	grant.Transaction.ID = "ADV_001"
	if err := store.IssueGrant(ctx, grant); err != nil {
		return fmt.Errorf("seed advance: %w", err)
	}

	slog.Info("sample data seeded", "employees", len(employees), "payroll", len(history))
	return nil
}

func ensureSettings(ctx context.Context, store storage.Store) error {
	stored, err := store.LoadSettings(ctx)
	if err != nil {
		return err
	}
	defaults := settings.Defaults()
	for _, key := range []string{settings.KeyDepartments, settings.KeyPositions} {
		if _, ok := stored[key]; ok {
			continue
		}
		if err := store.SaveSetting(ctx, key, defaults.List(key)); err != nil {
			return fmt.Errorf("seed setting %s: %w", key, err)
		}
	}
	return nil
}

func sampleEmployees() []core.Employee {
	return []core.Employee{
		{ID: "EMP001", FirstName: "John", LastName: "Doe", Email: "john@example.com", Department: "Engineering", Position: "Senior Dev",
			BaseSalary: decimal.NewFromInt(150000), Status: core.StatusActive, JoiningDate: "2022-03-15", BankAccount: "BOC 123456"},
		{ID: "EMP002", FirstName: "Jane", LastName: "Smith", Email: "jane@example.com", Department: "Marketing", Position: "Lead Designer",
			BaseSalary: decimal.NewFromInt(120000), Status: core.StatusActive, JoiningDate: "2021-07-01", BankAccount: "HNB 654321"},
		{ID: "EMP003", FirstName: "Mike", LastName: "Ross", Email: "mike@example.com", Department: "Legal", Position: "Associate",
			BaseSalary: decimal.NewFromInt(95000), Status: core.StatusActive, JoiningDate: "2023-01-10", BankAccount: "SAMPATH 112233"},
	}
}
