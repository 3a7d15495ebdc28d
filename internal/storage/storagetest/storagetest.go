// Package storagetest holds behaviour checks every storage.Store backend
// must pass.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paystream/internal/domain/attendance"
	"paystream/internal/domain/core"
	"paystream/internal/domain/ledger"
	"paystream/internal/domain/payroll"
	"paystream/internal/storage"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) storage.Store

var stamp = time.Date(2024, 11, 30, 9, 0, 0, 0, time.UTC)

func Employee(id, email string, base int64) core.Employee {
	return core.Employee{
		ID:          id,
		FirstName:   "First" + id,
		LastName:    "Last",
		Email:       email,
		Department:  "Engineering",
		Position:    "Associate",
		BaseSalary:  decimal.NewFromInt(base),
		Status:      core.StatusActive,
		JoiningDate: "2023-01-15",
		BankAccount: "BOC " + id,
	}
}

func Run(t *testing.T, factory Factory) {
	t.Run("EmployeeLifecycle", func(t *testing.T) { employeeLifecycle(t, factory(t)) })
	t.Run("DuplicateEmail", func(t *testing.T) { duplicateEmail(t, factory(t)) })
	t.Run("DuplicateID", func(t *testing.T) { duplicateID(t, factory(t)) })
	t.Run("GrantIsAtomic", func(t *testing.T) { grantIsAtomic(t, factory(t)) })
	t.Run("CommitPayroll", func(t *testing.T) { commitPayroll(t, factory(t)) })
	t.Run("PeriodConflict", func(t *testing.T) { periodConflict(t, factory(t)) })
	t.Run("EmptyCommit", func(t *testing.T) { emptyCommit(t, factory(t)) })
	t.Run("DeleteCascades", func(t *testing.T) { deleteCascades(t, factory(t)) })
	t.Run("Settings", func(t *testing.T) { settingsRoundTrip(t, factory(t)) })
}

func employeeLifecycle(t *testing.T, s storage.Store) {
	ctx := context.Background()
	emp := Employee("EMP001", "john@example.com", 150000)
	emp.Allowances = decimal.RequireFromString("2500.50")
	require.NoError(t, s.CreateEmployee(ctx, emp))

	list, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	got := list[0]
	assert.Equal(t, "EMP001", got.ID)
	assert.Equal(t, "FirstEMP001", got.FirstName)
	assert.Equal(t, "john@example.com", got.Email)
	assert.True(t, got.BaseSalary.Equal(decimal.NewFromInt(150000)))
	assert.True(t, got.Allowances.Equal(decimal.RequireFromString("2500.5")))
	assert.Equal(t, core.StatusActive, got.Status)
	assert.Equal(t, "2023-01-15", got.JoiningDate)
	assert.Equal(t, "BOC EMP001", got.BankAccount)

	got.Position = "Senior Dev"
	got.Status = core.StatusOnLeave
	require.NoError(t, s.UpdateEmployee(ctx, got))
	list, err = s.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Senior Dev", list[0].Position)
	assert.Equal(t, core.StatusOnLeave, list[0].Status)

	assert.ErrorIs(t, s.UpdateEmployee(ctx, Employee("missing", "x@example.com", 1)), core.ErrEmployeeNotFound)
	assert.ErrorIs(t, s.DeleteEmployee(ctx, "missing"), core.ErrEmployeeNotFound)
}

func duplicateEmail(t *testing.T, s storage.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateEmployee(ctx, Employee("A", "same@example.com", 1)))
	err := s.CreateEmployee(ctx, Employee("B", "SAME@example.com", 1))
	assert.ErrorIs(t, err, core.ErrDuplicateEmail)
}

func duplicateID(t *testing.T, s storage.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateEmployee(ctx, Employee("EMP001", "first@example.com", 1)))
	err := s.CreateEmployee(ctx, Employee("EMP001", "second@example.com", 2))
	assert.ErrorIs(t, err, core.ErrDuplicateID)
	assert.NotErrorIs(t, err, core.ErrDuplicateEmail)

	employees, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Equal(t, "first@example.com", employees[0].Email)
}

func grantIsAtomic(t *testing.T, s storage.Store) {
	ctx := context.Background()
	emp := Employee("EMP001", "john@example.com", 150000)
	require.NoError(t, s.CreateEmployee(ctx, emp))

	grant, err := ledger.NewGrant(ledger.KindAdvance, emp, decimal.NewFromInt(20000), "medical", stamp)
	require.NoError(t, err)
	require.NoError(t, s.IssueGrant(ctx, grant))

	bonus, err := ledger.NewGrant(ledger.KindBonus, emp, decimal.NewFromInt(5000), "target", stamp.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, s.IssueGrant(ctx, bonus))

	list, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	assert.True(t, list[0].SalaryAdvance.Equal(decimal.NewFromInt(20000)))
	assert.True(t, list[0].Gifts.Equal(decimal.NewFromInt(5000)))

	advances, err := s.ListTransactions(ctx, ledger.KindAdvance)
	require.NoError(t, err)
	require.Len(t, advances, 1)
	assert.Equal(t, grant.Transaction.ID, advances[0].ID)
	assert.Equal(t, "medical", advances[0].Reason)
	assert.True(t, advances[0].Amount.Equal(decimal.NewFromInt(20000)))
	assert.True(t, stamp.Equal(advances[0].Date))

	bonuses, err := s.ListTransactions(ctx, ledger.KindBonus)
	require.NoError(t, err)
	require.Len(t, bonuses, 1)

	orphan, err := ledger.NewGrant(ledger.KindAdvance, Employee("ghost", "g@example.com", 0), decimal.NewFromInt(1), "", stamp)
	require.NoError(t, err)
	assert.ErrorIs(t, s.IssueGrant(ctx, orphan), core.ErrEmployeeNotFound)
	advances, err = s.ListTransactions(ctx, ledger.KindAdvance)
	require.NoError(t, err)
	assert.Len(t, advances, 1, "failed grant must not leave a ledger row")
}

func commitPayroll(t *testing.T, s storage.Store) {
	ctx := context.Background()
	emp := Employee("EMP001", "john@example.com", 150000)
	emp.SalaryAdvance = decimal.NewFromInt(20000)
	emp.Gifts = decimal.NewFromInt(1000)
	other := Employee("EMP002", "jane@example.com", 120000)
	other.Gifts = decimal.NewFromInt(300)
	require.NoError(t, s.CreateEmployee(ctx, emp))
	require.NoError(t, s.CreateEmployee(ctx, other))

	drafts := payroll.BuildDrafts([]core.Employee{emp}, "November", 2024, stamp)
	records := payroll.Finalize(drafts, stamp)
	require.NoError(t, s.CommitPayroll(ctx, records))

	history, err := s.ListPayroll(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, records[0].ID, history[0].ID)
	assert.Equal(t, "November", history[0].Month)
	assert.Equal(t, 2024, history[0].Year)
	assert.Equal(t, payroll.StatusProcessed, history[0].Status)
	assert.True(t, history[0].NetPay.Equal(decimal.NewFromInt(131000)))
	assert.True(t, stamp.Equal(history[0].ProcessedDate))

	list, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	for _, e := range list {
		if e.ID == "EMP001" {
			assert.True(t, e.SalaryAdvance.IsZero())
			assert.True(t, e.Gifts.IsZero())
		} else {
			assert.True(t, e.Gifts.Equal(decimal.NewFromInt(300)), "employees outside the batch keep their accumulators")
		}
	}
}

func periodConflict(t *testing.T, s storage.Store) {
	ctx := context.Background()
	emp := Employee("EMP001", "john@example.com", 150000)
	emp.SalaryAdvance = decimal.NewFromInt(500)
	other := Employee("EMP002", "jane@example.com", 100)
	other.SalaryAdvance = decimal.NewFromInt(700)
	require.NoError(t, s.CreateEmployee(ctx, emp))
	require.NoError(t, s.CreateEmployee(ctx, other))

	first := payroll.Finalize(payroll.BuildDrafts([]core.Employee{emp}, "November", 2024, stamp), stamp)
	require.NoError(t, s.CommitPayroll(ctx, first))

	again := payroll.Finalize(payroll.BuildDrafts([]core.Employee{other, emp}, "NOVEMBER", 2024, stamp), stamp)
	err := s.CommitPayroll(ctx, again)
	assert.ErrorIs(t, err, payroll.ErrPeriodConflict)

	history, err := s.ListPayroll(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 1, "conflicting batch is rolled back entirely")

	list, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	for _, e := range list {
		if e.ID == "EMP002" {
			assert.True(t, e.SalaryAdvance.Equal(decimal.NewFromInt(700)), "no accumulator reset on failed batch")
		}
	}
}

func emptyCommit(t *testing.T, s storage.Store) {
	ctx := context.Background()
	require.NoError(t, s.CommitPayroll(ctx, nil))
	history, err := s.ListPayroll(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func deleteCascades(t *testing.T, s storage.Store) {
	ctx := context.Background()
	emp := Employee("EMP001", "john@example.com", 150000)
	keep := Employee("EMP002", "jane@example.com", 1)
	require.NoError(t, s.CreateEmployee(ctx, emp))
	require.NoError(t, s.CreateEmployee(ctx, keep))

	grant, err := ledger.NewGrant(ledger.KindBonus, emp, decimal.NewFromInt(10), "", stamp)
	require.NoError(t, err)
	require.NoError(t, s.IssueGrant(ctx, grant))
	require.NoError(t, s.CommitPayroll(ctx, payroll.Finalize(payroll.BuildDrafts([]core.Employee{emp, keep}, "May", 2025, stamp), stamp)))
	require.NoError(t, s.InsertAttendance(ctx, []attendance.Entry{
		{ID: "att-1", EmployeeID: emp.ID, EmployeeName: emp.FullName(), Date: "2025-05-02", CheckIn: "08:30:00", Status: attendance.StatusPresent, DeviceSource: attendance.DefaultDeviceSource},
		{ID: "att-2", EmployeeID: keep.ID, EmployeeName: keep.FullName(), Date: "2025-05-01", CheckIn: "09:30:00", Status: attendance.StatusLate, DeviceSource: attendance.DefaultDeviceSource},
	}))

	entries, err := s.ListAttendance(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2025-05-02", entries[0].Date, "attendance is newest first")
	assert.Equal(t, "08:30:00", entries[0].CheckIn)
	assert.Nil(t, entries[0].CheckOut)

	require.NoError(t, s.DeleteEmployee(ctx, emp.ID))

	history, err := s.ListPayroll(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, keep.ID, history[0].EmployeeID)

	bonuses, err := s.ListTransactions(ctx, ledger.KindBonus)
	require.NoError(t, err)
	assert.Empty(t, bonuses)

	entries, err = s.ListAttendance(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, keep.ID, entries[0].EmployeeID)
}

func settingsRoundTrip(t *testing.T, s storage.Store) {
	ctx := context.Background()
	stored, err := s.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)

	require.NoError(t, s.SaveSetting(ctx, "departments", []string{"Engineering", "Finance"}))
	require.NoError(t, s.SaveSetting(ctx, "departments", []string{"Finance"}))
	require.NoError(t, s.SaveSetting(ctx, "positions", []string{}))

	stored, err = s.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Finance"}, stored["departments"])
	positions, ok := stored["positions"]
	assert.True(t, ok)
	assert.Empty(t, positions)
	require.NoError(t, s.Ping(ctx))
}
