// Package storage defines the persistence contract shared by the Postgres,
// SQLite and in-memory backends.
package storage

import (
	"context"

	"paystream/internal/domain/attendance"
	"paystream/internal/domain/core"
	"paystream/internal/domain/ledger"
	"paystream/internal/domain/payroll"
)

// Store persists the roster and its histories. Every method reports store
// failures to the caller; none of them retry.
//
// IssueGrant and CommitPayroll each apply two writes in one transaction.
// Deleting an employee cascades to that employee's payroll, ledger and
// attendance rows.
type Store interface {
	ListEmployees(ctx context.Context) ([]core.Employee, error)
	// ListPayroll returns history newest first.
	ListPayroll(ctx context.Context) ([]payroll.Record, error)
	ListTransactions(ctx context.Context, kind ledger.Kind) ([]ledger.Transaction, error)
	ListAttendance(ctx context.Context) ([]attendance.Entry, error)
	// LoadSettings returns only the keys that have been stored.
	LoadSettings(ctx context.Context) (map[string][]string, error)

	CreateEmployee(ctx context.Context, emp core.Employee) error
	UpdateEmployee(ctx context.Context, emp core.Employee) error
	DeleteEmployee(ctx context.Context, id string) error

	IssueGrant(ctx context.Context, grant ledger.Grant) error
	payroll.Committer
	InsertAttendance(ctx context.Context, entries []attendance.Entry) error
	SaveSetting(ctx context.Context, key string, values []string) error

	Ping(ctx context.Context) error
	Close() error
}
