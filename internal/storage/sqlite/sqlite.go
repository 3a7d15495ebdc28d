// Package sqlite stores the roster in a single SQLite file, or in memory
// with ":memory:". Columns keep the camelCase names used by the hosted
// schema; rows are read back as maps and normalised by the domain decoders.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"paystream/internal/domain/attendance"
	"paystream/internal/domain/core"
	"paystream/internal/domain/ledger"
	"paystream/internal/domain/payroll"
	"paystream/internal/domain/settings"
)

const timeFormat = "2006-01-02T15:04:05.000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS employees (
	"id" TEXT PRIMARY KEY,
	"firstName" TEXT NOT NULL,
	"lastName" TEXT NOT NULL,
	"email" TEXT NOT NULL,
	"department" TEXT NOT NULL DEFAULT '',
	"position" TEXT NOT NULL DEFAULT '',
	"baseSalary" TEXT NOT NULL DEFAULT '0',
	"allowances" TEXT NOT NULL DEFAULT '0',
	"gifts" TEXT NOT NULL DEFAULT '0',
	"deductions" TEXT NOT NULL DEFAULT '0',
	"salaryAdvance" TEXT NOT NULL DEFAULT '0',
	"status" TEXT NOT NULL DEFAULT 'Active',
	"joiningDate" TEXT,
	"bankAccount" TEXT NOT NULL DEFAULT '',
	"createdAt" TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS employees_email_key ON employees (lower("email"));

CREATE TABLE IF NOT EXISTS payroll (
	"id" TEXT PRIMARY KEY,
	"employeeId" TEXT NOT NULL REFERENCES employees("id") ON DELETE CASCADE,
	"month" TEXT NOT NULL,
	"year" INTEGER NOT NULL,
	"grossPay" TEXT NOT NULL DEFAULT '0',
	"netPay" TEXT NOT NULL DEFAULT '0',
	"status" TEXT NOT NULL DEFAULT 'Processed',
	"processedDate" TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS payroll_period_unique ON payroll ("employeeId", lower("month"), "year");

CREATE TABLE IF NOT EXISTS advances (
	"id" TEXT PRIMARY KEY,
	"employeeId" TEXT NOT NULL REFERENCES employees("id") ON DELETE CASCADE,
	"employeeName" TEXT NOT NULL DEFAULT '',
	"amount" TEXT NOT NULL,
	"date" TEXT NOT NULL,
	"reason" TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS bonuses (
	"id" TEXT PRIMARY KEY,
	"employeeId" TEXT NOT NULL REFERENCES employees("id") ON DELETE CASCADE,
	"employeeName" TEXT NOT NULL DEFAULT '',
	"amount" TEXT NOT NULL,
	"date" TEXT NOT NULL,
	"reason" TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS attendance (
	"id" TEXT PRIMARY KEY,
	"employeeId" TEXT NOT NULL REFERENCES employees("id") ON DELETE CASCADE,
	"employeeName" TEXT NOT NULL DEFAULT '',
	"date" TEXT NOT NULL,
	"checkIn" TEXT,
	"checkOut" TEXT,
	"status" TEXT NOT NULL,
	"deviceSource" TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS app_settings (
	"key" TEXT PRIMARY KEY,
	"value" TEXT NOT NULL
);
`

type Store struct {
	db *sql.DB
}

// New opens path and applies the schema. The pool is limited to one
// connection so that ":memory:" databases are shared by every query.
func New(path string) (*Store, error) {
	dsn := path + "?_foreign_keys=on"
	if path != ":memory:" {
		dsn += "&_journal_mode=WAL&_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) ListEmployees(ctx context.Context) ([]core.Employee, error) {
	rows, err := s.queryMaps(ctx, `SELECT * FROM employees ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	out := make([]core.Employee, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.FromRecord(row))
	}
	return out, nil
}

func (s *Store) ListPayroll(ctx context.Context) ([]payroll.Record, error) {
	rows, err := s.queryMaps(ctx, `SELECT * FROM payroll ORDER BY "processedDate" DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list payroll: %w", err)
	}
	out := make([]payroll.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, payroll.FromRecord(row))
	}
	return out, nil
}

func (s *Store) ListTransactions(ctx context.Context, kind ledger.Kind) ([]ledger.Transaction, error) {
	table, err := ledgerTable(kind)
	if err != nil {
		return nil, err
	}
	rows, err := s.queryMaps(ctx, `SELECT * FROM `+table+` ORDER BY "date" DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	out := make([]ledger.Transaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, ledger.FromRecord(row))
	}
	return out, nil
}

func (s *Store) ListAttendance(ctx context.Context) ([]attendance.Entry, error) {
	rows, err := s.queryMaps(ctx, `SELECT * FROM attendance ORDER BY "date" DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	out := make([]attendance.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, attendance.FromRecord(row))
	}
	return out, nil
}

func (s *Store) LoadSettings(ctx context.Context) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT "key", "value" FROM app_settings`)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	defer rows.Close()

	out := map[string][]string{}
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, err
		}
		values, err := settings.Decode(raw)
		if err != nil {
			slog.Warn("skipping unreadable setting", "key", key, "err", err)
			continue
		}
		out[key] = values
	}
	return out, rows.Err()
}

func (s *Store) CreateEmployee(ctx context.Context, emp core.Employee) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees ("id", "firstName", "lastName", "email", "department", "position",
			"baseSalary", "allowances", "gifts", "deductions", "salaryAdvance", "status", "joiningDate", "bankAccount")
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, emp.ID, emp.FirstName, emp.LastName, emp.Email, emp.Department, emp.Position,
		emp.BaseSalary.String(), emp.Allowances.String(), emp.Gifts.String(), emp.Deductions.String(),
		emp.SalaryAdvance.String(), emp.Status, nullable(emp.JoiningDate), emp.BankAccount)
	if isPrimaryKey(err) {
		return core.ErrDuplicateID
	}
	if isUnique(err) {
		return core.ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("create employee: %w", err)
	}
	return nil
}

func (s *Store) UpdateEmployee(ctx context.Context, emp core.Employee) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE employees SET "firstName" = ?, "lastName" = ?, "email" = ?, "department" = ?, "position" = ?,
			"baseSalary" = ?, "allowances" = ?, "gifts" = ?, "deductions" = ?, "salaryAdvance" = ?,
			"status" = ?, "joiningDate" = ?, "bankAccount" = ?
		WHERE "id" = ?
	`, emp.FirstName, emp.LastName, emp.Email, emp.Department, emp.Position,
		emp.BaseSalary.String(), emp.Allowances.String(), emp.Gifts.String(), emp.Deductions.String(),
		emp.SalaryAdvance.String(), emp.Status, nullable(emp.JoiningDate), emp.BankAccount, emp.ID)
	if isUnique(err) {
		return core.ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("update employee: %w", err)
	}
	return requireRow(res)
}

func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM employees WHERE "id" = ?`, id)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	return requireRow(res)
}

func (s *Store) IssueGrant(ctx context.Context, grant ledger.Grant) error {
	table, err := ledgerTable(grant.Kind)
	if err != nil {
		return err
	}
	tx := grant.Transaction
	return s.withTx(ctx, func(sqlTx *sql.Tx) error {
		if _, err := sqlTx.ExecContext(ctx, `
			INSERT INTO `+table+` ("id", "employeeId", "employeeName", "amount", "date", "reason")
			VALUES (?, ?, ?, ?, ?, ?)
		`, tx.ID, tx.EmployeeID, tx.EmployeeName, tx.Amount.String(), formatTime(tx.Date), tx.Reason); err != nil {
			if isForeignKey(err) {
				return core.ErrEmployeeNotFound
			}
			return fmt.Errorf("insert %s: %w", table, err)
		}
		res, err := sqlTx.ExecContext(ctx,
			`UPDATE employees SET "`+grant.Kind.Column()+`" = ? WHERE "id" = ?`,
			grant.NewTotal.String(), tx.EmployeeID)
		if err != nil {
			return fmt.Errorf("update accumulator: %w", err)
		}
		return requireRow(res)
	})
}

func (s *Store) CommitPayroll(ctx context.Context, records []payroll.Record) error {
	if len(records) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO payroll ("id", "employeeId", "month", "year", "grossPay", "netPay", "status", "processedDate")
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, rec := range records {
			_, err := stmt.ExecContext(ctx, rec.ID, rec.EmployeeID, rec.Month, rec.Year,
				rec.GrossPay.String(), rec.NetPay.String(), rec.Status, formatTime(rec.ProcessedDate))
			switch {
			case isUnique(err):
				return payroll.ErrPeriodConflict
			case isForeignKey(err):
				return core.ErrEmployeeNotFound
			case err != nil:
				return fmt.Errorf("insert payroll: %w", err)
			}
		}

		ids := payroll.EmployeeIDs(records)
		args := make([]any, len(ids))
		for i, id := range ids {
			args[i] = id
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
		if _, err := tx.ExecContext(ctx,
			`UPDATE employees SET "gifts" = '0', "salaryAdvance" = '0' WHERE "id" IN (`+placeholders+`)`,
			args...); err != nil {
			return fmt.Errorf("reset accumulators: %w", err)
		}
		return nil
	})
}

func (s *Store) InsertAttendance(ctx context.Context, entries []attendance.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO attendance ("id", "employeeId", "employeeName", "date", "checkIn", "checkOut", "status", "deviceSource")
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, e := range entries {
			var checkOut any
			if e.CheckOut != nil {
				checkOut = *e.CheckOut
			}
			if _, err := stmt.ExecContext(ctx, e.ID, e.EmployeeID, e.EmployeeName, e.Date,
				nullable(e.CheckIn), checkOut, e.Status, e.DeviceSource); err != nil {
				if isForeignKey(err) {
					return core.ErrEmployeeNotFound
				}
				return fmt.Errorf("insert attendance: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) SaveSetting(ctx context.Context, key string, values []string) error {
	if values == nil {
		values = []string{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO app_settings ("key", "value") VALUES (?, ?)
		ON CONFLICT ("key") DO UPDATE SET "value" = excluded."value"
	`, key, string(raw)); err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}
	return nil
}

func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.Warn("sqlite rollback failed", "err", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// queryMaps returns every row keyed by column name.
func (s *Store) queryMaps(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func ledgerTable(kind ledger.Kind) (string, error) {
	switch kind {
	case ledger.KindAdvance:
		return "advances", nil
	case ledger.KindBonus:
		return "bonuses", nil
	}
	return "", ledger.ErrInvalidKind
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrEmployeeNotFound
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func isUnique(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
}

func isPrimaryKey(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func isForeignKey(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}
