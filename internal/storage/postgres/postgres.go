// Package postgres is the pgx backed Store. Rows are collected as maps and
// decoded by the domain FromRecord functions, so column naming stays a
// concern of the schema alone.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"paystream/internal/domain/attendance"
	"paystream/internal/domain/core"
	"paystream/internal/domain/ledger"
	"paystream/internal/domain/payroll"
	"paystream/internal/domain/settings"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"

	employeeKeyConstraint = "employees_pkey"
	emailConstraint       = "employees_email_key"
	periodConstraint      = "payroll_period_unique"
)

// Querier is satisfied by both the pool and a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	DB *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{DB: pool}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.DB.Ping(ctx)
}

func (s *Store) Close() error {
	s.DB.Close()
	return nil
}

func (s *Store) ListEmployees(ctx context.Context) ([]core.Employee, error) {
	rows, err := queryMaps(ctx, s.DB, `SELECT * FROM employees ORDER BY created_at, id`)
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
	rows, err := queryMaps(ctx, s.DB, `SELECT * FROM payroll ORDER BY processed_date DESC, id`)
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
	rows, err := queryMaps(ctx, s.DB, `SELECT * FROM `+table+` ORDER BY date DESC, id`)
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
	rows, err := queryMaps(ctx, s.DB, `SELECT * FROM attendance ORDER BY date DESC, id`)
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
	rows, err := s.DB.Query(ctx, `SELECT key, value FROM app_settings`)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	defer rows.Close()

	out := map[string][]string{}
	for rows.Next() {
		var key string
		var raw []byte
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, err
		}
		values, err := settings.Decode(raw)
		if err != nil {
			slog.Warn("skipping unreadable setting", "key", key, "err", err)
			continue
		}
		if values == nil {
			values = []string{}
		}
		out[key] = values
	}
	return out, rows.Err()
}

func (s *Store) CreateEmployee(ctx context.Context, emp core.Employee) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO employees (id, first_name, last_name, email, department, position,
      base_salary, allowances, gifts, deductions, salary_advance, status, joining_date, bank_account)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
  `, emp.ID, emp.FirstName, emp.LastName, emp.Email, emp.Department, emp.Position,
		emp.BaseSalary, emp.Allowances, emp.Gifts, emp.Deductions, emp.SalaryAdvance,
		emp.Status, nullableDate(emp.JoiningDate), emp.BankAccount)
	if err != nil {
		return fmt.Errorf("create employee: %w", translate(err))
	}
	return nil
}

func (s *Store) UpdateEmployee(ctx context.Context, emp core.Employee) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE employees SET first_name = $2, last_name = $3, email = $4, department = $5, position = $6,
      base_salary = $7, allowances = $8, gifts = $9, deductions = $10, salary_advance = $11,
      status = $12, joining_date = $13, bank_account = $14
    WHERE id = $1
  `, emp.ID, emp.FirstName, emp.LastName, emp.Email, emp.Department, emp.Position,
		emp.BaseSalary, emp.Allowances, emp.Gifts, emp.Deductions, emp.SalaryAdvance,
		emp.Status, nullableDate(emp.JoiningDate), emp.BankAccount)
	if err != nil {
		return fmt.Errorf("update employee: %w", translate(err))
	}
	if tag.RowsAffected() == 0 {
		return core.ErrEmployeeNotFound
	}
	return nil
}

// DeleteEmployee relies on ON DELETE CASCADE for history, ledgers and
// attendance.
func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrEmployeeNotFound
	}
	return nil
}

func (s *Store) IssueGrant(ctx context.Context, grant ledger.Grant) error {
	table, err := ledgerTable(grant.Kind)
	if err != nil {
		return err
	}
	column := "salary_advance"
	if grant.Kind == ledger.KindBonus {
		column = "gifts"
	}
	t := grant.Transaction
	return s.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
      INSERT INTO `+table+` (id, employee_id, employee_name, amount, date, reason)
      VALUES ($1,$2,$3,$4,$5,$6)
    `, t.ID, t.EmployeeID, t.EmployeeName, t.Amount, t.Date, t.Reason); err != nil {
			return fmt.Errorf("insert %s: %w", table, translate(err))
		}
		tag, err := tx.Exec(ctx, `UPDATE employees SET `+column+` = $2 WHERE id = $1`, t.EmployeeID, grant.NewTotal)
		if err != nil {
			return fmt.Errorf("update accumulator: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return core.ErrEmployeeNotFound
		}
		return nil
	})
}

// CommitPayroll inserts the batch and zeroes the accumulators of every
// employee in it inside one transaction.
func (s *Store) CommitPayroll(ctx context.Context, records []payroll.Record) error {
	if len(records) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, rec := range records {
			batch.Queue(`
        INSERT INTO payroll (id, employee_id, month, year, gross_pay, net_pay, status, processed_date)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
      `, rec.ID, rec.EmployeeID, rec.Month, rec.Year, rec.GrossPay, rec.NetPay, rec.Status, rec.ProcessedDate)
		}
		results := tx.SendBatch(ctx, batch)
		for range records {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return fmt.Errorf("insert payroll: %w", translate(err))
			}
		}
		if err := results.Close(); err != nil {
			return fmt.Errorf("insert payroll: %w", translate(err))
		}

		if _, err := tx.Exec(ctx, `
      UPDATE employees SET gifts = 0, salary_advance = 0 WHERE id = ANY($1)
    `, payroll.EmployeeIDs(records)); err != nil {
			return fmt.Errorf("reset accumulators: %w", err)
		}
		return nil
	})
}

func (s *Store) InsertAttendance(ctx context.Context, entries []attendance.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []any{e.ID, e.EmployeeID, e.EmployeeName, nullableDate(e.Date), nullableText(e.CheckIn), e.CheckOut, e.Status, e.DeviceSource})
	}
	return s.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.CopyFrom(ctx, pgx.Identifier{"attendance"},
			[]string{"id", "employee_id", "employee_name", "date", "check_in", "check_out", "status", "device_source"},
			pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("insert attendance: %w", translate(err))
		}
		return nil
	})
}

func (s *Store) SaveSetting(ctx context.Context, key string, values []string) error {
	if values == nil {
		values = []string{}
	}
	if _, err := s.DB.Exec(ctx, `
    INSERT INTO app_settings (key, value, updated_at) VALUES ($1, $2, now())
    ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
  `, key, values); err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}
	return nil
}

func (s *Store) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			slog.Warn("postgres rollback failed", "err", rbErr)
		}
		return err
	}
	return tx.Commit(ctx)
}

func queryMaps(ctx context.Context, q Querier, sql string, args ...any) ([]map[string]any, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToMap)
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

// translate maps constraint violations onto domain errors and leaves
// everything else untouched.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case uniqueViolation:
		switch pgErr.ConstraintName {
		case periodConstraint:
			return payroll.ErrPeriodConflict
		case emailConstraint:
			return core.ErrDuplicateEmail
		case employeeKeyConstraint:
			return core.ErrDuplicateID
		}
	case foreignKeyViolation:
		return core.ErrEmployeeNotFound
	}
	return err
}

// nullableDate sends calendar dates as time values so both the extended
// protocol and COPY can encode them.
func nullableDate(s string) any {
	if s == "" {
		return nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t
	}
	return s
}

func nullableText(s string) any {
	if s == "" {
		return nil
	}
	return s
}
