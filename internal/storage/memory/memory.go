// Package memory is an in-process Store used by tests and the demo driver.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"paystream/internal/domain/attendance"
	"paystream/internal/domain/core"
	"paystream/internal/domain/ledger"
	"paystream/internal/domain/payroll"
)

type Option func(*Store)

// WithoutPeriodUniqueness disables the (employee, month, year) check so
// repeated commits of one batch append duplicate history, the way a store
// without a uniqueness constraint behaves.
func WithoutPeriodUniqueness() Option {
	return func(s *Store) { s.periodUnique = false }
}

// WithFailure makes every write fail with err until cleared with
// SetFailure(nil).
func WithFailure(err error) Option {
	return func(s *Store) { s.fail = err }
}

type Store struct {
	mu           sync.RWMutex
	employees    []core.Employee
	payroll      []payroll.Record
	advances     []ledger.Transaction
	bonuses      []ledger.Transaction
	attendance   []attendance.Entry
	settings     map[string][]string
	periodUnique bool
	fail         error
}

func New(opts ...Option) *Store {
	s := &Store{
		settings:     map[string][]string{},
		periodUnique: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetFailure injects err into every subsequent write.
func (s *Store) SetFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

func (s *Store) ListEmployees(_ context.Context) ([]core.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.employees), nil
}

func (s *Store) ListPayroll(_ context.Context) ([]payroll.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Clone(s.payroll)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ProcessedDate.After(out[j].ProcessedDate)
	})
	return out, nil
}

func (s *Store) ListTransactions(_ context.Context, kind ledger.Kind) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Clone(s.transactions(kind))
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (s *Store) ListAttendance(_ context.Context) ([]attendance.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Clone(s.attendance)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	return out, nil
}

func (s *Store) LoadSettings(_ context.Context) (map[string][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]string, len(s.settings))
	for k, v := range s.settings {
		out[k] = slices.Clone(v)
	}
	return out, nil
}

func (s *Store) CreateEmployee(_ context.Context, emp core.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	for _, existing := range s.employees {
		if existing.ID == emp.ID {
			return core.ErrDuplicateID
		}
		if strings.EqualFold(existing.Email, emp.Email) {
			return core.ErrDuplicateEmail
		}
	}
	s.employees = append(s.employees, emp)
	return nil
}

func (s *Store) UpdateEmployee(_ context.Context, emp core.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	i := s.indexOf(emp.ID)
	if i < 0 {
		return core.ErrEmployeeNotFound
	}
	for j, existing := range s.employees {
		if j != i && strings.EqualFold(existing.Email, emp.Email) {
			return core.ErrDuplicateEmail
		}
	}
	s.employees[i] = emp
	return nil
}

func (s *Store) DeleteEmployee(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	i := s.indexOf(id)
	if i < 0 {
		return core.ErrEmployeeNotFound
	}
	s.employees = slices.Delete(s.employees, i, i+1)
	s.payroll = slices.DeleteFunc(s.payroll, func(r payroll.Record) bool { return r.EmployeeID == id })
	s.advances = slices.DeleteFunc(s.advances, func(t ledger.Transaction) bool { return t.EmployeeID == id })
	s.bonuses = slices.DeleteFunc(s.bonuses, func(t ledger.Transaction) bool { return t.EmployeeID == id })
	s.attendance = slices.DeleteFunc(s.attendance, func(e attendance.Entry) bool { return e.EmployeeID == id })
	return nil
}

func (s *Store) IssueGrant(_ context.Context, grant ledger.Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	i := s.indexOf(grant.Transaction.EmployeeID)
	if i < 0 {
		return core.ErrEmployeeNotFound
	}
	if grant.Kind == ledger.KindBonus {
		s.bonuses = append(s.bonuses, grant.Transaction)
	} else {
		s.advances = append(s.advances, grant.Transaction)
	}
	s.employees[i] = grant.Kind.Apply(s.employees[i], grant.NewTotal)
	return nil
}

func (s *Store) CommitPayroll(_ context.Context, records []payroll.Record) error {
	if len(records) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	for i, rec := range records {
		if s.indexOf(rec.EmployeeID) < 0 {
			return core.ErrEmployeeNotFound
		}
		if !s.periodUnique {
			continue
		}
		for _, existing := range s.payroll {
			if existing.EmployeeID == rec.EmployeeID && existing.InPeriod(rec.Month, rec.Year) {
				return payroll.ErrPeriodConflict
			}
		}
		for _, other := range records[:i] {
			if other.EmployeeID == rec.EmployeeID && other.InPeriod(rec.Month, rec.Year) {
				return payroll.ErrPeriodConflict
			}
		}
	}

	s.payroll = append(s.payroll, records...)
	for _, id := range payroll.EmployeeIDs(records) {
		i := s.indexOf(id)
		s.employees[i].Gifts = decimal.Zero
		s.employees[i].SalaryAdvance = decimal.Zero
	}
	return nil
}

func (s *Store) InsertAttendance(_ context.Context, entries []attendance.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	for _, entry := range entries {
		if s.indexOf(entry.EmployeeID) < 0 {
			return core.ErrEmployeeNotFound
		}
	}
	s.attendance = append(s.attendance, entries...)
	return nil
}

func (s *Store) SaveSetting(_ context.Context, key string, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.settings[key] = slices.Clone(values)
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	return nil
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.employees, func(e core.Employee) bool { return e.ID == id })
}

func (s *Store) transactions(kind ledger.Kind) []ledger.Transaction {
	if kind == ledger.KindBonus {
		return s.bonuses
	}
	return s.advances
}
