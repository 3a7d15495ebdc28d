// Package controller owns the in-memory roster and every history collection.
// Screens and handlers read copies through accessors and change state only
// through the intent methods, each of which writes through the store first
// and updates memory only after the store has accepted the change.
package controller

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"paystream/internal/domain/attendance"
	"paystream/internal/domain/core"
	"paystream/internal/domain/ledger"
	"paystream/internal/domain/payroll"
	"paystream/internal/domain/payslip"
	"paystream/internal/domain/reports"
	"paystream/internal/domain/settings"
	"paystream/internal/platform/jobs"
	"paystream/internal/platform/metrics"
	"paystream/internal/requestctx"
	"paystream/internal/storage"
)

type Options struct {
	Currency     string
	DeviceSource string
	Archive      *payslip.Archive
	Jobs         *jobs.Service
	Metrics      *metrics.Collector
	Now          func() time.Time
}

type Controller struct {
	store storage.Store
	opts  Options

	mu         sync.RWMutex
	loaded     bool
	employees  []core.Employee
	history    []payroll.Record
	advances   []ledger.Transaction
	bonuses    []ledger.Transaction
	attendance []attendance.Entry
	settings   settings.Settings
}

func New(store storage.Store, opts Options) *Controller {
	if opts.Currency == "" {
		opts.Currency = payslip.DefaultCurrency
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		store:    store,
		opts:     opts,
		settings: settings.Defaults(),
	}
}

// Load fetches every collection in parallel and replaces the in-memory
// state. Nothing is replaced if any fetch fails.
func (c *Controller) Load(ctx context.Context) error {
	var (
		employees  []core.Employee
		history    []payroll.Record
		advances   []ledger.Transaction
		bonuses    []ledger.Transaction
		entries    []attendance.Entry
		storedSets map[string][]string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		employees, err = c.store.ListEmployees(gctx)
		return err
	})
	g.Go(func() (err error) {
		history, err = c.store.ListPayroll(gctx)
		return err
	})
	g.Go(func() (err error) {
		advances, err = c.store.ListTransactions(gctx, ledger.KindAdvance)
		return err
	})
	g.Go(func() (err error) {
		bonuses, err = c.store.ListTransactions(gctx, ledger.KindBonus)
		return err
	})
	g.Go(func() (err error) {
		entries, err = c.store.ListAttendance(gctx)
		return err
	})
	g.Go(func() (err error) {
		storedSets, err = c.store.LoadSettings(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.employees = employees
	c.history = history
	c.advances = advances
	c.bonuses = bonuses
	c.attendance = entries
	c.settings = settings.Merge(storedSets)
	c.loaded = true
	slog.Info("state loaded",
		"employees", len(employees),
		"payroll", len(history),
		"advances", len(advances),
		"bonuses", len(bonuses),
		"attendance", len(entries))
	return nil
}

// Reload runs Load as a background job body and reports the roster size.
func (c *Controller) Reload(ctx context.Context) (any, error) {
	if err := c.Load(ctx); err != nil {
		return nil, err
	}
	return map[string]int{"employees": len(c.Employees())}, nil
}

// Loaded reports whether Load has completed at least once.
func (c *Controller) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

func (c *Controller) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

func (c *Controller) Employees() []core.Employee {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.employees)
}

func (c *Controller) Employee(id string) (core.Employee, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	emp, ok := core.Find(c.employees, id)
	if !ok {
		return core.Employee{}, core.ErrEmployeeNotFound
	}
	return emp, nil
}

// History returns committed payroll records, newest first.
func (c *Controller) History() []payroll.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.history)
}

func (c *Controller) Transactions(kind ledger.Kind) []ledger.Transaction {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if kind == ledger.KindBonus {
		return slices.Clone(c.bonuses)
	}
	return slices.Clone(c.advances)
}

func (c *Controller) Attendance() []attendance.Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.attendance)
}

func (c *Controller) Settings() settings.Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return settings.Settings{
		Departments: slices.Clone(c.settings.Departments),
		Positions:   slices.Clone(c.settings.Positions),
	}
}

func (c *Controller) Dashboard() reports.Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return reports.Summarize(c.employees, c.history)
}

// Register joins the payroll history with the roster for export.
func (c *Controller) Register() []payroll.RegisterRow {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return payroll.Register(c.history, c.employees)
}

// CreateEmployee hires emp with a fresh id, Active status and empty
// accumulators.
func (c *Controller) CreateEmployee(ctx context.Context, emp core.Employee) (core.Employee, error) {
	emp = core.PrepareNew(emp, c.opts.Now())
	emp.Gifts = decimal.Zero
	emp.SalaryAdvance = decimal.Zero

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.CreateEmployee(ctx, emp); err != nil {
		return core.Employee{}, err
	}
	c.employees = append(c.employees, emp)
	return emp, nil
}

// UpdateEmployee applies the editable fields of patch to the employee with
// the given id.
func (c *Controller) UpdateEmployee(ctx context.Context, id string, patch core.Employee) (core.Employee, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return core.Employee{}, core.ErrEmployeeNotFound
	}
	next := core.ApplyUpdate(c.employees[i], patch)
	if err := c.store.UpdateEmployee(ctx, next); err != nil {
		return core.Employee{}, err
	}
	c.employees[i] = next
	return next, nil
}

// SaveEmployee updates emp when its id is on the roster and creates it
// otherwise.
func (c *Controller) SaveEmployee(ctx context.Context, emp core.Employee) (core.Employee, error) {
	if emp.ID != "" {
		if _, err := c.Employee(emp.ID); err == nil {
			return c.UpdateEmployee(ctx, emp.ID, emp)
		}
	}
	return c.CreateEmployee(ctx, emp)
}

// DeleteEmployee removes the employee and, mirroring the store cascade,
// every history, ledger and attendance row that refers to them.
func (c *Controller) DeleteEmployee(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return core.ErrEmployeeNotFound
	}
	if err := c.store.DeleteEmployee(ctx, id); err != nil {
		return err
	}
	c.employees = slices.Delete(c.employees, i, i+1)
	c.history = slices.DeleteFunc(c.history, func(r payroll.Record) bool { return r.EmployeeID == id })
	c.advances = slices.DeleteFunc(c.advances, func(t ledger.Transaction) bool { return t.EmployeeID == id })
	c.bonuses = slices.DeleteFunc(c.bonuses, func(t ledger.Transaction) bool { return t.EmployeeID == id })
	c.attendance = slices.DeleteFunc(c.attendance, func(e attendance.Entry) bool { return e.EmployeeID == id })
	return nil
}

// IssueAdvance records an advance and raises the employee's salaryAdvance
// by amount. An empty employee id or a zero amount does nothing.
func (c *Controller) IssueAdvance(ctx context.Context, employeeID string, amount decimal.Decimal, reason string) (ledger.Transaction, error) {
	return c.issue(ctx, ledger.KindAdvance, employeeID, amount, reason)
}

// IssueBonus records a bonus and raises the employee's gifts by amount.
// An empty employee id or a zero amount does nothing.
func (c *Controller) IssueBonus(ctx context.Context, employeeID string, amount decimal.Decimal, reason string) (ledger.Transaction, error) {
	return c.issue(ctx, ledger.KindBonus, employeeID, amount, reason)
}

func (c *Controller) issue(ctx context.Context, kind ledger.Kind, employeeID string, amount decimal.Decimal, reason string) (ledger.Transaction, error) {
	if employeeID == "" || amount.IsZero() {
		return ledger.Transaction{}, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(employeeID)
	if i < 0 {
		return ledger.Transaction{}, core.ErrEmployeeNotFound
	}
	grant, err := ledger.NewGrant(kind, c.employees[i], amount, reason, c.opts.Now())
	if err != nil {
		return ledger.Transaction{}, err
	}
	if err := c.store.IssueGrant(ctx, grant); err != nil {
		return ledger.Transaction{}, err
	}

	c.employees[i] = kind.Apply(c.employees[i], grant.NewTotal)
	if kind == ledger.KindBonus {
		c.bonuses = slices.Insert(c.bonuses, 0, grant.Transaction)
	} else {
		c.advances = slices.Insert(c.advances, 0, grant.Transaction)
	}
	if c.opts.Metrics != nil {
		c.opts.Metrics.RecordGrant()
	}
	return grant.Transaction, nil
}

// PreviewPayroll reconciles the roster against history for one period and
// computes drafts for the pending employees matching term.
func (c *Controller) PreviewPayroll(month string, year int, term string) (payroll.Run, error) {
	month, err := payroll.NormalizeMonth(month)
	if err != nil {
		return payroll.Run{}, err
	}
	if err := payroll.ValidateYear(year); err != nil {
		return payroll.Run{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return payroll.Preview(c.employees, c.history, month, year, term, c.opts.Now()), nil
}

// ProcessPeriod previews the period and commits the resulting drafts.
func (c *Controller) ProcessPeriod(ctx context.Context, month string, year int, term string) ([]payroll.Record, error) {
	run, err := c.PreviewPayroll(month, year, term)
	if err != nil {
		return nil, err
	}
	return c.CommitPayroll(ctx, run.Drafts)
}

// CommitPayroll stores drafts as one batch and zeroes the accumulators of
// every employee in it. Drafts for unknown employees or for a period that
// is already processed are rejected before anything is written. An empty
// batch is a no-op.
func (c *Controller) CommitPayroll(ctx context.Context, drafts []payroll.Record) ([]payroll.Record, error) {
	if len(drafts) == 0 {
		return nil, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := make([]core.Employee, 0, len(drafts))
	for i, draft := range drafts {
		emp, ok := core.Find(c.employees, draft.EmployeeID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", core.ErrEmployeeNotFound, draft.EmployeeID)
		}
		if payroll.IsProcessed(emp, c.history, draft.Month, draft.Year) {
			return nil, fmt.Errorf("%w: %s %s %d", payroll.ErrPeriodConflict, emp.ID, draft.Month, draft.Year)
		}
		for _, earlier := range drafts[:i] {
			if earlier.EmployeeID == draft.EmployeeID && earlier.InPeriod(draft.Month, draft.Year) {
				return nil, fmt.Errorf("%w: %s appears twice", payroll.ErrPeriodConflict, emp.ID)
			}
		}
		snapshot = append(snapshot, emp)
	}

	records := payroll.Finalize(drafts, c.opts.Now())
	if err := c.store.CommitPayroll(ctx, records); err != nil {
		return nil, err
	}

	c.history = append(slices.Clone(records), c.history...)
	for _, id := range payroll.EmployeeIDs(records) {
		i := c.indexOf(id)
		c.employees[i].Gifts = decimal.Zero
		c.employees[i].SalaryAdvance = decimal.Zero
	}
	if c.opts.Metrics != nil {
		c.opts.Metrics.RecordCommit(len(records))
	}
	c.archive(snapshot, records)
	requestctx.Logger(ctx).Info("payroll committed", "records", len(records), "month", records[0].Month, "year", records[0].Year)
	return records, nil
}

// archive renders payslips from the pre-commit snapshot so that advances
// and bonuses settled by the run still appear on them.
func (c *Controller) archive(snapshot []core.Employee, records []payroll.Record) {
	if c.opts.Archive == nil {
		return
	}
	statements := make([]payslip.Statement, 0, len(records))
	for i, rec := range records {
		statements = append(statements, payslip.Build(snapshot[i], rec.Month, rec.Year, c.opts.Currency))
	}
	run := func(context.Context) (any, error) {
		saved := 0
		for _, st := range statements {
			if _, err := c.opts.Archive.Save(st); err != nil {
				return map[string]any{"saved": saved}, fmt.Errorf("archive payslip %s: %w", st.EmployeeID, err)
			}
			saved++
		}
		return map[string]any{"saved": saved}, nil
	}
	if c.opts.Jobs != nil {
		c.opts.Jobs.Enqueue(jobs.JobPayslipArchive, run)
		return
	}
	if _, err := run(context.Background()); err != nil {
		slog.Warn("payslip archive failed", "err", err)
	}
}

// Payslip builds the statement for one employee and period from the
// employee's current figures.
func (c *Controller) Payslip(employeeID, month string, year int) (payslip.Statement, error) {
	month, err := payroll.NormalizeMonth(month)
	if err != nil {
		return payslip.Statement{}, err
	}
	if err := payroll.ValidateYear(year); err != nil {
		return payslip.Statement{}, err
	}
	emp, err := c.Employee(employeeID)
	if err != nil {
		return payslip.Statement{}, err
	}
	return payslip.Build(emp, month, year, c.opts.Currency), nil
}

// ArchivedPayslip returns the PDF written when the period was committed.
// It reports os.ErrNotExist when no archive is configured.
func (c *Controller) ArchivedPayslip(employeeID, month string, year int) ([]byte, error) {
	if c.opts.Archive == nil {
		return nil, os.ErrNotExist
	}
	month, err := payroll.NormalizeMonth(month)
	if err != nil {
		return nil, err
	}
	return c.opts.Archive.Load(employeeID, month, year)
}

// ImportAttendance parses a device export, CSV text or an xlsx workbook,
// and stores the entries that match an employee.
func (c *Controller) ImportAttendance(ctx context.Context, r io.Reader, workbook bool) ([]attendance.Entry, error) {
	roster := c.Employees()
	opts := attendance.Options{DeviceSource: c.opts.DeviceSource}

	var (
		entries []attendance.Entry
		err     error
	)
	if workbook {
		entries, err = attendance.ParseDeviceWorkbook(r, roster, opts)
	} else {
		entries, err = attendance.ParseDeviceLog(r, roster, opts)
	}
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return entries, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.InsertAttendance(ctx, entries); err != nil {
		return nil, err
	}
	c.attendance = append(slices.Clone(entries), c.attendance...)
	slices.SortStableFunc(c.attendance, func(a, b attendance.Entry) int {
		switch {
		case a.Date > b.Date:
			return -1
		case a.Date < b.Date:
			return 1
		}
		return 0
	})
	if c.opts.Metrics != nil {
		c.opts.Metrics.RecordImport(len(entries))
	}
	requestctx.Logger(ctx).Info("attendance imported", "entries", len(entries))
	return entries, nil
}

func (c *Controller) AddDepartment(ctx context.Context, name string) ([]string, error) {
	return c.AddSetting(ctx, settings.KeyDepartments, name)
}

func (c *Controller) RemoveDepartment(ctx context.Context, name string) ([]string, error) {
	return c.RemoveSetting(ctx, settings.KeyDepartments, name)
}

func (c *Controller) AddPosition(ctx context.Context, name string) ([]string, error) {
	return c.AddSetting(ctx, settings.KeyPositions, name)
}

func (c *Controller) RemovePosition(ctx context.Context, name string) ([]string, error) {
	return c.RemoveSetting(ctx, settings.KeyPositions, name)
}

// AddSetting appends value to the list under key. Blank and duplicate
// values leave the list untouched.
func (c *Controller) AddSetting(ctx context.Context, key, value string) ([]string, error) {
	return c.changeSetting(ctx, key, func(list []string) ([]string, bool) {
		return settings.Add(list, value)
	})
}

// RemoveSetting drops value from the list under key. Removing an unknown
// value is a no-op.
func (c *Controller) RemoveSetting(ctx context.Context, key, value string) ([]string, error) {
	return c.changeSetting(ctx, key, func(list []string) ([]string, bool) {
		return settings.Remove(list, value)
	})
}

func (c *Controller) changeSetting(ctx context.Context, key string, change func([]string) ([]string, bool)) ([]string, error) {
	if !settings.ValidKey(key) {
		return nil, settings.ErrUnknownKey
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	next, changed := change(c.settings.List(key))
	if !changed {
		return c.settings.List(key), nil
	}
	if err := c.store.SaveSetting(ctx, key, next); err != nil {
		return nil, err
	}
	c.settings = c.settings.With(key, next)
	return slices.Clone(next), nil
}

func (c *Controller) indexOf(id string) int {
	return slices.IndexFunc(c.employees, func(e core.Employee) bool { return e.ID == id })
}
